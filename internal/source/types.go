package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks a file added from memory (host registry, test, stdin).
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM marks a file whose leading UTF-8 BOM was stripped.
	FileHadBOM
	// FileNormalizedCRLF marks a file whose CRLF line endings were rewritten.
	FileNormalizedCRLF
	// FilePreload marks a predigested definition unit admitted without source.
	FilePreload
)

// File captures metadata and content for a single source unit.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Flags   FileFlags
}

// LineCol is a human-readable position in a source file, both 1-based.
type LineCol struct {
	Line uint32
	Col  uint32
}
