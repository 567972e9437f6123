package source

import (
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet manages a collection of source units and resolves spans to
// line/column positions. It is the only owner of file contents; every
// other component refers to files by FileID.
type FileSet struct {
	files []File
	index map[string]FileID
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores normalized content under path, computes the line index,
// and returns a fresh FileID. Adding the same path twice replaces the
// index entry but keeps the older file reachable by ID.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	normalized := normalizePath(path)
	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(lenFiles)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	})
	fs.index[normalized] = id
	return id
}

// AddVirtual adds an in-memory file, normalizing BOM and CRLF first.
func (fs *FileSet) AddVirtual(path string, content []byte) FileID {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	flags := FileVirtual
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags)
}

// Load reads a file from disk, normalizes it, and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path comes from the host
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	var flags FileFlags
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// Get returns the file for the given ID.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// GetByPath returns the latest file added under path.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fs.index[normalizePath(path)]; ok {
		return &fs.files[id], true
	}
	return nil, false
}

// Has reports whether a file was added under path.
func (fs *FileSet) Has(path string) bool {
	_, ok := fs.index[normalizePath(path)]
	return ok
}

// Len returns the number of files in the set.
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Resolve converts a span into start/end line-column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// PathOf returns the path of the file with the given ID.
func (fs *FileSet) PathOf(id FileID) string {
	return fs.files[id].Path
}

// Line returns the 1-based line lineNum of file f without the trailing
// newline, or "" when the line does not exist.
func (f *File) Line(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	lenIdx, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index overflow: %w", err))
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	var start uint32
	switch {
	case lineNum == 1:
		start = 0
	case lineNum-2 < lenIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	end := lenContent
	if lineNum-1 < lenIdx {
		end = f.LineIdx[lineNum-1]
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}
