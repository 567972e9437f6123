// Package project reads obx.toml manifests describing what a host
// wants compiled: the package name, its source files, and any extra
// predigested preload payloads.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the parsed obx.toml.
type Manifest struct {
	Name     string
	Root     string   // directory of the manifest file
	Sources  []string // source files, manifest-relative, sorted
	Preloads []string // payload files, manifest-relative
}

// ErrPackageSectionMissing indicates that [package] is missing.
var ErrPackageSectionMissing = errors.New("missing [package]")

type manifestFile struct {
	Package struct {
		Name    string   `toml:"name"`
		Sources []string `toml:"sources"`
	} `toml:"package"`
	Preload struct {
		Payloads []string `toml:"payloads"`
	} `toml:"preload"`
}

// Load parses the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	name := strings.TrimSpace(cfg.Package.Name)
	if name == "" {
		return nil, fmt.Errorf("%s: [package].name is required", path)
	}
	root := filepath.Dir(path)

	var sources []string
	for _, pattern := range cfg.Package.Sources {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("%s: bad sources pattern %q: %w", path, pattern, err)
		}
		sources = append(sources, matches...)
	}
	// Deterministic compile order regardless of glob expansion order.
	sort.Strings(sources)

	preloads := make([]string, 0, len(cfg.Preload.Payloads))
	for _, p := range cfg.Preload.Payloads {
		preloads = append(preloads, filepath.Join(root, filepath.FromSlash(p)))
	}

	return &Manifest{
		Name:     name,
		Root:     root,
		Sources:  sources,
		Preloads: preloads,
	}, nil
}
