package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// listSourceFiles returns the sorted list of *.obx files under dir.
func listSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".obx") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Deterministic registration order.
	sort.Strings(files)
	return files, nil
}

// LoadDir reads every *.obx file under dir concurrently and registers
// it under the module path derived from its location. Registration
// order is deterministic regardless of read completion order. It
// returns the module paths in registration order.
func (d *Driver) LoadDir(ctx context.Context, dir string, jobs int) ([]string, error) {
	files, err := listSourceFiles(dir)
	if err != nil {
		return nil, err
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	contents := make([][]byte, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// #nosec G304 -- paths come from the walked directory
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))
	for i, path := range files {
		modPath := modulePathFor(dir, path)
		if err := d.AddFile(modPath, contents[i]); err != nil {
			return nil, err
		}
		paths = append(paths, modPath)
	}
	return paths, nil
}

// LoadFiles reads the given source files concurrently and registers
// each under its base name.
func (d *Driver) LoadFiles(ctx context.Context, files []string, jobs int) ([]string, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	contents := make([][]byte, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// #nosec G304 -- paths come from the host
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for i, path := range files {
		modPath := strings.TrimSuffix(filepath.Base(path), ".obx")
		if err := d.AddFile(modPath, contents[i]); err != nil {
			return nil, err
		}
		paths = append(paths, modPath)
	}
	return paths, nil
}

// modulePathFor maps dir/a/b/M.obx to the module path a.b.M.
func modulePathFor(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, ".obx")
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
}
