// Package driver is the host-facing surface of the front-end: a
// registry of sources and preloads, and the pipeline that turns
// requested module paths into a validated module graph plus a
// deterministic diagnostic stream.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/parser"
	"obx/internal/preload"
	"obx/internal/sema"
	"obx/internal/source"
)

// ErrDuplicatePath marks a second AddFile under one module path.
var ErrDuplicatePath = errors.New("driver: duplicate module path")

// Options configure a Driver.
type Options struct {
	// Reporter additionally receives every diagnostic as it is found,
	// before the sorted batch of the run's Bag. Optional.
	Reporter diag.Reporter
	// MaxDiagnostics caps the diagnostics kept per run; 0 means 100.
	MaxDiagnostics int
	// WithStdlib admits the built-in preload libraries (In, Out, ...).
	WithStdlib bool
}

// Driver owns the source registry and runs the front-end.
type Driver struct {
	opts     Options
	fs       *source.FileSet
	units    map[string]source.FileID // module path -> source
	std      map[string]*ast.Module   // built-in preload libraries
	preloads map[string]*ast.Module
	modules  []*ast.Module
}

// Result of one ParseFiles run.
type Result struct {
	Bag     *diag.Bag
	Modules []*ast.Module
	OK      bool
}

// New creates a Driver.
func New(opts Options) (*Driver, error) {
	d := &Driver{opts: opts, std: make(map[string]*ast.Module)}
	if opts.WithStdlib {
		std, err := preload.Builtin()
		if err != nil {
			return nil, err
		}
		d.std = std
	}
	d.reset()
	return d, nil
}

func (d *Driver) reset() {
	d.fs = source.NewFileSet()
	d.units = make(map[string]source.FileID)
	d.preloads = make(map[string]*ast.Module, len(d.std))
	for name, mod := range d.std {
		d.preloads[name] = mod
	}
	d.modules = nil
}

// AddFile registers UTF-8 source bytes under a logical module path
// such as "M" or "Lib.M".
func (d *Driver) AddFile(path string, src []byte) error {
	key := normalizeModulePath(path)
	if _, exists := d.units[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, path)
	}
	d.units[key] = d.fs.AddVirtual(path, src)
	return nil
}

// AddPreload registers a predigested definition payload or a
// DEFINITION-module source under its canonical module name.
func (d *Driver) AddPreload(name string, data []byte) error {
	if preload.IsPayload(data) {
		p, err := preload.Decode(data)
		if err != nil {
			return err
		}
		mod, err := preload.Materialize(p)
		if err != nil {
			return err
		}
		d.preloads[name] = mod
		return nil
	}
	// Definition source form: parse it like any unit.
	bag := diag.NewBag(d.maxDiagnostics())
	file := d.fs.Get(d.fs.AddVirtual(name+".def", data))
	file.Flags |= source.FilePreload
	res := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() || res.Module == nil {
		return fmt.Errorf("driver: preload %s: parse error", name)
	}
	res.Module.IsDef = true
	d.preloads[name] = res.Module
	return nil
}

func (d *Driver) maxDiagnostics() int {
	if d.opts.MaxDiagnostics > 0 {
		return d.opts.MaxDiagnostics
	}
	return 100
}

// ParseFiles compiles the requested module paths and their import
// closure. Cancellation is observed between modules; the module being
// processed when the context fires is dropped whole.
func (d *Driver) ParseFiles(ctx context.Context, paths []string) (*Result, error) {
	bag := diag.NewBag(d.maxDiagnostics())
	var reporter diag.Reporter = diag.BagReporter{Bag: bag}
	if d.opts.Reporter != nil {
		reporter = diag.MultiReporter{reporter, d.opts.Reporter}
	}

	fetch := func(path []string) (*source.File, error) {
		id, ok := d.units[strings.Join(path, ".")]
		if !ok {
			return nil, fmt.Errorf("driver: no source for %s", strings.Join(path, "."))
		}
		return d.fs.Get(id), nil
	}

	graph := sema.NewGraph(fetch, d.preloads, reporter)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		graph.Request(strings.Split(normalizeModulePath(p), "."))
	}

	semaCtx := sema.NewContext()
	var validated []*ast.Module
	for _, mod := range graph.Order() {
		if err := sema.Check(ctx, mod, semaCtx, sema.Options{Reporter: reporter}); err != nil {
			// The in-progress module is discarded whole; everything
			// validated so far stays consistent.
			d.modules = validated
			return nil, err
		}
		validated = append(validated, mod)
	}
	d.modules = validated

	bag.Sort()
	return &Result{
		Bag:     bag,
		Modules: validated,
		OK:      !bag.HasErrors(),
	}, nil
}

// Modules returns the modules of the last run in reverse topological
// import order.
func (d *Driver) Modules() []*ast.Module {
	return d.modules
}

// FileSet exposes the sources for diagnostic rendering.
func (d *Driver) FileSet() *source.FileSet {
	return d.fs
}

// Clear drops all registered sources, non-standard preloads, and
// results.
func (d *Driver) Clear() {
	d.reset()
}

func normalizeModulePath(p string) string {
	p = strings.TrimSuffix(p, ".obx")
	p = strings.ReplaceAll(p, "/", ".")
	return strings.TrimSpace(p)
}
