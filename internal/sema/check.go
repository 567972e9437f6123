package sema

import (
	"context"

	"obx/internal/ast"
	"obx/internal/diag"
)

// DefaultMaxExtension caps record extension chains.
const DefaultMaxExtension = 16

// Options configure the semantic pass over one module.
type Options struct {
	Reporter     diag.Reporter
	MaxExtension int
}

// Context carries state shared by all modules of one front-end run,
// most importantly the generic instantiation memo.
type Context struct {
	insts map[*ast.NamedType]map[string]ast.Type
}

func NewContext() *Context {
	return &Context{insts: make(map[*ast.NamedType]map[string]ast.Type)}
}

// Checker runs the resolver, the expression/statement checker, and the
// validator over one module. Modules must be checked in reverse
// topological import order.
type Checker struct {
	reporter diag.Reporter
	universe *Universe
	ctx      *Context
	cancel   context.Context
	mod      *ast.Module
	maxExt   int

	resolved map[*ast.NamedType]uint8 // 0 unseen, 1 resolving, 2 done
	instantiating map[string]bool

	// narrow overlays entity types inside WITH branches and type-case
	// arms.
	narrow map[ast.Entity]ast.Type

	proc      *ast.Procedure // current procedure, nil in module body
	loopDepth int
	forVars   map[ast.Entity]bool
}

// errorSticky marks the module broken on every error-severity report.
type errorSticky struct {
	inner diag.Reporter
	mod   *ast.Module
}

func (r errorSticky) Report(d diag.Diagnostic) {
	if d.Severity >= diag.SevError {
		r.mod.HasErrors = true
	}
	if r.inner != nil {
		r.inner.Report(d)
	}
}

// Check resolves and checks mod. Imports must already be checked.
// Cancellation is observed between passes and between top-level
// statements; a cancelled module is left unvalidated so the caller can
// drop it whole.
func Check(ctx context.Context, mod *ast.Module, shared *Context, opts Options) error {
	if mod == nil || mod.IsValidated {
		return nil
	}
	maxExt := opts.MaxExtension
	if maxExt <= 0 {
		maxExt = DefaultMaxExtension
	}
	if shared == nil {
		shared = NewContext()
	}
	c := &Checker{
		reporter:      errorSticky{inner: opts.Reporter, mod: mod},
		universe:      NewUniverse(),
		ctx:           shared,
		cancel:        ctx,
		mod:           mod,
		maxExt:        maxExt,
		resolved:      make(map[*ast.NamedType]uint8),
		instantiating: make(map[string]bool),
		narrow:        make(map[ast.Entity]ast.Type),
		forVars:       make(map[ast.Entity]bool),
	}
	c.checkImports()
	c.resolveModule()
	if err := ctx.Err(); err != nil {
		return err
	}
	c.checkScopeBodies(&mod.Scope)
	if err := ctx.Err(); err != nil {
		return err
	}
	c.validateModule()
	mod.IsValidated = true
	return nil
}

// checkImports reports broken imports; a module whose import failed to
// load or was itself broken cannot use its exports.
func (c *Checker) checkImports() {
	for _, imp := range c.mod.Imports {
		if imp.Mod == nil {
			continue // module-not-found already reported
		}
		if imp.Mod.HasErrors {
			diag.Error(c.reporter, diag.SemImportBroken, imp.Span(),
				"imported module "+imp.Mod.Name+" has errors")
		}
	}
}

// checkScopeBodies checks the bodies of procedures declared in scope,
// then the scope's own body, in source order.
func (c *Checker) checkScopeBodies(s *ast.Scope) {
	for _, e := range s.Order {
		if p, ok := e.(*ast.Procedure); ok {
			prev := c.proc
			c.proc = p
			c.checkScopeBodies(&p.Scope)
			c.proc = prev
		}
	}
	prevLoop := c.loopDepth
	c.loopDepth = 0
	for _, stmt := range s.Body {
		if c.cancel.Err() != nil {
			break
		}
		c.checkStmt(stmt, s)
	}
	c.loopDepth = prevLoop
}
