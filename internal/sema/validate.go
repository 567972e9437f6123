package sema

import (
	"obx/internal/ast"
	"obx/internal/diag"
)

// visibility rank for the override monotonicity check.
func visRank(v ast.Visibility) int {
	switch v {
	case ast.ReadWrite:
		return 2
	case ast.ReadOnly:
		return 1
	}
	return 0
}

// validateModule runs the last-pass cross-cutting checks: definite
// return, override compatibility, and unused imports.
func (c *Checker) validateModule() {
	c.validateScope(&c.mod.Scope)
	for _, imp := range c.mod.Imports {
		if !imp.UsedFromLive && !imp.Synthetic {
			diag.Warning(c.reporter, diag.ValUnusedImport, imp.Span(),
				"module "+imp.Name+" is imported but never used")
		}
	}
}

func (c *Checker) validateScope(s *ast.Scope) {
	for _, e := range s.Order {
		p, ok := e.(*ast.Procedure)
		if !ok {
			continue
		}
		c.validateProcedure(p)
		c.validateScope(&p.Scope)
	}
}

func (c *Checker) validateProcedure(p *ast.Procedure) {
	pt := p.ProcType()
	if pt == nil {
		return
	}
	if p.Super != nil {
		c.validateOverride(p)
	}
	if pt.Return != nil && !p.HasErrors && !c.mod.IsDef {
		if !stmtsReturn(p.Scope.Body) {
			diag.Error(c.reporter, diag.ValMissingReturn, p.Span(),
				p.Name+" must return a value on every path")
		}
	}
}

// validateOverride enforces the method-override contract: same arity,
// identical parameter types (receiver excepted), identical return, and
// visibility that never narrows.
func (c *Checker) validateOverride(p *ast.Procedure) {
	super := p.Super
	pt, st := p.ProcType(), super.ProcType()
	if pt == nil || st == nil {
		return
	}
	if !procTypeMatch(pt, st) {
		diag.Error(c.reporter, diag.ValOverrideSignature, p.Span(),
			p.Name+" does not match the signature it overrides")
		return
	}
	if visRank(p.Visibility) < visRank(super.Visibility) {
		diag.Error(c.reporter, diag.ValOverrideVisibility, p.Span(),
			p.Name+" narrows the visibility of the method it overrides")
	}
}

// stmtsReturn reports whether every control path through the sequence
// reaches a RETURN.
func stmtsReturn(stmts []ast.Statement) bool {
	for _, s := range stmts {
		if stmtReturns(s) {
			return true
		}
	}
	return false
}

func stmtReturns(s ast.Statement) bool {
	switch x := s.(type) {
	case *ast.Return:
		return true
	case *ast.IfLoop:
		switch x.Op {
		case ast.OpIf, ast.OpWith:
			if len(x.Else) == 0 {
				return false
			}
			for _, branch := range x.Then {
				if !stmtsReturn(branch) {
					return false
				}
			}
			return stmtsReturn(x.Else)
		case ast.OpRepeat:
			return len(x.Then) > 0 && stmtsReturn(x.Then[0])
		case ast.OpLoop:
			// a LOOP leaves only via EXIT or RETURN; without an EXIT it
			// cannot fall through
			return len(x.Then) > 0 && !containsExit(x.Then[0])
		}
		return false
	case *ast.CaseStmt:
		if !x.HasElse {
			return false
		}
		for _, arm := range x.Cases {
			if !stmtsReturn(arm.Block) {
				return false
			}
		}
		return stmtsReturn(x.Else)
	}
	return false
}

// containsExit reports whether the sequence has an EXIT that is not
// nested inside a deeper LOOP.
func containsExit(stmts []ast.Statement) bool {
	for _, s := range stmts {
		switch x := s.(type) {
		case *ast.Exit:
			return true
		case *ast.IfLoop:
			if x.Op == ast.OpLoop {
				continue // its EXITs belong to the inner loop
			}
			for _, branch := range x.Then {
				if containsExit(branch) {
					return true
				}
			}
			if containsExit(x.Else) {
				return true
			}
		case *ast.ForLoop:
			if containsExit(x.Do) {
				return true
			}
		case *ast.CaseStmt:
			for _, arm := range x.Cases {
				if containsExit(arm.Block) {
					return true
				}
			}
			if containsExit(x.Else) {
				return true
			}
		}
	}
	return false
}
