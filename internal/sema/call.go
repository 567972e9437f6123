package sema

import (
	"strconv"

	"obx/internal/ast"
	"obx/internal/diag"
)

// checkCall types a parenthesized form that the parser tagged as a
// call: an intrinsic invocation, a procedure call, or a type guard,
// which is reclassified here.
func (c *Checker) checkCall(x *ast.ArgExpr, s *ast.Scope) ast.Type {
	calleeType := c.checkExpr(x.Sub, s)
	ident := ast.IdentOf(x.Sub)

	if bi, ok := ident.(*ast.BuiltIn); ok {
		c.markCallRole(x.Sub)
		return c.checkBuiltIn(bi, x, s)
	}

	pt, isProc := deref(calleeType).(*ast.ProcType)
	if !isProc {
		// v(T) with a single type operand is a guard, not a call.
		if recordOf(calleeType) != nil && len(x.Args) == 1 {
			if c.typeOperand(x.Args[0], s) != nil {
				x.Op = ast.ArgCast
				return c.checkGuard(x, s)
			}
		}
		if deref(calleeType) != ast.ErrorType {
			diag.Error(c.reporter, diag.SemNotAProcedure, x.Sub.Span(),
				"called object is not a procedure")
		}
		for _, a := range x.Args {
			c.checkExpr(a, s)
		}
		return ast.ErrorType
	}

	c.markCallRole(x.Sub)

	// Bound calls check the receiver against the method's record.
	if sel, ok := x.Sub.(*ast.IdentSel); ok {
		if m, ok := sel.Ident.(*ast.Procedure); ok && m.ReceiverRec != nil {
			c.checkReceiverActual(sel, m)
		}
	}

	if len(x.Args) != len(pt.Formals) {
		diag.Error(c.reporter, diag.SemArityMismatch, x.Span(),
			"call passes "+strconv.Itoa(len(x.Args))+
				" arguments, procedure takes "+strconv.Itoa(len(pt.Formals)))
		for _, a := range x.Args {
			c.checkExpr(a, s)
		}
	} else {
		for i, a := range x.Args {
			c.checkActual(pt.Formals[i], a, s)
		}
	}

	if pt.Return == nil {
		return ast.VoidType
	}
	return pt.Return
}

func (c *Checker) markCallRole(callee ast.Expression) {
	switch x := callee.(type) {
	case *ast.IdentLeaf:
		x.Role = ast.CallRole
	case *ast.IdentSel:
		if x.Role != ast.MethRole {
			x.Role = ast.CallRole
		}
	}
}

// checkReceiverActual verifies that the designator a method is invoked
// on fits the method's receiver.
func (c *Checker) checkReceiverActual(sel *ast.IdentSel, m *ast.Procedure) {
	rt := sel.Sub.Type()
	rec := recordOf(rt)
	if rec == nil || !rec.Extends(m.ReceiverRec) {
		diag.Error(c.reporter, diag.SemTypeMismatch, sel.Span(),
			m.Name+" is not a method of the designated record")
	}
}

// checkActual verifies one argument against its formal.
func (c *Checker) checkActual(formal *ast.Parameter, a ast.Expression, s *ast.Scope) {
	at := c.checkExpr(a, s)
	ft := deref(formal.Type)
	if ft == nil || deref(at) == ast.ErrorType {
		return
	}

	// Open-array formals accept any array with the same element type;
	// string literals feed open character arrays.
	if arr, ok := ft.(*ast.Array); ok && arr.Open() {
		if actArr, ok := deref(at).(*ast.Array); ok && sameType(arr.Elem, actArr.Elem) {
			if formal.IsVarParam() {
				c.checkVarActual(formal, a)
			}
			return
		}
		if _, ok := isStringLiteral(a); ok && ast.IsChar(deref(arr.Elem)) {
			return
		}
		diag.Error(c.reporter, diag.SemTypeMismatch, a.Span(),
			"argument does not match the open array parameter "+formal.Name)
		return
	}

	if formal.IsVarParam() {
		if !lvalue(a) {
			diag.Error(c.reporter, diag.SemVarParamMismatch, a.Span(),
				formal.Name+" is a VAR parameter and needs a designator")
			return
		}
		// Records accept extensions by reference, enabling narrowing
		// in the callee; everything else must match exactly.
		ok := sameType(ft, at)
		if !ok && recordOf(ft) != nil {
			ok = extends(at, ft)
		}
		if !ok {
			diag.Error(c.reporter, diag.SemVarParamMismatch, a.Span(),
				"VAR argument type does not match parameter "+formal.Name)
			return
		}
		c.checkVarActual(formal, a)
		return
	}

	if !c.assignCompatible(formal.Type, a) {
		diag.Error(c.reporter, diag.SemTypeMismatch, a.Span(),
			"argument is not assignable to parameter "+formal.Name)
	}
}

// checkVarActual marks the actual's identifier as a var-argument and
// rejects writes to read-only foreign or read-only-parameter
// designators through VAR (but not IN) formals.
func (c *Checker) checkVarActual(formal *ast.Parameter, a ast.Expression) {
	switch x := a.(type) {
	case *ast.IdentLeaf:
		x.Role = ast.VarRole
	case *ast.IdentSel:
		x.Role = ast.VarRole
	}
	if formal.ConstRef || !formal.Var {
		return
	}
	if ident := ast.IdentOf(a); ident != nil {
		c.checkWritable(ident, a)
	}
}

// checkWritable rejects stores into read-only entities: constants,
// IN parameters, FOR control variables, and read-only exports of other
// modules.
func (c *Checker) checkWritable(ident ast.Entity, at ast.Expression) {
	switch e := ident.(type) {
	case *ast.Const:
		diag.Error(c.reporter, diag.SemInvalidLvalue, at.Span(),
			e.Name+" is a constant")
	case *ast.Parameter:
		if e.ConstRef {
			diag.Error(c.reporter, diag.SemReadonlyViolation, at.Span(),
				e.Name+" is an IN parameter and cannot be modified")
		}
	}
	base := ident.Base()
	if c.forVars[ident] {
		diag.Error(c.reporter, diag.SemForControlAssigned, at.Span(),
			base.Name+" is the control variable of an enclosing FOR")
		return
	}
	if base.Visibility == ast.ReadOnly {
		if owner := base.Module(); owner != nil && owner != c.mod {
			diag.Error(c.reporter, diag.SemReadonlyViolation, at.Span(),
				base.Name+" is exported read-only by module "+owner.Name)
		}
	}
}
