package sema

import (
	"obx/internal/ast"
)

// deref chases resolved quali links, nil-safe.
func deref(t ast.Type) ast.Type {
	if t == nil {
		return nil
	}
	return t.Deref()
}

// sameType reports structural identity of two resolved types. Base
// types are singletons; records, procedure types, and enumerations are
// identical only to themselves; two arrays are the same when their
// lengths and element types are.
func sameType(a, b ast.Type) bool {
	da, db := deref(a), deref(b)
	if da == nil || db == nil {
		return false
	}
	if da == db {
		return true
	}
	// Distinct arrays (open or fixed) of equal length and the same
	// element type are the same type.
	aa, okA := da.(*ast.Array)
	ab, okB := db.(*ast.Array)
	if okA && okB && aa.Len == ab.Len {
		return sameType(aa.Elem, ab.Elem)
	}
	return false
}

// pointerTarget returns the record a pointer type points at, nil when
// t is not a pointer to record.
func pointerTarget(t ast.Type) *ast.Record {
	p, ok := deref(t).(*ast.Pointer)
	if !ok {
		return nil
	}
	rec, _ := deref(p.To).(*ast.Record)
	return rec
}

// recordOf returns the record behind t, unwrapping one pointer level.
func recordOf(t ast.Type) *ast.Record {
	d := deref(t)
	if rec, ok := d.(*ast.Record); ok {
		return rec
	}
	return pointerTarget(d)
}

// extends reports whether sub's record (unwrapping pointers) extends
// base's record, reflexively.
func extends(sub, base ast.Type) bool {
	rs, rb := recordOf(sub), recordOf(base)
	if rs == nil || rb == nil {
		return false
	}
	return rs.Extends(rb)
}

// promote returns the wider numeric type of a and b, following the
// order BYTE < SHORTINT < INTEGER < LONGINT < REAL < LONGREAL.
func promote(a, b ast.Type) ast.Type {
	if ast.NumericRank(deref(a)) >= ast.NumericRank(deref(b)) {
		return deref(a)
	}
	return deref(b)
}

// includes reports whether dst can hold every value of src without
// explicit conversion: same numeric kind or a strictly wider one.
func includes(dst, src ast.Type) bool {
	rd, rs := ast.NumericRank(deref(dst)), ast.NumericRank(deref(src))
	return rd >= 0 && rs >= 0 && rd >= rs
}

// isStringLiteral reports whether e is a string or char literal and
// returns its codepoint count.
func isStringLiteral(e ast.Expression) (uint32, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return 0, false
	}
	switch lit.VType {
	case ast.LitString:
		return lit.StrLen, true
	case ast.LitChar:
		return 1, true
	}
	return 0, false
}

// assignCompatible implements the ordered assignment rules: identity,
// numeric widening, NIL, pointer extension, string literal into char
// array, and exact procedure-type match.
func (c *Checker) assignCompatible(dst ast.Type, src ast.Expression) bool {
	dd := deref(dst)
	st := src.Type()
	ds := deref(st)
	if dd == nil || ds == nil {
		return false
	}
	if dd == ast.ErrorType || ds == ast.ErrorType {
		return true // already reported
	}

	// 1. identical types
	if sameType(dd, ds) {
		return true
	}
	// 2. numeric widening
	if includes(dd, ds) {
		return true
	}
	// 3. NIL into pointers and procedure variables
	if bs, ok := ds.(*ast.BaseType); ok && bs.BT == ast.BasicNil {
		switch dd.(type) {
		case *ast.Pointer, *ast.ProcType:
			return true
		}
	}
	// 4. pointer to extension into pointer to base
	if _, ok := dd.(*ast.Pointer); ok {
		if _, ok := ds.(*ast.Pointer); ok && extends(ds, dd) {
			return true
		}
	}
	// extension records assign to base records by value as well
	if _, ok := dd.(*ast.Record); ok {
		if _, ok := ds.(*ast.Record); ok && extends(ds, dd) {
			return true
		}
	}
	// 5. string literal into char array with room for the terminator
	if n, ok := isStringLiteral(src); ok {
		if arr, isArr := dd.(*ast.Array); isArr && ast.IsChar(deref(arr.Elem)) {
			return arr.Open() || int64(n)+1 <= arr.Len
		}
		if ast.IsChar(dd) && n == 1 {
			return true
		}
		if ast.IsString(dd) {
			return true
		}
	}
	// 6. procedure into matching procedure-typed variable
	if dpt, ok := dd.(*ast.ProcType); ok {
		if spt, ok := ds.(*ast.ProcType); ok {
			return procTypeMatch(dpt, spt)
		}
	}
	return false
}

// procTypeMatch reports exact signature equality: same arity, pairwise
// identical parameter types and modes, same return type.
func procTypeMatch(a, b *ast.ProcType) bool {
	if len(a.Formals) != len(b.Formals) {
		return false
	}
	for i := range a.Formals {
		fa, fb := a.Formals[i], b.Formals[i]
		if fa.Var != fb.Var || fa.ConstRef != fb.ConstRef {
			return false
		}
		if !sameType(fa.Type, fb.Type) {
			return false
		}
	}
	switch {
	case a.Return == nil && b.Return == nil:
		return true
	case a.Return == nil || b.Return == nil:
		return false
	}
	return sameType(a.Return, b.Return)
}

// comparableOperands reports whether a relation may compare the two
// operand types: numeric pairs, char pairs, string pairs, boolean
// pairs, enumeration pairs, set equality, and pointer pairs related by
// extension or NIL.
func comparableOperands(op ast.BinOp, a, b ast.Type) bool {
	da, db := deref(a), deref(b)
	if da == nil || db == nil {
		return false
	}
	if da == ast.ErrorType || db == ast.ErrorType {
		return true
	}
	if ast.IsNumeric(da) && ast.IsNumeric(db) {
		return true
	}
	ordered := op == ast.BinLt || op == ast.BinLeq || op == ast.BinGt || op == ast.BinGeq
	charLike := func(t ast.Type) bool {
		return ast.IsChar(t) || ast.IsString(t) || ast.IsCharArray(t)
	}
	if charLike(da) && charLike(db) {
		return true
	}
	if ordered {
		if ea, ok := da.(*ast.Enumeration); ok {
			return ea == db
		}
		return false
	}
	// equality only below
	if ast.IsBoolean(da) && ast.IsBoolean(db) {
		return true
	}
	if ast.IsSet(da) && ast.IsSet(db) {
		return true
	}
	if ea, ok := da.(*ast.Enumeration); ok {
		return ea == db
	}
	isNil := func(t ast.Type) bool {
		bt, ok := t.(*ast.BaseType)
		return ok && bt.BT == ast.BasicNil
	}
	ptrOrNil := func(t ast.Type) bool {
		if isNil(t) {
			return true
		}
		_, ok := t.(*ast.Pointer)
		return ok
	}
	ptrOrProc := func(t ast.Type) bool {
		if ptrOrNil(t) {
			return true
		}
		_, ok := t.(*ast.ProcType)
		return ok
	}
	if ptrOrProc(da) && ptrOrProc(db) {
		if isNil(da) || isNil(db) {
			return true
		}
		if _, ok := da.(*ast.Pointer); ok {
			return extends(da, db) || extends(db, da)
		}
		_, pa := da.(*ast.ProcType)
		_, pb := db.(*ast.ProcType)
		return pa && pb
	}
	return false
}

// lvalue reports whether e designates a mutable location: a variable,
// parameter, field selection, indexed element, or dereference.
func lvalue(e ast.Expression) bool {
	switch x := e.(type) {
	case *ast.IdentLeaf:
		switch x.Ident.(type) {
		case *ast.Variable, *ast.LocalVar, *ast.Parameter:
			return true
		}
		return false
	case *ast.IdentSel:
		if _, ok := x.Ident.(*ast.Field); ok {
			return true
		}
		switch x.Ident.(type) {
		case *ast.Variable, *ast.LocalVar:
			// qualified module variable
			return true
		}
		return false
	case *ast.UnExpr:
		return x.Op == ast.UnDeref
	case *ast.ArgExpr:
		// indexed elements and type guards of lvalues stay lvalues
		return (x.Op == ast.ArgIdx || x.Op == ast.ArgCast) && lvalue(x.Sub)
	}
	return false
}
