package sema

import (
	"obx/internal/ast"
	"obx/internal/diag"
)

func (c *Checker) checkStmts(stmts []ast.Statement, s *ast.Scope) {
	for _, stmt := range stmts {
		c.checkStmt(stmt, s)
	}
}

func (c *Checker) checkStmt(stmt ast.Statement, s *ast.Scope) {
	switch x := stmt.(type) {
	case *ast.Assign:
		c.checkAssign(x, s)
	case *ast.Call:
		c.checkCallStmt(x, s)
	case *ast.Return:
		c.checkReturn(x, s)
	case *ast.Exit:
		if c.loopDepth == 0 {
			diag.Error(c.reporter, diag.SemExitOutsideLoop, x.Span(),
				"EXIT must be inside a LOOP")
		}
	case *ast.IfLoop:
		c.checkIfLoop(x, s)
	case *ast.ForLoop:
		c.checkFor(x, s)
	case *ast.CaseStmt:
		c.checkCase(x, s)
	}
}

func (c *Checker) checkAssign(x *ast.Assign, s *ast.Scope) {
	lt := c.checkExpr(x.Lhs, s)
	c.checkExpr(x.Rhs, s)

	switch l := x.Lhs.(type) {
	case *ast.IdentLeaf:
		l.Role = ast.LhsRole
	case *ast.IdentSel:
		l.Role = ast.LhsRole
	}

	if !lvalue(x.Lhs) {
		if deref(lt) != ast.ErrorType {
			diag.Error(c.reporter, diag.SemInvalidLvalue, x.Lhs.Span(),
				"left side of := is not assignable")
		}
		return
	}
	if ident := ast.IdentOf(x.Lhs); ident != nil {
		c.checkWritable(ident, x.Lhs)
	}
	if !c.assignCompatible(lt, x.Rhs) {
		diag.Error(c.reporter, diag.SemAssignIncompatible, x.Span(),
			deref(x.Rhs.Type()).Pretty()+" is not assignable to "+deref(lt).Pretty())
	}
}

func (c *Checker) checkCallStmt(x *ast.Call, s *ast.Scope) {
	a := x.CallExpr()
	if a == nil {
		c.checkExpr(x.What, s)
		diag.Error(c.reporter, diag.SemNotAProcedure, x.Span(),
			"statement is not a procedure call")
		return
	}
	c.checkExpr(a, s)
	if a.Op == ast.ArgCast {
		diag.Error(c.reporter, diag.SemNotAProcedure, x.Span(),
			"a type guard is not a statement")
	}
}

func (c *Checker) checkReturn(x *ast.Return, s *ast.Scope) {
	var ret ast.Type
	if c.proc != nil {
		if pt := c.proc.ProcType(); pt != nil {
			ret = pt.Return
		}
	}
	switch {
	case x.What == nil && ret != nil:
		diag.Error(c.reporter, diag.SemReturnMismatch, x.Span(),
			c.proc.Name+" must return a value")
	case x.What != nil && ret == nil:
		c.checkExpr(x.What, s)
		diag.Error(c.reporter, diag.SemReturnMismatch, x.Span(),
			"this procedure does not return a value")
	case x.What != nil:
		c.checkExpr(x.What, s)
		if !c.assignCompatible(ret, x.What) {
			diag.Error(c.reporter, diag.SemReturnMismatch, x.What.Span(),
				"returned value is not assignable to the result type")
		}
	}
}

func (c *Checker) checkIfLoop(x *ast.IfLoop, s *ast.Scope) {
	switch x.Op {
	case ast.OpIf, ast.OpWhile, ast.OpRepeat:
		for _, guard := range x.If {
			gt := deref(c.checkExpr(guard, s))
			if !ast.IsBoolean(gt) && gt != ast.ErrorType {
				diag.Error(c.reporter, diag.SemNotBoolean, guard.Span(),
					"guard must be a boolean expression")
			}
		}
		for _, branch := range x.Then {
			c.checkStmts(branch, s)
		}
		c.checkStmts(x.Else, s)
	case ast.OpLoop:
		c.loopDepth++
		for _, branch := range x.Then {
			c.checkStmts(branch, s)
		}
		c.loopDepth--
	case ast.OpWith:
		c.checkWith(x, s)
	}
}

// checkWith checks WITH v: T DO ... guards; inside each branch the
// guarded designator's static type narrows to the asserted type.
func (c *Checker) checkWith(x *ast.IfLoop, s *ast.Scope) {
	for i, guard := range x.If {
		test, ok := guard.(*ast.BinExpr)
		if !ok || test.Op != ast.BinIs {
			c.checkExpr(guard, s)
			if i < len(x.Then) {
				c.checkStmts(x.Then[i], s)
			}
			continue
		}
		c.checkExpr(test, s)
		narrowed, entity := c.narrowedBinding(test)
		if entity != nil {
			saved, had := c.narrow[entity]
			c.narrow[entity] = narrowed
			if i < len(x.Then) {
				c.checkStmts(x.Then[i], s)
			}
			if had {
				c.narrow[entity] = saved
			} else {
				delete(c.narrow, entity)
			}
			continue
		}
		if i < len(x.Then) {
			c.checkStmts(x.Then[i], s)
		}
	}
	c.checkStmts(x.Else, s)
}

// narrowedBinding extracts the guarded entity and its narrowed type
// from a checked IS test. Guards over pointer designators narrow to a
// pointer to the asserted record.
func (c *Checker) narrowedBinding(test *ast.BinExpr) (ast.Type, ast.Entity) {
	entity := ast.IdentOf(test.Lhs)
	if entity == nil {
		return nil, nil
	}
	asserted := c.typeOperandQuiet(test.Rhs)
	if asserted == nil {
		return nil, nil
	}
	return c.guardedType(test.Lhs.Type(), asserted, test.Span()), entity
}

// typeOperandQuiet is typeOperand for already-checked expressions.
func (c *Checker) typeOperandQuiet(e ast.Expression) ast.Type {
	switch ident := ast.IdentOf(e).(type) {
	case *ast.NamedType:
		return ident.Type
	case *ast.GenericName:
		return ident.Type
	}
	return nil
}

func (c *Checker) checkFor(x *ast.ForLoop, s *ast.Scope) {
	ct := deref(c.checkExpr(x.Id, s))
	ctrl := ast.IdentOf(x.Id)
	if ctrl != nil {
		switch ctrl.(type) {
		case *ast.LocalVar:
		case *ast.Variable:
			if c.proc != nil {
				diag.Error(c.reporter, diag.SemForControlNotLocal, x.Id.Span(),
					"FOR control variable must be declared in this procedure")
			}
		default:
			diag.Error(c.reporter, diag.SemForControlNotLocal, x.Id.Span(),
				"FOR control variable must be a variable")
		}
	}
	if !ast.IsInteger(ct) && ct != ast.ErrorType {
		diag.Error(c.reporter, diag.SemIntegerOnly, x.Id.Span(),
			"FOR control variable must be an integer")
	}
	for _, bound := range []ast.Expression{x.From, x.To} {
		bt := deref(c.checkExpr(bound, s))
		if !ast.IsInteger(bt) && bt != ast.ErrorType {
			diag.Error(c.reporter, diag.SemIntegerOnly, bound.Span(),
				"FOR bounds must be integers")
		}
	}
	if x.By != nil {
		c.checkExpr(x.By, s)
		n, ok := c.foldInt(x.By)
		switch {
		case !ok:
			diag.Error(c.reporter, diag.SemConstNotConstant, x.By.Span(),
				"BY requires a compile-time integer constant")
		case n == 0:
			diag.Error(c.reporter, diag.SemForStepZero, x.By.Span(),
				"FOR step must not be zero")
		default:
			x.ByVal = n
		}
	}
	if ctrl != nil {
		c.forVars[ctrl] = true
		defer delete(c.forVars, ctrl)
	}
	c.checkStmts(x.Do, s)
}

func (c *Checker) checkCase(x *ast.CaseStmt, s *ast.Scope) {
	st := deref(c.checkExpr(x.Exp, s))
	if recordOf(st) != nil {
		x.TypeCase = true
		c.checkTypeCase(x, s, st)
		return
	}
	c.checkValueCase(x, s, st)
}

// checkTypeCase checks CASE over a record or pointer scrutinee: every
// label is a type extension, and the scrutinee narrows inside the arm.
func (c *Checker) checkTypeCase(x *ast.CaseStmt, s *ast.Scope, static ast.Type) {
	entity := ast.IdentOf(x.Exp)
	seen := make(map[*ast.Record]bool)
	for _, arm := range x.Cases {
		var narrowed ast.Type
		for _, label := range arm.Labels {
			c.checkExpr(label, s)
			asserted := c.typeOperandQuiet(label)
			if asserted == nil {
				diag.Error(c.reporter, diag.SemInvalidGuard, label.Span(),
					"type case labels must be type names")
				continue
			}
			if !extends(asserted, static) {
				diag.Error(c.reporter, diag.SemInvalidGuard, label.Span(),
					"label type is not an extension of the case expression's type")
				continue
			}
			if rec := recordOf(asserted); rec != nil {
				if seen[rec] {
					diag.Error(c.reporter, diag.SemCaseLabelOverlap, label.Span(),
						"type already has a case arm")
				}
				seen[rec] = true
			}
			if narrowed == nil {
				narrowed = c.guardedType(static, asserted, label.Span())
			}
		}
		if entity != nil && narrowed != nil {
			saved, had := c.narrow[entity]
			c.narrow[entity] = narrowed
			c.checkStmts(arm.Block, s)
			if had {
				c.narrow[entity] = saved
			} else {
				delete(c.narrow, entity)
			}
			continue
		}
		c.checkStmts(arm.Block, s)
	}
	c.checkStmts(x.Else, s)
}

// checkValueCase checks CASE over an ordinal or string scrutinee:
// labels are constants or ranges of the scrutinee's type, mutually
// disjoint.
func (c *Checker) checkValueCase(x *ast.CaseStmt, s *ast.Scope, static ast.Type) {
	ordinal := ast.IsInteger(static) || ast.IsChar(static)
	_, isEnum := static.(*ast.Enumeration)
	stringy := ast.IsString(static) || ast.IsCharArray(static)
	if !ordinal && !isEnum && !stringy && static != ast.ErrorType {
		diag.Error(c.reporter, diag.SemTypeMismatch, x.Exp.Span(),
			"CASE requires an ordinal, string, record, or pointer expression")
	}

	type interval struct{ lo, hi int64 }
	var taken []interval
	seenStr := make(map[string]bool)

	addInterval := func(lo, hi int64, label ast.Expression) {
		for _, iv := range taken {
			if lo <= iv.hi && iv.lo <= hi {
				diag.Error(c.reporter, diag.SemCaseLabelOverlap, label.Span(),
					"case label overlaps an earlier label")
				return
			}
		}
		taken = append(taken, interval{lo, hi})
	}

	for _, arm := range x.Cases {
		for _, label := range arm.Labels {
			if rng, ok := label.(*ast.BinExpr); ok && rng.Op == ast.BinRange {
				c.checkExpr(rng.Lhs, s)
				c.checkExpr(rng.Rhs, s)
				rng.SetType(static)
				lo, lok := c.foldInt(rng.Lhs)
				hi, rok := c.foldInt(rng.Rhs)
				if !lok || !rok {
					diag.Error(c.reporter, diag.SemConstNotConstant, rng.Span(),
						"case labels must be compile-time constants")
					continue
				}
				if lo > hi {
					diag.Error(c.reporter, diag.SemRangeMisuse, rng.Span(),
						"empty case label range")
					continue
				}
				addInterval(lo, hi, rng)
				continue
			}
			c.checkExpr(label, s)
			v, ok := c.fold(label)
			if !ok {
				diag.Error(c.reporter, diag.SemConstNotConstant, label.Span(),
					"case labels must be compile-time constants")
				continue
			}
			if str, isStr := v.(string); isStr && stringy {
				if seenStr[str] {
					diag.Error(c.reporter, diag.SemCaseLabelOverlap, label.Span(),
						"case label overlaps an earlier label")
				}
				seenStr[str] = true
				continue
			}
			if n, isInt := asInt(v); isInt {
				addInterval(n, n, label)
				continue
			}
			diag.Error(c.reporter, diag.SemTypeMismatch, label.Span(),
				"case label does not match the case expression's type")
		}
		c.checkStmts(arm.Block, s)
	}
	c.checkStmts(x.Else, s)
}
