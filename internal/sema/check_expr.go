package sema

import (
	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/source"
)

// checkExpr types one expression bottom-up and resolves every
// identifier use in it. It always attaches a type; failures attach the
// error sentinel so checking can continue.
func (c *Checker) checkExpr(e ast.Expression, s *ast.Scope) ast.Type {
	if e == nil {
		return ast.ErrorType
	}
	var t ast.Type
	switch x := e.(type) {
	case *ast.Literal:
		t = c.literalType(x)
	case *ast.SetExpr:
		t = c.checkSetExpr(x, s)
	case *ast.IdentLeaf:
		t = c.checkIdentLeaf(x, s)
	case *ast.IdentSel:
		t = c.checkIdentSel(x, s)
	case *ast.UnExpr:
		t = c.checkUnExpr(x, s)
	case *ast.ArgExpr:
		t = c.checkArgExpr(x, s)
	case *ast.BinExpr:
		t = c.checkBinExpr(x, s)
	default:
		t = ast.ErrorType
	}
	if t == nil {
		t = ast.ErrorType
	}
	e.SetType(t)
	return t
}

// literalType attaches the intrinsic type of a literal. String
// literals become character arrays with room for the terminator.
func (c *Checker) literalType(lit *ast.Literal) ast.Type {
	switch lit.VType {
	case ast.LitInteger:
		n := lit.Val.(int64)
		if n >= ast.IntegerType.MinVal() && n <= ast.IntegerType.MaxVal() {
			return ast.IntegerType
		}
		return ast.LongIntType
	case ast.LitReal:
		return ast.RealType
	case ast.LitBoolean:
		return ast.BooleanType
	case ast.LitChar:
		if lit.Val.(rune) > 0xFF {
			return ast.WCharType
		}
		return ast.CharType
	case ast.LitString:
		str := lit.Val.(string)
		elem := ast.Type(ast.CharType)
		for _, r := range str {
			if r > 0xFF {
				elem = ast.WCharType
				break
			}
		}
		arr := ast.NewArray(lit.Span(), nil, elem)
		arr.Len = int64(lit.StrLen) + 1
		return arr
	case ast.LitBytes:
		arr := ast.NewArray(lit.Span(), nil, ast.ByteType)
		arr.Len = int64(len(lit.Val.([]byte)))
		return arr
	case ast.LitNil:
		return ast.NilType
	case ast.LitSet:
		return ast.SetType
	}
	return ast.ErrorType
}

func (c *Checker) checkSetExpr(x *ast.SetExpr, s *ast.Scope) ast.Type {
	for _, part := range x.Parts {
		if rng, ok := part.(*ast.BinExpr); ok && rng.Op == ast.BinRange {
			lo := c.checkExpr(rng.Lhs, s)
			hi := c.checkExpr(rng.Rhs, s)
			if !ast.IsInteger(deref(lo)) || !ast.IsInteger(deref(hi)) {
				diag.Error(c.reporter, diag.SemIntegerOnly, rng.Span(),
					"set elements must be integers")
			}
			rng.SetType(ast.SetType)
			continue
		}
		t := c.checkExpr(part, s)
		if !ast.IsInteger(deref(t)) && deref(t) != ast.ErrorType {
			diag.Error(c.reporter, diag.SemIntegerOnly, part.Span(),
				"set elements must be integers")
		}
	}
	return ast.SetType
}

// checkIdentLeaf resolves an unqualified name through the scope chain
// and the universe.
func (c *Checker) checkIdentLeaf(x *ast.IdentLeaf, s *ast.Scope) ast.Type {
	if x.Ident == nil {
		e := s.Find(x.Name, true)
		if e == nil {
			e = c.universe.Find(x.Name)
		}
		if e == nil {
			diag.Error(c.reporter, diag.SemUnresolvedIdent, x.Span(),
				x.Name+" is not declared")
			return ast.ErrorType
		}
		x.Ident = e
	}
	if x.Role == ast.NoRole {
		x.Role = ast.RhsRole
	}
	switch e := x.Ident.(type) {
	case *ast.Import:
		x.Role = ast.ImportRole
	case *ast.Parameter:
		if e.Receiver {
			x.Role = ast.ThisRole
		}
	}
	return c.entityType(x.Ident)
}

// entityType returns the type an identifier use of e has, honoring the
// narrowing overlay of WITH and type-case branches.
func (c *Checker) entityType(e ast.Entity) ast.Type {
	if t, ok := c.narrow[e]; ok {
		return t
	}
	switch x := e.(type) {
	case *ast.Variable, *ast.LocalVar, *ast.Parameter, *ast.Field,
		*ast.GenericName:
		if t := e.Base().Type; t != nil {
			return t
		}
		return ast.ErrorType
	case *ast.Const:
		if x.Type != nil {
			return x.Type
		}
		return ast.ErrorType
	case *ast.NamedType:
		if x.Type != nil {
			return x.Type
		}
		return ast.ErrorType
	case *ast.Procedure:
		if pt := x.ProcType(); pt != nil {
			return pt
		}
		return ast.ErrorType
	case *ast.Import, *ast.BuiltIn, *ast.Module:
		// module references and intrinsics are handled at their use
		// sites; they have no value type of their own
		return ast.AnyType
	}
	return ast.ErrorType
}

// checkIdentSel types x.f: module member access, or record member
// access with implicit pointer dereference.
func (c *Checker) checkIdentSel(x *ast.IdentSel, s *ast.Scope) ast.Type {
	if x.Ident != nil {
		// resolved earlier (e.g. while resolving a quali)
		return c.entityType(x.Ident)
	}
	c.checkExpr(x.Sub, s)

	if imp, ok := ast.IdentOf(x.Sub).(*ast.Import); ok {
		return c.checkModuleMember(x, imp)
	}

	base := deref(x.Sub.Type())
	if p, ok := base.(*ast.Pointer); ok {
		base = deref(p.To) // implicit dereference
	}
	rec, ok := base.(*ast.Record)
	if !ok {
		if base != ast.ErrorType {
			diag.Error(c.reporter, diag.SemSelectorBase, x.Span(),
				"selection requires a record, a pointer to a record, or a module")
		}
		return ast.ErrorType
	}
	member := rec.Find(x.Name, true)
	if member == nil {
		diag.Error(c.reporter, diag.SemUnresolvedIdent, x.Span(),
			x.Name+" is not a member of "+rec.Pretty())
		return ast.ErrorType
	}
	if owner := member.Base().Module(); owner != nil && owner != c.mod && !member.Base().IsPublic() {
		diag.Error(c.reporter, diag.SemNotExported, x.Span(),
			x.Name+" is not exported")
		return ast.ErrorType
	}
	x.Ident = member
	if _, isProc := member.(*ast.Procedure); isProc {
		x.Role = ast.MethRole
	} else if x.Role == ast.NoRole {
		x.Role = ast.RhsRole
	}
	return c.entityType(member)
}

// checkModuleMember resolves m.x through an import, enforcing export
// visibility.
func (c *Checker) checkModuleMember(x *ast.IdentSel, imp *ast.Import) ast.Type {
	imp.UsedFromLive = true
	if imp.Mod == nil {
		return ast.ErrorType
	}
	e := imp.Mod.Scope.Find(x.Name, false)
	if e == nil {
		diag.Error(c.reporter, diag.SemUnresolvedIdent, x.Span(),
			x.Name+" is not declared in module "+imp.Mod.Name)
		return ast.ErrorType
	}
	if !e.Base().IsPublic() {
		diag.Error(c.reporter, diag.SemNotExported, x.Span(),
			x.Name+" is not exported by module "+imp.Mod.Name)
		return ast.ErrorType
	}
	x.Ident = e
	if x.Role == ast.NoRole {
		x.Role = ast.RhsRole
	}
	return c.entityType(e)
}

func (c *Checker) checkUnExpr(x *ast.UnExpr, s *ast.Scope) ast.Type {
	sub := deref(c.checkExpr(x.Sub, s))
	if sub == ast.ErrorType {
		return ast.ErrorType
	}
	switch x.Op {
	case ast.UnNeg:
		if ast.IsNumeric(sub) || ast.IsSet(sub) {
			return sub
		}
		diag.Error(c.reporter, diag.SemNotNumeric, x.Span(),
			"unary minus requires a numeric operand")
	case ast.UnNot:
		if ast.IsBoolean(sub) {
			return ast.BooleanType
		}
		diag.Error(c.reporter, diag.SemNotBoolean, x.Span(),
			"negation requires a boolean operand")
	case ast.UnDeref:
		if p, ok := sub.(*ast.Pointer); ok {
			return p.To
		}
		diag.Error(c.reporter, diag.SemDerefNonPointer, x.Span(),
			"dereference requires a pointer")
	case ast.UnAddrOf:
		if !lvalue(x.Sub) {
			diag.Error(c.reporter, diag.SemInvalidLvalue, x.Span(),
				"address-of requires a designator")
			return ast.ErrorType
		}
		// The synthesized pointer lives as long as the module.
		p := ast.NewPointer(x.Span(), x.Sub.Type())
		c.mod.Helper = append(c.mod.Helper, p)
		return p
	}
	return ast.ErrorType
}

// checkArgExpr types calls, indexing, and type guards.
func (c *Checker) checkArgExpr(x *ast.ArgExpr, s *ast.Scope) ast.Type {
	switch x.Op {
	case ast.ArgIdx:
		return c.checkIndex(x, s)
	case ast.ArgCast:
		return c.checkGuard(x, s)
	}
	return c.checkCall(x, s)
}

func (c *Checker) checkIndex(x *ast.ArgExpr, s *ast.Scope) ast.Type {
	base := deref(c.checkExpr(x.Sub, s))
	if p, ok := base.(*ast.Pointer); ok {
		base = deref(p.To) // implicit dereference
	}
	cur := base
	for _, idx := range x.Args {
		it := deref(c.checkExpr(idx, s))
		if !ast.IsInteger(it) && it != ast.ErrorType {
			diag.Error(c.reporter, diag.SemIndexNotInteger, idx.Span(),
				"array index must be an integer")
		}
		arr, ok := cur.(*ast.Array)
		if !ok {
			if cur != ast.ErrorType {
				diag.Error(c.reporter, diag.SemNotAnArray, x.Span(),
					"indexing requires an array")
			}
			return ast.ErrorType
		}
		cur = deref(arr.Elem)
	}
	return cur
}

// checkGuard types v(T): the guard narrows v's static type to the
// extension T.
func (c *Checker) checkGuard(x *ast.ArgExpr, s *ast.Scope) ast.Type {
	static := deref(c.checkExpr(x.Sub, s))
	if len(x.Args) != 1 {
		diag.Error(c.reporter, diag.SemInvalidGuard, x.Span(),
			"type guard takes exactly one type")
		return ast.ErrorType
	}
	asserted := c.typeOperand(x.Args[0], s)
	if asserted == nil {
		diag.Error(c.reporter, diag.SemInvalidGuard, x.Args[0].Span(),
			"type guard requires a type name")
		return ast.ErrorType
	}
	if recordOf(static) == nil {
		diag.Error(c.reporter, diag.SemInvalidGuard, x.Span(),
			"type guard requires a record or pointer designator")
		return ast.ErrorType
	}
	if !extends(asserted, static) {
		diag.Error(c.reporter, diag.SemInvalidGuard, x.Span(),
			"guard type is not an extension of the designator's type")
		return ast.ErrorType
	}
	return c.guardedType(static, asserted, x.Span())
}

// guardedType aligns the asserted type's shape with the static type:
// asserting a record type on a pointer designator narrows to a pointer
// to that record.
func (c *Checker) guardedType(static, asserted ast.Type, loc source.Span) ast.Type {
	if _, staticPtr := deref(static).(*ast.Pointer); !staticPtr {
		return asserted
	}
	if _, assertedPtr := deref(asserted).(*ast.Pointer); assertedPtr {
		return asserted
	}
	p := ast.NewPointer(loc, asserted)
	c.mod.Helper = append(c.mod.Helper, p)
	return p
}

// typeOperand returns the type an argument denotes when it is a type
// name, nil when it is a value.
func (c *Checker) typeOperand(e ast.Expression, s *ast.Scope) ast.Type {
	c.checkExpr(e, s)
	switch ident := ast.IdentOf(e).(type) {
	case *ast.NamedType:
		markRole(e, ast.SubRole)
		return ident.Type
	case *ast.GenericName:
		if ident.Type != nil {
			markRole(e, ast.SubRole)
			return ident.Type
		}
	}
	return nil
}

func (c *Checker) checkBinExpr(x *ast.BinExpr, s *ast.Scope) ast.Type {
	if x.Op == ast.BinRange {
		diag.Error(c.reporter, diag.SemRangeMisuse, x.Span(),
			"ranges are only legal in set constructors and case labels")
		c.checkExpr(x.Lhs, s)
		c.checkExpr(x.Rhs, s)
		return ast.ErrorType
	}
	if x.Op == ast.BinIs {
		return c.checkTypeTest(x, s)
	}

	lt := deref(c.checkExpr(x.Lhs, s))
	rt := deref(c.checkExpr(x.Rhs, s))
	if lt == ast.ErrorType || rt == ast.ErrorType {
		if x.Op.IsRelation() {
			return ast.BooleanType
		}
		return ast.ErrorType
	}

	if x.Op == ast.BinIn {
		if !ast.IsInteger(lt) {
			diag.Error(c.reporter, diag.SemIntegerOnly, x.Lhs.Span(),
				"IN requires an integer element")
		}
		if !ast.IsSet(rt) {
			diag.Error(c.reporter, diag.SemNotASet, x.Rhs.Span(),
				"IN requires a SET operand")
		}
		return ast.BooleanType
	}

	if x.Op.IsRelation() {
		if !comparableOperands(x.Op, lt, rt) {
			diag.Error(c.reporter, diag.SemNotComparable, x.Span(),
				lt.Pretty()+" and "+rt.Pretty()+" are not comparable with "+x.Op.String())
		}
		return ast.BooleanType
	}

	switch x.Op {
	case ast.BinAnd, ast.BinOr:
		if !ast.IsBoolean(lt) || !ast.IsBoolean(rt) {
			diag.Error(c.reporter, diag.SemNotBoolean, x.Span(),
				x.Op.String()+" requires boolean operands")
			return ast.ErrorType
		}
		return ast.BooleanType
	case ast.BinDiv, ast.BinMod:
		if !ast.IsInteger(lt) || !ast.IsInteger(rt) {
			diag.Error(c.reporter, diag.SemIntegerOnly, x.Span(),
				x.Op.String()+" requires integer operands")
			return ast.ErrorType
		}
		return promote(lt, rt)
	case ast.BinFdiv:
		if ast.IsSet(lt) && ast.IsSet(rt) {
			return ast.SetType
		}
		if !ast.IsNumeric(lt) || !ast.IsNumeric(rt) {
			diag.Error(c.reporter, diag.SemNotNumeric, x.Span(),
				"/ requires numeric or SET operands")
			return ast.ErrorType
		}
		if !ast.IsReal(lt) && !ast.IsReal(rt) {
			diag.Error(c.reporter, diag.SemTypeMismatch, x.Span(),
				"/ requires a real operand; use DIV for integers")
			return ast.ErrorType
		}
		if deref(promote(lt, rt)) == ast.LongRealType {
			return ast.LongRealType
		}
		return ast.RealType
	case ast.BinAdd, ast.BinSub, ast.BinMul:
		if ast.IsSet(lt) && ast.IsSet(rt) {
			return ast.SetType
		}
		if x.Op == ast.BinAdd && isTextual(lt) && isTextual(rt) {
			return ast.StringType
		}
		if !ast.IsNumeric(lt) || !ast.IsNumeric(rt) {
			diag.Error(c.reporter, diag.SemNotNumeric, x.Span(),
				x.Op.String()+" requires numeric operands")
			return ast.ErrorType
		}
		return promote(lt, rt)
	}
	return ast.ErrorType
}

func isTextual(t ast.Type) bool {
	return ast.IsString(t) || ast.IsChar(t) || ast.IsCharArray(t)
}

// checkTypeTest types v IS T.
func (c *Checker) checkTypeTest(x *ast.BinExpr, s *ast.Scope) ast.Type {
	static := deref(c.checkExpr(x.Lhs, s))
	asserted := c.typeOperand(x.Rhs, s)
	if asserted == nil {
		diag.Error(c.reporter, diag.SemInvalidGuard, x.Rhs.Span(),
			"IS requires a type name on the right")
		return ast.BooleanType
	}
	if recordOf(static) == nil {
		if static != ast.ErrorType {
			diag.Error(c.reporter, diag.SemInvalidGuard, x.Lhs.Span(),
				"IS requires a record or pointer designator on the left")
		}
		return ast.BooleanType
	}
	if !extends(asserted, static) {
		diag.Error(c.reporter, diag.SemInvalidGuard, x.Span(),
			"tested type is not an extension of the designator's type")
	}
	return ast.BooleanType
}
