package sema

import (
	"obx/internal/ast"
	"obx/internal/diag"
)

// checkBuiltIn types a call of a compiler intrinsic. Each intrinsic has
// bespoke arity and operand rules.
func (c *Checker) checkBuiltIn(bi *ast.BuiltIn, x *ast.ArgExpr, s *ast.Scope) ast.Type {
	args := x.Args
	for _, a := range args {
		c.checkExpr(a, s)
	}
	misuse := func(msg string) ast.Type {
		diag.Error(c.reporter, diag.SemBuiltInMisuse, x.Span(), bi.Func.String()+": "+msg)
		return ast.ErrorType
	}
	argType := func(i int) ast.Type {
		return deref(args[i].Type())
	}

	switch bi.Func {
	case ast.BiAbs:
		if len(args) != 1 || !ast.IsNumeric(argType(0)) {
			return misuse("requires one numeric argument")
		}
		return argType(0)

	case ast.BiOdd:
		if len(args) != 1 || !ast.IsInteger(argType(0)) {
			return misuse("requires one integer argument")
		}
		return ast.BooleanType

	case ast.BiLen:
		return c.checkLen(x, misuse)

	case ast.BiLsl, ast.BiAsr, ast.BiRor:
		if len(args) != 2 || !ast.IsInteger(argType(0)) || !ast.IsInteger(argType(1)) {
			return misuse("requires two integer arguments")
		}
		return argType(0)

	case ast.BiFloor:
		if len(args) != 1 || !ast.IsReal(argType(0)) {
			return misuse("requires one real argument")
		}
		return ast.IntegerType

	case ast.BiEntier:
		if len(args) != 1 || !ast.IsReal(argType(0)) {
			return misuse("requires one real argument")
		}
		return ast.LongIntType

	case ast.BiFlt:
		if len(args) != 1 || !ast.IsInteger(argType(0)) {
			return misuse("requires one integer argument")
		}
		return ast.RealType

	case ast.BiOrd:
		if len(args) != 1 {
			return misuse("requires one argument")
		}
		t := argType(0)
		if _, isEnum := t.(*ast.Enumeration); ast.IsChar(t) || ast.IsBoolean(t) || ast.IsSet(t) || isEnum {
			return ast.IntegerType
		}
		return misuse("requires a character, boolean, set, or enumeration argument")

	case ast.BiChr:
		if len(args) != 1 || !ast.IsInteger(argType(0)) {
			return misuse("requires one integer argument")
		}
		return ast.CharType

	case ast.BiWchr:
		if len(args) != 1 || !ast.IsInteger(argType(0)) {
			return misuse("requires one integer argument")
		}
		return ast.WCharType

	case ast.BiInc, ast.BiDec:
		if len(args) < 1 || len(args) > 2 {
			return misuse("requires one or two arguments")
		}
		if !lvalue(args[0]) || !ast.IsInteger(argType(0)) {
			return misuse("requires an integer designator")
		}
		if ident := ast.IdentOf(args[0]); ident != nil {
			c.checkWritable(ident, args[0])
		}
		if len(args) == 2 && !ast.IsInteger(argType(1)) {
			return misuse("increment must be an integer")
		}
		return ast.VoidType

	case ast.BiIncl, ast.BiExcl:
		if len(args) != 2 || !lvalue(args[0]) || !ast.IsSet(argType(0)) {
			return misuse("requires a SET designator and an element")
		}
		if !ast.IsInteger(argType(1)) {
			return misuse("element must be an integer")
		}
		if n, ok := c.foldInt(args[1]); ok && (n < 0 || n >= ast.SetBitLen) {
			diag.Error(c.reporter, diag.SemSetElementRange, args[1].Span(),
				"set elements must lie in 0..31")
		}
		return ast.VoidType

	case ast.BiNew:
		return c.checkNew(x, misuse)

	case ast.BiAssert:
		if len(args) < 1 || len(args) > 2 || !ast.IsBoolean(argType(0)) {
			return misuse("requires a boolean condition")
		}
		if len(args) == 2 && !ast.IsInteger(argType(1)) {
			return misuse("code must be an integer")
		}
		return ast.VoidType

	case ast.BiMax, ast.BiMin:
		return c.checkMinMax(bi, x, misuse)

	case ast.BiShort:
		if len(args) != 1 {
			return misuse("requires one argument")
		}
		switch argType(0) {
		case ast.Type(ast.LongIntType):
			return ast.IntegerType
		case ast.Type(ast.IntegerType):
			return ast.ShortIntType
		case ast.Type(ast.LongRealType):
			return ast.RealType
		case ast.Type(ast.WCharType):
			return ast.CharType
		}
		return misuse("requires a long numeric argument")

	case ast.BiLong:
		if len(args) != 1 {
			return misuse("requires one argument")
		}
		switch argType(0) {
		case ast.Type(ast.ShortIntType), ast.Type(ast.ByteType):
			return ast.IntegerType
		case ast.Type(ast.IntegerType):
			return ast.LongIntType
		case ast.Type(ast.RealType):
			return ast.LongRealType
		case ast.Type(ast.CharType):
			return ast.WCharType
		}
		return misuse("requires a short numeric argument")

	case ast.BiHalt:
		if len(args) != 1 || !ast.IsInteger(argType(0)) {
			return misuse("requires one integer argument")
		}
		return ast.VoidType

	case ast.BiCopy:
		if len(args) != 2 {
			return misuse("requires a source string and a character-array designator")
		}
		src := argType(0)
		if !ast.IsCharArray(src) && !ast.IsString(src) {
			return misuse("source must be a string or character array")
		}
		if !lvalue(args[1]) || !ast.IsCharArray(argType(1)) {
			return misuse("destination must be a character-array designator")
		}
		return ast.VoidType

	case ast.BiSize:
		if len(args) != 1 || c.typeOperand(args[0], s) == nil {
			return misuse("requires a type name")
		}
		return ast.IntegerType

	case ast.BiStrlen:
		if len(args) != 1 {
			return misuse("requires one string argument")
		}
		t := argType(0)
		if !ast.IsCharArray(t) && !ast.IsString(t) {
			return misuse("requires a string or character array")
		}
		return ast.IntegerType
	}
	return misuse("unknown intrinsic")
}

// checkLen types LEN(a [, dim]); open arrays carry their length
// dynamically, fixed arrays answer their declared length.
func (c *Checker) checkLen(x *ast.ArgExpr, misuse func(string) ast.Type) ast.Type {
	if len(x.Args) < 1 || len(x.Args) > 2 {
		return misuse("requires an array argument")
	}
	t := deref(x.Args[0].Type())
	if p, ok := t.(*ast.Pointer); ok {
		t = deref(p.To)
	}
	switch at := t.(type) {
	case *ast.Array:
		_ = at
	default:
		if ast.IsString(t) {
			return ast.IntegerType
		}
		return misuse("requires an array argument")
	}
	if len(x.Args) == 2 {
		if n, ok := c.foldInt(x.Args[1]); !ok || n < 0 {
			return misuse("dimension must be a constant integer >= 0")
		}
	}
	return ast.IntegerType
}

// checkNew types NEW(p [, lens]): p must be a pointer designator;
// extra lengths size open-array dimensions of the target.
func (c *Checker) checkNew(x *ast.ArgExpr, misuse func(string) ast.Type) ast.Type {
	if len(x.Args) < 1 {
		return misuse("requires a pointer designator")
	}
	if !lvalue(x.Args[0]) {
		return misuse("requires a pointer designator")
	}
	p, ok := deref(x.Args[0].Type()).(*ast.Pointer)
	if !ok {
		return misuse("requires a pointer designator")
	}
	openDims := 0
	for t := deref(p.To); ; {
		arr, ok := t.(*ast.Array)
		if !ok || !arr.Open() {
			break
		}
		openDims++
		t = deref(arr.Elem)
	}
	if len(x.Args)-1 != openDims && !(openDims == 0 && len(x.Args) == 1) {
		return misuse("length arguments must match the open dimensions of the target")
	}
	for _, l := range x.Args[1:] {
		if !ast.IsInteger(deref(l.Type())) {
			return misuse("lengths must be integers")
		}
	}
	return ast.VoidType
}

// checkMinMax types MAX/MIN: over a type name it is the bound constant;
// over two numeric values it is the wider operand's type.
func (c *Checker) checkMinMax(bi *ast.BuiltIn, x *ast.ArgExpr, misuse func(string) ast.Type) ast.Type {
	switch len(x.Args) {
	case 1:
		ident, ok := ast.IdentOf(x.Args[0]).(*ast.NamedType)
		if !ok {
			return misuse("requires a type name or two numeric values")
		}
		t := deref(ident.Type)
		if ast.IsSet(t) || ast.IsNumeric(t) || ast.IsChar(t) {
			if ast.IsSet(t) {
				return ast.IntegerType
			}
			return t
		}
		return misuse("requires a basic type name")
	case 2:
		a, b := deref(x.Args[0].Type()), deref(x.Args[1].Type())
		if !ast.IsNumeric(a) || !ast.IsNumeric(b) {
			return misuse("requires numeric values")
		}
		return promote(a, b)
	}
	return misuse("requires one or two arguments")
}

// constBuiltIn folds intrinsic applications with constant arguments;
// used by the constant evaluator for MAX/MIN/ORD/CHR style calls.
func (c *Checker) constBuiltIn(bi *ast.BuiltIn, args []ast.Expression) (ast.Value, bool) {
	if len(args) == 1 {
		if ident, ok := ast.IdentOf(args[0]).(*ast.NamedType); ok {
			if bt, ok := deref(ident.Type).(*ast.BaseType); ok {
				switch bi.Func {
				case ast.BiMax:
					if bt.BT == ast.BasicSet {
						return int64(ast.SetBitLen - 1), true
					}
					return bt.MaxVal(), true
				case ast.BiMin:
					if bt.BT == ast.BasicSet {
						return int64(0), true
					}
					return bt.MinVal(), true
				}
			}
			return nil, false
		}
		v, ok := c.fold(args[0])
		if !ok {
			return nil, false
		}
		switch bi.Func {
		case ast.BiAbs:
			switch n := v.(type) {
			case int64:
				if n < 0 {
					return -n, true
				}
				return n, true
			case float64:
				if n < 0 {
					return -n, true
				}
				return n, true
			}
		case ast.BiOdd:
			if n, ok := asInt(v); ok {
				return n%2 != 0, true
			}
		case ast.BiOrd:
			if r, ok := v.(rune); ok {
				return int64(r), true
			}
			if b, ok := v.(bool); ok {
				if b {
					return int64(1), true
				}
				return int64(0), true
			}
		case ast.BiChr:
			if n, ok := asInt(v); ok && n >= 0 && n <= 0x10FFFF {
				return rune(n), true
			}
		}
	}
	return nil, false
}
