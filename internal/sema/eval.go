package sema

import (
	"math"

	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/source"
)

// fold evaluates a checked expression to a compile-time value. The
// second result reports foldability; non-constant subexpressions make
// the whole expression non-foldable without a diagnostic (callers that
// require constants report const-not-constant themselves).
func (c *Checker) fold(e ast.Expression) (ast.Value, bool) {
	switch x := e.(type) {
	case *ast.Literal:
		if x.VType == ast.LitInvalid {
			return nil, false
		}
		return x.Val, true
	case *ast.IdentLeaf:
		if cn, ok := x.Ident.(*ast.Const); ok {
			return cn.Val, cn.Val != nil
		}
		return nil, false
	case *ast.IdentSel:
		if cn, ok := x.Ident.(*ast.Const); ok {
			return cn.Val, cn.Val != nil
		}
		return nil, false
	case *ast.UnExpr:
		return c.foldUnary(x)
	case *ast.BinExpr:
		return c.foldBinary(x)
	case *ast.SetExpr:
		return c.foldSet(x)
	case *ast.ArgExpr:
		if bi, ok := ast.IdentOf(x.Sub).(*ast.BuiltIn); ok && x.Op == ast.ArgCall {
			return c.constBuiltIn(bi, x.Args)
		}
		return nil, false
	}
	return nil, false
}

// foldInt folds e and narrows to int64.
func (c *Checker) foldInt(e ast.Expression) (int64, bool) {
	v, ok := c.fold(e)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case rune:
		return int64(n), true
	}
	return 0, false
}

func (c *Checker) foldUnary(x *ast.UnExpr) (ast.Value, bool) {
	v, ok := c.fold(x.Sub)
	if !ok {
		return nil, false
	}
	switch x.Op {
	case ast.UnNeg:
		switch n := v.(type) {
		case int64:
			if n == math.MinInt64 {
				c.overflow(x.Span())
				return nil, false
			}
			return -n, true
		case float64:
			return -n, true
		}
	case ast.UnNot:
		if b, ok := v.(bool); ok {
			return !b, true
		}
	}
	return nil, false
}

func (c *Checker) foldBinary(x *ast.BinExpr) (ast.Value, bool) {
	lv, lok := c.fold(x.Lhs)
	rv, rok := c.fold(x.Rhs)
	if !lok || !rok {
		return nil, false
	}

	if ls, ok := lv.(ast.SetVal); ok {
		rs, ok := rv.(ast.SetVal)
		if !ok {
			return nil, false
		}
		switch x.Op {
		case ast.BinAdd:
			return ls | rs, true
		case ast.BinSub:
			return ls &^ rs, true
		case ast.BinMul:
			return ls & rs, true
		case ast.BinFdiv:
			return ls ^ rs, true
		case ast.BinEq:
			return ls == rs, true
		case ast.BinNeq:
			return ls != rs, true
		}
		return nil, false
	}

	if lb, ok := lv.(bool); ok {
		rb, ok := rv.(bool)
		if !ok {
			return nil, false
		}
		switch x.Op {
		case ast.BinOr:
			return lb || rb, true
		case ast.BinAnd:
			return lb && rb, true
		case ast.BinEq:
			return lb == rb, true
		case ast.BinNeq:
			return lb != rb, true
		}
		return nil, false
	}

	if ls, ok := stringVal(lv); ok {
		if rs, ok := stringVal(rv); ok {
			switch x.Op {
			case ast.BinAdd:
				return ls + rs, true
			case ast.BinEq:
				return ls == rs, true
			case ast.BinNeq:
				return ls != rs, true
			case ast.BinLt:
				return ls < rs, true
			case ast.BinLeq:
				return ls <= rs, true
			case ast.BinGt:
				return ls > rs, true
			case ast.BinGeq:
				return ls >= rs, true
			}
			return nil, false
		}
	}

	// IN on a constant set
	if x.Op == ast.BinIn {
		n, ok := asInt(lv)
		if !ok {
			return nil, false
		}
		s, ok := rv.(ast.SetVal)
		if !ok {
			return nil, false
		}
		return s.Has(n), true
	}

	// numeric: promote to float when either side is real
	lf, lIsF := lv.(float64)
	rf, rIsF := rv.(float64)
	li, lIsI := asInt(lv)
	ri, rIsI := asInt(rv)
	switch {
	case (lIsF || rIsF) && (lIsF || lIsI) && (rIsF || rIsI):
		if !lIsF {
			lf = float64(li)
		}
		if !rIsF {
			rf = float64(ri)
		}
		return c.foldRealOp(x, lf, rf)
	case lIsI && rIsI:
		return c.foldIntOp(x, li, ri)
	}
	return nil, false
}

func (c *Checker) foldRealOp(x *ast.BinExpr, l, r float64) (ast.Value, bool) {
	switch x.Op {
	case ast.BinAdd:
		return l + r, true
	case ast.BinSub:
		return l - r, true
	case ast.BinMul:
		return l * r, true
	case ast.BinFdiv:
		return l / r, true
	case ast.BinEq:
		return l == r, true
	case ast.BinNeq:
		return l != r, true
	case ast.BinLt:
		return l < r, true
	case ast.BinLeq:
		return l <= r, true
	case ast.BinGt:
		return l > r, true
	case ast.BinGeq:
		return l >= r, true
	}
	return nil, false
}

func (c *Checker) foldIntOp(x *ast.BinExpr, l, r int64) (ast.Value, bool) {
	switch x.Op {
	case ast.BinAdd:
		if (r > 0 && l > math.MaxInt64-r) || (r < 0 && l < math.MinInt64-r) {
			c.overflow(x.Span())
			return nil, false
		}
		return l + r, true
	case ast.BinSub:
		if (r < 0 && l > math.MaxInt64+r) || (r > 0 && l < math.MinInt64+r) {
			c.overflow(x.Span())
			return nil, false
		}
		return l - r, true
	case ast.BinMul:
		if l != 0 && r != 0 {
			p := l * r
			if p/l != r {
				c.overflow(x.Span())
				return nil, false
			}
			return p, true
		}
		return int64(0), true
	case ast.BinDiv:
		if r == 0 {
			return nil, false
		}
		return floorDiv(l, r), true
	case ast.BinMod:
		if r == 0 {
			return nil, false
		}
		return floorMod(l, r), true
	case ast.BinEq:
		return l == r, true
	case ast.BinNeq:
		return l != r, true
	case ast.BinLt:
		return l < r, true
	case ast.BinLeq:
		return l <= r, true
	case ast.BinGt:
		return l > r, true
	case ast.BinGeq:
		return l >= r, true
	}
	return nil, false
}

// foldSet folds a set constructor with constant elements and ranges.
func (c *Checker) foldSet(x *ast.SetExpr) (ast.Value, bool) {
	var out ast.SetVal
	for _, part := range x.Parts {
		if rng, ok := part.(*ast.BinExpr); ok && rng.Op == ast.BinRange {
			lo, lok := c.foldInt(rng.Lhs)
			hi, rok := c.foldInt(rng.Rhs)
			if !lok || !rok {
				return nil, false
			}
			if lo < 0 || hi >= ast.SetBitLen || lo > hi {
				diag.Error(c.reporter, diag.SemSetElementRange, rng.Span(),
					"set elements must lie in 0..31")
				return nil, false
			}
			for i := lo; i <= hi; i++ {
				out = out.With(i)
			}
			continue
		}
		n, ok := c.foldInt(part)
		if !ok {
			return nil, false
		}
		if n < 0 || n >= ast.SetBitLen {
			diag.Error(c.reporter, diag.SemSetElementRange, part.Span(),
				"set elements must lie in 0..31")
			return nil, false
		}
		out = out.With(n)
	}
	return out, true
}

func (c *Checker) overflow(sp source.Span) {
	diag.Error(c.reporter, diag.SemConstOverflow, sp,
		"constant expression overflows")
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(l, r int64) int64 {
	q := l / r
	if (l%r != 0) && ((l < 0) != (r < 0)) {
		q--
	}
	return q
}

// floorMod is the remainder matching floorDiv; its sign follows the
// divisor.
func floorMod(l, r int64) int64 {
	m := l % r
	if m != 0 && ((l < 0) != (r < 0)) {
		m += r
	}
	return m
}

func asInt(v ast.Value) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case rune:
		return int64(n), true
	}
	return 0, false
}

func stringVal(v ast.Value) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case rune:
		return string(s), true
	}
	return "", false
}
