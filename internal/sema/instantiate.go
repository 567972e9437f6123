package sema

import (
	"fmt"
	"strings"

	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/source"
)

// instantiate produces (or reuses) the declaration of a generic
// template specialized with the given actuals. Instantiations are
// memoized by template identity and the structural key of the actuals;
// identical instantiations share identity. The instance keeps the
// template's source spans so diagnostics point at the template.
func (c *Checker) instantiate(template *ast.NamedType, actuals []ast.Type, loc source.Span) *ast.NamedType {
	parts := make([]string, 0, len(actuals))
	for _, a := range actuals {
		parts = append(parts, typeKey(a))
	}
	key := strings.Join(parts, ",")

	memo := c.ctx.insts[template]
	if memo == nil {
		memo = make(map[string]ast.Type)
		c.ctx.insts[template] = memo
	}
	if t, ok := memo[key]; ok {
		synth, _ := t.Decl().(*ast.NamedType)
		return synth
	}

	ckey := fmt.Sprintf("%p|%s", template, key)
	if c.instantiating[ckey] {
		diag.Error(c.reporter, diag.SemGenericCycle, loc,
			"generic instantiation of "+template.Name+" is cyclic")
		return nil
	}
	c.instantiating[ckey] = true
	defer delete(c.instantiating, ckey)

	synth := ast.NewNamedType(template.Span(), template.Name)
	synth.Synthetic = true
	synth.Outer = template.Outer

	subst := make(map[*ast.GenericName]ast.Type, len(actuals))
	for i, gp := range template.MetaParams {
		subst[gp] = actuals[i]
	}
	st := &substituter{c: c, template: template, synth: synth, subst: subst}
	synth.Type = st.typ(template.Type)
	if synth.Type == nil {
		return nil
	}
	if synth.Type.Decl() == nil {
		synth.Type.SetDecl(synth)
	}
	memo[key] = synth.Type
	return synth
}

// substituter deep-copies a template type, replacing generic-parameter
// references by the bound actuals. Already-resolved references to
// non-generic types are shared with the template, as is the template's
// method scope.
type substituter struct {
	c        *Checker
	template *ast.NamedType
	synth    *ast.NamedType
	subst    map[*ast.GenericName]ast.Type
}

func (st *substituter) typ(t ast.Type) ast.Type {
	switch x := t.(type) {
	case nil:
		return nil
	case *ast.BaseType, *ast.Enumeration:
		return x
	case *ast.QualiType:
		return st.quali(x)
	case *ast.Pointer:
		return ast.NewPointer(x.Span(), st.typ(x.To))
	case *ast.Array:
		cp := ast.NewArray(x.Span(), x.LenExpr, st.typ(x.Elem))
		cp.Len = x.Len
		return cp
	case *ast.Record:
		return st.record(x)
	case *ast.ProcType:
		cp := ast.NewProcType(x.Span())
		for _, f := range x.Formals {
			nf := ast.NewParameter(f.Span(), f.Name)
			nf.Var = f.Var
			nf.ConstRef = f.ConstRef
			nf.Receiver = f.Receiver
			nf.Type = st.typ(f.Type)
			cp.Formals = append(cp.Formals, nf)
		}
		cp.Return = st.typ(x.Return)
		return cp
	}
	return t
}

func (st *substituter) quali(q *ast.QualiType) ast.Type {
	target := ast.IdentOf(q.Quali)
	if gn, ok := target.(*ast.GenericName); ok {
		if actual, bound := st.subst[gn]; bound {
			return actual
		}
	}
	if target == ast.Entity(st.template) || q.SelfRef {
		leaf := ast.NewIdentLeaf(q.Span(), st.synth.Name)
		leaf.Ident = st.synth
		cp := ast.NewQualiType(q.Span(), leaf)
		cp.SelfRef = q.SelfRef
		return cp
	}
	return q
}

func (st *substituter) record(r *ast.Record) ast.Type {
	cp := ast.NewRecord(r.Span())
	if r.Base != nil {
		base := st.typ(r.Base)
		if bq, ok := base.(*ast.QualiType); ok {
			cp.Base = bq
		}
		bd := deref(base)
		if bp, ok := bd.(*ast.Pointer); ok {
			bd = deref(bp.To)
		}
		if baseRec, ok := bd.(*ast.Record); ok {
			cp.BaseRec = baseRec
			baseRec.SubRecs = append(baseRec.SubRecs, cp)
		}
	}
	for _, f := range r.Fields {
		nf := ast.NewField(f.Span(), f.Name)
		nf.Visibility = f.Visibility
		nf.Type = st.typ(f.Type)
		cp.Names[nf.Name] = nf
		cp.Fields = append(cp.Fields, nf)
	}
	// Methods stay shared with the template; the instance record joins
	// the template's dispatch namespace by reference.
	for _, m := range r.Methods {
		cp.Names[m.Name] = m
	}
	cp.Methods = r.Methods
	return cp
}
