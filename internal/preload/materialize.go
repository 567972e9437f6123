package preload

import (
	"fmt"

	"obx/internal/ast"
	"obx/internal/source"
)

var baseTypes = map[string]*ast.BaseType{
	"BOOLEAN":  ast.BooleanType,
	"CHAR":     ast.CharType,
	"WCHAR":    ast.WCharType,
	"BYTE":     ast.ByteType,
	"SHORTINT": ast.ShortIntType,
	"INTEGER":  ast.IntegerType,
	"LONGINT":  ast.LongIntType,
	"REAL":     ast.RealType,
	"LONGREAL": ast.LongRealType,
	"SET":      ast.SetType,
	"STRING":   ast.StringType,
	"WSTRING":  ast.WStringType,
	"ANY":      ast.AnyType,
}

// Materialize builds a fully-resolved definition module from a
// payload. Every declared entity is exported; read-only variables are
// exported with read-only visibility.
func Materialize(p *Payload) (*ast.Module, error) {
	mod := ast.NewModule(source.Span{}, p.Name)
	mod.IsDef = true
	mod.IsValidated = true
	mod.FullName = []string{p.Name}
	mod.Visibility = ast.ReadWrite

	m := &materializer{mod: mod, named: make(map[string]*ast.NamedType)}

	// Named types first so references among them resolve in any order.
	for _, td := range p.Types {
		nt := ast.NewNamedType(source.Span{}, td.Name)
		nt.Visibility = ast.ReadWrite
		if !mod.Scope.Add(nt) {
			return nil, fmt.Errorf("preload: %s: duplicate type %s", p.Name, td.Name)
		}
		m.named[td.Name] = nt
	}
	for _, td := range p.Types {
		t, err := m.typ(&td.Type)
		if err != nil {
			return nil, err
		}
		nt := m.named[td.Name]
		nt.Type = t
		if t.Decl() == nil {
			t.SetDecl(nt)
		}
	}

	for _, cd := range p.Consts {
		cn := ast.NewConst(source.Span{}, cd.Name)
		cn.Visibility = ast.ReadWrite
		switch {
		case cd.Int != nil:
			cn.Val = *cd.Int
			cn.Type = ast.IntegerType
		case cd.Real != nil:
			cn.Val = *cd.Real
			cn.Type = ast.RealType
		case cd.Bool != nil:
			cn.Val = *cd.Bool
			cn.Type = ast.BooleanType
		case cd.Str != nil:
			cn.Val = *cd.Str
			cn.Type = ast.StringType
		default:
			return nil, fmt.Errorf("preload: %s: constant %s has no value", p.Name, cd.Name)
		}
		if !mod.Scope.Add(cn) {
			return nil, fmt.Errorf("preload: %s: duplicate constant %s", p.Name, cd.Name)
		}
	}

	for _, vd := range p.Vars {
		t, err := m.typ(&vd.Type)
		if err != nil {
			return nil, err
		}
		v := ast.NewVariable(source.Span{}, vd.Name)
		v.Type = t
		v.Visibility = ast.ReadWrite
		if vd.ReadOnly {
			v.Visibility = ast.ReadOnly
		}
		if !mod.Scope.Add(v) {
			return nil, fmt.Errorf("preload: %s: duplicate variable %s", p.Name, vd.Name)
		}
	}

	for _, pd := range p.Procs {
		t, err := m.typ(&pd.Type)
		if err != nil {
			return nil, err
		}
		pt, ok := t.(*ast.ProcType)
		if !ok {
			return nil, fmt.Errorf("preload: %s: %s is not a procedure type", p.Name, pd.Name)
		}
		proc := ast.NewProcedure(source.Span{}, pd.Name)
		proc.Type = pt
		proc.Visibility = ast.ReadWrite
		if !mod.Scope.Add(proc) {
			return nil, fmt.Errorf("preload: %s: duplicate procedure %s", p.Name, pd.Name)
		}
	}
	return mod, nil
}

type materializer struct {
	mod   *ast.Module
	named map[string]*ast.NamedType
}

func (m *materializer) typ(r *TypeRef) (ast.Type, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case RefBase:
		if bt, ok := baseTypes[r.Name]; ok {
			return bt, nil
		}
		return nil, fmt.Errorf("preload: %s: unknown base type %s", m.mod.Name, r.Name)
	case RefNamed:
		nt, ok := m.named[r.Name]
		if !ok {
			return nil, fmt.Errorf("preload: %s: unknown type %s", m.mod.Name, r.Name)
		}
		leaf := ast.NewIdentLeaf(source.Span{}, r.Name)
		leaf.Ident = nt
		leaf.Mod = m.mod
		return ast.NewQualiType(source.Span{}, leaf), nil
	case RefPointer:
		to, err := m.typ(r.Elem)
		if err != nil {
			return nil, err
		}
		return ast.NewPointer(source.Span{}, to), nil
	case RefArray:
		elem, err := m.typ(r.Elem)
		if err != nil {
			return nil, err
		}
		arr := ast.NewArray(source.Span{}, nil, elem)
		arr.Len = r.Len
		return arr, nil
	case RefRecord:
		rec := ast.NewRecord(source.Span{})
		if r.Base != "" {
			base, ok := m.named[r.Base]
			if !ok {
				return nil, fmt.Errorf("preload: %s: unknown base record %s", m.mod.Name, r.Base)
			}
			if baseRec, ok := deref(base.Type).(*ast.Record); ok {
				rec.BaseRec = baseRec
				baseRec.SubRecs = append(baseRec.SubRecs, rec)
			}
		}
		for _, fd := range r.Fields {
			ft, err := m.typ(&fd.Type)
			if err != nil {
				return nil, err
			}
			f := ast.NewField(source.Span{}, fd.Name)
			f.Type = ft
			f.Visibility = ast.ReadWrite
			if fd.ReadOnly {
				f.Visibility = ast.ReadOnly
			}
			rec.Names[f.Name] = f
			rec.Fields = append(rec.Fields, f)
		}
		return rec, nil
	case RefProc:
		pt := ast.NewProcType(source.Span{})
		for _, pd := range r.Params {
			param := ast.NewParameter(source.Span{}, pd.Name)
			param.Var = pd.Var
			param.ConstRef = pd.In
			t, err := m.typ(&pd.Type)
			if err != nil {
				return nil, err
			}
			param.Type = t
			pt.Formals = append(pt.Formals, param)
		}
		ret, err := m.typ(r.Return)
		if err != nil {
			return nil, err
		}
		pt.Return = ret
		return pt, nil
	}
	return nil, fmt.Errorf("preload: %s: unknown type kind %d", m.mod.Name, r.Kind)
}

func deref(t ast.Type) ast.Type {
	if t == nil {
		return nil
	}
	return t.Deref()
}
