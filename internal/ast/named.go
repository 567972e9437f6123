package ast

import "obx/internal/source"

// Visibility of a named entity outside its module.
type Visibility uint8

const (
	NotApplicable Visibility = iota
	Private
	ReadWrite // exported with *
	ReadOnly  // exported with -
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case ReadWrite:
		return "read-write"
	case ReadOnly:
		return "read-only"
	}
	return "n/a"
}

// Named carries what every named entity has: name, declared type,
// owning scope, and visibility. Outer is a back-pointer; the scope owns
// the entity, not the other way round.
type Named struct {
	Node
	Name       string
	Type       Type
	Outer      *Scope
	Visibility Visibility

	Synthetic    bool
	HasErrors    bool
	UsedFromLive bool
	Initialized  bool
}

// Entity is any named node.
type Entity interface {
	Thing
	Base() *Named
}

func (n *Named) Base() *Named { return n }

// IsPublic reports whether the entity is visible outside its module.
func (n *Named) IsPublic() bool {
	return n.Visibility == ReadWrite || n.Visibility == ReadOnly
}

// Module walks the scope chain up to the owning module, nil for
// entities not (yet) hung into a module.
func (n *Named) Module() *Module {
	for s := n.Outer; s != nil; s = s.Owner.Base().Outer {
		if m, ok := s.Owner.(*Module); ok {
			return m
		}
	}
	return nil
}

// Variable is a module-level variable.
type Variable struct {
	Named
}

func NewVariable(loc source.Span, name string) *Variable {
	return &Variable{Named: Named{Node: Node{NodeKind: KVariable, Loc: loc}, Name: name}}
}

// LocalVar is a procedure-local variable.
type LocalVar struct {
	Named
}

func NewLocalVar(loc source.Span, name string) *LocalVar {
	return &LocalVar{Named: Named{Node: Node{NodeKind: KLocalVar, Loc: loc}, Name: name}}
}

// Parameter is a formal of a procedure type.
type Parameter struct {
	Named
	Var      bool // VAR parameter
	ConstRef bool // IN parameter: by reference, read-only in the callee
	Receiver bool
}

func NewParameter(loc source.Span, name string) *Parameter {
	return &Parameter{Named: Named{Node: Node{NodeKind: KParameter, Loc: loc}, Name: name}}
}

// IsVarParam reports whether the actual is passed by reference.
func (p *Parameter) IsVarParam() bool { return p.Var || p.ConstRef }

// Field is a record field.
type Field struct {
	Named
	// Specialization marks a field re-declared with a more specific
	// type than the inherited one of the same name.
	Specialization bool
}

func NewField(loc source.Span, name string) *Field {
	return &Field{Named: Named{Node: Node{NodeKind: KField, Loc: loc}, Name: name}}
}

// Const is a named compile-time value.
type Const struct {
	Named
	Val       Value
	ConstExpr Expression
}

func NewConst(loc source.Span, name string) *Const {
	return &Const{Named: Named{Node: Node{NodeKind: KConst, Loc: loc}, Name: name}}
}

// Import binds an alias to another module.
type Import struct {
	Named
	Path        []string // dotted module path
	AliasPos    source.Span
	Mod         *Module
	MetaActuals []Type
}

func NewImport(loc source.Span, name string, path []string) *Import {
	return &Import{Named: Named{Node: Node{NodeKind: KImport, Loc: loc}, Name: name}, Path: path}
}

// BuiltIn is a compiler-intrinsic procedure.
type BuiltIn struct {
	Named
	Func BuiltInKind
}

func NewBuiltIn(f BuiltInKind, pt *ProcType) *BuiltIn {
	b := &BuiltIn{Named: Named{Node: Node{NodeKind: KBuiltIn}, Name: f.String()}, Func: f}
	if pt != nil {
		b.Type = pt
	}
	return b
}

// GenericName is a generic type parameter.
type GenericName struct {
	Named
}

func NewGenericName(loc source.Span, name string) *GenericName {
	return &GenericName{Named: Named{Node: Node{NodeKind: KGenericName, Loc: loc}, Name: name}}
}
