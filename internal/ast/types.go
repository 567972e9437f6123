package ast

import "obx/internal/source"

// Type is implemented by all type nodes.
type Type interface {
	Thing
	// Decl returns the entity naming this type, nil when anonymous.
	Decl() Entity
	SetDecl(Entity)
	// Deref chases resolved QualiType links to the concrete type.
	Deref() Type
	// Structured reports whether the type is an array or record.
	Structured() bool
	// Pretty is the human-readable spelling for diagnostics.
	Pretty() string
}

// TypeNode carries what every type has: the naming entity back-link.
type TypeNode struct {
	Node
	Ident Entity
}

func (t *TypeNode) Decl() Entity       { return t.Ident }
func (t *TypeNode) SetDecl(e Entity)   { t.Ident = e }
func (t *TypeNode) Structured() bool   { return false }

// Pointer is an indirection to a record or array.
type Pointer struct {
	TypeNode
	To Type
}

func NewPointer(loc source.Span, to Type) *Pointer {
	return &Pointer{TypeNode: TypeNode{Node: Node{NodeKind: KPointer, Loc: loc}}, To: to}
}

func (p *Pointer) Deref() Type { return p }
func (p *Pointer) Pretty() string {
	if p.To != nil {
		return "POINTER TO " + p.To.Pretty()
	}
	return "POINTER"
}

// Array has a fixed length >= 1 or length 0 for open arrays.
type Array struct {
	TypeNode
	Len     int64
	LenExpr Expression
	Elem    Type
}

func NewArray(loc source.Span, lenExpr Expression, elem Type) *Array {
	return &Array{TypeNode: TypeNode{Node: Node{NodeKind: KArray, Loc: loc}}, LenExpr: lenExpr, Elem: elem}
}

func (a *Array) Deref() Type     { return a }
func (a *Array) Structured() bool { return true }
func (a *Array) Open() bool       { return a.Len == 0 }
func (a *Array) Pretty() string {
	if a.Elem != nil {
		return "ARRAY OF " + a.Elem.Pretty()
	}
	return "ARRAY"
}

// Record is a product of named fields, optionally extending a base
// record, optionally carrying bound procedures.
type Record struct {
	TypeNode
	Base    *QualiType // base quali, nil when the record is root
	BaseRec *Record    // resolved base, back-pointer
	SubRecs []*Record  // back-pointers to extensions
	Binding *Pointer   // back-pointer for anonymous records bound to a pointer
	Names   map[string]Entity
	Fields  []*Field
	Methods []*Procedure
}

func NewRecord(loc source.Span) *Record {
	return &Record{
		TypeNode: TypeNode{Node: Node{NodeKind: KRecord, Loc: loc}},
		Names:    make(map[string]Entity),
	}
}

func (r *Record) Deref() Type      { return r }
func (r *Record) Structured() bool { return true }
func (r *Record) Pretty() string   { return "RECORD" }

// Find looks name up among fields and methods; with recursive set the
// base chain is searched too.
func (r *Record) Find(name string, recursive bool) Entity {
	if e, ok := r.Names[name]; ok {
		return e
	}
	if recursive && r.BaseRec != nil {
		return r.BaseRec.Find(name, true)
	}
	return nil
}

// Extends reports whether r's base chain contains base.
func (r *Record) Extends(base *Record) bool {
	for cur := r; cur != nil; cur = cur.BaseRec {
		if cur == base {
			return true
		}
	}
	return false
}

// ProcType is a procedure signature: ordered formals and an optional
// return type.
type ProcType struct {
	TypeNode
	Formals []*Parameter
	Return  Type
}

func NewProcType(loc source.Span) *ProcType {
	return &ProcType{TypeNode: TypeNode{Node: Node{NodeKind: KProcType, Loc: loc}}}
}

func (pt *ProcType) Deref() Type   { return pt }
func (pt *ProcType) Pretty() string { return "PROC" }

// Find returns the formal with the given name.
func (pt *ProcType) Find(name string) *Parameter {
	for _, p := range pt.Formals {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// QualiType is a named-type reference, resolved by the type resolver
// through its qualifying expression.
type QualiType struct {
	TypeNode
	Quali       Expression // IdentLeaf or IdentSel naming the target
	MetaActuals []Type
	SelfRef     bool
}

func NewQualiType(loc source.Span, quali Expression) *QualiType {
	return &QualiType{TypeNode: TypeNode{Node: Node{NodeKind: KQualiType, Loc: loc}}, Quali: quali}
}

// Deref follows the resolved qualident to the concrete type. Before
// resolution, or on a self-reference still being composed, it returns
// the QualiType itself. The chase is depth-bounded so illegal type
// cycles (reported elsewhere) cannot loop here.
func (q *QualiType) Deref() Type {
	var t Type = q
	for range 64 {
		qt, ok := t.(*QualiType)
		if !ok {
			return t
		}
		target := qt.ResolvedType()
		if target == nil || target == t {
			return t
		}
		t = target
	}
	return q
}

// ResolvedType returns the declared type of the resolved target entity,
// nil while unresolved.
func (q *QualiType) ResolvedType() Type {
	ident := IdentOf(q.Quali)
	if ident == nil {
		return nil
	}
	return ident.Base().Type
}

func (q *QualiType) Pretty() string {
	if leaf, ok := q.Quali.(*IdentLeaf); ok {
		return leaf.Name
	}
	if sel, ok := q.Quali.(*IdentSel); ok {
		if sub, ok := sel.Sub.(*IdentLeaf); ok {
			return sub.Name + "." + sel.Name
		}
		return sel.Name
	}
	return "?"
}

// Enumeration is an ordered list of named constants.
type Enumeration struct {
	TypeNode
	Items []*Const
}

func NewEnumeration(loc source.Span) *Enumeration {
	return &Enumeration{TypeNode: TypeNode{Node: Node{NodeKind: KEnumeration, Loc: loc}}}
}

func (e *Enumeration) Deref() Type   { return e }
func (e *Enumeration) Pretty() string { return "enumeration" }
