package ast

import "obx/internal/source"

// Scope is a named-entity container with insertion order and a keyed
// lookup. Scoped entities (Module, Procedure, NamedType) carry one;
// the Owner link identifies the carrying entity so the scope chain can
// be walked through Owner.Base().Outer.
type Scope struct {
	Owner Entity
	Names map[string]Entity
	Order []Entity
	Body  []Statement
	End   source.Span
}

func (s *Scope) init(owner Entity) {
	s.Owner = owner
	s.Names = make(map[string]Entity)
}

// Add inserts e into the scope. It fails when the name is already
// declared at this level. On success the entity's owning-scope link is
// set to s.
func (s *Scope) Add(e Entity) bool {
	name := e.Base().Name
	if name == "" {
		return false
	}
	if _, exists := s.Names[name]; exists {
		return false
	}
	s.Names[name] = e
	s.Order = append(s.Order, e)
	e.Base().Outer = s
	return true
}

// Find resolves name in this scope; with recursive set, enclosing
// scopes are searched as well.
func (s *Scope) Find(name string, recursive bool) Entity {
	if e, ok := s.Names[name]; ok {
		return e
	}
	if recursive && s.Owner != nil {
		if outer := s.Owner.Base().Outer; outer != nil {
			return outer.Find(name, true)
		}
	}
	return nil
}

// NamedType is a type declaration. It is a scope so it can carry
// generic parameters.
type NamedType struct {
	Named
	Scope      Scope
	MetaParams []*GenericName
}

func NewNamedType(loc source.Span, name string) *NamedType {
	nt := &NamedType{Named: Named{Node: Node{NodeKind: KNamedType, Loc: loc}, Name: name}}
	nt.Scope.init(nt)
	return nt
}

// Procedure is a scope with a body, optionally bound to a record via a
// receiver parameter.
type Procedure struct {
	Named
	Scope       Scope
	Receiver    *Parameter
	ReceiverRec *Record      // record this procedure is bound to
	Super       *Procedure   // overridden method on the base chain
	Subs        []*Procedure // overriding methods, back-pointers
	MetaParams  []*GenericName
}

func NewProcedure(loc source.Span, name string) *Procedure {
	p := &Procedure{Named: Named{Node: Node{NodeKind: KProcedure, Loc: loc}, Name: name}}
	p.Scope.init(p)
	return p
}

// ProcType returns the procedure's signature type.
func (p *Procedure) ProcType() *ProcType {
	if pt, ok := p.Type.(*ProcType); ok {
		return pt
	}
	return nil
}

// Module is the top-level compilation and visibility unit.
type Module struct {
	Named
	Scope       Scope
	Imports     []*Import
	MetaParams  []*GenericName // generic module parameters
	File        string         // source path, "" for preloads
	FullName    []string       // path segments + module name
	IsDef       bool           // DEFINITION module
	IsValidated bool
	// Helper owns pointer types synthesized during checking (ADDROF)
	// so they share the module's lifetime.
	Helper []*Pointer
}

func NewModule(loc source.Span, name string) *Module {
	m := &Module{Named: Named{Node: Node{NodeKind: KModule, Loc: loc}, Name: name}}
	m.Scope.init(m)
	return m
}

// Path returns the dotted full name.
func (m *Module) Path() string {
	if len(m.FullName) == 0 {
		return m.Name
	}
	out := m.FullName[0]
	for _, seg := range m.FullName[1:] {
		out += "." + seg
	}
	return out
}
