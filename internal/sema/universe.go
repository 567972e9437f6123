// Package sema builds and checks the resolved code model: it wires the
// module import graph, closes type references, types every expression,
// and validates the cross-cutting invariants.
package sema

import (
	"sync"

	"obx/internal/ast"
)

// Universe is the outermost pseudo-scope holding the predeclared type
// names and the intrinsic procedures. It is immutable and shared.
type Universe struct {
	names map[string]ast.Entity
}

var (
	universeOnce sync.Once
	universeInst *Universe
)

// NewUniverse returns the shared universe scope.
func NewUniverse() *Universe {
	universeOnce.Do(func() {
		u := &Universe{names: make(map[string]ast.Entity)}
		for _, bt := range []*ast.BaseType{
			ast.AnyType, ast.BooleanType, ast.CharType, ast.WCharType,
			ast.ByteType, ast.ShortIntType, ast.IntegerType, ast.LongIntType,
			ast.RealType, ast.LongRealType, ast.SetType, ast.StringType,
			ast.WStringType,
		} {
			nt := ast.NewNamedType(bt.Span(), bt.BT.String())
			nt.Type = bt
			nt.Synthetic = true
			if bt.Decl() == nil {
				bt.SetDecl(nt)
			}
			u.names[nt.Name] = nt
		}
		for _, f := range ast.BuiltIns() {
			u.names[f.String()] = ast.NewBuiltIn(f, nil)
		}
		universeInst = u
	})
	return universeInst
}

// Find resolves a predeclared name, nil on miss.
func (u *Universe) Find(name string) ast.Entity {
	return u.names[name]
}
