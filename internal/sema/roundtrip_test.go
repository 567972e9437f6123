package sema

import (
	"strings"
	"testing"

	"obx/internal/ast"
	"obx/internal/diagfmt"
)

// describeEntity renders the resolution-relevant shape of an entity:
// kind, name, visibility, and the resolved spelling of its type.
func describeEntity(e ast.Entity) string {
	var sb strings.Builder
	sb.WriteString(e.Kind().String())
	sb.WriteByte(' ')
	sb.WriteString(e.Base().Name)
	sb.WriteByte('/')
	sb.WriteString(e.Base().Visibility.String())
	sb.WriteByte(' ')
	sb.WriteString(describeType(e.Base().Type, 0))
	if p, ok := e.(*ast.Procedure); ok && p.Super != nil {
		sb.WriteString(" overrides " + p.Super.Name)
	}
	return sb.String()
}

func describeType(t ast.Type, depth int) string {
	if t == nil {
		return "-"
	}
	if depth > 8 {
		return "..."
	}
	switch x := deref(t).(type) {
	case *ast.BaseType:
		return x.BT.String()
	case *ast.Pointer:
		return "^" + describeType(x.To, depth+1)
	case *ast.Array:
		if x.Open() {
			return "[]" + describeType(x.Elem, depth+1)
		}
		return "[#]" + describeType(x.Elem, depth+1)
	case *ast.Record:
		var sb strings.Builder
		sb.WriteString("rec{")
		if x.BaseRec != nil {
			sb.WriteString("^base ")
		}
		for _, f := range x.Fields {
			sb.WriteString(f.Name + ":" + describeType(f.Type, depth+1) + ";")
		}
		for _, m := range x.Methods {
			sb.WriteString(m.Name + "();")
		}
		sb.WriteString("}")
		return sb.String()
	case *ast.ProcType:
		var sb strings.Builder
		sb.WriteString("proc(")
		for _, f := range x.Formals {
			sb.WriteString(f.Name + ":" + describeType(f.Type, depth+1) + ";")
		}
		sb.WriteString(")")
		if x.Return != nil {
			sb.WriteString(":" + describeType(x.Return, depth+1))
		}
		return sb.String()
	case *ast.Enumeration:
		names := make([]string, 0, len(x.Items))
		for _, item := range x.Items {
			names = append(names, item.Name)
		}
		return "enum(" + strings.Join(names, ",") + ")"
	}
	return "?"
}

func describeModule(m *ast.Module) []string {
	var out []string
	var walk func(s *ast.Scope)
	walk = func(s *ast.Scope) {
		for _, e := range s.Order {
			out = append(out, describeEntity(e))
			if p, ok := e.(*ast.Procedure); ok {
				walk(&p.Scope)
			}
		}
	}
	walk(&m.Scope)
	return out
}

// Pretty-printing a resolved module and re-parsing it yields a module
// whose resolved graph is structurally equal to the original.
func TestResolutionRoundTrip(t *testing.T) {
	src := `
MODULE M;
CONST limit* = 8;
TYPE
	Point* = RECORD x*, y*: INTEGER END;
	Shape* = RECORD origin*: Point END;
	Circle* = RECORD (Shape) radius*: INTEGER END;
	PShape* = POINTER TO Shape;
VAR count: INTEGER; root: PShape;

PROCEDURE (VAR self: Shape) Area*(): INTEGER;
BEGIN
	RETURN 0
END Area;

PROCEDURE (VAR self: Circle) Area*(): INTEGER;
BEGIN
	RETURN 3 * self.radius * self.radius
END Area;

PROCEDURE Bump*(VAR n: INTEGER);
BEGIN
	n := n + 1
END Bump;

BEGIN
	count := limit;
	Bump(count)
END M.
`
	bag, mod := checkOne(t, src)
	wantClean(t, bag)

	printed := diagfmt.PrintModule(mod)
	bag2, mods2 := checkSrc(t, map[string]string{"M": printed}, "M")
	if bag2.HasErrors() {
		t.Fatalf("re-parse of printed module failed: %v\nsource:\n%s", codes(bag2), printed)
	}
	got := describeModule(mods2["M"])
	want := describeModule(mod)
	if len(got) != len(want) {
		t.Fatalf("entity count differs: %d vs %d\nprinted:\n%s", len(got), len(want), printed)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entity %d differs:\n  got  %s\n  want %s\nprinted:\n%s",
				i, got[i], want[i], printed)
		}
	}
}
