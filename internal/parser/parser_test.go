package parser

import (
	"testing"

	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/source"
)

func parse(t *testing.T, src string) (*ast.Module, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.obx", []byte(src)))
	bag := diag.NewBag(32)
	res := ParseFile(file, Options{Reporter: diag.BagReporter{Bag: bag}})
	return res.Module, bag
}

func parseClean(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, bag := parse(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if mod == nil {
		t.Fatal("no module produced")
	}
	return mod
}

func TestModuleShape(t *testing.T) {
	mod := parseClean(t, `
MODULE Shapes;
IMPORT F := Files, Out;

CONST size* = 16;

TYPE
	Point* = RECORD x*, y*: INTEGER END;
	PPoint = POINTER TO Point;

VAR origin: Point;

PROCEDURE Mk*(x, y: INTEGER): Point;
VAR p: Point;
BEGIN
	p.x := x; p.y := y;
	RETURN p
END Mk;

BEGIN
	origin := Mk(0, 0)
END Shapes.
`)
	if mod.Name != "Shapes" {
		t.Fatalf("module name %q", mod.Name)
	}
	if len(mod.Imports) != 2 {
		t.Fatalf("imports %d, want 2", len(mod.Imports))
	}
	if mod.Imports[0].Name != "F" || mod.Imports[0].Path[0] != "Files" {
		t.Fatalf("aliased import parsed as %q -> %v", mod.Imports[0].Name, mod.Imports[0].Path)
	}
	cn, ok := mod.Scope.Find("size", false).(*ast.Const)
	if !ok || cn.Visibility != ast.ReadWrite {
		t.Fatal("size must be an exported constant")
	}
	pt, ok := mod.Scope.Find("Point", false).(*ast.NamedType)
	if !ok {
		t.Fatal("Point missing")
	}
	rec, ok := pt.Type.(*ast.Record)
	if !ok || len(rec.Fields) != 2 {
		t.Fatal("Point is not a two-field record")
	}
	if rec.Decl() != ast.Entity(pt) {
		t.Fatal("record is not linked to its declaration")
	}
	proc, ok := mod.Scope.Find("Mk", false).(*ast.Procedure)
	if !ok {
		t.Fatal("Mk missing")
	}
	sig := proc.ProcType()
	if len(sig.Formals) != 2 || sig.Return == nil {
		t.Fatal("Mk signature wrong")
	}
	if len(mod.Scope.Body) != 1 {
		t.Fatalf("module body has %d statements, want 1", len(mod.Scope.Body))
	}
}

func TestDefinitionModule(t *testing.T) {
	mod := parseClean(t, `
DEFINITION Log;

PROCEDURE Msg(s: ARRAY OF CHAR);
PROCEDURE Err(s: ARRAY OF CHAR);

END Log.
`)
	if !mod.IsDef {
		t.Fatal("DEFINITION module not flagged")
	}
	if mod.Scope.Find("Msg", false) == nil || mod.Scope.Find("Err", false) == nil {
		t.Fatal("definition procedures missing")
	}
}

func TestExportMarks(t *testing.T) {
	mod := parseClean(t, `
MODULE M;
VAR a*: INTEGER; b-: INTEGER; c: INTEGER;
END M.
`)
	want := map[string]ast.Visibility{
		"a": ast.ReadWrite,
		"b": ast.ReadOnly,
		"c": ast.Private,
	}
	for name, vis := range want {
		e := mod.Scope.Find(name, false)
		if e == nil || e.Base().Visibility != vis {
			t.Errorf("%s visibility wrong", name)
		}
	}
}

func TestStatementShapes(t *testing.T) {
	mod := parseClean(t, `
MODULE M;
VAR i, n: INTEGER; done: BOOLEAN;
BEGIN
	IF i = 0 THEN i := 1 ELSIF i = 1 THEN i := 2 ELSE i := 3 END;
	WHILE i < n DO i := i + 1 END;
	REPEAT i := i - 1 UNTIL i = 0;
	FOR i := 0 TO 9 BY 3 DO n := n + i END;
	LOOP EXIT END;
	CASE i OF 0: n := 0 | 1..5: n := 1 ELSE n := 2 END
END M.
`)
	body := mod.Scope.Body
	if len(body) != 6 {
		t.Fatalf("body has %d statements, want 6", len(body))
	}
	ifStmt := body[0].(*ast.IfLoop)
	if ifStmt.Op != ast.OpIf || len(ifStmt.If) != 2 || len(ifStmt.Else) != 1 {
		t.Fatal("IF shape wrong")
	}
	if body[1].(*ast.IfLoop).Op != ast.OpWhile {
		t.Fatal("WHILE shape wrong")
	}
	if body[2].(*ast.IfLoop).Op != ast.OpRepeat {
		t.Fatal("REPEAT shape wrong")
	}
	forStmt := body[3].(*ast.ForLoop)
	if forStmt.By == nil {
		t.Fatal("FOR BY missing")
	}
	if body[4].(*ast.IfLoop).Op != ast.OpLoop {
		t.Fatal("LOOP shape wrong")
	}
	caseStmt := body[5].(*ast.CaseStmt)
	if len(caseStmt.Cases) != 2 || !caseStmt.HasElse {
		t.Fatal("CASE shape wrong")
	}
	if rng, ok := caseStmt.Cases[1].Labels[0].(*ast.BinExpr); !ok || rng.Op != ast.BinRange {
		t.Fatal("range label not parsed")
	}
}

func TestExpressionPrecedence(t *testing.T) {
	mod := parseClean(t, `
MODULE M;
CONST c = 1 + 2 * 3;
END M.
`)
	cn := mod.Scope.Find("c", false).(*ast.Const)
	add, ok := cn.ConstExpr.(*ast.BinExpr)
	if !ok || add.Op != ast.BinAdd {
		t.Fatalf("top operator is not +")
	}
	mul, ok := add.Rhs.(*ast.BinExpr)
	if !ok || mul.Op != ast.BinMul {
		t.Fatal("* does not bind tighter than +")
	}
}

func TestDesignatorChain(t *testing.T) {
	mod := parseClean(t, `
MODULE M;
VAR n: INTEGER;
BEGIN
	n := a.b[i]^.c
END M.
`)
	assign := mod.Scope.Body[0].(*ast.Assign)
	sel, ok := assign.Rhs.(*ast.IdentSel)
	if !ok || sel.Name != "c" {
		t.Fatal("outermost selector is not .c")
	}
	derefExpr, ok := sel.Sub.(*ast.UnExpr)
	if !ok || derefExpr.Op != ast.UnDeref {
		t.Fatal("^ missing under .c")
	}
	idx, ok := derefExpr.Sub.(*ast.ArgExpr)
	if !ok || idx.Op != ast.ArgIdx {
		t.Fatal("index missing under ^")
	}
}

func TestMethodReceiver(t *testing.T) {
	mod := parseClean(t, `
MODULE M;
TYPE T = RECORD x: INTEGER END;

PROCEDURE (VAR self: T) Reset;
BEGIN
	self.x := 0
END Reset;

END M.
`)
	var method *ast.Procedure
	for _, e := range mod.Scope.Order {
		if p, ok := e.(*ast.Procedure); ok && p.Receiver != nil {
			method = p
		}
	}
	if method == nil {
		t.Fatal("method not recorded in module order")
	}
	if method.Receiver.Name != "self" || !method.Receiver.Var || !method.Receiver.Receiver {
		t.Fatal("receiver parameter wrong")
	}
	if mod.Scope.Find("Reset", false) != nil {
		t.Fatal("bound procedure must not enter the module namespace")
	}
}

func TestGenericDeclarations(t *testing.T) {
	mod := parseClean(t, `
MODULE M;
TYPE Pair<K, V> = RECORD key: K; val: V END;
VAR p: Pair<INTEGER, REAL>;
END M.
`)
	nt := mod.Scope.Find("Pair", false).(*ast.NamedType)
	if len(nt.MetaParams) != 2 {
		t.Fatalf("meta params %d, want 2", len(nt.MetaParams))
	}
	v := mod.Scope.Find("p", false).(*ast.Variable)
	q, ok := v.Type.(*ast.QualiType)
	if !ok || len(q.MetaActuals) != 2 {
		t.Fatal("generic actuals not parsed")
	}
}

func TestEnumerationItems(t *testing.T) {
	mod := parseClean(t, `
MODULE M;
TYPE Color = (red, green, blue);
END M.
`)
	enum := mod.Scope.Find("Color", false).(*ast.NamedType).Type.(*ast.Enumeration)
	if len(enum.Items) != 3 {
		t.Fatalf("items %d, want 3", len(enum.Items))
	}
	green, ok := mod.Scope.Find("green", false).(*ast.Const)
	if !ok {
		t.Fatal("enumeration items must be visible in the enclosing scope")
	}
	if got, _ := green.Val.(int64); got != 1 {
		t.Fatalf("green ordinal %v, want 1", green.Val)
	}
}

func TestParseRecovery(t *testing.T) {
	mod, bag := parse(t, `
MODULE M;
VAR x INTEGER;
VAR y: INTEGER;
BEGIN
	y := 1
END M.
`)
	if bag.Len() == 0 {
		t.Fatal("want diagnostics for the missing colon")
	}
	if mod == nil || mod.Scope.Find("y", false) == nil {
		t.Fatal("parser must recover and keep later declarations")
	}
}

func TestClosingNameMismatch(t *testing.T) {
	_, bag := parse(t, "MODULE M;\nEND N.\n")
	if bag.Len() == 0 {
		t.Fatal("want a diagnostic for the wrong closing name")
	}
}
