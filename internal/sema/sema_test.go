package sema

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/source"
)

// checkSrc parses and checks the given modules, requesting roots in
// order, and returns the diagnostics plus the validated modules by
// name.
func checkSrc(t *testing.T, srcs map[string]string, roots ...string) (*diag.Bag, map[string]*ast.Module) {
	t.Helper()
	fs := source.NewFileSet()
	units := make(map[string]source.FileID)
	for name, src := range srcs {
		units[name] = fs.AddVirtual(name+".obx", []byte(src))
	}
	fetch := func(path []string) (*source.File, error) {
		id, ok := units[strings.Join(path, ".")]
		if !ok {
			return nil, nil
		}
		return fs.Get(id), nil
	}
	bag := diag.NewBag(64)
	reporter := diag.BagReporter{Bag: bag}
	graph := NewGraph(fetch, nil, reporter)
	for _, root := range roots {
		graph.Request(strings.Split(root, "."))
	}
	shared := NewContext()
	mods := make(map[string]*ast.Module)
	for _, mod := range graph.Order() {
		if err := Check(context.Background(), mod, shared, Options{Reporter: reporter}); err != nil {
			t.Fatal(err)
		}
		mods[mod.Name] = mod
	}
	bag.Sort()
	return bag, mods
}

func checkOne(t *testing.T, src string) (*diag.Bag, *ast.Module) {
	t.Helper()
	bag, mods := checkSrc(t, map[string]string{"M": src}, "M")
	return bag, mods["M"]
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func hasCode(bag *diag.Bag, want diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == want {
			return true
		}
	}
	return false
}

func wantClean(t *testing.T, bag *diag.Bag) {
	t.Helper()
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
}

func TestConstFolding(t *testing.T) {
	bag, mod := checkOne(t, `
MODULE M;
CONST c = 1 + 2 * 3;
END M.
`)
	wantClean(t, bag)
	cn, ok := mod.Scope.Find("c", false).(*ast.Const)
	if !ok {
		t.Fatal("c is not a Const")
	}
	if deref(cn.Type) != ast.Type(ast.IntegerType) {
		t.Fatalf("c has type %v, want INTEGER", cn.Type)
	}
	if got, _ := cn.Val.(int64); got != 7 {
		t.Fatalf("c = %v, want 7", cn.Val)
	}
}

func TestConstKinds(t *testing.T) {
	bag, mod := checkOne(t, `
MODULE M;
CONST
	pi = 3.1415;
	yes = TRUE & (1 < 2);
	greeting = "hi";
	mask = {0, 2..4};
	rest = 7 MOD 3;
	neg = (-7) DIV 2;
END M.
`)
	wantClean(t, bag)
	want := map[string]ast.Value{
		"pi":       3.1415,
		"yes":      true,
		"greeting": "hi",
		"mask":     ast.SetVal(0b11101),
		"rest":     int64(1),
		"neg":      int64(-4), // floored division
	}
	for name, expect := range want {
		cn := mod.Scope.Find(name, false).(*ast.Const)
		if cn.Val != expect {
			t.Errorf("%s = %v, want %v", name, cn.Val, expect)
		}
	}
}

func TestConstNotConstant(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR x: INTEGER;
CONST c = x + 1;
END M.
`)
	if !hasCode(bag, diag.SemConstNotConstant) {
		t.Fatalf("want const-not-constant, got %v", codes(bag))
	}
}

func TestForwardPointer(t *testing.T) {
	bag, mod := checkOne(t, `
MODULE M;
TYPE
	P = POINTER TO R;
	R = RECORD next: P; val: INTEGER END;
END M.
`)
	wantClean(t, bag)
	pDecl := mod.Scope.Find("P", false).(*ast.NamedType)
	rDecl := mod.Scope.Find("R", false).(*ast.NamedType)
	ptr := pDecl.Type.(*ast.Pointer)
	rec, ok := deref(ptr.To).(*ast.Record)
	if !ok || rec != rDecl.Type {
		t.Fatalf("P does not point at R")
	}
	next := rec.Fields[0]
	if next.Name != "next" || deref(next.Type) != ast.Type(ptr) {
		t.Fatalf("R.next is not linked back to P")
	}
}

func TestExtensionAndOverride(t *testing.T) {
	bag, mod := checkOne(t, `
MODULE M;
TYPE
	A = RECORD x: INTEGER END;
	B = RECORD (A) y: INTEGER END;

PROCEDURE (VAR self: A) P;
END P;

PROCEDURE (VAR self: B) P;
END P;

END M.
`)
	wantClean(t, bag)
	aRec := mod.Scope.Find("A", false).(*ast.NamedType).Type.(*ast.Record)
	bRec := mod.Scope.Find("B", false).(*ast.NamedType).Type.(*ast.Record)
	if bRec.BaseRec != aRec {
		t.Fatal("B does not extend A")
	}
	if len(aRec.SubRecs) != 1 || aRec.SubRecs[0] != bRec {
		t.Fatal("A does not list B as a sub-record")
	}
	aP := aRec.Find("P", false).(*ast.Procedure)
	bP := bRec.Find("P", false).(*ast.Procedure)
	if aP == bP {
		t.Fatal("lookup of P on B returned the base method")
	}
	if bP.Super != aP {
		t.Fatal("override is not linked to the overridden method")
	}
	if len(aP.Subs) != 1 || aP.Subs[0] != bP {
		t.Fatal("base method does not list its override")
	}
}

func TestOverrideSignatureMismatch(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE
	A = RECORD x: INTEGER END;
	B = RECORD (A) y: INTEGER END;

PROCEDURE (VAR self: A) P(n: INTEGER);
END P;

PROCEDURE (VAR self: B) P(n: REAL);
END P;

END M.
`)
	if !hasCode(bag, diag.ValOverrideSignature) {
		t.Fatalf("want override-signature-mismatch, got %v", codes(bag))
	}
}

func TestOverrideVisibilityNarrow(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE
	A = RECORD x: INTEGER END;
	B = RECORD (A) y: INTEGER END;

PROCEDURE (VAR self: A) P*;
END P;

PROCEDURE (VAR self: B) P;
END P;

END M.
`)
	if !hasCode(bag, diag.ValOverrideVisibility) {
		t.Fatalf("want override-visibility-narrow, got %v", codes(bag))
	}
}

func TestTypeCaseNarrowing(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE
	A = RECORD x: INTEGER END;
	B = RECORD (A) y: INTEGER END;
	C = RECORD (A) z: INTEGER END;
	PA = POINTER TO A;
VAR a: PA;
BEGIN
	CASE a OF
		B: a.y := 1
	|	C: a.z := 2
	END
END M.
`)
	wantClean(t, bag)
}

func TestTypeCaseDuplicateLabel(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE
	A = RECORD x: INTEGER END;
	B = RECORD (A) y: INTEGER END;
	PA = POINTER TO A;
VAR a: PA;
BEGIN
	CASE a OF
		B: a.y := 1
	|	B: a.y := 2
	END
END M.
`)
	if !hasCode(bag, diag.SemCaseLabelOverlap) {
		t.Fatalf("want case-label-overlap, got %v", codes(bag))
	}
}

func TestWithNarrowing(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE
	A = RECORD x: INTEGER END;
	B = RECORD (A) y: INTEGER END;
	PA = POINTER TO A;
VAR a: PA;
BEGIN
	WITH a: B DO
		a.y := 1
	END
END M.
`)
	wantClean(t, bag)
}

func TestOpenArrayParameter(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR v: ARRAY 10 OF INTEGER; total: INTEGER;

PROCEDURE Sum(VAR xs: ARRAY OF INTEGER): INTEGER;
VAR i, s: INTEGER;
BEGIN
	s := 0;
	FOR i := 0 TO LEN(xs) - 1 DO
		s := s + xs[i]
	END;
	RETURN s
END Sum;

BEGIN
	total := Sum(v)
END M.
`)
	wantClean(t, bag)
}

func TestReadonlyViolation(t *testing.T) {
	bag, mods := checkSrc(t, map[string]string{
		"A": `
MODULE A;
VAR x-: INTEGER;
END A.
`,
		"B": `
MODULE B;
IMPORT A;
BEGIN
	A.x := 0
END B.
`,
	}, "B")
	if !hasCode(bag, diag.SemReadonlyViolation) {
		t.Fatalf("want readonly-violation, got %v", codes(bag))
	}
	if !mods["B"].HasErrors {
		t.Fatal("B must be marked broken")
	}
	if mods["A"].HasErrors {
		t.Fatal("A must be unaffected")
	}
}

func TestReadonlyReadIsFine(t *testing.T) {
	bag, _ := checkSrc(t, map[string]string{
		"A": `
MODULE A;
VAR x-: INTEGER;
END A.
`,
		"B": `
MODULE B;
IMPORT A;
VAR y: INTEGER;
BEGIN
	y := A.x
END B.
`,
	}, "B")
	wantClean(t, bag)
}

func TestNotExported(t *testing.T) {
	bag, _ := checkSrc(t, map[string]string{
		"A": `
MODULE A;
VAR hidden: INTEGER;
END A.
`,
		"B": `
MODULE B;
IMPORT A;
VAR y: INTEGER;
BEGIN
	y := A.hidden
END B.
`,
	}, "B")
	if !hasCode(bag, diag.SemNotExported) {
		t.Fatalf("want not-exported, got %v", codes(bag))
	}
}

func TestModuleCycle(t *testing.T) {
	bag, _ := checkSrc(t, map[string]string{
		"A": "MODULE A;\nIMPORT B;\nEND A.\n",
		"B": "MODULE B;\nIMPORT A;\nEND B.\n",
	}, "A")
	if !hasCode(bag, diag.SemModuleCycle) {
		t.Fatalf("want module-cycle, got %v", codes(bag))
	}
	if !hasCode(bag, diag.SemImportBroken) {
		t.Fatalf("want import-broken on the importer, got %v", codes(bag))
	}
}

func TestDuplicateName(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR x: INTEGER;
VAR x: REAL;
END M.
`)
	if !hasCode(bag, diag.SemDuplicateName) {
		t.Fatalf("want duplicate-name, got %v", codes(bag))
	}
}

func TestUnresolvedIdent(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR x: INTEGER;
BEGIN
	x := nope
END M.
`)
	if !hasCode(bag, diag.SemUnresolvedIdent) {
		t.Fatalf("want unresolved-ident, got %v", codes(bag))
	}
}

func TestPointerBaseIllegal(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE P = POINTER TO INTEGER;
END M.
`)
	if !hasCode(bag, diag.SemPointerBaseIllegal) {
		t.Fatalf("want pointer-base-illegal, got %v", codes(bag))
	}
}

func TestIllegalSelfRef(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE T = T;
END M.
`)
	if !hasCode(bag, diag.SemIllegalSelfRef) {
		t.Fatalf("want illegal-self-ref, got %v", codes(bag))
	}
}

func TestArrayLengthError(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE A = ARRAY 0 OF INTEGER;
END M.
`)
	if !hasCode(bag, diag.SemArrayLenError) {
		t.Fatalf("want array-length-error, got %v", codes(bag))
	}
}

func TestAssignIncompatible(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR b: BOOLEAN; n: INTEGER;
BEGIN
	b := n
END M.
`)
	if !hasCode(bag, diag.SemAssignIncompatible) {
		t.Fatalf("want assign-incompatible, got %v", codes(bag))
	}
}

func TestNumericWidening(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR wide: LONGINT; narrow: INTEGER; r: REAL;
BEGIN
	wide := narrow;
	r := narrow
END M.
`)
	wantClean(t, bag)
}

func TestNarrowingNeedsConversion(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR wide: LONGINT; narrow: INTEGER;
BEGIN
	narrow := wide
END M.
`)
	if !hasCode(bag, diag.SemAssignIncompatible) {
		t.Fatalf("want assign-incompatible, got %v", codes(bag))
	}
}

func TestNilAssignment(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE R = RECORD x: INTEGER END; P = POINTER TO R;
VAR p: P; f: PROCEDURE (n: INTEGER);
BEGIN
	p := NIL;
	f := NIL
END M.
`)
	wantClean(t, bag)
}

func TestPointerExtensionAssignment(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE
	A = RECORD x: INTEGER END;
	B = RECORD (A) y: INTEGER END;
	PA = POINTER TO A;
	PB = POINTER TO B;
VAR pa: PA; pb: PB;
BEGIN
	pa := pb
END M.
`)
	wantClean(t, bag)
}

func TestExtensionTransitivity(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE
	T = RECORD a: INTEGER END;
	S = RECORD (T) b: INTEGER END;
	R = RECORD (S) c: INTEGER END;
	PT = POINTER TO T;
	PR = POINTER TO R;
VAR pt: PT; pr: PR;
BEGIN
	pt := pr
END M.
`)
	wantClean(t, bag)
}

func TestStringLiteralIntoCharArray(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR small: ARRAY 3 OF CHAR; big: ARRAY 6 OF CHAR;
BEGIN
	big := "hello";
	small := "hello"
END M.
`)
	if !hasCode(bag, diag.SemAssignIncompatible) {
		t.Fatalf("want assign-incompatible for the short array, got %v", codes(bag))
	}
	n := 0
	for _, d := range bag.Items() {
		if d.Code == diag.SemAssignIncompatible {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("exactly one assignment must fail, got %d", n)
	}
}

func TestExitOutsideLoop(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR n: INTEGER;
BEGIN
	WHILE n < 10 DO EXIT END
END M.
`)
	if !hasCode(bag, diag.SemExitOutsideLoop) {
		t.Fatalf("want exit-outside-loop, got %v", codes(bag))
	}
}

func TestExitInsideLoop(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR n: INTEGER;
BEGIN
	LOOP
		n := n + 1;
		IF n > 3 THEN EXIT END
	END
END M.
`)
	wantClean(t, bag)
}

func TestForStepZero(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
PROCEDURE Run;
VAR i: INTEGER;
BEGIN
	FOR i := 0 TO 10 BY 0 DO END
END Run;
END M.
`)
	if !hasCode(bag, diag.SemForStepZero) {
		t.Fatalf("want for-step-zero, got %v", codes(bag))
	}
}

func TestForControlAssigned(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
PROCEDURE Run;
VAR i: INTEGER;
BEGIN
	FOR i := 0 TO 10 DO i := 5 END
END Run;
END M.
`)
	if !hasCode(bag, diag.SemForControlAssigned) {
		t.Fatalf("want for-control-assigned, got %v", codes(bag))
	}
}

func TestCaseLabelOverlap(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR n: INTEGER;
BEGIN
	CASE n OF
		1..5: n := 0
	|	3: n := 1
	ELSE n := 2
	END
END M.
`)
	if !hasCode(bag, diag.SemCaseLabelOverlap) {
		t.Fatalf("want case-label-overlap, got %v", codes(bag))
	}
}

func TestMissingReturn(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
PROCEDURE F(n: INTEGER): INTEGER;
BEGIN
	IF n > 0 THEN RETURN 1 END
END F;
END M.
`)
	if !hasCode(bag, diag.ValMissingReturn) {
		t.Fatalf("want missing-return, got %v", codes(bag))
	}
}

func TestReturnOnAllPaths(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
PROCEDURE Sign(n: INTEGER): INTEGER;
BEGIN
	IF n > 0 THEN RETURN 1
	ELSIF n < 0 THEN RETURN -1
	ELSE RETURN 0
	END
END Sign;
END M.
`)
	wantClean(t, bag)
}

func TestUnusedImportWarning(t *testing.T) {
	bag, _ := checkSrc(t, map[string]string{
		"A": "MODULE A;\nVAR x*: INTEGER;\nEND A.\n",
		"B": "MODULE B;\nIMPORT A;\nEND B.\n",
	}, "B")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(bag))
	}
	if !hasCode(bag, diag.ValUnusedImport) {
		t.Fatalf("want unused-import warning, got %v", codes(bag))
	}
}

func TestGenericInstantiationShared(t *testing.T) {
	bag, mod := checkOne(t, `
MODULE M;
TYPE List<T> = POINTER TO RECORD val: T; next: List<T> END;
VAR a: List<INTEGER>;
VAR b: List<INTEGER>;
VAR c: List<REAL>;
BEGIN
	a := b;
	NEW(a);
	a.val := 1
END M.
`)
	wantClean(t, bag)
	aVar := mod.Scope.Find("a", false).(*ast.Variable)
	bVar := mod.Scope.Find("b", false).(*ast.Variable)
	cVar := mod.Scope.Find("c", false).(*ast.Variable)
	if deref(aVar.Type) != deref(bVar.Type) {
		t.Fatal("identical instantiations must share identity")
	}
	if deref(aVar.Type) == deref(cVar.Type) {
		t.Fatal("distinct instantiations must not share identity")
	}
	rec, ok := deref(deref(aVar.Type).(*ast.Pointer).To).(*ast.Record)
	if !ok {
		t.Fatal("instantiation is not a pointer to record")
	}
	if deref(rec.Fields[0].Type) != ast.Type(ast.IntegerType) {
		t.Fatalf("val substituted to %v, want INTEGER", rec.Fields[0].Type)
	}
}

func TestGuardInvalid(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE
	A = RECORD x: INTEGER END;
	B = RECORD y: INTEGER END;
	PA = POINTER TO A;
VAR a: PA; n: INTEGER;
BEGIN
	n := a(B).y
END M.
`)
	if !hasCode(bag, diag.SemInvalidGuard) {
		t.Fatalf("want invalid-guard, got %v", codes(bag))
	}
}

func TestDivRequiresIntegers(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
VAR r: REAL;
BEGIN
	r := 1.5 DIV 2.0
END M.
`)
	if !hasCode(bag, diag.SemIntegerOnly) {
		t.Fatalf("want integer-only, got %v", codes(bag))
	}
}

func TestSetOperations(t *testing.T) {
	bag, mod := checkOne(t, `
MODULE M;
CONST
	u = {0, 1} + {2};
	d = {0, 1, 2} - {1};
	i = {0, 1} * {1, 2};
	x = {0, 1} / {1, 2};
VAR s: SET; ok: BOOLEAN;
BEGIN
	s := u;
	ok := 1 IN s
END M.
`)
	wantClean(t, bag)
	want := map[string]ast.SetVal{
		"u": 0b111,
		"d": 0b101,
		"i": 0b010,
		"x": 0b101,
	}
	for name, expect := range want {
		cn := mod.Scope.Find(name, false).(*ast.Const)
		if cn.Val != expect {
			t.Errorf("%s = %v, want %v", name, cn.Val, expect)
		}
	}
}

func TestEnumeration(t *testing.T) {
	bag, _ := checkOne(t, `
MODULE M;
TYPE Color = (red, green, blue);
VAR c: Color;
BEGIN
	c := green;
	CASE c OF
		red: c := blue
	|	green, blue: c := red
	END
END M.
`)
	wantClean(t, bag)
}

func TestExtensionTooDeep(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("MODULE M;\nTYPE\n\tT0 = RECORD x: INTEGER END;\n")
	for i := 1; i <= 17; i++ {
		fmt.Fprintf(&sb, "\tT%d = RECORD (T%d) END;\n", i, i-1)
	}
	sb.WriteString("END M.\n")
	bag, _ := checkOne(t, sb.String())
	if !hasCode(bag, diag.SemExtensionTooDeep) {
		t.Fatalf("want extension-too-deep, got %v", codes(bag))
	}
}

func TestEveryExpressionTyped(t *testing.T) {
	bag, mod := checkOne(t, `
MODULE M;
TYPE R = RECORD x: INTEGER END; P = POINTER TO R;
VAR p: P; n: INTEGER; ok: BOOLEAN;

PROCEDURE Twice(v: INTEGER): INTEGER;
BEGIN
	RETURN 2 * v
END Twice;

BEGIN
	NEW(p);
	p.x := Twice(3);
	n := p.x + 1;
	ok := (n > 0) & ~(n = 2)
END M.
`)
	wantClean(t, bag)
	untyped := 0
	seen := 0
	visit := ast.VisitorFunc(func(n ast.Thing) bool {
		if e, ok := n.(ast.Expression); ok {
			seen++
			if e.Type() == nil {
				untyped++
			}
		}
		return true
	})
	ast.WalkModule(mod, visit)
	if seen == 0 {
		t.Fatal("walk visited no expressions")
	}
	if untyped != 0 {
		t.Fatalf("%d of %d expressions have no type", untyped, seen)
	}
}
