package driver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"obx/internal/diag"
	"obx/internal/diagfmt"
	"obx/internal/preload"
)

func newDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := New(Options{WithStdlib: true})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDuplicatePath(t *testing.T) {
	d := newDriver(t)
	if err := d.AddFile("M", []byte("MODULE M; END M.")); err != nil {
		t.Fatal(err)
	}
	err := d.AddFile("M", []byte("MODULE M; END M."))
	if !errors.Is(err, ErrDuplicatePath) {
		t.Fatalf("got %v, want duplicate-path", err)
	}
}

func TestHelloAgainstStdlib(t *testing.T) {
	d := newDriver(t)
	src := `
MODULE Hello;
IMPORT Out;
BEGIN
	Out.String("hello");
	Out.Ln
END Hello.
`
	if err := d.AddFile("Hello", []byte(src)); err != nil {
		t.Fatal(err)
	}
	res, err := d.ParseFiles(context.Background(), []string{"Hello"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	mods := d.Modules()
	if len(mods) != 2 {
		t.Fatalf("modules %d, want Out then Hello", len(mods))
	}
	if mods[0].Name != "Out" || mods[1].Name != "Hello" {
		t.Fatalf("order %s, %s; imports must precede importers", mods[0].Name, mods[1].Name)
	}
}

func TestAddPreloadPayload(t *testing.T) {
	d := newDriver(t)
	payload := &preload.Payload{
		Name: "Console",
		Procs: []preload.ProcDef{
			{Name: "Write", Type: preload.TypeRef{
				Kind: preload.RefProc,
				Params: []preload.ParamDef{
					{Name: "n", Type: preload.TypeRef{Kind: preload.RefBase, Name: "INTEGER"}},
				},
			}},
		},
	}
	data, err := preload.Encode(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AddPreload("Console", data); err != nil {
		t.Fatal(err)
	}
	src := `
MODULE M;
IMPORT Console;
BEGIN
	Console.Write(1)
END M.
`
	if err := d.AddFile("M", []byte(src)); err != nil {
		t.Fatal(err)
	}
	res, err := d.ParseFiles(context.Background(), []string{"M"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
}

func TestAddPreloadDefinitionSource(t *testing.T) {
	d := newDriver(t)
	def := `
DEFINITION Log;
PROCEDURE Msg(s: ARRAY OF CHAR);
END Log.
`
	if err := d.AddPreload("Log", []byte(def)); err != nil {
		t.Fatal(err)
	}
	src := `
MODULE M;
IMPORT Log;
BEGIN
	Log.Msg("x")
END M.
`
	if err := d.AddFile("M", []byte(src)); err != nil {
		t.Fatal(err)
	}
	res, err := d.ParseFiles(context.Background(), []string{"M"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
}

func TestClear(t *testing.T) {
	d := newDriver(t)
	if err := d.AddFile("M", []byte("MODULE M; END M.")); err != nil {
		t.Fatal(err)
	}
	d.Clear()
	if err := d.AddFile("M", []byte("MODULE M; END M.")); err != nil {
		t.Fatalf("Clear did not drop the registry: %v", err)
	}
	// Standard preloads survive Clear.
	src := "MODULE N;\nIMPORT Out;\nBEGIN Out.Ln END N.\n"
	if err := d.AddFile("N", []byte(src)); err != nil {
		t.Fatal(err)
	}
	res, err := d.ParseFiles(context.Background(), []string{"N"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
}

func TestCancellation(t *testing.T) {
	d := newDriver(t)
	if err := d.AddFile("M", []byte("MODULE M; END M.")); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.ParseFiles(ctx, []string{"M"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

// Determinism: identical inputs render identical diagnostic streams.
func TestDeterministicDiagnostics(t *testing.T) {
	src := `
MODULE M;
VAR a: Missing; b: BOOLEAN;
BEGIN
	b := 1;
	unknown := 2
END M.
`
	render := func() string {
		d := newDriver(t)
		if err := d.AddFile("M", []byte(src)); err != nil {
			t.Fatal(err)
		}
		res, err := d.ParseFiles(context.Background(), []string{"M"})
		if err != nil {
			t.Fatal(err)
		}
		var sb strings.Builder
		diagfmt.Write(&sb, res.Bag, d.FileSet(), diagfmt.Options{})
		return sb.String()
	}
	first := render()
	second := render()
	if first != second {
		t.Fatalf("diagnostic streams differ:\n%s\n---\n%s", first, second)
	}
	if first == "" {
		t.Fatal("expected diagnostics for the broken module")
	}
}

func TestMaxDiagnostics(t *testing.T) {
	d, err := New(Options{MaxDiagnostics: 2})
	if err != nil {
		t.Fatal(err)
	}
	src := `
MODULE M;
VAR a: X1; b: X2; c: X3; e: X4;
END M.
`
	if err := d.AddFile("M", []byte(src)); err != nil {
		t.Fatal(err)
	}
	res, err := d.ParseFiles(context.Background(), []string{"M"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() > 2 {
		t.Fatalf("cap ignored: %d diagnostics", res.Bag.Len())
	}
	if _, has := diagByCode(res.Bag, diag.SemUnresolvedIdent); !has {
		t.Fatal("expected unresolved-ident diagnostics")
	}
}

func diagByCode(bag *diag.Bag, code diag.Code) (diag.Diagnostic, bool) {
	for _, d := range bag.Items() {
		if d.Code == code {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}
