package diagfmt

import (
	"strings"
	"testing"

	"obx/internal/diag"
	"obx/internal/source"
)

func TestWritePlain(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.obx", []byte("MODULE M;\nVAR x: Missing;\nEND M.\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SemUnresolvedIdent,
		source.Span{File: id, Start: 17, End: 24}, "Missing is not declared"))

	var sb strings.Builder
	Write(&sb, bag, fs, Options{Context: true})
	out := sb.String()

	if !strings.Contains(out, "m.obx:2:8") {
		t.Fatalf("position missing:\n%s", out)
	}
	if !strings.Contains(out, "error[unresolved-ident]") {
		t.Fatalf("code name missing:\n%s", out)
	}
	if !strings.Contains(out, "VAR x: Missing;") {
		t.Fatalf("source context missing:\n%s", out)
	}
	if !strings.Contains(out, "^^^^^^^") {
		t.Fatalf("caret underline missing:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	bag := diag.NewBag(4)
	if Summary(bag) != "ok" {
		t.Fatal("empty bag must summarize as ok")
	}
	bag.Add(diag.NewWarning(diag.ValUnusedImport, source.Span{}, "w"))
	bag.Add(diag.NewError(diag.SemTypeMismatch, source.Span{}, "e"))
	if got := Summary(bag); got != "1 error(s), 1 warning(s)" {
		t.Fatalf("summary %q", got)
	}
}
