package lexer

import (
	"testing"

	"obx/internal/diag"
	"obx/internal/source"
	"obx/internal/token"
)

func tokenize(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.obx", []byte(src)))
	bag := diag.NewBag(16)
	lx := New(file, Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.Tokenize(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestTokenKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{
			name: "module header",
			src:  "MODULE M;",
			want: []token.Kind{token.KwModule, token.Ident, token.Semicolon, token.EOF},
		},
		{
			name: "assignment and relation",
			src:  "x := y <= 1;",
			want: []token.Kind{token.Ident, token.Assign, token.Ident, token.LtEq, token.IntLit, token.Semicolon, token.EOF},
		},
		{
			name: "range versus real",
			src:  "1..2 1.5",
			want: []token.Kind{token.IntLit, token.DotDot, token.IntLit, token.RealLit, token.EOF},
		},
		{
			name: "hex and char code",
			src:  "0FFH 41X",
			want: []token.Kind{token.IntLit, token.CharLit, token.EOF},
		},
		{
			name: "scale factor",
			src:  "1.5E3 2.0D1",
			want: []token.Kind{token.RealLit, token.RealLit, token.EOF},
		},
		{
			name: "set and deref",
			src:  "{0..3} p^",
			want: []token.Kind{token.LBrace, token.IntLit, token.DotDot, token.IntLit, token.RBrace, token.Ident, token.Caret, token.EOF},
		},
		{
			name: "keywords are case sensitive",
			src:  "BEGIN begin",
			want: []token.Kind{token.KwBegin, token.Ident, token.EOF},
		},
		{
			name: "proc keyword alias",
			src:  "PROC PROCEDURE",
			want: []token.Kind{token.KwProcedure, token.KwProcedure, token.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := tokenize(t, tt.src)
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %v", bag.Items())
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNestedComment(t *testing.T) {
	toks, bag := tokenize(t, "a (* outer (* inner *) still outer *) b")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	got := kinds(toks)
	want := []token.Kind{token.Ident, token.Ident, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestUnterminatedComment(t *testing.T) {
	_, bag := tokenize(t, "a (* never closed")
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnterminatedComment {
		t.Fatalf("want unterminated-comment, got %v", bag.Items())
	}
}

func TestStringLiterals(t *testing.T) {
	toks, bag := tokenize(t, `"double" 'single'`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if toks[0].Kind != token.StringLit || toks[0].Text != "double" {
		t.Fatalf("got %v %q", toks[0].Kind, toks[0].Text)
	}
	if toks[1].Kind != token.StringLit || toks[1].Text != "single" {
		t.Fatalf("got %v %q", toks[1].Kind, toks[1].Text)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, bag := tokenize(t, "\"no end\nnext")
	if !bagHas(bag, diag.LexUnterminatedString) {
		t.Fatalf("want unterminated-string, got %v", bag.Items())
	}
}

func TestHexWithoutSuffix(t *testing.T) {
	_, bag := tokenize(t, "0FF")
	if !bagHas(bag, diag.LexBadNumber) {
		t.Fatalf("want bad-number, got %v", bag.Items())
	}
}

func TestSpans(t *testing.T) {
	toks, _ := tokenize(t, "ab cd")
	if toks[0].Span.Start != 0 || toks[0].Span.End != 2 {
		t.Fatalf("first span %v", toks[0].Span)
	}
	if toks[1].Span.Start != 3 || toks[1].Span.End != 5 {
		t.Fatalf("second span %v", toks[1].Span)
	}
}

func bagHas(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}
