package source

import "testing"

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.obx", []byte("one\ntwo\nthree"))

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{"start of file", 0, LineCol{Line: 1, Col: 1}},
		{"end of first word", 2, LineCol{Line: 1, Col: 3}},
		{"newline belongs to its line", 3, LineCol{Line: 1, Col: 4}},
		{"start of second line", 4, LineCol{Line: 2, Col: 1}},
		{"start of third line", 8, LineCol{Line: 3, Col: 1}},
		{"inside third line", 10, LineCol{Line: 3, Col: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
			if start != tt.want {
				t.Fatalf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.obx", []byte("one\ntwo\nthree"))
	f := fs.Get(id)
	for i, want := range []string{"one", "two", "three"} {
		if got := f.Line(uint32(i + 1)); got != want {
			t.Fatalf("line %d: got %q, want %q", i+1, got, want)
		}
	}
	if got := f.Line(4); got != "" {
		t.Fatalf("line 4: got %q, want empty", got)
	}
}

func TestNormalization(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.obx", []byte("\xEF\xBB\xBFx\r\ny"))
	f := fs.Get(id)
	if string(f.Content) != "x\ny" {
		t.Fatalf("content %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatal("normalization flags not recorded")
	}
}

func TestGetByPath(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("dir/a.obx", []byte("x"))
	if _, ok := fs.GetByPath("dir/a.obx"); !ok {
		t.Fatal("file not found by path")
	}
	if fs.Has("dir/b.obx") {
		t.Fatal("phantom file")
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("abc")
	b := in.InternBytes([]byte("abc"))
	if a != b {
		t.Fatal("same spelling interned twice")
	}
	if s := in.MustLookup(a); s != "abc" {
		t.Fatalf("lookup got %q", s)
	}
	if in.Len() != 2 { // "" plus "abc"
		t.Fatalf("len %d", in.Len())
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 8 {
		t.Fatalf("cover got %+v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if a.Cover(other) != a {
		t.Fatal("cover across files must be a no-op")
	}
}
