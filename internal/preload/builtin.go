package preload

// Definition payloads for the standard preload libraries. They are
// built programmatically, and round-trip through Encode/Decode like
// host-supplied payloads.

import "obx/internal/ast"

func base(name string) TypeRef  { return TypeRef{Kind: RefBase, Name: name} }
func named(name string) TypeRef { return TypeRef{Kind: RefNamed, Name: name} }

func pointerTo(elem TypeRef) TypeRef {
	return TypeRef{Kind: RefPointer, Elem: &elem}
}

func openArray(elem TypeRef) TypeRef {
	return TypeRef{Kind: RefArray, Elem: &elem}
}

func proc(params []ParamDef, ret *TypeRef) TypeRef {
	return TypeRef{Kind: RefProc, Params: params, Return: ret}
}

func val(name string, t TypeRef) ParamDef   { return ParamDef{Name: name, Type: t} }
func byRef(name string, t TypeRef) ParamDef { return ParamDef{Name: name, Var: true, Type: t} }
func byIn(name string, t TypeRef) ParamDef  { return ParamDef{Name: name, In: true, Type: t} }

func intConst(name string, v int64) ConstDef   { return ConstDef{Name: name, Int: &v} }
func realConst(name string, v float64) ConstDef { return ConstDef{Name: name, Real: &v} }

func ret(t TypeRef) *TypeRef { return &t }

var charArray = openArray(base("CHAR"))

// Payloads returns the definition payloads of the standard libraries.
func Payloads() []*Payload {
	return []*Payload{
		inPayload(), outPayload(), filesPayload(), mathPayload(),
		stringsPayload(), inputPayload(), coroutinesPayload(),
	}
}

func inPayload() *Payload {
	return &Payload{
		Name: "In",
		Vars: []VarDef{{Name: "Done", Type: base("BOOLEAN"), ReadOnly: true}},
		Procs: []ProcDef{
			{Name: "Open", Type: proc(nil, nil)},
			{Name: "Char", Type: proc([]ParamDef{byRef("ch", base("CHAR"))}, nil)},
			{Name: "Int", Type: proc([]ParamDef{byRef("i", base("INTEGER"))}, nil)},
			{Name: "LongInt", Type: proc([]ParamDef{byRef("i", base("LONGINT"))}, nil)},
			{Name: "Real", Type: proc([]ParamDef{byRef("r", base("REAL"))}, nil)},
			{Name: "Name", Type: proc([]ParamDef{byRef("name", charArray)}, nil)},
			{Name: "String", Type: proc([]ParamDef{byRef("str", charArray)}, nil)},
		},
	}
}

func outPayload() *Payload {
	return &Payload{
		Name: "Out",
		Procs: []ProcDef{
			{Name: "Open", Type: proc(nil, nil)},
			{Name: "Char", Type: proc([]ParamDef{val("ch", base("CHAR"))}, nil)},
			{Name: "String", Type: proc([]ParamDef{byIn("str", charArray)}, nil)},
			{Name: "Int", Type: proc([]ParamDef{val("i", base("LONGINT")), val("n", base("INTEGER"))}, nil)},
			{Name: "Real", Type: proc([]ParamDef{val("x", base("REAL")), val("n", base("INTEGER"))}, nil)},
			{Name: "Ln", Type: proc(nil, nil)},
		},
	}
}

func filesPayload() *Payload {
	file := named("File")
	rider := named("Rider")
	return &Payload{
		Name: "Files",
		Types: []TypeDef{
			{Name: "File", Type: pointerTo(TypeRef{Kind: RefRecord})},
			{Name: "Rider", Type: TypeRef{Kind: RefRecord, Fields: []FieldDef{
				{Name: "eof", Type: base("BOOLEAN"), ReadOnly: true},
				{Name: "res", Type: base("INTEGER"), ReadOnly: true},
			}}},
		},
		Procs: []ProcDef{
			{Name: "Old", Type: proc([]ParamDef{byIn("name", charArray)}, ret(file))},
			{Name: "New", Type: proc([]ParamDef{byIn("name", charArray)}, ret(file))},
			{Name: "Register", Type: proc([]ParamDef{val("f", file)}, nil)},
			{Name: "Close", Type: proc([]ParamDef{val("f", file)}, nil)},
			{Name: "Length", Type: proc([]ParamDef{val("f", file)}, ret(base("INTEGER")))},
			{Name: "Set", Type: proc([]ParamDef{byRef("r", rider), val("f", file), val("pos", base("INTEGER"))}, nil)},
			{Name: "Read", Type: proc([]ParamDef{byRef("r", rider), byRef("x", base("BYTE"))}, nil)},
			{Name: "Write", Type: proc([]ParamDef{byRef("r", rider), val("x", base("BYTE"))}, nil)},
			{Name: "ReadInt", Type: proc([]ParamDef{byRef("r", rider), byRef("i", base("INTEGER"))}, nil)},
			{Name: "WriteInt", Type: proc([]ParamDef{byRef("r", rider), val("i", base("INTEGER"))}, nil)},
		},
	}
}

func mathPayload() *Payload {
	r := base("REAL")
	unary := proc([]ParamDef{val("x", r)}, ret(r))
	return &Payload{
		Name: "Math",
		Consts: []ConstDef{
			realConst("pi", 3.14159265358979323846),
			realConst("e", 2.71828182845904523536),
		},
		Procs: []ProcDef{
			{Name: "sqrt", Type: unary},
			{Name: "power", Type: proc([]ParamDef{val("x", r), val("base", r)}, ret(r))},
			{Name: "exp", Type: unary},
			{Name: "ln", Type: unary},
			{Name: "log", Type: proc([]ParamDef{val("x", r), val("base", r)}, ret(r))},
			{Name: "round", Type: unary},
			{Name: "sin", Type: unary},
			{Name: "cos", Type: unary},
			{Name: "tan", Type: unary},
			{Name: "arcsin", Type: unary},
			{Name: "arccos", Type: unary},
			{Name: "arctan", Type: unary},
		},
	}
}

func stringsPayload() *Payload {
	i := base("INTEGER")
	return &Payload{
		Name: "Strings",
		Procs: []ProcDef{
			{Name: "Length", Type: proc([]ParamDef{byIn("s", charArray)}, ret(i))},
			{Name: "Insert", Type: proc([]ParamDef{byIn("src", charArray), val("pos", i), byRef("dst", charArray)}, nil)},
			{Name: "Append", Type: proc([]ParamDef{byIn("extra", charArray), byRef("dst", charArray)}, nil)},
			{Name: "Delete", Type: proc([]ParamDef{byRef("s", charArray), val("pos", i), val("n", i)}, nil)},
			{Name: "Replace", Type: proc([]ParamDef{byIn("src", charArray), val("pos", i), byRef("dst", charArray)}, nil)},
			{Name: "Extract", Type: proc([]ParamDef{byIn("src", charArray), val("pos", i), val("n", i), byRef("dst", charArray)}, nil)},
			{Name: "Pos", Type: proc([]ParamDef{byIn("pat", charArray), byIn("s", charArray), val("pos", i)}, ret(i))},
			{Name: "Cap", Type: proc([]ParamDef{byRef("s", charArray)}, nil)},
		},
	}
}

func inputPayload() *Payload {
	return &Payload{
		Name: "Input",
		Consts: []ConstDef{
			intConst("TimeUnit", 1000),
		},
		Procs: []ProcDef{
			{Name: "Available", Type: proc(nil, ret(base("INTEGER")))},
			{Name: "Read", Type: proc([]ParamDef{byRef("ch", base("CHAR"))}, nil)},
			{Name: "Time", Type: proc(nil, ret(base("LONGINT")))},
		},
	}
}

func coroutinesPayload() *Payload {
	coro := named("Coroutine")
	return &Payload{
		Name: "Coroutines",
		Types: []TypeDef{
			{Name: "Coroutine", Type: pointerTo(TypeRef{Kind: RefRecord})},
		},
		Procs: []ProcDef{
			{Name: "Init", Type: proc([]ParamDef{val("body", TypeRef{Kind: RefProc}), val("stackLen", base("INTEGER")), byRef("c", coro)}, nil)},
			{Name: "Transfer", Type: proc([]ParamDef{byRef("from", coro), byRef("to", coro)}, nil)},
		},
	}
}

// Builtin materializes the standard libraries, keyed by module name.
func Builtin() (map[string]*ast.Module, error) {
	out := make(map[string]*ast.Module)
	for _, p := range Payloads() {
		mod, err := Materialize(p)
		if err != nil {
			return nil, err
		}
		out[p.Name] = mod
	}
	return out, nil
}
