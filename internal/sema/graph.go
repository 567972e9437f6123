package sema

import (
	"strconv"
	"strings"

	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/parser"
	"obx/internal/source"
)

// Fetcher supplies the source file registered for a dotted module path.
type Fetcher func(path []string) (*source.File, error)

// Graph loads the import closure of the requested modules, detects
// cycles, and yields modules in reverse topological order so imports
// always precede their importers.
type Graph struct {
	reporter diag.Reporter
	fetch    Fetcher
	preloads map[string]*ast.Module

	modules map[string]*ast.Module
	order   []*ast.Module
	loading map[string]bool
}

// NewGraph creates a graph builder. preloads maps canonical module
// names to predigested definition modules admitted without parsing.
func NewGraph(fetch Fetcher, preloads map[string]*ast.Module, reporter diag.Reporter) *Graph {
	return &Graph{
		reporter: reporter,
		fetch:    fetch,
		preloads: preloads,
		modules:  make(map[string]*ast.Module),
		loading:  make(map[string]bool),
	}
}

// Order returns the modules loaded so far, imports before importers.
func (g *Graph) Order() []*ast.Module {
	return g.order
}

// Request loads the module with the given dotted path and its import
// closure. It returns nil when loading failed fatally.
func (g *Graph) Request(path []string) *ast.Module {
	return g.load(path, nil, nil, source.Span{})
}

func moduleKey(path []string, actuals []ast.Type) string {
	key := strings.Join(path, ".")
	if len(actuals) > 0 {
		parts := make([]string, 0, len(actuals))
		for _, a := range actuals {
			parts = append(parts, typeKey(a))
		}
		key += "<" + strings.Join(parts, ",") + ">"
	}
	return key
}

func (g *Graph) load(path []string, actuals []ast.Type, from *ast.Module, loc source.Span) *ast.Module {
	key := moduleKey(path, actuals)
	if mod, ok := g.modules[key]; ok {
		return mod
	}
	if g.loading[key] {
		code := diag.SemModuleCycle
		msg := "import cycle through " + key
		if len(actuals) > 0 {
			code = diag.SemGenericCycle
			msg = "generic instantiation cycle through " + key
		}
		diag.Error(g.reporter, code, loc, msg)
		if from != nil {
			from.HasErrors = true
		}
		return nil
	}

	if mod, ok := g.preloads[strings.Join(path, ".")]; ok {
		g.modules[key] = mod
		g.order = append(g.order, mod)
		return mod
	}

	file, err := g.fetch(path)
	if err != nil || file == nil {
		diag.Error(g.reporter, diag.SemModuleNotFound,
			loc, "module "+strings.Join(path, ".")+" not found")
		if from != nil {
			from.HasErrors = true
		}
		return nil
	}

	g.loading[key] = true
	defer delete(g.loading, key)

	res := parser.ParseFile(file, parser.Options{Reporter: g.reporter})
	mod := res.Module
	if mod == nil {
		return nil
	}
	mod.FullName = append(path[:len(path)-1:len(path)-1], mod.Name)

	if len(actuals) > 0 {
		if len(actuals) != len(mod.MetaParams) {
			diag.Error(g.reporter, diag.SemGenericArity, loc,
				"module "+mod.Name+" expects "+strconv.Itoa(len(mod.MetaParams))+
					" generic parameters, got "+strconv.Itoa(len(actuals)))
		} else {
			for i, gp := range mod.MetaParams {
				gp.Type = actuals[i]
			}
		}
	}

	// Load imports depth-first; post-order append yields the reverse
	// topological order the passes need.
	for _, imp := range mod.Imports {
		childActuals := imp.MetaActuals
		for _, a := range childActuals {
			g.bindActual(a, mod)
		}
		child := g.load(imp.Path, childActuals, mod, imp.Span())
		imp.Mod = child
		if child == nil {
			mod.HasErrors = true
		}
	}

	g.modules[key] = mod
	g.order = append(g.order, mod)
	return mod
}

// bindActual eagerly links the identifier of a generic actual against
// the importing module's scope so the instantiated module can chase it
// lazily during its own resolution.
func (g *Graph) bindActual(t ast.Type, importer *ast.Module) {
	q, ok := t.(*ast.QualiType)
	if !ok {
		return
	}
	switch x := q.Quali.(type) {
	case *ast.IdentLeaf:
		if x.Ident != nil {
			return
		}
		if e := importer.Scope.Find(x.Name, true); e != nil {
			x.Ident = e
			return
		}
		if e := NewUniverse().Find(x.Name); e != nil {
			x.Ident = e
		}
	case *ast.IdentSel:
		leaf, ok := x.Sub.(*ast.IdentLeaf)
		if !ok {
			return
		}
		imp, ok := importer.Scope.Find(leaf.Name, false).(*ast.Import)
		if !ok || imp.Mod == nil {
			return
		}
		leaf.Ident = imp
		if e := imp.Mod.Scope.Find(x.Name, false); e != nil && e.Base().IsPublic() {
			x.Ident = e
		}
	}
}

// typeKey renders a generic actual for instantiation memoization.
func typeKey(t ast.Type) string {
	if t == nil {
		return "?"
	}
	if q, ok := t.(*ast.QualiType); ok {
		if res := q.ResolvedType(); res != nil && res != ast.Type(q) {
			return typeKey(res)
		}
		return q.Pretty()
	}
	return t.Pretty()
}

