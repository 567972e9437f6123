package diagfmt

import (
	"fmt"
	"strconv"
	"strings"

	"obx/internal/ast"
)

// PrintModule renders a resolved module back to source text. The
// output re-parses into a module whose resolved graph is structurally
// equal to the original; expression nesting is parenthesized
// conservatively, which does not change structure.
func PrintModule(m *ast.Module) string {
	p := &printer{}
	p.module(m)
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(s string) {
	p.sb.WriteString(strings.Repeat("\t", p.indent))
	p.sb.WriteString(s)
	p.sb.WriteByte('\n')
}

func (p *printer) module(m *ast.Module) {
	head := "MODULE " + m.Name
	if m.IsDef {
		head = "DEFINITION " + m.Name
	}
	if len(m.MetaParams) > 0 {
		head += "<" + genericNames(m.MetaParams) + ">"
	}
	p.line(head + ";")
	if len(m.Imports) > 0 {
		parts := make([]string, 0, len(m.Imports))
		for _, imp := range m.Imports {
			s := strings.Join(imp.Path, ".")
			if imp.Name != imp.Path[len(imp.Path)-1] {
				s = imp.Name + " := " + s
			}
			parts = append(parts, s)
		}
		p.line("IMPORT " + strings.Join(parts, ", ") + ";")
	}
	p.decls(&m.Scope, m.IsDef)
	if !m.IsDef && len(m.Scope.Body) > 0 {
		p.line("BEGIN")
		p.stmts(m.Scope.Body)
	}
	p.line("END " + m.Name + ".")
}

func genericNames(params []*ast.GenericName) string {
	names := make([]string, 0, len(params))
	for _, gp := range params {
		names = append(names, gp.Name)
	}
	return strings.Join(names, ", ")
}

func exportMark(v ast.Visibility) string {
	switch v {
	case ast.ReadWrite:
		return "*"
	case ast.ReadOnly:
		return "-"
	}
	return ""
}

// decls prints the scope's entities grouped by section, in insertion
// order within each section.
func (p *printer) decls(s *ast.Scope, isDef bool) {
	var consts, types, vars []string
	var procs []*ast.Procedure
	for _, e := range s.Order {
		switch x := e.(type) {
		case *ast.Const:
			if x.ConstExpr == nil {
				continue // enumeration items print with their type
			}
			consts = append(consts, x.Name+exportMark(x.Visibility)+" = "+p.expr(x.ConstExpr))
		case *ast.NamedType:
			if x.Synthetic {
				continue
			}
			head := x.Name + exportMark(x.Visibility)
			if len(x.MetaParams) > 0 {
				head += "<" + genericNames(x.MetaParams) + ">"
			}
			types = append(types, head+" = "+p.typ(x.Type))
		case *ast.Variable:
			vars = append(vars, x.Name+exportMark(x.Visibility)+": "+p.typ(x.Type))
		case *ast.LocalVar:
			vars = append(vars, x.Name+": "+p.typ(x.Type))
		case *ast.Procedure:
			procs = append(procs, x)
		}
	}
	p.section("CONST", consts)
	p.section("TYPE", types)
	p.section("VAR", vars)
	for _, proc := range procs {
		p.procedure(proc, isDef)
	}
}

func (p *printer) section(kw string, entries []string) {
	if len(entries) == 0 {
		return
	}
	p.line(kw)
	p.indent++
	for _, e := range entries {
		p.line(e + ";")
	}
	p.indent--
}

func (p *printer) procedure(proc *ast.Procedure, isDef bool) {
	head := "PROCEDURE "
	if proc.Receiver != nil {
		mode := ""
		if proc.Receiver.Var {
			mode = "VAR "
		}
		head += "(" + mode + proc.Receiver.Name + ": " + p.typ(proc.Receiver.Type) + ") "
	}
	head += proc.Name + exportMark(proc.Visibility)
	if len(proc.MetaParams) > 0 {
		head += "<" + genericNames(proc.MetaParams) + ">"
	}
	pt := proc.ProcType()
	head += p.formals(pt)
	p.line(head + ";")
	if isDef {
		return
	}
	p.indent++
	p.decls(&proc.Scope, isDef)
	p.indent--
	if len(proc.Scope.Body) > 0 {
		p.line("BEGIN")
		p.stmts(proc.Scope.Body)
	}
	p.line("END " + proc.Name + ";")
}

func (p *printer) formals(pt *ast.ProcType) string {
	if pt == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for i, f := range pt.Formals {
		if i > 0 {
			sb.WriteString("; ")
		}
		switch {
		case f.Var:
			sb.WriteString("VAR ")
		case f.ConstRef:
			sb.WriteString("IN ")
		}
		sb.WriteString(f.Name + ": " + p.typ(f.Type))
	}
	sb.WriteByte(')')
	if pt.Return != nil {
		sb.WriteString(": " + p.typ(pt.Return))
	}
	return sb.String()
}

func (p *printer) typ(t ast.Type) string {
	switch x := t.(type) {
	case nil:
		return "?"
	case *ast.BaseType:
		return x.BT.String()
	case *ast.QualiType:
		out := p.expr(x.Quali)
		if len(x.MetaActuals) > 0 {
			parts := make([]string, 0, len(x.MetaActuals))
			for _, a := range x.MetaActuals {
				parts = append(parts, p.typ(a))
			}
			out += "<" + strings.Join(parts, ", ") + ">"
		}
		return out
	case *ast.Pointer:
		return "POINTER TO " + p.typ(x.To)
	case *ast.Array:
		if x.Open() {
			return "ARRAY OF " + p.typ(x.Elem)
		}
		return "ARRAY " + strconv.FormatInt(x.Len, 10) + " OF " + p.typ(x.Elem)
	case *ast.Record:
		var sb strings.Builder
		sb.WriteString("RECORD")
		if x.Base != nil {
			sb.WriteString(" (" + p.typ(x.Base) + ")")
		}
		for i, f := range x.Fields {
			if i == 0 {
				sb.WriteByte(' ')
			} else {
				sb.WriteString("; ")
			}
			sb.WriteString(f.Name + exportMark(f.Visibility) + ": " + p.typ(f.Type))
		}
		sb.WriteString(" END")
		return sb.String()
	case *ast.ProcType:
		return "PROCEDURE " + p.formals(x)
	case *ast.Enumeration:
		items := make([]string, 0, len(x.Items))
		for _, item := range x.Items {
			items = append(items, item.Name)
		}
		return "(" + strings.Join(items, ", ") + ")"
	}
	return "?"
}

func (p *printer) stmts(stmts []ast.Statement) {
	p.indent++
	for i, s := range stmts {
		text := p.stmt(s)
		if i < len(stmts)-1 {
			text += ";"
		}
		p.line(text)
	}
	p.indent--
}

func (p *printer) stmt(s ast.Statement) string {
	switch x := s.(type) {
	case *ast.Assign:
		return p.expr(x.Lhs) + " := " + p.expr(x.Rhs)
	case *ast.Call:
		return p.expr(x.What)
	case *ast.Return:
		if x.What == nil {
			return "RETURN"
		}
		return "RETURN " + p.expr(x.What)
	case *ast.Exit:
		return "EXIT"
	case *ast.IfLoop:
		return p.ifLoop(x)
	case *ast.ForLoop:
		return p.forLoop(x)
	case *ast.CaseStmt:
		return p.caseStmt(x)
	}
	return ""
}

// block renders a nested statement sequence inline; the printer keeps
// nested sequences on their own lines via a sub-printer.
func (p *printer) block(stmts []ast.Statement) string {
	sub := &printer{indent: p.indent}
	sub.stmts(stmts)
	out := sub.sb.String()
	return "\n" + strings.TrimSuffix(out, "\n")
}

func (p *printer) ifLoop(x *ast.IfLoop) string {
	switch x.Op {
	case ast.OpIf:
		out := "IF " + p.expr(x.If[0]) + " THEN" + p.block(x.Then[0])
		for i := 1; i < len(x.If); i++ {
			out += "\n" + strings.Repeat("\t", p.indent) + "ELSIF " + p.expr(x.If[i]) + " THEN" + p.block(x.Then[i])
		}
		if len(x.Else) > 0 {
			out += "\n" + strings.Repeat("\t", p.indent) + "ELSE" + p.block(x.Else)
		}
		return out + "\n" + strings.Repeat("\t", p.indent) + "END"
	case ast.OpWhile:
		return "WHILE " + p.expr(x.If[0]) + " DO" + p.block(x.Then[0]) +
			"\n" + strings.Repeat("\t", p.indent) + "END"
	case ast.OpRepeat:
		return "REPEAT" + p.block(x.Then[0]) +
			"\n" + strings.Repeat("\t", p.indent) + "UNTIL " + p.expr(x.If[0])
	case ast.OpLoop:
		return "LOOP" + p.block(x.Then[0]) +
			"\n" + strings.Repeat("\t", p.indent) + "END"
	case ast.OpWith:
		out := "WITH "
		for i, guard := range x.If {
			test, ok := guard.(*ast.BinExpr)
			if !ok {
				continue
			}
			if i > 0 {
				out += "\n" + strings.Repeat("\t", p.indent) + "| "
			}
			out += p.expr(test.Lhs) + ": " + p.expr(test.Rhs) + " DO" + p.block(x.Then[i])
		}
		if len(x.Else) > 0 {
			out += "\n" + strings.Repeat("\t", p.indent) + "ELSE" + p.block(x.Else)
		}
		return out + "\n" + strings.Repeat("\t", p.indent) + "END"
	}
	return ""
}

func (p *printer) forLoop(x *ast.ForLoop) string {
	out := "FOR " + p.expr(x.Id) + " := " + p.expr(x.From) + " TO " + p.expr(x.To)
	if x.By != nil {
		out += " BY " + p.expr(x.By)
	}
	return out + " DO" + p.block(x.Do) + "\n" + strings.Repeat("\t", p.indent) + "END"
}

func (p *printer) caseStmt(x *ast.CaseStmt) string {
	out := "CASE " + p.expr(x.Exp) + " OF"
	for i, arm := range x.Cases {
		labels := make([]string, 0, len(arm.Labels))
		for _, l := range arm.Labels {
			labels = append(labels, p.expr(l))
		}
		prefix := "\n" + strings.Repeat("\t", p.indent)
		if i > 0 {
			prefix += "| "
		} else {
			prefix += "  "
		}
		out += prefix + strings.Join(labels, ", ") + ":" + p.block(arm.Block)
	}
	if x.HasElse {
		out += "\n" + strings.Repeat("\t", p.indent) + "ELSE" + p.block(x.Else)
	}
	return out + "\n" + strings.Repeat("\t", p.indent) + "END"
}

func (p *printer) expr(e ast.Expression) string {
	switch x := e.(type) {
	case nil:
		return "?"
	case *ast.Literal:
		return literalText(x)
	case *ast.SetExpr:
		parts := make([]string, 0, len(x.Parts))
		for _, part := range x.Parts {
			parts = append(parts, p.expr(part))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ast.IdentLeaf:
		return x.Name
	case *ast.IdentSel:
		return p.expr(x.Sub) + "." + x.Name
	case *ast.UnExpr:
		switch x.Op {
		case ast.UnNeg:
			return "(-" + p.expr(x.Sub) + ")"
		case ast.UnNot:
			return "~" + p.expr(x.Sub)
		case ast.UnDeref:
			return p.expr(x.Sub) + "^"
		}
		return p.expr(x.Sub)
	case *ast.ArgExpr:
		args := make([]string, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, p.expr(a))
		}
		open, closing := "(", ")"
		if x.Op == ast.ArgIdx {
			open, closing = "[", "]"
		}
		return p.expr(x.Sub) + open + strings.Join(args, ", ") + closing
	case *ast.BinExpr:
		if x.Op == ast.BinRange {
			return p.expr(x.Lhs) + ".." + p.expr(x.Rhs)
		}
		return "(" + p.expr(x.Lhs) + " " + x.Op.String() + " " + p.expr(x.Rhs) + ")"
	}
	return "?"
}

func literalText(lit *ast.Literal) string {
	switch lit.VType {
	case ast.LitInteger:
		return strconv.FormatInt(lit.Val.(int64), 10)
	case ast.LitReal:
		s := strconv.FormatFloat(lit.Val.(float64), 'E', -1, 64)
		if !strings.Contains(s, ".") {
			// the language requires a decimal point before the scale
			s = strings.Replace(s, "E", ".0E", 1)
		}
		return s
	case ast.LitBoolean:
		if lit.Val.(bool) {
			return "TRUE"
		}
		return "FALSE"
	case ast.LitString:
		return "\"" + lit.Val.(string) + "\""
	case ast.LitChar:
		return fmt.Sprintf("0%XX", lit.Val.(rune))
	case ast.LitNil:
		return "NIL"
	}
	return "?"
}
