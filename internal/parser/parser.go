// Package parser turns the token stream of one compilation unit into
// the unresolved code model: declarations are entered into their
// scopes, identifier references carry their lexical name with a nil
// target, and type expressions are QualiType placeholders.
package parser

import (
	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/lexer"
	"obx/internal/source"
	"obx/internal/token"
)

// Options configure a parse.
type Options struct {
	Reporter diag.Reporter
}

// Result of parsing one unit.
type Result struct {
	Module *ast.Module
}

// ParseFile lexes and parses one file into a module.
func ParseFile(file *source.File, opts Options) Result {
	lx := lexer.New(file, lexer.Options{Reporter: opts.Reporter})
	p := &parser{
		toks:     lx.Tokenize(),
		file:     file,
		reporter: opts.Reporter,
	}
	return Result{Module: p.parseModule()}
}

type parser struct {
	toks     []token.Token
	pos      int
	file     *source.File
	reporter diag.Reporter
}

func (p *parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *parser) peek() token.Kind {
	return p.toks[p.pos].Kind
}

func (p *parser) peekAt(n int) token.Kind {
	if p.pos+n >= len(p.toks) {
		return token.EOF
	}
	return p.toks[p.pos+n].Kind
}

func (p *parser) at(k token.Kind) bool {
	return p.peek() == k
}

func (p *parser) bump() token.Token {
	t := p.toks[p.pos]
	if p.peek() != token.EOF {
		p.pos++
	}
	return t
}

// eat consumes the current token when it matches k.
func (p *parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.bump()
		return true
	}
	return false
}

// expect consumes a token of kind k or reports expect-token and leaves
// the cursor in place so the caller can resynchronize.
func (p *parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.bump(), true
	}
	diag.Error(p.reporter, diag.SynExpectToken, p.cur().Span,
		"expected "+k.String()+", found "+p.cur().Kind.String())
	return p.cur(), false
}

func (p *parser) expectIdent() (token.Token, bool) {
	if p.at(token.Ident) {
		return p.bump(), true
	}
	diag.Error(p.reporter, diag.SynExpectIdent, p.cur().Span,
		"expected identifier, found "+p.cur().Kind.String())
	return p.cur(), false
}

func (p *parser) error(code diag.Code, sp source.Span, msg string) {
	diag.Error(p.reporter, code, sp, msg)
}

// syncDecl skips tokens until a declaration boundary.
func (p *parser) syncDecl() {
	for {
		switch p.peek() {
		case token.EOF, token.Semicolon,
			token.KwConst, token.KwType, token.KwVar, token.KwProcedure,
			token.KwBegin, token.KwEnd:
			return
		}
		p.bump()
	}
}

// syncStmt skips tokens until a statement boundary.
func (p *parser) syncStmt() {
	for {
		switch p.peek() {
		case token.EOF, token.Semicolon, token.KwEnd, token.KwElse,
			token.KwElsif, token.KwUntil, token.Bar:
			return
		}
		p.bump()
	}
}

// parseModule parses MODULE or DEFINITION units.
func (p *parser) parseModule() *ast.Module {
	isDef := false
	start := p.cur().Span
	switch p.peek() {
	case token.KwModule:
		p.bump()
	case token.KwDefinition:
		p.bump()
		isDef = true
	default:
		p.error(diag.SynUnexpectedToken, p.cur().Span,
			"expected MODULE or DEFINITION, found "+p.cur().Kind.String())
		return nil
	}

	nameTok, ok := p.expectIdent()
	if !ok {
		return nil
	}
	mod := ast.NewModule(start, nameTok.Text)
	mod.IsDef = isDef
	mod.File = p.file.Path
	mod.FullName = []string{nameTok.Text}
	if p.eat(token.Lt) {
		for {
			gp, ok := p.expectIdent()
			if !ok {
				break
			}
			gn := ast.NewGenericName(gp.Span, gp.Text)
			gn.Type = ast.AnyType
			mod.MetaParams = append(mod.MetaParams, gn)
			p.addOrReport(&mod.Scope, gn)
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Gt)
	}
	p.eat(token.Semicolon)

	if p.at(token.KwImport) {
		p.parseImportList(mod)
	}
	p.parseDeclSeq(mod, &mod.Scope)
	if isDef {
		// DEFINITION modules export their declarations implicitly.
		for _, e := range mod.Scope.Order {
			if e.Base().Visibility == ast.Private {
				e.Base().Visibility = ast.ReadWrite
			}
		}
	}

	if !isDef && p.eat(token.KwBegin) {
		mod.Scope.Body = p.parseStatSeq(mod)
	}
	endTok, _ := p.expect(token.KwEnd)
	mod.Scope.End = endTok.Span
	if p.at(token.Ident) {
		closing := p.bump()
		if closing.Text != mod.Name {
			p.error(diag.SynUnexpectedToken, closing.Span,
				"module is named "+mod.Name+", not "+closing.Text)
		}
	}
	p.eat(token.Dot)
	return mod
}

// addOrReport enters e into scope and reports duplicate-name clashes.
func (p *parser) addOrReport(s *ast.Scope, e ast.Entity) {
	if !s.Add(e) {
		p.error(diag.SemDuplicateName, e.Span(),
			e.Base().Name+" is already declared in this scope")
		e.Base().HasErrors = true
	}
}

// identDef parses ident with an optional export mark.
func (p *parser) identDef() (token.Token, ast.Visibility, bool) {
	tok, ok := p.expectIdent()
	if !ok {
		return tok, ast.Private, false
	}
	vis := ast.Private
	switch {
	case p.eat(token.Star):
		vis = ast.ReadWrite
	case p.at(token.Minus) && p.peekAt(1) == token.Colon:
		// A minus directly before ':' is the read-only export mark;
		// elsewhere it would start an expression.
		p.bump()
		vis = ast.ReadOnly
	case p.at(token.Minus) && (p.peekAt(1) == token.Eq || p.peekAt(1) == token.Comma ||
		p.peekAt(1) == token.Lt || p.peekAt(1) == token.LParen || p.peekAt(1) == token.Semicolon):
		p.bump()
		vis = ast.ReadOnly
	}
	return tok, vis, true
}
