package parser

import (
	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/token"
)

// parseDeclSeq parses {CONST ... | TYPE ... | VAR ... | PROCEDURE ...}
// into scope. mod is the module being built; scope is the enclosing
// scope (module or procedure).
func (p *parser) parseDeclSeq(mod *ast.Module, scope *ast.Scope) {
	for {
		switch p.peek() {
		case token.Semicolon:
			// stray separator, usually left behind by error recovery
			p.bump()
		case token.KwConst:
			p.bump()
			for p.at(token.Ident) {
				p.parseConstDecl(mod, scope)
				p.eat(token.Semicolon)
			}
		case token.KwType:
			p.bump()
			for p.at(token.Ident) {
				p.parseTypeDecl(mod, scope)
				p.eat(token.Semicolon)
			}
		case token.KwVar:
			p.bump()
			for p.at(token.Ident) {
				p.parseVarDecl(mod, scope)
				p.eat(token.Semicolon)
			}
		case token.KwProcedure:
			p.parseProcDecl(mod, scope)
			p.eat(token.Semicolon)
		default:
			return
		}
	}
}

// parseConstDecl parses identDef '=' ConstExpr.
func (p *parser) parseConstDecl(mod *ast.Module, scope *ast.Scope) {
	tok, vis, ok := p.identDef()
	if !ok {
		p.syncDecl()
		return
	}
	c := ast.NewConst(tok.Span, tok.Text)
	c.Visibility = vis
	if _, ok := p.expect(token.Eq); !ok {
		p.syncDecl()
		return
	}
	c.ConstExpr = p.parseExpr(mod)
	p.addOrReport(scope, c)
}

// parseTypeDecl parses identDef ['<' GenericParams '>'] '=' Type.
func (p *parser) parseTypeDecl(mod *ast.Module, scope *ast.Scope) {
	tok, vis, ok := p.identDef()
	if !ok {
		p.syncDecl()
		return
	}
	nt := ast.NewNamedType(tok.Span, tok.Text)
	nt.Visibility = vis

	if p.eat(token.Lt) {
		for {
			gp, ok := p.expectIdent()
			if !ok {
				break
			}
			gn := ast.NewGenericName(gp.Span, gp.Text)
			gn.Type = ast.AnyType
			nt.MetaParams = append(nt.MetaParams, gn)
			p.addOrReport(&nt.Scope, gn)
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Gt)
	}

	// Enter the name before parsing the right-hand side so the type can
	// reference itself (legal under POINTER).
	p.addOrReport(scope, nt)

	if _, ok := p.expect(token.Eq); !ok {
		p.syncDecl()
		return
	}
	t := p.parseType(mod)
	nt.Type = t
	if t != nil && t.Decl() == nil {
		t.SetDecl(nt)
	}
	// Enumeration items are visible in the enclosing scope.
	if enum, ok := t.(*ast.Enumeration); ok {
		for _, item := range enum.Items {
			item.Visibility = vis
			p.addOrReport(scope, item)
		}
	}
}

// parseVarDecl parses IdentList ':' Type for module or local variables.
func (p *parser) parseVarDecl(mod *ast.Module, scope *ast.Scope) {
	type pending struct {
		tok token.Token
		vis ast.Visibility
	}
	var names []pending
	for {
		tok, vis, ok := p.identDef()
		if !ok {
			p.syncDecl()
			return
		}
		names = append(names, pending{tok, vis})
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.Colon); !ok {
		p.syncDecl()
		return
	}
	t := p.parseType(mod)

	_, isProc := scope.Owner.(*ast.Procedure)
	for _, n := range names {
		var e ast.Entity
		if isProc {
			lv := ast.NewLocalVar(n.tok.Span, n.tok.Text)
			lv.Type = t
			lv.Visibility = n.vis
			e = lv
		} else {
			v := ast.NewVariable(n.tok.Span, n.tok.Text)
			v.Type = t
			v.Visibility = n.vis
			e = v
		}
		p.addOrReport(scope, e)
	}
}

// parseProcDecl parses PROCEDURE [Receiver] identDef [FormalPars] ';'
// DeclSeq [BEGIN StatSeq] END ident.
func (p *parser) parseProcDecl(mod *ast.Module, scope *ast.Scope) {
	start := p.bump().Span // PROCEDURE

	var recv *ast.Parameter
	if p.at(token.LParen) {
		recv = p.parseReceiver(mod)
	}

	tok, vis, ok := p.identDef()
	if !ok {
		p.syncDecl()
		return
	}
	proc := ast.NewProcedure(start, tok.Text)
	proc.Visibility = vis
	proc.Receiver = recv

	if p.eat(token.Lt) {
		for {
			gp, ok := p.expectIdent()
			if !ok {
				break
			}
			gn := ast.NewGenericName(gp.Span, gp.Text)
			gn.Type = ast.AnyType
			proc.MetaParams = append(proc.MetaParams, gn)
			p.addOrReport(&proc.Scope, gn)
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Gt)
	}

	pt := ast.NewProcType(start)
	if recv != nil {
		recv.Receiver = true
		p.addOrReport(&proc.Scope, recv)
	}
	if p.at(token.LParen) {
		p.parseFormalPars(mod, proc, pt)
	}
	proc.Type = pt

	// Methods belong to their receiver's record and are attached there
	// by the resolver; free procedures enter the enclosing scope.
	if recv == nil {
		p.addOrReport(scope, proc)
	} else {
		proc.Outer = scope
		scope.Order = append(scope.Order, proc)
	}

	p.eat(token.Semicolon)
	if mod.IsDef {
		return
	}

	p.parseDeclSeq(mod, &proc.Scope)
	if p.eat(token.KwBegin) {
		proc.Scope.Body = p.parseStatSeq(mod)
	}
	endTok, _ := p.expect(token.KwEnd)
	proc.Scope.End = endTok.Span
	if p.at(token.Ident) {
		closing := p.bump()
		if closing.Text != proc.Name {
			p.error(diag.SynUnexpectedToken, closing.Span,
				"procedure is named "+proc.Name+", not "+closing.Text)
		}
	}
}

// parseReceiver parses '(' [VAR] ident ':' ident ')'.
func (p *parser) parseReceiver(mod *ast.Module) *ast.Parameter {
	p.bump() // (
	isVar := p.eat(token.KwVar)
	nameTok, ok := p.expectIdent()
	if !ok {
		p.syncDecl()
		return nil
	}
	recv := ast.NewParameter(nameTok.Span, nameTok.Text)
	recv.Var = isVar
	recv.Receiver = true
	p.expect(token.Colon)
	typeTok, ok := p.expectIdent()
	if ok {
		leaf := ast.NewIdentLeaf(typeTok.Span, typeTok.Text)
		leaf.Mod = mod
		recv.Type = ast.NewQualiType(typeTok.Span, leaf)
	}
	p.expect(token.RParen)
	return recv
}

// parseFormalPars parses '(' [FPSection {';' FPSection}] ')'
// [':' Type]. The receiver, when present, is already in pt callers'
// hands; formals are appended in order.
func (p *parser) parseFormalPars(mod *ast.Module, proc *ast.Procedure, pt *ast.ProcType) {
	p.bump() // (
	if !p.at(token.RParen) {
		for {
			p.parseFPSection(mod, proc, pt)
			if !p.eat(token.Semicolon) {
				break
			}
		}
	}
	p.expect(token.RParen)
	if p.eat(token.Colon) {
		pt.Return = p.parseType(mod)
	}
}

// parseFPSection parses [VAR | IN] ident {',' ident} ':' Type.
func (p *parser) parseFPSection(mod *ast.Module, proc *ast.Procedure, pt *ast.ProcType) {
	isVar := false
	isConst := false
	switch p.peek() {
	case token.KwVar:
		p.bump()
		isVar = true
	case token.KwIn:
		p.bump()
		isConst = true
	}
	var names []token.Token
	for {
		tok, ok := p.expectIdent()
		if !ok {
			p.syncDecl()
			return
		}
		names = append(names, tok)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.Colon); !ok {
		p.syncDecl()
		return
	}
	t := p.parseType(mod)
	for _, n := range names {
		param := ast.NewParameter(n.Span, n.Text)
		param.Var = isVar
		param.ConstRef = isConst
		param.Type = t
		pt.Formals = append(pt.Formals, param)
		if proc != nil {
			p.addOrReport(&proc.Scope, param)
		}
	}
}
