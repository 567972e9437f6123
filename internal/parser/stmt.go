package parser

import (
	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/token"
)

// parseStatSeq parses Stmt {';' Stmt} up to a closing keyword.
func (p *parser) parseStatSeq(mod *ast.Module) []ast.Statement {
	var out []ast.Statement
	for {
		switch p.peek() {
		case token.KwEnd, token.KwElse, token.KwElsif, token.KwUntil,
			token.Bar, token.EOF:
			return out
		case token.Semicolon:
			p.bump()
			continue
		}
		s := p.parseStatement(mod)
		if s != nil {
			out = append(out, s)
		}
		if !p.eat(token.Semicolon) {
			switch p.peek() {
			case token.KwEnd, token.KwElse, token.KwElsif, token.KwUntil,
				token.Bar, token.EOF:
				return out
			}
			p.error(diag.SynExpectToken, p.cur().Span,
				"expected ';', found "+p.cur().Kind.String())
			p.syncStmt()
		}
	}
}

func (p *parser) parseStatement(mod *ast.Module) ast.Statement {
	switch p.peek() {
	case token.KwIf:
		return p.parseIf(mod)
	case token.KwWhile:
		return p.parseWhile(mod)
	case token.KwRepeat:
		return p.parseRepeat(mod)
	case token.KwFor:
		return p.parseFor(mod)
	case token.KwLoop:
		return p.parseLoop(mod)
	case token.KwWith:
		return p.parseWith(mod)
	case token.KwCase:
		return p.parseCase(mod)
	case token.KwExit:
		return ast.NewExit(p.bump().Span)
	case token.KwReturn:
		tok := p.bump()
		var what ast.Expression
		switch p.peek() {
		case token.Semicolon, token.KwEnd, token.KwElse, token.KwElsif,
			token.KwUntil, token.Bar:
		default:
			what = p.parseExpr(mod)
		}
		return ast.NewReturn(tok.Span, what)
	case token.Ident:
		return p.parseAssignOrCall(mod)
	}
	p.error(diag.SynUnexpectedToken, p.cur().Span,
		"expected a statement, found "+p.cur().Kind.String())
	p.syncStmt()
	return nil
}

// parseAssignOrCall parses Designator [':=' Expr].
func (p *parser) parseAssignOrCall(mod *ast.Module) ast.Statement {
	d := p.parseDesignator(mod)
	if p.at(token.Assign) {
		tok := p.bump()
		rhs := p.parseExpr(mod)
		return ast.NewAssign(tok.Span, d, rhs)
	}
	// Argument-less calls arrive as a bare designator; wrap them so the
	// checker sees a uniform call shape.
	if _, ok := d.(*ast.ArgExpr); !ok {
		d = ast.NewArgExpr(d.Span(), ast.ArgCall, d)
	}
	return ast.NewCall(d.Span(), d)
}

// parseIf parses IF Expr THEN ... {ELSIF Expr THEN ...} [ELSE ...] END.
func (p *parser) parseIf(mod *ast.Module) ast.Statement {
	tok := p.bump() // IF
	s := ast.NewIfLoop(tok.Span, ast.OpIf)
	s.If = append(s.If, p.parseExpr(mod))
	p.expect(token.KwThen)
	s.Then = append(s.Then, p.parseStatSeq(mod))
	for p.eat(token.KwElsif) {
		s.If = append(s.If, p.parseExpr(mod))
		p.expect(token.KwThen)
		s.Then = append(s.Then, p.parseStatSeq(mod))
	}
	if p.eat(token.KwElse) {
		s.Else = p.parseStatSeq(mod)
	}
	p.expect(token.KwEnd)
	return s
}

// parseWhile parses WHILE Expr DO ... END.
func (p *parser) parseWhile(mod *ast.Module) ast.Statement {
	tok := p.bump()
	s := ast.NewIfLoop(tok.Span, ast.OpWhile)
	s.If = append(s.If, p.parseExpr(mod))
	p.expect(token.KwDo)
	s.Then = append(s.Then, p.parseStatSeq(mod))
	p.expect(token.KwEnd)
	return s
}

// parseRepeat parses REPEAT ... UNTIL Expr.
func (p *parser) parseRepeat(mod *ast.Module) ast.Statement {
	tok := p.bump()
	s := ast.NewIfLoop(tok.Span, ast.OpRepeat)
	s.Then = append(s.Then, p.parseStatSeq(mod))
	p.expect(token.KwUntil)
	s.If = append(s.If, p.parseExpr(mod))
	return s
}

// parseLoop parses LOOP ... END.
func (p *parser) parseLoop(mod *ast.Module) ast.Statement {
	tok := p.bump()
	s := ast.NewIfLoop(tok.Span, ast.OpLoop)
	s.Then = append(s.Then, p.parseStatSeq(mod))
	p.expect(token.KwEnd)
	return s
}

// parseWith parses WITH Guard DO ... {'|' Guard DO ...} [ELSE ...] END
// where Guard = Designator ':' Qualident. Each guard is an IS test.
func (p *parser) parseWith(mod *ast.Module) ast.Statement {
	tok := p.bump()
	s := ast.NewIfLoop(tok.Span, ast.OpWith)
	for {
		v := p.parseDesignator(mod)
		p.expect(token.Colon)
		t := p.parseDesignator(mod)
		s.If = append(s.If, ast.NewBinExpr(v.Span(), ast.BinIs, v, t))
		p.expect(token.KwDo)
		s.Then = append(s.Then, p.parseStatSeq(mod))
		if !p.eat(token.Bar) {
			break
		}
	}
	if p.eat(token.KwElse) {
		s.Else = p.parseStatSeq(mod)
	}
	p.expect(token.KwEnd)
	return s
}

// parseCase parses CASE Expr OF Case {'|' Case} [ELSE ...] END where
// Case = [Labels {',' Labels} ':' StatSeq].
func (p *parser) parseCase(mod *ast.Module) ast.Statement {
	tok := p.bump()
	exp := p.parseExpr(mod)
	s := ast.NewCaseStmt(tok.Span, exp)
	p.expect(token.KwOf)
	for {
		if !p.at(token.Bar) && !p.at(token.KwElse) && !p.at(token.KwEnd) {
			var c ast.Case
			for {
				c.Labels = append(c.Labels, p.parseRangeExpr(mod))
				if !p.eat(token.Comma) {
					break
				}
			}
			p.expect(token.Colon)
			c.Block = p.parseStatSeq(mod)
			s.Cases = append(s.Cases, c)
		}
		if !p.eat(token.Bar) {
			break
		}
	}
	if p.eat(token.KwElse) {
		s.HasElse = true
		s.Else = p.parseStatSeq(mod)
	}
	p.expect(token.KwEnd)
	return s
}

// parseFor parses FOR ident ':=' Expr TO Expr [BY ConstExpr] DO ... END.
func (p *parser) parseFor(mod *ast.Module) ast.Statement {
	tok := p.bump()
	s := ast.NewForLoop(tok.Span)
	idTok, ok := p.expectIdent()
	if !ok {
		p.syncStmt()
		return nil
	}
	leaf := ast.NewIdentLeaf(idTok.Span, idTok.Text)
	leaf.Mod = mod
	s.Id = leaf
	p.expect(token.Assign)
	s.From = p.parseExpr(mod)
	p.expect(token.KwTo)
	s.To = p.parseExpr(mod)
	if p.eat(token.KwBy) {
		s.By = p.parseExpr(mod)
	}
	p.expect(token.KwDo)
	s.Do = p.parseStatSeq(mod)
	p.expect(token.KwEnd)
	return s
}
