package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/token"
)

// parseExpr parses Expr = SimpleExpr [Relation SimpleExpr].
func (p *parser) parseExpr(mod *ast.Module) ast.Expression {
	lhs := p.parseSimpleExpr(mod)
	if p.cur().IsRelation() {
		opTok := p.bump()
		rhs := p.parseSimpleExpr(mod)
		return ast.NewBinExpr(opTok.Span, relationOp(opTok.Kind), lhs, rhs)
	}
	return lhs
}

// parseRangeExpr parses Expr ['..' Expr]; ranges are only legal in set
// constructors and case labels, which are the callers.
func (p *parser) parseRangeExpr(mod *ast.Module) ast.Expression {
	lhs := p.parseExpr(mod)
	if p.at(token.DotDot) {
		opTok := p.bump()
		rhs := p.parseExpr(mod)
		return ast.NewBinExpr(opTok.Span, ast.BinRange, lhs, rhs)
	}
	return lhs
}

func relationOp(k token.Kind) ast.BinOp {
	switch k {
	case token.Eq:
		return ast.BinEq
	case token.Hash:
		return ast.BinNeq
	case token.Lt:
		return ast.BinLt
	case token.LtEq:
		return ast.BinLeq
	case token.Gt:
		return ast.BinGt
	case token.GtEq:
		return ast.BinGeq
	case token.KwIn:
		return ast.BinIn
	case token.KwIs:
		return ast.BinIs
	}
	return ast.BinInvalid
}

// parseSimpleExpr parses ['+'|'-'] Term {AddOp Term}.
func (p *parser) parseSimpleExpr(mod *ast.Module) ast.Expression {
	var lhs ast.Expression
	switch p.peek() {
	case token.Minus:
		opTok := p.bump()
		lhs = ast.NewUnExpr(opTok.Span, ast.UnNeg, p.parseTerm(mod))
	case token.Plus:
		p.bump()
		lhs = p.parseTerm(mod)
	default:
		lhs = p.parseTerm(mod)
	}
	for p.cur().IsAddOp() {
		opTok := p.bump()
		op := ast.BinAdd
		switch opTok.Kind {
		case token.Minus:
			op = ast.BinSub
		case token.KwOr:
			op = ast.BinOr
		}
		lhs = ast.NewBinExpr(opTok.Span, op, lhs, p.parseTerm(mod))
	}
	return lhs
}

// parseTerm parses Factor {MulOp Factor}.
func (p *parser) parseTerm(mod *ast.Module) ast.Expression {
	lhs := p.parseFactor(mod)
	for p.cur().IsMulOp() {
		opTok := p.bump()
		op := ast.BinMul
		switch opTok.Kind {
		case token.Slash:
			op = ast.BinFdiv
		case token.KwDiv:
			op = ast.BinDiv
		case token.KwMod:
			op = ast.BinMod
		case token.Amp:
			op = ast.BinAnd
		}
		lhs = ast.NewBinExpr(opTok.Span, op, lhs, p.parseFactor(mod))
	}
	return lhs
}

// parseFactor parses literals, set constructors, parenthesized
// expressions, negation, and designators.
func (p *parser) parseFactor(mod *ast.Module) ast.Expression {
	switch p.peek() {
	case token.IntLit:
		return p.parseIntLit()
	case token.RealLit:
		return p.parseRealLit()
	case token.CharLit:
		return p.parseCharLit()
	case token.StringLit:
		tok := p.bump()
		lit := ast.NewLiteral(tok.Span, ast.LitString, tok.Text)
		lit.StrLen = uint32(utf8.RuneCountInString(tok.Text)) // #nosec G115 -- string literals fit
		return lit
	case token.KwNil:
		tok := p.bump()
		return ast.NewLiteral(tok.Span, ast.LitNil, nil)
	case token.KwTrue:
		tok := p.bump()
		return ast.NewLiteral(tok.Span, ast.LitBoolean, true)
	case token.KwFalse:
		tok := p.bump()
		return ast.NewLiteral(tok.Span, ast.LitBoolean, false)
	case token.LBrace:
		return p.parseSetExpr(mod)
	case token.LParen:
		p.bump()
		e := p.parseExpr(mod)
		p.expect(token.RParen)
		return e
	case token.Tilde:
		tok := p.bump()
		return ast.NewUnExpr(tok.Span, ast.UnNot, p.parseFactor(mod))
	case token.Ident:
		return p.parseDesignator(mod)
	}
	p.error(diag.SynExpectToken, p.cur().Span,
		"expected an expression, found "+p.cur().Kind.String())
	lit := ast.NewLiteral(p.cur().Span, ast.LitInvalid, nil)
	p.syncStmt()
	return lit
}

func (p *parser) parseIntLit() ast.Expression {
	tok := p.bump()
	text := tok.Text
	var val int64
	var err error
	if strings.HasSuffix(text, "H") {
		val, err = strconv.ParseInt(text[:len(text)-1], 16, 64)
	} else {
		val, err = strconv.ParseInt(text, 10, 64)
	}
	if err != nil {
		p.error(diag.LexBadNumber, tok.Span, "integer literal out of range")
		return ast.NewLiteral(tok.Span, ast.LitInvalid, nil)
	}
	return ast.NewLiteral(tok.Span, ast.LitInteger, val)
}

func (p *parser) parseRealLit() ast.Expression {
	tok := p.bump()
	text := strings.Replace(tok.Text, "D", "E", 1)
	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.error(diag.LexBadNumber, tok.Span, "real literal out of range")
		return ast.NewLiteral(tok.Span, ast.LitInvalid, nil)
	}
	return ast.NewLiteral(tok.Span, ast.LitReal, val)
}

func (p *parser) parseCharLit() ast.Expression {
	tok := p.bump()
	text := tok.Text
	code, err := strconv.ParseInt(text[:len(text)-1], 16, 32)
	if err != nil || code > 0x10FFFF {
		p.error(diag.LexBadCharCode, tok.Span, "character code out of range")
		return ast.NewLiteral(tok.Span, ast.LitInvalid, nil)
	}
	return ast.NewLiteral(tok.Span, ast.LitChar, rune(code))
}

// parseSetExpr parses '{' [Element {',' Element}] '}' where
// Element = Expr ['..' Expr].
func (p *parser) parseSetExpr(mod *ast.Module) ast.Expression {
	tok := p.bump() // {
	set := ast.NewSetExpr(tok.Span)
	if !p.at(token.RBrace) {
		for {
			set.Parts = append(set.Parts, p.parseRangeExpr(mod))
			if !p.eat(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RBrace)
	return set
}

// parseDesignator parses ident {'.' ident | '[' ExpList ']' | '^' |
// '(' [ExpList] ')'}. Calls and type guards both surface as ArgExpr
// with the call tag; the checker reclassifies guards.
func (p *parser) parseDesignator(mod *ast.Module) ast.Expression {
	tok := p.bump()
	leaf := ast.NewIdentLeaf(tok.Span, tok.Text)
	leaf.Mod = mod
	var e ast.Expression = leaf
	for {
		switch p.peek() {
		case token.Dot:
			if p.peekAt(1) != token.Ident {
				p.bump()
				p.error(diag.SynExpectIdent, p.cur().Span, "expected identifier after '.'")
				return e
			}
			p.bump()
			sel := p.bump()
			e = ast.NewIdentSel(sel.Span, e, sel.Text)
		case token.LBracket:
			open := p.bump()
			idx := ast.NewArgExpr(open.Span, ast.ArgIdx, e)
			for {
				idx.Args = append(idx.Args, p.parseExpr(mod))
				if !p.eat(token.Comma) {
					break
				}
			}
			p.expect(token.RBracket)
			e = idx
		case token.Caret:
			caret := p.bump()
			e = ast.NewUnExpr(caret.Span, ast.UnDeref, e)
		case token.LParen:
			open := p.bump()
			call := ast.NewArgExpr(open.Span, ast.ArgCall, e)
			if !p.at(token.RParen) {
				for {
					call.Args = append(call.Args, p.parseExpr(mod))
					if !p.eat(token.Comma) {
						break
					}
				}
			}
			p.expect(token.RParen)
			e = call
		default:
			return e
		}
	}
}
