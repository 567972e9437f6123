package parser

import (
	"obx/internal/ast"
	"obx/internal/diag"
	"obx/internal/token"
)

// parseType parses a type expression:
//
//	Type = Qualident ['<' Type {',' Type} '>']
//	     | ARRAY [ConstExpr {',' ConstExpr}] OF Type
//	     | RECORD ['(' Qualident ')'] FieldList END
//	     | POINTER TO Type
//	     | PROCEDURE [FormalPars]
//	     | '(' ident {',' ident} ')'
func (p *parser) parseType(mod *ast.Module) ast.Type {
	switch p.peek() {
	case token.Ident:
		return p.parseQualiType(mod)
	case token.KwArray:
		return p.parseArrayType(mod)
	case token.KwRecord:
		return p.parseRecordType(mod)
	case token.KwPointer:
		return p.parsePointerType(mod)
	case token.KwProcedure:
		return p.parseProcTypeExpr(mod)
	case token.LParen:
		return p.parseEnumType(mod)
	}
	p.error(diag.SynUnexpectedToken, p.cur().Span,
		"expected a type, found "+p.cur().Kind.String())
	p.syncDecl()
	return nil
}

// parseQualiType parses ident ['.' ident] with optional generic
// actuals, yielding an unresolved QualiType placeholder.
func (p *parser) parseQualiType(mod *ast.Module) ast.Type {
	first := p.bump()
	leaf := ast.NewIdentLeaf(first.Span, first.Text)
	leaf.Mod = mod
	var quali ast.Expression = leaf
	if p.at(token.Dot) && p.peekAt(1) == token.Ident {
		p.bump()
		sel := p.bump()
		quali = ast.NewIdentSel(sel.Span, leaf, sel.Text)
	}
	q := ast.NewQualiType(first.Span, quali)
	if p.at(token.Lt) && p.peekAt(1) == token.Ident {
		p.bump()
		for {
			q.MetaActuals = append(q.MetaActuals, p.parseType(mod))
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Gt)
	}
	return q
}

// parseArrayType parses ARRAY [lens] OF Type. Multiple lengths nest:
// ARRAY 2,3 OF T is ARRAY 2 OF ARRAY 3 OF T.
func (p *parser) parseArrayType(mod *ast.Module) ast.Type {
	start := p.bump().Span // ARRAY
	var lens []ast.Expression
	if !p.at(token.KwOf) {
		for {
			lens = append(lens, p.parseExpr(mod))
			if !p.eat(token.Comma) {
				break
			}
		}
	}
	p.expect(token.KwOf)
	elem := p.parseType(mod)

	if len(lens) == 0 {
		return ast.NewArray(start, nil, elem) // open array
	}
	out := ast.NewArray(start, lens[len(lens)-1], elem)
	for i := len(lens) - 2; i >= 0; i-- {
		out = ast.NewArray(start, lens[i], out)
	}
	return out
}

// parseRecordType parses RECORD ['(' base ')'] {FieldList ';'} END.
func (p *parser) parseRecordType(mod *ast.Module) ast.Type {
	start := p.bump().Span // RECORD
	rec := ast.NewRecord(start)

	if p.eat(token.LParen) {
		if base, ok := p.parseQualiType(mod).(*ast.QualiType); ok {
			rec.Base = base
		}
		p.expect(token.RParen)
	}

	for p.at(token.Ident) {
		p.parseFieldList(mod, rec)
		if !p.eat(token.Semicolon) && p.at(token.Ident) {
			break
		}
	}
	p.expect(token.KwEnd)
	return rec
}

// parseFieldList parses identDef {',' identDef} ':' Type.
func (p *parser) parseFieldList(mod *ast.Module, rec *ast.Record) {
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
	for _, n := range names {
		f := ast.NewField(n.tok.Span, n.tok.Text)
		f.Type = t
		f.Visibility = n.vis
		if _, dup := rec.Names[f.Name]; dup {
			p.error(diag.SemDuplicateName, f.Span(),
				f.Name+" is already declared in this record")
			continue
		}
		rec.Names[f.Name] = f
		rec.Fields = append(rec.Fields, f)
	}
}

// parsePointerType parses POINTER TO Type.
func (p *parser) parsePointerType(mod *ast.Module) ast.Type {
	start := p.bump().Span // POINTER
	p.expect(token.KwTo)
	target := p.parseType(mod)
	ptr := ast.NewPointer(start, target)
	// An anonymous record as the immediate target back-links to its
	// pointer; the first binding wins.
	if rec, ok := target.(*ast.Record); ok && rec.Binding == nil {
		rec.Binding = ptr
	}
	return ptr
}

// parseProcTypeExpr parses PROCEDURE [FormalPars].
func (p *parser) parseProcTypeExpr(mod *ast.Module) ast.Type {
	start := p.bump().Span // PROCEDURE
	pt := ast.NewProcType(start)
	if p.at(token.LParen) {
		p.parseFormalPars(mod, nil, pt)
	}
	return pt
}

// parseEnumType parses '(' ident {',' ident} ')'.
func (p *parser) parseEnumType(mod *ast.Module) ast.Type {
	start := p.bump().Span // (
	enum := ast.NewEnumeration(start)
	ord := int64(0)
	for p.at(token.Ident) {
		tok := p.bump()
		item := ast.NewConst(tok.Span, tok.Text)
		item.Type = enum
		item.Val = ord
		ord++
		enum.Items = append(enum.Items, item)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return enum
}
