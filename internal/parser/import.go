package parser

import (
	"obx/internal/ast"
	"obx/internal/token"
)

// parseImportList parses IMPORT Import {',' Import} ';' where
// Import = [ident ':='] ident {'.' ident} ['(' Type {',' Type} ')'].
func (p *parser) parseImportList(mod *ast.Module) {
	p.bump() // IMPORT
	for {
		p.parseImport(mod)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.eat(token.Semicolon)
}

func (p *parser) parseImport(mod *ast.Module) {
	first, ok := p.expectIdent()
	if !ok {
		p.syncDecl()
		return
	}

	alias := ""
	aliasSpan := first.Span
	if p.eat(token.Assign) {
		alias = first.Text
		first, ok = p.expectIdent()
		if !ok {
			p.syncDecl()
			return
		}
	}

	path := []string{first.Text}
	for p.at(token.Dot) && p.peekAt(1) == token.Ident {
		p.bump()
		seg := p.bump()
		path = append(path, seg.Text)
	}

	name := alias
	if name == "" {
		name = path[len(path)-1]
	}
	imp := ast.NewImport(first.Span, name, path)
	if alias != "" {
		imp.AliasPos = aliasSpan
	}

	if p.eat(token.LParen) {
		for {
			imp.MetaActuals = append(imp.MetaActuals, p.parseType(mod))
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.RParen)
	}

	p.addOrReport(&mod.Scope, imp)
	mod.Imports = append(mod.Imports, imp)
}
