package lexer

import (
	"unicode"

	"golang.org/x/text/unicode/norm"

	"obx/internal/token"
)

// scanIdent scans an identifier or keyword. Identifiers admit any
// unicode letter and are NFC-normalized so decomposed source spellings
// resolve to the same name.
func (lx *Lexer) scanIdent() token.Token {
	start := lx.cur.off
	for !lx.cur.eof() {
		r, _ := lx.cur.peekRune()
		if !isLetter(r) && !unicode.IsDigit(r) {
			break
		}
		lx.cur.bumpRune()
	}
	text := lx.cur.text(start)
	if kind, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kind, Span: lx.cur.span(start), Text: text}
	}
	if !norm.NFC.IsNormalString(text) {
		text = norm.NFC.String(text)
	}
	if lx.opts.Interner != nil {
		text = lx.opts.Interner.MustLookup(lx.opts.Interner.Intern(text))
	}
	return token.Token{Kind: token.Ident, Span: lx.cur.span(start), Text: text}
}
