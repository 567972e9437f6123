package lexer

import (
	"obx/internal/diag"
	"obx/internal/token"
)

// scanString scans a single-line string literal delimited by " or '.
// There are no escape sequences; characters outside the string charset
// are written with character-code literals instead.
func (lx *Lexer) scanString() token.Token {
	start := lx.cur.off
	quote := lx.cur.bump()
	for {
		if lx.cur.eof() || lx.cur.peek() == '\n' {
			sp := lx.cur.span(start)
			diag.Error(lx.opts.Reporter, diag.LexUnterminatedString, sp,
				"string is not terminated")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cur.text(start)}
		}
		if lx.cur.peek() == quote {
			lx.cur.bump()
			break
		}
		lx.cur.bumpRune()
	}
	text := lx.cur.text(start)
	// Strip the delimiters; the parser sees the payload only.
	return token.Token{Kind: token.StringLit, Span: lx.cur.span(start), Text: text[1 : len(text)-1]}
}
