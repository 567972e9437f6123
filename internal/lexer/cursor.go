package lexer

import (
	"unicode/utf8"

	"obx/internal/source"
)

// cursor walks the raw bytes of one file and tracks the current offset.
type cursor struct {
	file *source.File
	off  uint32
}

func newCursor(file *source.File) cursor {
	return cursor{file: file}
}

func (c *cursor) eof() bool {
	return int(c.off) >= len(c.file.Content)
}

// peek returns the byte at the cursor without advancing, 0 at EOF.
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.file.Content[c.off]
}

// peekAt returns the byte n positions ahead, 0 past EOF.
func (c *cursor) peekAt(n uint32) byte {
	if int(c.off+n) >= len(c.file.Content) {
		return 0
	}
	return c.file.Content[c.off+n]
}

func (c *cursor) bump() byte {
	b := c.peek()
	if !c.eof() {
		c.off++
	}
	return b
}

// bumpRune advances over one UTF-8 rune and returns it.
func (c *cursor) bumpRune() (rune, uint32) {
	if c.eof() {
		return 0, 0
	}
	r, size := utf8.DecodeRune(c.file.Content[c.off:])
	c.off += uint32(size) // #nosec G115 -- size <= 4
	return r, uint32(size)
}

// peekRune decodes the rune at the cursor without advancing.
func (c *cursor) peekRune() (rune, uint32) {
	if c.eof() {
		return 0, 0
	}
	r, size := utf8.DecodeRune(c.file.Content[c.off:])
	return r, uint32(size) // #nosec G115 -- size <= 4
}

func (c *cursor) span(start uint32) source.Span {
	return source.Span{File: c.file.ID, Start: start, End: c.off}
}

func (c *cursor) text(start uint32) string {
	return string(c.file.Content[start:c.off])
}
