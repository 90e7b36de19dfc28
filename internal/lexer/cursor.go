package lexer

import (
	"unicode/utf8"

	"fortio.org/safecast"
)

// cursor walks a borrowed UTF-8 string by byte offset, decoding one rune at
// a time. naml identifiers may contain non-ASCII letters, so the cursor
// decodes runes rather than assuming single-byte characters.
type cursor struct {
	src string
	pos int
}

func newCursor(src string) *cursor {
	return &cursor{src: src}
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.src)
}

func (c *cursor) offset() uint32 {
	off, err := safecast.Conv[uint32](c.pos)
	if err != nil {
		panic(err)
	}
	return off
}

// peek returns the rune at the cursor without consuming it, and 0 at EOF.
func (c *cursor) peek() rune {
	if c.eof() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.src[c.pos:])
	return r
}

// peekAt looks ahead n runes (n=0 is peek()); O(n), only used for small
// lookahead windows (operator disambiguation).
func (c *cursor) peekAt(n int) rune {
	pos := c.pos
	var r rune
	for i := 0; i <= n; i++ {
		if pos >= len(c.src) {
			return 0
		}
		var size int
		r, size = utf8.DecodeRuneInString(c.src[pos:])
		pos += size
	}
	return r
}

// bump consumes and returns the current rune.
func (c *cursor) bump() rune {
	if c.eof() {
		return 0
	}
	r, size := utf8.DecodeRuneInString(c.src[c.pos:])
	c.pos += size
	return r
}

// eat consumes the current rune if it equals want.
func (c *cursor) eat(want rune) bool {
	if c.peek() != want {
		return false
	}
	c.bump()
	return true
}
