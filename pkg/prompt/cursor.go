package prompt

import "strings"

// cursor is a byte-position scanner over the input string. Productions that
// may fail take a mark first and reset on failure, which gives the grammar
// its ordered-alternative backtracking.
type cursor struct {
	input string
	pos   int
}

func (c *cursor) atEnd() bool {
	return c.pos >= len(c.input)
}

// peek returns the current byte, or 0 at end of input.
func (c *cursor) peek() byte {
	if c.atEnd() {
		return 0
	}
	return c.input[c.pos]
}

// next consumes and returns the current byte.
func (c *cursor) next() byte {
	ch := c.peek()
	if ch != 0 {
		c.pos++
	}
	return ch
}

func (c *cursor) mark() int {
	return c.pos
}

func (c *cursor) reset(m int) {
	c.pos = m
}

func (c *cursor) skipSpace() {
	for !c.atEnd() && isSpace(c.input[c.pos]) {
		c.pos++
	}
}

// consume matches a literal, advancing past it on success.
func (c *cursor) consume(lit string) bool {
	if strings.HasPrefix(c.input[c.pos:], lit) {
		c.pos += len(lit)
		return true
	}
	return false
}

// isSpace reports whether ch is prompt whitespace.
func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
