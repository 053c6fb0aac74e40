package section

import (
	"bytes"
	"strconv"
	"strings"
)

// Cursor is a sequential reader over a fully-loaded trace file buffer.
//
// The drcov format interleaves text lines with packed binary runs, and the
// length of each binary run is only known after parsing the text line that
// precedes it, so the whole buffer is held in memory and consumed front to
// back. Text lines are decoded with lossy UTF-8 replacement; binary runs
// are returned as sub-slices of the original buffer without copying.
type Cursor struct {
	data []byte
	pos  int
	line int
}

// NewCursor creates a Cursor over data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Line consumes and returns the next text line without its trailing
// newline. A trailing carriage return is stripped for tolerance of
// Windows-produced traces. Returns false at end of buffer.
func (c *Cursor) Line() (string, bool) {
	if c.pos >= len(c.data) {
		return "", false
	}

	end := bytes.IndexByte(c.data[c.pos:], '\n')
	var raw []byte
	if end < 0 {
		raw = c.data[c.pos:]
		c.pos = len(c.data)
	} else {
		raw = c.data[c.pos : c.pos+end]
		c.pos += end + 1
	}
	c.line++

	s := strings.ToValidUTF8(string(raw), "�")
	s = strings.TrimSuffix(s, "\r")

	return s, true
}

// PeekLine returns the next text line without consuming it.
func (c *Cursor) PeekLine() (string, bool) {
	savedPos, savedLine := c.pos, c.line
	s, ok := c.Line()
	c.pos, c.line = savedPos, savedLine

	return s, ok
}

// Bytes consumes exactly n raw bytes, returning a sub-slice of the
// underlying buffer. Returns false when fewer than n bytes remain.
func (c *Cursor) Bytes(n int) ([]byte, bool) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, false
	}

	b := c.data[c.pos : c.pos+n]
	c.pos += n

	return b, true
}

// Rest consumes and returns all remaining bytes.
func (c *Cursor) Rest() []byte {
	b := c.data[c.pos:]
	c.pos = len(c.data)

	return b
}

// Remaining returns the number of unconsumed bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// LineNumber returns the 1-based number of the most recently read line,
// or 0 if no line has been read yet.
func (c *Cursor) LineNumber() int {
	return c.line
}

// parseNumber parses a numeric field of a text section. A 0x prefix
// selects hexadecimal; bare fields are parsed as decimal first with a
// hexadecimal fallback, so both "4096" and "deadbeef" are accepted.
func parseNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}
	if rest, ok := strings.CutPrefix(s, "0X"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err == nil {
		return v, nil
	}

	return strconv.ParseUint(s, 16, 64)
}
