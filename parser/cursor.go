// Package parser holds helpers shared by the format readers in its subpackages.
package parser

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/QEStudios/ModReader/tracker"
)

// A Cursor reads fixed layout values from an in-memory file.
// The first failed read is remembered; later reads return zero values and Err reports it.
type Cursor struct {
	data   []byte
	offset int
	order  binary.ByteOrder
	err    error
}

func NewCursor(data []byte, order binary.ByteOrder) *Cursor {
	return &Cursor{data: data, order: order}
}

func (c *Cursor) Err() error { return c.err }

func (c *Cursor) Offset() int { return c.offset }

func (c *Cursor) Len() int { return len(c.data) }

// Seek moves to an absolute offset.
func (c *Cursor) Seek(offset int, what string) {
	if c.err != nil {
		return
	}
	if offset < 0 || offset > len(c.data) {
		c.fail(what)
		return
	}
	c.offset = offset
}

func (c *Cursor) fail(what string) {
	c.err = tracker.Truncated(io.ErrUnexpectedEOF, fmt.Sprintf("%s at offset %#x", what, c.offset))
}

// Need fails unless at least n more bytes follow the current offset. Readers call it before
// allocating for counts taken from the file.
func (c *Cursor) Need(n int, what string) bool {
	if c.err != nil {
		return false
	}
	if n < 0 || len(c.data)-c.offset < n {
		c.fail(what)
		return false
	}
	return true
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int, what string) []byte {
	if c.err != nil {
		return make([]byte, n)
	}
	if n < 0 || len(c.data)-c.offset < n {
		c.fail(what)
		return make([]byte, max(n, 0))
	}
	b := c.data[c.offset : c.offset+n]
	c.offset += n
	return b
}

func (c *Cursor) Byte(what string) uint8 {
	return c.Bytes(1, what)[0]
}

func (c *Cursor) Uint16(what string) uint16 {
	return c.order.Uint16(c.Bytes(2, what))
}

func (c *Cursor) Uint32(what string) uint32 {
	return c.order.Uint32(c.Bytes(4, what))
}

// String reads a fixed size text field.
func (c *Cursor) String(n int, what string) string {
	return DecodeString(c.Bytes(n, what))
}

// DecodeString turns a fixed size text field into a string: UTF-8 when valid, Latin-1 otherwise,
// without trailing NULs and spaces.
func DecodeString(b []byte) string {
	var s string
	if utf8.Valid(b) {
		s = string(b)
	} else {
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		s = string(runes)
	}
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, " ")
}
