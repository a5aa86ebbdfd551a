package parser_test

import (
	"encoding/binary"
	"testing"

	"github.com/QEStudios/ModReader/parser"
	"github.com/QEStudios/ModReader/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorReads(t *testing.T) {
	c := parser.NewCursor([]byte{0x12, 0x34, 0, 0, 0, 9, 'a', 'b', 0, 0}, binary.BigEndian)
	assert.Equal(t, uint16(0x1234), c.Uint16("word"))
	assert.Equal(t, uint32(9), c.Uint32("long"))
	assert.Equal(t, "ab", c.String(4, "name"))
	assert.NoError(t, c.Err())

	c.Byte("past the end")
	assert.True(t, tracker.IsKind(c.Err(), tracker.KindInvalidFormat))
	// Later reads keep the first error and return zero values.
	assert.Equal(t, uint16(0), c.Uint16("more"))
	assert.Contains(t, c.Err().Error(), "past the end")
}

func TestCursorSeek(t *testing.T) {
	c := parser.NewCursor([]byte{1, 2, 3}, binary.LittleEndian)
	c.Seek(2, "x")
	assert.Equal(t, uint8(3), c.Byte("x"))
	c.Seek(10, "too far")
	assert.Error(t, c.Err())
}

func TestDecodeStringLatin1(t *testing.T) {
	assert.Equal(t, "café", parser.DecodeString([]byte{'c', 'a', 'f', 0xE9, ' ', 0}))
	assert.Equal(t, "bass", parser.DecodeString([]byte("bass\x00junk")))
}

func TestGridPatterns(t *testing.T) {
	g := parser.NewGrid(32)
	assert.True(t, g.Empty())
	g.Add(3, tracker.Event{Note: 61, Instrument: 2})
	g.Add(3, tracker.Event{Note: 40, Instrument: 1})
	g.Add(70, tracker.Event{Note: 50, Instrument: 1})
	g.Add(-1, tracker.Event{Note: 1, Instrument: 1})

	patterns, order := g.Patterns()
	require.Len(t, patterns, 3)
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 32, patterns[1].Length)
	assert.Equal(t, tracker.Row{{Note: 40, Instrument: 1}, {Note: 61, Instrument: 2}}, patterns[0].Rows[3])
	assert.Equal(t, tracker.Row{{Note: 50, Instrument: 1}}, patterns[2].Rows[6])
}

func TestCursorNeed(t *testing.T) {
	c := parser.NewCursor(make([]byte, 8), binary.BigEndian)
	c.Uint16("word")
	assert.True(t, c.Need(6, "rest"))
	assert.NoError(t, c.Err())
	assert.False(t, c.Need(7, "block data"))
	assert.True(t, tracker.IsKind(c.Err(), tracker.KindInvalidFormat))
	assert.Contains(t, c.Err().Error(), "block data")
}

func TestGridDropsFarRows(t *testing.T) {
	g := parser.NewGrid(32)
	g.Add(parser.MaxRows, tracker.Event{Note: 1, Instrument: 1})
	assert.True(t, g.Empty())
	patterns, order := g.Patterns()
	assert.Nil(t, patterns)
	assert.Nil(t, order)
	require.Len(t, g.Warnings(), 1)
	assert.Contains(t, g.Warnings()[0].Message, "1 notes")

	g.Add(100, tracker.Event{Note: 2, Instrument: 1})
	patterns, _ = g.Patterns()
	require.Len(t, patterns, 4)
	assert.Len(t, patterns[0].Rows, 32)
	assert.Empty(t, patterns[0].Rows[4])
	assert.Equal(t, tracker.Row{{Note: 2, Instrument: 1}}, patterns[3].Rows[4])
}
