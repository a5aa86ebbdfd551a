package xm_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/QEStudios/ModReader/parser/xm"
	"github.com/QEStudios/ModReader/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCell(t *testing.T) {
	cell, n, err := xm.DecodeCell([]byte{49, 1, 0x40, 0x0C, 0x20, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, xm.Cell{Note: 49, Instrument: 1, Volume: 0x40, Effect: 0x0C, Param: 0x20}, cell)

	cell, n, err = xm.DecodeCell([]byte{0x83, 61, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, xm.Cell{Note: 61, Instrument: 2}, cell)

	cell, n, err = xm.DecodeCell([]byte{0x80})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, xm.Cell{}, cell)

	_, _, err = xm.DecodeCell([]byte{0x83, 61})
	assert.Error(t, err)
}

func TestKeyOffIsSilent(t *testing.T) {
	cell, _, err := xm.DecodeCell([]byte{0x81, 97})
	require.NoError(t, err)
	assert.Equal(t, tracker.Event{}, cell.Event())
}

// buildXM assembles a two channel module with two patterns (the second one stored without data)
// and two instruments, played as 0 1 0.
func buildXM() []byte {
	const (
		pattern0 = 336
		pattern1 = 359
		inst1    = 368
		inst2    = 451
		size     = 480
	)
	le := binary.LittleEndian
	data := make([]byte, size)
	copy(data, "Extended Module: ")
	copy(data[17:], "Song name")
	data[37] = 0x1a
	copy(data[38:], "FastTracker v2.00")
	le.PutUint16(data[58:], 0x0104)

	le.PutUint32(data[60:], 276)
	le.PutUint16(data[64:], 3)
	le.PutUint16(data[68:], 2)
	le.PutUint16(data[70:], 2)
	le.PutUint16(data[72:], 2)
	copy(data[80:], []byte{0, 1, 0})

	cells := []byte{
		49, 1, 0x40, 0, 0, 0x80, // row 0
		0x80, 0x83, 61, 2, // row 1
		0x98, 13, 0, 0x80, // row 2, pattern break
	}
	le.PutUint32(data[pattern0:], 9)
	le.PutUint16(data[pattern0+5:], 4)
	le.PutUint16(data[pattern0+7:], uint16(len(cells)))
	copy(data[pattern0+9:], cells)

	le.PutUint32(data[pattern1:], 9)
	le.PutUint16(data[pattern1+5:], 64)

	le.PutUint32(data[inst1:], 33)
	le.PutUint16(data[inst1+27:], 1)
	le.PutUint32(data[inst1+29:], 40)
	le.PutUint32(data[inst1+33:], 10)
	copy(data[inst1+33+18:], "bass.wav")

	le.PutUint32(data[inst2:], 29)
	copy(data[inst2+4:], "Lead")
	return data
}

func TestParseXM(t *testing.T) {
	mod, err := xm.NewParser(bytes.NewReader(buildXM()), nil).Parse()
	require.NoError(t, err)

	assert.Equal(t, "XM", mod.Format)
	assert.Equal(t, "Song name", mod.Description)
	assert.Equal(t, []int{0, 1, 0}, mod.Order)

	require.Len(t, mod.Patterns, 2)
	assert.Equal(t, 3, mod.Patterns[0].Length)
	require.Len(t, mod.Patterns[0].Rows, 3)
	assert.Equal(t, tracker.Event{Note: 49, Instrument: 1}, mod.Patterns[0].Rows[0][0])
	assert.Equal(t, tracker.Event{Note: 61, Instrument: 2}, mod.Patterns[0].Rows[1][1])
	assert.Equal(t, tracker.Event{Effect: 13}, mod.Patterns[0].Rows[2][0])

	assert.Equal(t, 64, mod.Patterns[1].Length)
	assert.Empty(t, mod.Patterns[1].Rows)

	require.Len(t, mod.Samples, 2)
	assert.Equal(t, tracker.Sample{Number: 1, Name: "bass"}, mod.Samples[0])
	assert.Equal(t, tracker.Sample{Number: 2, Name: "Lead", Empty: true}, mod.Samples[1])

	assert.Equal(t, "C 4", tracker.NoteName(49+mod.NoteOffset))
}

func TestParseRejectsOtherFiles(t *testing.T) {
	data := buildXM()
	copy(data, "Extended Mudule: ")
	_, err := xm.NewParser(bytes.NewReader(data), nil).Parse()
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
}

func TestParseTruncatedXM(t *testing.T) {
	_, err := xm.NewParser(bytes.NewReader(buildXM()[:400]), nil).Parse()
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
}
