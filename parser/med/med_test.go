package med_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/QEStudios/ModReader/parser/med"
	"github.com/QEStudios/ModReader/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMMD0(t *testing.T) {
	ev := med.DecodeMMD0([]byte{0x43, 0x12, 0x05})
	assert.Equal(t, tracker.Event{Note: 0x03, Instrument: 0x11, Effect: 0x02, Param: 0x05}, ev)

	ev = med.DecodeMMD0([]byte{0xFF, 0xFF, 0xFF})
	assert.Equal(t, tracker.Event{Note: 0x3F, Instrument: 0x3F, Effect: 0x0F, Param: 0xFF}, ev)
}

func TestDecodeMMD1(t *testing.T) {
	ev := med.DecodeMMD1([]byte{0xC5, 0xD2, 0x0C, 0x40})
	assert.Equal(t, tracker.Event{Note: 0x45, Instrument: 0x12, Effect: 0x0C, Param: 0x40}, ev)
}

// buildMMD0 assembles a small module: 3 samples (the second one without data), two blocks of
// 2 and 40 lines, played as 0 1 0.
func buildMMD0() []byte {
	const (
		songStart  = 52
		blockArray = 840
		sampArray  = 848
		expansion  = 860
		annotation = 888
		names      = 897
		block0     = 927
		block1     = 941
		size       = 1183
	)
	data := make([]byte, size)
	be := binary.BigEndian
	copy(data, "MMD0")
	be.PutUint32(data[4:], size)
	be.PutUint32(data[8:], songStart)
	be.PutUint32(data[16:], blockArray)
	be.PutUint32(data[24:], sampArray)
	be.PutUint32(data[32:], expansion)

	be.PutUint16(data[songStart+504:], 2)
	be.PutUint16(data[songStart+506:], 3)
	copy(data[songStart+508:], []byte{0, 1, 0})
	data[songStart+787] = 3

	be.PutUint32(data[blockArray:], block0)
	be.PutUint32(data[blockArray+4:], block1)
	be.PutUint32(data[sampArray:], 0x2000)
	be.PutUint32(data[sampArray+8:], 0x3000)

	be.PutUint32(data[expansion+12:], annotation)
	be.PutUint32(data[expansion+16:], 9)
	be.PutUint32(data[expansion+20:], names)
	be.PutUint16(data[expansion+24:], 3)
	be.PutUint16(data[expansion+26:], 10)
	copy(data[annotation:], "Test song")
	copy(data[names:], "Bass")
	copy(data[names+10:], "Snare")
	copy(data[names+20:], "Lead")

	data[block0] = 2
	data[block0+1] = 1
	copy(data[block0+2:], []byte{0x0D, 0x10, 0x00})
	copy(data[block0+2+9:], []byte{0x0F, 0x30, 0x00})

	data[block1] = 2
	data[block1+1] = 39
	copy(data[block1+2:], []byte{0x10, 0x10, 0x00})
	copy(data[block1+2+35*6:], []byte{0x11, 0x1D, 0x01})
	return data
}

func TestParseMMD0(t *testing.T) {
	mod, err := med.NewParser(bytes.NewReader(buildMMD0()), nil).Parse()
	require.NoError(t, err)

	assert.Equal(t, "MMD0", mod.Format)
	assert.Equal(t, "Test song", mod.Description)
	assert.Equal(t, 3, mod.SongLength)
	assert.Equal(t, []int{0, 1, 0}, mod.Order)

	require.Len(t, mod.Samples, 3)
	assert.Equal(t, tracker.Sample{Number: 1, Name: "Bass"}, mod.Samples[0])
	assert.Equal(t, tracker.Sample{Number: 2, Name: "Snare (unnamed)", Empty: true}, mod.Samples[1])

	require.Len(t, mod.Patterns, 2)
	assert.Equal(t, 2, mod.Patterns[0].Length)
	assert.Equal(t, tracker.Event{Note: 0x0D, Instrument: 1}, mod.Patterns[0].Rows[0][0])
	assert.Equal(t, tracker.Event{Note: 0x0F, Instrument: 3}, mod.Patterns[0].Rows[1][1])
	assert.Equal(t, 40, mod.Patterns[1].Length)
	assert.Equal(t, tracker.Event{Note: 0x11, Instrument: 1, Effect: 0x0D, Param: 1}, mod.Patterns[1].Rows[35][0])

	assert.Equal(t, "C 3", tracker.NoteName(1+mod.NoteOffset))
}

func TestParseRejectsUnknownID(t *testing.T) {
	data := buildMMD0()
	copy(data, "MMD9")
	_, err := med.NewParser(bytes.NewReader(data), nil).Parse()
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
}

func TestParseTruncated(t *testing.T) {
	data := buildMMD0()
	_, err := med.NewParser(bytes.NewReader(data[:1000]), nil).Parse()
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
}

func TestParserSingleUse(t *testing.T) {
	p := med.NewParser(bytes.NewReader(buildMMD0()), nil)
	_, err := p.Parse()
	require.NoError(t, err)
	_, err = p.Parse()
	assert.Error(t, err)
}

func TestParseOversizedBlock(t *testing.T) {
	data := buildMMD0()
	copy(data, "MMD1")
	// Block 0 claims 65535 tracks of 65536 lines, far more than the file holds.
	binary.BigEndian.PutUint16(data[927:], 0xFFFF)
	binary.BigEndian.PutUint16(data[929:], 0xFFFF)

	_, err := med.NewParser(bytes.NewReader(data), nil).Parse()
	require.Error(t, err)
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
	assert.Contains(t, err.Error(), "block 0")
	assert.Contains(t, err.Error(), "block data")
}
