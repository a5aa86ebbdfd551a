package rpp_test

import (
	"strings"
	"testing"

	"github.com/QEStudios/ModReader/parser/rpp"
	"github.com/QEStudios/ModReader/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const project = `<REAPER_PROJECT 0.1 "6.0/linux64" 1600000000
  TEMPO 120 4 4
  <TRACK {604D0845-C894-4422-B3F7-3CD51F610A63}
    NAME "Bass"
    <ITEM
      POSITION 0
      NAME "bass item"
      <SOURCE MIDI
        HASDATA 1 960 QN
        E 0 90 24 60
        E 240 80 24 00
        E 240 90 2b 60
        e 0 b0 7b 00
      >
    >
    <ITEM
      POSITION 8
      <SOURCE MIDI
        HASDATA 1 960 QN
        E 480 90 30 40
        E 240 90 30 00
      >
    >
  >
  <TRACK {AAAA}
    NAME "Drums"
    <ITEM
      POSITION 0.5
      <SOURCE MIDI
        HASDATA 1 96 QN
        E 0 99 24 7f
      >
    >
  >
  <TRACK {BBBB}
    NAME "Audio"
    <ITEM
      <SOURCE WAVE
        FILE "loop.wav"
      >
    >
  >
>
`

func TestParseProject(t *testing.T) {
	mod, err := rpp.NewParser(strings.NewReader(project), 32, nil).Parse()
	require.NoError(t, err)

	assert.Equal(t, "RPP", mod.Format)
	require.Len(t, mod.Samples, 2)
	assert.Equal(t, tracker.Sample{Number: 1, Name: "Bass", Channel: 1}, mod.Samples[0])
	assert.Equal(t, tracker.Sample{Number: 2, Name: "Drums", Channel: 10, Kit: tracker.KitGM}, mod.Samples[1])

	// At 120 bpm a second is two quarters, so 8 seconds is row 64 and 0.5 seconds row 4.
	require.Len(t, mod.Patterns, 3)
	assert.Equal(t, []int{0, 1, 2}, mod.Order)
	rows := mod.Patterns[0].Rows
	assert.Equal(t, tracker.Row{{Note: 0x25, Instrument: 1}}, rows[0])
	assert.Equal(t, tracker.Row{{Note: 0x2c, Instrument: 1}}, rows[2])
	assert.Equal(t, tracker.Row{{Note: 0x25, Instrument: 2}}, rows[4])
	assert.Equal(t, tracker.Row{{Note: 0x31, Instrument: 1}}, mod.Patterns[2].Rows[2])
	assert.Empty(t, mod.Patterns[1].Rows[0])
}

func TestParseTempo(t *testing.T) {
	src := strings.Replace(project, "TEMPO 120", "TEMPO 60", 1)
	mod, err := rpp.NewParser(strings.NewReader(src), 32, nil).Parse()
	require.NoError(t, err)
	// 8 seconds at 60 bpm is row 32. The drum item at 0.5 seconds now shares row 2 with the
	// second bass note, which does not depend on the tempo.
	require.Len(t, mod.Patterns, 2)
	assert.Equal(t, tracker.Row{{Note: 0x31, Instrument: 1}}, mod.Patterns[1].Rows[2])
	assert.Equal(t, tracker.Row{{Note: 0x2c, Instrument: 1}, {Note: 0x25, Instrument: 2}}, mod.Patterns[0].Rows[2])
	assert.Empty(t, mod.Patterns[0].Rows[4])
}

func TestParseRejectsOtherText(t *testing.T) {
	_, err := rpp.NewParser(strings.NewReader("hello\n"), 32, nil).Parse()
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
}

func TestParseWithoutMIDI(t *testing.T) {
	_, err := rpp.NewParser(strings.NewReader("<REAPER_PROJECT\n  TEMPO 120 4 4\n>\n"), 32, nil).Parse()
	assert.True(t, tracker.IsKind(err, tracker.KindEmptyModule))
}
