package convert_test

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/QEStudios/ModReader/convert"
	parsemidi "github.com/QEStudios/ModReader/parser/midi"
	"github.com/QEStudios/ModReader/tracker"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExecMissingTool(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "song.mid", "MThd")
	e := convert.Midicsv(filepath.Join(dir, "tmp"), nil)
	e.Tool = "no-such-converter-installed"

	_, err := e.Convert(src)
	require.Error(t, err)
	assert.True(t, tracker.IsKind(err, tracker.KindExternalTool))
	assert.True(t, strings.HasPrefix(err.Error(), "running no-such-converter-installed: "), err.Error())
	assert.Equal(t, 1, strings.Count(err.Error(), "executable file not found"), err.Error())
}

func TestExecUsesFreshCache(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "song.mid", "MThd")
	e := convert.Midicsv(dir, nil)
	e.Tool = "no-such-converter-installed"

	dst := e.Target(src)
	assert.Equal(t, filepath.Join(dir, "song.csv"), dst)
	writeFile(t, dir, "song.csv", "cached")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(dst, later, later))

	data, err := e.Convert(src)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(data))

	// A newer input makes the cache stale.
	require.NoError(t, os.Chtimes(src, later.Add(time.Hour), later.Add(time.Hour)))
	_, err = e.Convert(src)
	assert.True(t, tracker.IsKind(err, tracker.KindExternalTool))
}

func TestExecStdout(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "song.mmpz", "<lmms-project/>")
	e := &convert.Exec{
		Tool:    "cat",
		Args:    func(src, _ string) []string { return []string{src} },
		Ext:     ".mmp",
		Stdout:  true,
		TempDir: filepath.Join(dir, "out"),
	}
	data, err := e.Convert(src)
	require.NoError(t, err)
	assert.Equal(t, "<lmms-project/>", string(data))
	assert.FileExists(t, filepath.Join(dir, "out", "song.mmp"))
}

func TestUnpack(t *testing.T) {
	text := "<lmms-project><song/></lmms-project>"
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(text)))
	zw := zlib.NewWriter(&buf)
	zw.Write([]byte(text))
	require.NoError(t, zw.Close())

	dir := t.TempDir()
	src := filepath.Join(dir, "song.mmpz")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o644))
	data, err := convert.MMPZ.Convert(src)
	require.NoError(t, err)
	assert.Equal(t, text, string(data))

	_, err = convert.Unpack([]byte{0, 0, 0, 4, 'x', 'y'})
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
}

func TestListingFeedsMIDIReader(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)

	var meta smf.Track
	meta.Add(0, smf.MetaTrackSequenceName("Song"))
	var bass smf.Track
	bass.Add(0, smf.MetaTrackSequenceName("Bass"))
	bass.Add(0, midi.NoteOn(0, 36, 100))
	bass.Add(24, midi.NoteOff(0, 36))
	bass.Add(24, midi.NoteOn(0, 43, 100))
	var drums smf.Track
	drums.Add(0, smf.MetaTrackSequenceName("Drums"))
	drums.Add(96, midi.NoteOn(9, 38, 127))
	s.Tracks = append(s.Tracks, meta, bass, drums)

	data, err := convert.Listing(s)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "0,0,Header,1,3,96\n"))
	assert.Contains(t, text, "2,0,Title_t,Bass\n")
	assert.Contains(t, text, "2,48,Note_on_c,0,43,100\n")

	mod, err := parsemidi.NewParser(bytes.NewReader(data), 32, nil).Parse()
	require.NoError(t, err)
	assert.Equal(t, []tracker.Sample{
		{Number: 2, Name: "Bass", Channel: 1},
		{Number: 3, Name: "Drums", Channel: 10, Kit: tracker.KitGM},
	}, mod.Samples)
	assert.Equal(t, tracker.Row{{Note: 44, Instrument: 2}}, mod.Patterns[0].Rows[2])
	assert.Equal(t, tracker.Row{{Note: 39, Instrument: 3}}, mod.Patterns[0].Rows[4])
}
