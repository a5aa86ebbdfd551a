package modreader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QEStudios/ModReader"
	"github.com/QEStudios/ModReader/convert"
	"github.com/QEStudios/ModReader/tracker"
	"github.com/QEStudios/ModReader/transcript"
)

const project = `<REAPER_PROJECT 0.1
  <TRACK
    NAME "Lead"
    <ITEM
      POSITION 0
      <SOURCE MIDI
        HASDATA 1 96 QN
        E 0 90 3c 60
        E 48 90 3e 60
      >
    >
  >
>
`

func TestLoadProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.RPP")
	require.NoError(t, os.WriteFile(path, []byte(project), 0o644))

	mod, err := modreader.Load(path, nil, nil, modreader.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "RPP", mod.Format)
	require.Len(t, mod.Samples, 1)
	assert.Equal(t, "Lead", mod.Samples[0].Name)

	tr, err := transcript.New(mod, path, nil, nil)
	require.NoError(t, err)
	seq, err := tr.Sequence(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, seq)
}

func TestLoadWithInjectedConverter(t *testing.T) {
	listing := "0, 0, Header, 1, 2, 96\n2, 0, Title_t, \"Piano\"\n2, 0, Note_on_c, 0, 60, 90\n"
	var called string
	opts := modreader.LoadOptions{Converters: map[string]convert.Converter{
		".mid": convert.Func(func(path string) ([]byte, error) {
			called = path
			return []byte(listing), nil
		}),
	}}
	mod, err := modreader.Load("/music/song.mid", nil, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, "/music/song.mid", called)
	assert.Equal(t, "MIDI", mod.Format)
	assert.Equal(t, "Piano", mod.Samples[0].Name)
}

func TestLoadUnknownType(t *testing.T) {
	_, err := modreader.Load("notes.txt", nil, nil, modreader.LoadOptions{})
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
	assert.Equal(t, `unsupported file type ".txt"`, err.Error())
}

func TestLoadBadModuleTag(t *testing.T) {
	data := make([]byte, 1084)
	copy(data[1080:], "XXXX")
	path := filepath.Join(t.TempDir(), "song.mod")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := modreader.Load(path, nil, nil, modreader.LoadOptions{})
	assert.True(t, tracker.IsKind(err, tracker.KindInvalidFormat))
	assert.Contains(t, err.Error(), `unknown type tag "XXXX"`)
	assert.NotContains(t, err.Error(), "<ftag>")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := modreader.Load(filepath.Join(t.TempDir(), "missing.mod"), nil, nil, modreader.LoadOptions{})
	assert.Error(t, err)
}
