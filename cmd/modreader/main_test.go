package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QEStudios/ModReader/config"
)

func TestValidatePath(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	song := filepath.Join(dir, "song.XM")
	require.NoError(t, os.WriteFile(song, []byte{}, 0o644))

	assert.NoError(t, validatePath(song, cfg))
	assert.Error(t, validatePath(filepath.Join(dir, "missing.xm"), cfg))
	assert.ErrorContains(t, validatePath(filepath.Join(dir, "notes.txt"), cfg), "unknown file type")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Bass_Lead", fileName(" Bass/Lead ", 1))
	assert.Equal(t, "instrument3", fileName("", 3))
}
