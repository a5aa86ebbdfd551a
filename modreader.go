// Package modreader loads tracker modules, MIDI files and DAW projects into the common module
// model, choosing the reader (and converter, if the file needs one) by file extension.
package modreader

import (
	"bytes"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/QEStudios/ModReader/config"
	"github.com/QEStudios/ModReader/convert"
	"github.com/QEStudios/ModReader/parser/med"
	"github.com/QEStudios/ModReader/parser/midi"
	"github.com/QEStudios/ModReader/parser/mmp"
	"github.com/QEStudios/ModReader/parser/mod"
	"github.com/QEStudios/ModReader/parser/rpp"
	"github.com/QEStudios/ModReader/parser/xm"
	"github.com/QEStudios/ModReader/tracker"
)

type LoadOptions struct {
	// ExternalMIDI converts MIDI files with midicsv instead of in-process.
	ExternalMIDI bool
	// ExternalLMMS unpacks compressed LMMS projects with "lmms -d" instead of in-process.
	ExternalLMMS bool
	// Converters replaces the converter for a (lower case) extension.
	Converters map[string]convert.Converter
}

// converter returns how the file with the given extension is turned into reader input.
func converter(ext string, cfg *config.Config, logger *log.Logger, opts LoadOptions) convert.Converter {
	if c, ok := opts.Converters[ext]; ok {
		return c
	}
	tempDir := config.Expand(cfg.TempDir)
	switch ext {
	case ".mid", ".midi":
		if opts.ExternalMIDI {
			return convert.Midicsv(tempDir, logger)
		}
		return convert.SMF
	case ".mmpz":
		if opts.ExternalLMMS {
			return convert.LMMS(tempDir, logger)
		}
		return convert.MMPZ
	}
	return convert.Passthrough
}

// NewReader returns the reader for a file type.
func NewReader(ext string, r io.Reader, perLine int, logger *log.Logger) (tracker.Reader, error) {
	switch strings.ToLower(ext) {
	case ".med", ".mmd0", ".mmd1":
		return med.NewParser(r, logger), nil
	case ".mod":
		return mod.NewParser(r, logger), nil
	case ".xm":
		return xm.NewParser(r, logger), nil
	case ".mid", ".midi", ".csv":
		return midi.NewParser(r, perLine, logger), nil
	case ".rpp":
		return rpp.NewParser(r, perLine, logger), nil
	case ".mmp", ".mmpz":
		return mmp.NewParser(r, perLine, logger), nil
	}
	return nil, tracker.InvalidFormat("unsupported file type %q", ext)
}

// Load reads the file at path.
func Load(path string, cfg *config.Config, logger *log.Logger, opts LoadOptions) (*tracker.Module, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, err := NewReader(ext, nil, cfg.PerLine, logger); err != nil {
		return nil, err
	}

	data, err := converter(ext, cfg, logger, opts).Convert(path)
	if err != nil {
		return nil, err
	}
	reader, err := NewReader(ext, bytes.NewReader(data), cfg.PerLine, logger)
	if err != nil {
		return nil, err
	}
	logger.Printf("reading %s", path)
	return reader.Parse()
}
