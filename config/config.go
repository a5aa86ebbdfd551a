// Package config holds the settings shared by the readers and the transcription: drum letter
// tables, known file types and locations.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"gopkg.in/yaml.v2"
)

// Unassigned marks a drum without a letter.
const Unassigned = "?"

//go:embed default.yaml
var defaultYAML []byte

// A GMDrum is one General MIDI percussion note.
type GMDrum struct {
	Note   int    `yaml:"note"`
	Name   string `yaml:"name"`
	Letter string `yaml:"letter"`
}

type Config struct {
	PrintSeq   string            `yaml:"printseq"`
	GMDrums    []GMDrum          `yaml:"gm_drums"`
	Samp2Lett  map[string]string `yaml:"samp2lett"`
	KnownFiles []string          `yaml:"known_files"`
	BaseDir    string            `yaml:"basedir"`
	Location   string            `yaml:"location"`
	PerLine    int               `yaml:"per_line"`
	TempDir    string            `yaml:"temp_dir"`
}

// Default returns the built-in settings.
func Default() *Config {
	c := &Config{}
	if err := yaml.Unmarshal(defaultYAML, c); err != nil {
		panic(fmt.Sprintf("invalid built-in settings: %v", err))
	}
	return c
}

// Load reads a settings file on top of the defaults. Keys missing from the file keep their default
// values; samp2lett entries are added to the default table.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("reading settings"))
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("parsing settings", fmt.Sprintf("%s is not a valid settings file", path)))
	}
	if err := c.Validate(); err != nil {
		return nil, fault.Wrap(err, fmsg.With(path))
	}
	return c, nil
}

// Validate checks the settings for values the transcription cannot work with.
func (c *Config) Validate() error {
	if c.PerLine <= 0 {
		return fault.New(fmt.Sprintf("per_line must be positive, got %d", c.PerLine))
	}
	seen := map[rune]bool{}
	for _, r := range c.PrintSeq {
		if seen[r] {
			return fault.New(fmt.Sprintf("letter %q appears twice in printseq", r))
		}
		seen[r] = true
	}
	return nil
}

// GMDrum returns the General MIDI drum for a MIDI note.
func (c *Config) GMDrum(note int) (GMDrum, bool) {
	for _, d := range c.GMDrums {
		if d.Note == note {
			return d, true
		}
	}
	return GMDrum{}, false
}

// GMLetter returns the drum letter for a MIDI note, false if none is assigned.
func (c *Config) GMLetter(note int) (string, bool) {
	d, ok := c.GMDrum(note)
	if !ok || d.Letter == "" || d.Letter == Unassigned {
		return "", false
	}
	return d.Letter, true
}

func normalize(name string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(name))
}

// SampleLetters returns the drum letters for a sample name: an exact match on the normalized name,
// or else the longest table entry the name contains.
func (c *Config) SampleLetters(name string) (string, bool) {
	n := normalize(name)
	if n == "" {
		return "", false
	}
	if l, ok := c.Samp2Lett[n]; ok {
		return l, true
	}
	var best string
	for key := range c.Samp2Lett {
		if !strings.Contains(n, key) {
			continue
		}
		if len(key) > len(best) || (len(key) == len(best) && key < best) {
			best = key
		}
	}
	if best == "" {
		return "", false
	}
	return c.Samp2Lett[best], true
}

// IsKnown reports whether path has one of the known file extensions.
func (c *Config) IsKnown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.ContainsFunc(c.KnownFiles, func(k string) bool { return strings.ToLower(k) == ext })
}

// Expand replaces a leading ~ with the home directory.
func Expand(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/' && rest[0] != filepath.Separator) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
