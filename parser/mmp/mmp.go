// Package mmp reads LMMS project files (uncompressed XML).
package mmp

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"

	"github.com/QEStudios/ModReader/parser"
	"github.com/QEStudios/ModReader/tracker"
)

const (
	// LMMS counts 48 ticks per quarter; rows are sixteenth notes.
	ticksPerRow    = 12
	defaultBBTicks = 192
)

const (
	instrumentTrack = 0
	bbTrack         = 1
)

type project struct {
	XMLName xml.Name   `xml:"lmms-project"`
	Tracks  []xmlTrack `xml:"song>trackcontainer>track"`
}

type xmlTrack struct {
	Type     int          `xml:"type,attr"`
	Name     string       `xml:"name,attr"`
	Patterns []xmlPattern `xml:"pattern"`
	BBTcos   []xmlBBTco   `xml:"bbtco"`
	BBTracks []xmlTrack   `xml:"bbtrack>trackcontainer>track"`
}

type xmlPattern struct {
	Pos   int       `xml:"pos,attr"`
	Len   int       `xml:"len,attr"`
	Notes []xmlNote `xml:"note"`
}

type xmlNote struct {
	Pos int `xml:"pos,attr"`
	Key int `xml:"key,attr"`
}

type xmlBBTco struct {
	Pos int `xml:"pos,attr"`
	Len int `xml:"len,attr"`
}

type Parser struct {
	r        io.Reader
	logger   *log.Logger
	perLine  int
	warnings []tracker.Warning
	grid     *parser.Grid

	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a parser for an LMMS project. Notes are collected into patterns of perLine rows.
func NewParser(r io.Reader, perLine int, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{r: r, logger: logger, perLine: perLine, grid: parser.NewGrid(max(perLine, 1))}
}

func (p *Parser) addWarning(where string, format string, args ...any) {
	p.warnings = append(p.warnings, tracker.Warning{Where: where, Message: fmt.Sprintf(format, args...)})
}

// Parse decodes the project and places all notes on one timeline.
func (p *Parser) Parse() (*tracker.Module, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true

	var proj project
	if err := xml.NewDecoder(p.r).Decode(&proj); err != nil {
		return nil, tracker.InvalidFormat("not an LMMS project: %v", err)
	}

	mod := &tracker.Module{Format: "LMMS", Kind: "project", NoteOffset: -1}
	numbers := map[string]int{}
	sample := func(name string, kit tracker.KitType) int {
		key := fmt.Sprintf("%d/%s", kit, name)
		if n, ok := numbers[key]; ok {
			return n
		}
		n := len(mod.Samples) + 1
		numbers[key] = n
		mod.Samples = append(mod.Samples, tracker.Sample{Number: n, Name: name, Kit: kit})
		return n
	}

	// Instrument tracks with the same name are one instrument.
	var bbs []xmlTrack
	var bbContainer []xmlTrack
	for _, t := range proj.Tracks {
		switch t.Type {
		case instrumentTrack:
			n := sample(t.Name, tracker.KitNone)
			for _, pat := range t.Patterns {
				for _, nt := range pat.Notes {
					p.add(pat.Pos+nt.Pos, nt.Key, n)
				}
			}
		case bbTrack:
			bbs = append(bbs, t)
			bbContainer = append(bbContainer, t.BBTracks...)
		}
	}
	p.placeBeats(bbs, bbContainer, sample)

	mod.Patterns, mod.Order = p.grid.Patterns()
	p.warnings = append(p.warnings, p.grid.Warnings()...)
	mod.SongLength = len(mod.Order)
	mod.Warnings = p.warnings
	for _, w := range p.warnings {
		p.logger.Printf("warning: %v", w)
	}
	return mod, mod.Validate()
}

func (p *Parser) add(tick, key, instrument int) {
	if tick < 0 {
		return
	}
	p.grid.Add(tick/ticksPerRow, tracker.Event{Note: key + 1, Instrument: instrument})
}

// placeBeats lays out the beat/bassline tracks. Pattern n of every track in the beat/bassline
// container belongs to beat n, which is played wherever the n-th beat/bassline track has a
// block, repeated over the block length.
func (p *Parser) placeBeats(bbs, container []xmlTrack, sample func(string, tracker.KitType) int) {
	if len(bbs) == 0 {
		return
	}
	beatLen := make([]int, len(bbs))
	for _, t := range container {
		for i, pat := range t.Patterns {
			if i < len(beatLen) {
				beatLen[i] = max(beatLen[i], pat.Len)
			}
		}
	}
	for i := range beatLen {
		if beatLen[i] <= 0 {
			beatLen[i] = defaultBBTicks
		}
	}

	for _, t := range container {
		n := 0
		for i, pat := range t.Patterns {
			if i >= len(bbs) {
				p.addWarning(t.Name, "pattern %d has no beat/bassline track", i)
				break
			}
			if len(pat.Notes) == 0 {
				continue
			}
			if n == 0 {
				n = sample(t.Name, tracker.KitNamed)
			}
			for _, tco := range bbs[i].BBTcos {
				for offset := 0; offset < tco.Len; offset += beatLen[i] {
					for _, nt := range pat.Notes {
						if offset+nt.Pos < tco.Len {
							p.add(tco.Pos+offset+nt.Pos, nt.Key, n)
						}
					}
				}
			}
		}
	}
}
