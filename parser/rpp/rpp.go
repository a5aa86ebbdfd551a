// Package rpp reads the MIDI items of a Reaper project file.
package rpp

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/QEStudios/ModReader/parser"
	"github.com/QEStudios/ModReader/tracker"
)

const (
	defaultTempo   = 120
	rowsPerQuarter = 4
	drumChannel    = 9 // 0-based, as written in the event status byte.
)

type track struct {
	number  int
	name    string
	channel int // 1-based, 0 until the first note.
	used    bool
}

// item holds the state of the MIDI item being read.
type item struct {
	position   float64 // Seconds.
	resolution int     // Ticks per quarter note.
	tick       int
	midi       bool
}

type Parser struct {
	scanner    *bufio.Scanner
	logger     *log.Logger
	lineNumber int
	warnings   []tracker.Warning
	remarks    []string

	// Open blocks, innermost last.
	blocks []string
	tempo  float64
	tracks []*track
	item   *item
	grid   *parser.Grid

	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a parser for a Reaper project. Notes are collected into patterns of perLine rows.
func NewParser(r io.Reader, perLine int, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{
		scanner: bufio.NewScanner(r),
		logger:  logger,
		tempo:   defaultTempo,
		grid:    parser.NewGrid(max(perLine, 1)),
	}
}

func (p *Parser) addWarning(format string, args ...any) {
	p.warnings = append(p.warnings, tracker.Warning{
		Where:   fmt.Sprintf("line %d", p.lineNumber),
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) fatalf(format string, args ...any) error {
	return fmt.Errorf("line %d: %w", p.lineNumber, tracker.InvalidFormat(format, args...))
}

func (p *Parser) inside(block string) bool {
	return len(p.blocks) > 0 && p.blocks[len(p.blocks)-1] == block
}

func (p *Parser) currentTrack() *track {
	if len(p.tracks) == 0 {
		return nil
	}
	return p.tracks[len(p.tracks)-1]
}

// Parse reads the project line by line.
func (p *Parser) Parse() (*tracker.Module, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true

	for p.scanner.Scan() {
		p.lineNumber++
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" {
			continue
		}
		if p.lineNumber == 1 && !strings.HasPrefix(line, "<REAPER_PROJECT") {
			return nil, p.fatalf("not a Reaper project")
		}
		if err := p.parseLine(line); err != nil {
			return nil, err
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading project: %w", err)
	}
	if p.lineNumber == 0 {
		return nil, tracker.InvalidFormat("empty project file")
	}
	if len(p.blocks) > 0 {
		p.addWarning("project ends inside %s", p.blocks[len(p.blocks)-1])
	}

	mod := p.build()
	mod.Warnings = p.warnings
	for _, w := range p.warnings {
		p.logger.Printf("warning: %v", w)
	}
	return mod, mod.Validate()
}

func (p *Parser) parseLine(line string) error {
	if line == ">" {
		if len(p.blocks) == 0 {
			p.addWarning("unbalanced block end")
			return nil
		}
		if p.inside("ITEM") {
			p.item = nil
		}
		p.blocks = p.blocks[:len(p.blocks)-1]
		return nil
	}

	key, rest, _ := strings.Cut(line, " ")
	if block, ok := strings.CutPrefix(key, "<"); ok {
		p.blocks = append(p.blocks, block)
		switch block {
		case "TRACK":
			p.tracks = append(p.tracks, &track{number: len(p.tracks) + 1})
		case "ITEM":
			p.item = &item{}
		case "SOURCE":
			if p.item != nil {
				p.item.midi = strings.TrimSpace(rest) == "MIDI"
			}
		}
		return nil
	}

	switch {
	case key == "TEMPO" && p.inside("REAPER_PROJECT"):
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return p.fatalf("missing tempo value")
		}
		tempo, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || tempo <= 0 {
			return p.fatalf("invalid tempo %q", fields[0])
		}
		p.tempo = tempo

	case key == "NAME" && p.inside("TRACK"):
		if t := p.currentTrack(); t != nil {
			t.name = strings.Trim(rest, `"'`)
		}

	case key == "POSITION" && p.inside("ITEM"):
		pos, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return p.fatalf("invalid item position %q", rest)
		}
		p.item.position = pos

	case key == "HASDATA" && p.inside("SOURCE"):
		// HASDATA 1 960 QN
		fields := strings.Fields(rest)
		if p.item == nil || !p.item.midi || len(fields) < 2 {
			return nil
		}
		res, err := strconv.Atoi(fields[1])
		if err != nil || res < rowsPerQuarter {
			return p.fatalf("unsupported MIDI resolution %q", fields[1])
		}
		p.item.resolution = res

	case (key == "E" || key == "e") && p.inside("SOURCE"):
		return p.parseEvent(rest)
	}
	return nil
}

// parseEvent handles a MIDI event line, e.g. "E 240 90 3c 60": delta ticks, status, pitch and
// velocity, all but the delta in hex.
func (p *Parser) parseEvent(rest string) error {
	it := p.item
	if it == nil || !it.midi {
		return nil
	}
	if it.resolution == 0 {
		return p.fatalf("MIDI event before HASDATA")
	}
	fields := strings.Fields(rest)
	if len(fields) < 4 {
		p.addWarning("short event line")
		return nil
	}
	delta, err := strconv.Atoi(fields[0])
	if err != nil {
		return p.fatalf("invalid event time %q", fields[0])
	}
	it.tick += delta

	status, err := strconv.ParseUint(fields[1], 16, 8)
	if err != nil {
		return p.fatalf("invalid event status %q", fields[1])
	}
	if status>>4 != 0x9 {
		return nil
	}
	pitch, err := strconv.ParseUint(fields[2], 16, 8)
	if err != nil {
		return p.fatalf("invalid pitch %q", fields[2])
	}
	velocity, err := strconv.ParseUint(fields[3], 16, 8)
	if err != nil {
		return p.fatalf("invalid velocity %q", fields[3])
	}
	if velocity == 0 {
		return nil
	}

	t := p.currentTrack()
	if t == nil {
		p.addWarning("MIDI item outside a track")
		return nil
	}
	channel := int(status&0x0F) + 1
	if t.channel == 0 {
		t.channel = channel
	} else if t.channel != channel {
		p.remarks = append(p.remarks, fmt.Sprintf("in-track channel change on track %d at line %d", t.number, p.lineNumber))
	}
	t.used = true

	start := int(math.Round(it.position * p.tempo / 60 * rowsPerQuarter))
	row := start + it.tick/(it.resolution/rowsPerQuarter)
	p.grid.Add(row, tracker.Event{Note: int(pitch) + 1, Instrument: t.number})
	return nil
}

func (p *Parser) build() *tracker.Module {
	mod := &tracker.Module{Format: "RPP", Kind: "project", NoteOffset: -1, Remarks: p.remarks}
	for _, t := range p.tracks {
		if !t.used {
			continue
		}
		name := t.name
		if name == "" {
			name = fmt.Sprintf("track %d", t.number)
		}
		s := tracker.Sample{Number: t.number, Name: name, Channel: t.channel}
		if t.channel == drumChannel+1 {
			s.Kit = tracker.KitGM
		}
		mod.Samples = append(mod.Samples, s)
	}
	mod.Patterns, mod.Order = p.grid.Patterns()
	p.warnings = append(p.warnings, p.grid.Warnings()...)
	mod.SongLength = len(mod.Order)
	return mod
}
