// Package midi reads the CSV event listing produced by midicsv (or convert.SMF) for a MIDI file.
package midi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strconv"
	"strings"

	"github.com/QEStudios/ModReader/parser"
	"github.com/QEStudios/ModReader/tracker"
)

// DrumChannel is the General MIDI percussion channel (1-based).
const DrumChannel = 10

// Rows are sixteenth notes.
const rowsPerQuarter = 4

type track struct {
	number  int
	name    string
	channel int // 1-based, 0 until the first note.
	notes   []note
}

type note struct {
	tick  int
	pitch int
}

type Parser struct {
	r          io.Reader
	logger     *log.Logger
	perLine    int
	lineNumber int
	warnings   []tracker.Warning
	remarks    []string

	resolution int
	tracks     map[int]*track

	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a parser for midicsv output. Notes are collected into patterns of perLine rows.
func NewParser(r io.Reader, perLine int, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{r: r, logger: logger, perLine: perLine, tracks: make(map[int]*track)}
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

func (p *Parser) track(number int) *track {
	t, ok := p.tracks[number]
	if !ok {
		t = &track{number: number}
		p.tracks[number] = t
	}
	return t
}

// Parse reads all records and builds the module.
func (p *Parser) Parse() (*tracker.Module, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true
	if p.perLine <= 0 {
		return nil, fmt.Errorf("invalid pattern width %d", p.perLine)
	}

	cr := csv.NewReader(p.r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, tracker.InvalidFormat("not a midicsv listing: %v", err)
		}
		p.lineNumber++
		if err := p.parseRecord(record); err != nil {
			return nil, err
		}
	}
	if p.resolution == 0 {
		return nil, tracker.InvalidFormat("no header record found")
	}

	mod := p.build()
	mod.Warnings = p.warnings
	for _, w := range p.warnings {
		p.logger.Printf("warning: %v", w)
	}
	return mod, mod.Validate()
}

func (p *Parser) parseRecord(record []string) error {
	if len(record) < 3 {
		p.addWarning("skipping short record")
		return nil
	}
	number, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return p.fatalf("invalid track number %q", record[0])
	}
	tick, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return p.fatalf("invalid time %q", record[1])
	}
	data := record[3:]

	switch strings.TrimSpace(record[2]) {
	case "Header":
		if len(data) < 3 {
			return p.fatalf("header record too short")
		}
		division, err := strconv.Atoi(strings.TrimSpace(data[2]))
		if err != nil || division < rowsPerQuarter {
			return p.fatalf("unsupported time division %q", data[2])
		}
		p.resolution = division

	case "Title_t":
		if len(data) == 0 {
			return nil
		}
		if name := strings.Trim(data[0], ` "`); name != "" {
			p.track(number).name = name
		}

	case "Note_on_c":
		if len(data) < 3 {
			return p.fatalf("note record too short")
		}
		var values [3]int
		for i := range values {
			if values[i], err = strconv.Atoi(strings.TrimSpace(data[i])); err != nil {
				return p.fatalf("invalid note value %q", data[i])
			}
		}
		channel, pitch, velocity := values[0]+1, values[1], values[2]
		t := p.track(number)
		if t.channel == 0 {
			t.channel = channel
		} else if t.channel != channel {
			p.remarks = append(p.remarks, fmt.Sprintf("in-track channel change on track %d at time %d", number, tick))
		}
		// Note-on with velocity 0 is a note-off.
		if velocity != 0 {
			t.notes = append(t.notes, note{tick: tick, pitch: pitch})
		}
	}
	return nil
}

// build lays the notes of all tracks out on one grid. Tracks without notes are dropped.
func (p *Parser) build() *tracker.Module {
	mod := &tracker.Module{Format: "MIDI", Kind: "module", NoteOffset: -1, Remarks: p.remarks}
	duration := p.resolution / rowsPerQuarter
	grid := parser.NewGrid(p.perLine)

	numbers := make([]int, 0, len(p.tracks))
	for n, t := range p.tracks {
		if len(t.notes) > 0 {
			numbers = append(numbers, n)
		}
	}
	slices.Sort(numbers)
	for _, n := range numbers {
		t := p.tracks[n]
		name := t.name
		if name == "" {
			name = fmt.Sprintf("track %d", n)
		}
		s := tracker.Sample{Number: n, Name: name, Channel: t.channel}
		if t.channel == DrumChannel {
			s.Kit = tracker.KitGM
		}
		mod.Samples = append(mod.Samples, s)
		for _, nt := range t.notes {
			grid.Add(nt.tick/duration, tracker.Event{Note: nt.pitch + 1, Instrument: n})
		}
	}
	mod.Patterns, mod.Order = grid.Patterns()
	p.warnings = append(p.warnings, grid.Warnings()...)
	mod.SongLength = len(mod.Order)
	return mod
}
