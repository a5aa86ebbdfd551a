// Package xm reads FastTracker 2 extended modules.
package xm

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/QEStudios/ModReader/parser"
	"github.com/QEStudios/ModReader/tracker"
)

const (
	idText          = "Extended Module: "
	headerFixedSize = 60 // Bytes before the header size field counts from.
	patternBreak    = 13
	keyOff          = 97
	sampleHdrSize   = 40
)

// XM note 1 is C-0.
const noteOffset = -1

// A Cell is one decoded pattern cell.
type Cell struct {
	Note       int
	Instrument int
	Volume     int
	Effect     int
	Param      int
}

// DecodeCell decodes a (possibly packed) note cell from the start of b and returns the number of
// bytes used. If the high bit of the lead byte is set, bits 0-4 say which of note, instrument,
// volume, effect and parameter follow; otherwise the lead byte is the note and all four other
// fields follow.
func DecodeCell(b []byte) (Cell, int, error) {
	if len(b) == 0 {
		return Cell{}, 0, io.ErrUnexpectedEOF
	}
	lead := b[0]
	var fields [5]int
	present := [5]bool{true, true, true, true, true}
	pos := 1
	if lead&0x80 != 0 {
		for i := range present {
			present[i] = lead&(1<<i) != 0
		}
	} else {
		fields[0] = int(lead)
		present[0] = false
	}
	for i, ok := range present {
		if !ok {
			continue
		}
		if pos >= len(b) {
			return Cell{}, pos, io.ErrUnexpectedEOF
		}
		fields[i] = int(b[pos])
		pos++
	}
	return Cell{Note: fields[0], Instrument: fields[1], Volume: fields[2], Effect: fields[3], Param: fields[4]}, pos, nil
}

// Event converts a cell to the uniform event model. Key-off is not a sounding note.
func (c Cell) Event() tracker.Event {
	note := c.Note
	if note == keyOff {
		note = 0
	}
	return tracker.Event{Note: note, Instrument: c.Instrument, Effect: c.Effect, Param: c.Param}
}

type Parser struct {
	r        io.Reader
	logger   *log.Logger
	c        *parser.Cursor
	warnings []tracker.Warning

	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a new parser to parse an XM file.
func NewParser(r io.Reader, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{r: r, logger: logger}
}

func (p *Parser) addWarning(where string, format string, args ...any) {
	p.warnings = append(p.warnings, tracker.Warning{Where: where, Message: fmt.Sprintf(format, args...)})
}

// Parse reads the whole module.
func (p *Parser) Parse() (*tracker.Module, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true

	data, err := io.ReadAll(p.r)
	if err != nil {
		return nil, fmt.Errorf("error reading module: %w", err)
	}
	p.c = parser.NewCursor(data, binary.LittleEndian)

	mod, err := p.parse()
	if err != nil {
		return nil, err
	}
	if err := p.c.Err(); err != nil {
		return nil, err
	}
	mod.Warnings = p.warnings
	for _, w := range p.warnings {
		p.logger.Printf("warning: %v", w)
	}
	return mod, mod.Validate()
}

func (p *Parser) parse() (*tracker.Module, error) {
	c := p.c
	id := string(c.Bytes(len(idText), "id text"))
	if !strings.EqualFold(id, idText) {
		return nil, tracker.InvalidFormat("not a valid XM file: unexpected id text %q", id)
	}
	mod := &tracker.Module{Format: "XM", Kind: "module", NoteOffset: noteOffset}
	mod.Description = c.String(20, "module name")
	c.Byte("magic byte")
	c.String(20, "tracker name")
	c.Uint16("version")

	headerSize := int(c.Uint32("header size"))
	mod.SongLength = int(c.Uint16("song length"))
	c.Uint16("restart position")
	channels := int(c.Uint16("number of channels"))
	patternCount := int(c.Uint16("number of patterns"))
	instrumentCount := int(c.Uint16("number of instruments"))
	c.Uint16("flags")
	c.Uint16("default tempo")
	c.Uint16("default bpm")
	orders := c.Bytes(256, "pattern order table")
	if err := c.Err(); err != nil {
		return nil, err
	}
	if mod.SongLength > len(orders) {
		p.warnings = append(p.warnings, tracker.Warning{
			Kind:    tracker.KindTruncatedOrder,
			Where:   "header",
			Message: fmt.Sprintf("song length %d exceeds the order table, truncated", mod.SongLength),
		})
		mod.SongLength = len(orders)
	}
	for _, b := range orders[:mod.SongLength] {
		mod.Order = append(mod.Order, int(b))
	}

	start := headerFixedSize + headerSize
	for i := range patternCount {
		pat, next := p.parsePattern(start, channels)
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		mod.Patterns = append(mod.Patterns, pat)
		start = next
	}

	for i := range instrumentCount {
		s, next := p.parseInstrument(start, i+1)
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("instrument %d: %w", i+1, err)
		}
		mod.Samples = append(mod.Samples, s)
		start = next
	}
	return mod, nil
}

// parsePattern reads the pattern whose header starts at start and returns the start of the next one.
func (p *Parser) parsePattern(start, channels int) (tracker.RawPattern, int) {
	c := p.c
	c.Seek(start, "pattern header")
	size := int(c.Uint32("pattern header length"))
	c.Byte("packing type")
	rows := int(c.Uint16("number of rows"))
	dataSize := int(c.Uint16("packed pattern data size"))
	next := start + size + dataSize

	// An all-empty pattern is stored without data but still takes its rows.
	pat := tracker.RawPattern{Length: rows}
	if dataSize == 0 {
		return pat, next
	}
	c.Seek(start+size, "pattern data")
	data := c.Bytes(dataSize, "pattern data")
	pos := 0
	for row := 0; row < rows; row++ {
		events := make(tracker.Row, channels)
		broken := false
		for ch := range channels {
			cell, n, err := DecodeCell(data[pos:])
			if err != nil {
				p.addWarning(fmt.Sprintf("offset %#x", start+size+pos), "pattern data ends in row %d", row)
				pat.Length = row
				return pat, next
			}
			pos += n
			events[ch] = cell.Event()
			if cell.Effect == patternBreak {
				broken = true
			}
		}
		pat.Rows = append(pat.Rows, events)
		if broken {
			pat.Length = row + 1
			break
		}
	}
	return pat, next
}

// parseInstrument reads the instrument header and its sample headers and returns the start of
// the next instrument.
func (p *Parser) parseInstrument(start, number int) (tracker.Sample, int) {
	c := p.c
	c.Seek(start, "instrument header")
	size := int(c.Uint32("instrument header size"))
	s := tracker.Sample{Number: number}
	s.Name = c.String(22, "instrument name")
	c.Byte("instrument type")
	sampleCount := int(c.Uint16("number of samples"))
	hdrSize := sampleHdrSize
	if sampleCount > 0 {
		if n := int(c.Uint32("sample header size")); n > 0 {
			hdrSize = n
		}
	}
	s.Empty = sampleCount == 0

	next := start + size
	var dataSize int
	for i := range sampleCount {
		c.Seek(start+size+i*hdrSize, "sample header")
		length := int(c.Uint32("sample length"))
		c.Bytes(14, "sample header")
		name := c.String(22, "sample name")
		if i == 0 && s.Name == "" {
			s.Name, _, _ = strings.Cut(name, ".")
		}
		dataSize += length
	}
	next += sampleCount*hdrSize + dataSize
	return s, next
}
