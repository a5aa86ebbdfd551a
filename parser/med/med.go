// Package med reads OctaMED/MED modules in the MMD0 and MMD1 layouts.
package med

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"

	"github.com/QEStudios/ModReader/parser"
	"github.com/QEStudios/ModReader/tracker"
)

// MED notes are numbered from C-1; this lines them up with the other formats.
const noteOffset = 3*tracker.OctaveLength - 1

const (
	headerSize   = 52
	songInfoSize = 788
	maxSamples   = 63
)

// DecodeMMD0 decodes a 3 byte MMD0 note cell.
func DecodeMMD0(b []byte) tracker.Event {
	return tracker.Event{
		Note:       int(b[0] & 0x3F),
		Instrument: int((b[0]&0xC0)>>2) | int(b[1]>>4),
		Effect:     int(b[1] & 0x0F),
		Param:      int(b[2]),
	}
}

// DecodeMMD1 decodes a 4 byte MMD1 note cell.
func DecodeMMD1(b []byte) tracker.Event {
	return tracker.Event{
		Note:       int(b[0] & 0x7F),
		Instrument: int(b[1] & 0x3F),
		Effect:     int(b[2]),
		Param:      int(b[3]),
	}
}

type Parser struct {
	r        io.Reader
	logger   *log.Logger
	c        *parser.Cursor
	warnings []tracker.Warning

	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a new parser to parse a MED module.
func NewParser(r io.Reader, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{r: r, logger: logger}
}

func (p *Parser) addWarning(format string, args ...any) {
	p.warnings = append(p.warnings, tracker.Warning{
		Where:   fmt.Sprintf("offset %#x", p.c.Offset()),
		Message: fmt.Sprintf(format, args...),
	})
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
	if len(data) < headerSize {
		return nil, tracker.InvalidFormat("file too short for a MED header (%d bytes)", len(data))
	}
	p.c = parser.NewCursor(data, binary.BigEndian)

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
	tag := string(c.Bytes(4, "module id"))
	if tag != "MMD0" && tag != "MMD1" {
		return nil, tracker.InvalidFormat("not a valid MED module: unknown id %q", tag)
	}
	c.Uint32("module length")
	songInfoStart := int(c.Uint32("song pointer"))
	c.Uint32("reserved")
	blockArrayStart := int(c.Uint32("block array pointer"))
	c.Uint32("reserved")
	sampleArrayStart := int(c.Uint32("sample array pointer"))
	c.Uint32("reserved")
	expansionStart := int(c.Uint32("expansion pointer"))

	mod := &tracker.Module{Format: tag, Kind: "module", NoteOffset: noteOffset}

	// Song info: 63 sample descriptions of 8 bytes, then the counts and the play sequence.
	c.Seek(songInfoStart+maxSamples*8, "song info")
	blockCount := int(c.Uint16("number of blocks"))
	mod.SongLength = int(c.Uint16("song length"))
	playSeq := c.Bytes(256, "play sequence")
	c.Seek(songInfoStart+songInfoSize-1, "song info")
	sampleCount := int(c.Byte("number of samples"))
	if err := c.Err(); err != nil {
		return nil, err
	}
	if mod.SongLength > len(playSeq) {
		p.addWarning("song length %d exceeds the play sequence, truncated", mod.SongLength)
		p.warnings[len(p.warnings)-1].Kind = tracker.KindTruncatedOrder
		mod.SongLength = len(playSeq)
	}
	for _, b := range playSeq[:mod.SongLength] {
		mod.Order = append(mod.Order, int(b))
	}

	c.Seek(blockArrayStart, "block array")
	blockStarts := make([]int, blockCount)
	for i := range blockStarts {
		blockStarts[i] = int(c.Uint32("block pointer"))
	}

	c.Seek(sampleArrayStart, "sample array")
	sampleStarts := make([]int, sampleCount)
	for i := range sampleStarts {
		sampleStarts[i] = int(c.Uint32("sample pointer"))
	}

	names := p.parseExpansion(mod, expansionStart)
	for i := 0; i < max(sampleCount, len(names)); i++ {
		s := tracker.Sample{Number: i + 1}
		if i < len(names) {
			s.Name = names[i]
		}
		if i < len(sampleStarts) && sampleStarts[i] == 0 {
			s.Empty = true
			if len(names) == sampleCount {
				s.Name += " (unnamed)"
			}
		}
		mod.Samples = append(mod.Samples, s)
	}

	for i, start := range blockStarts {
		var pat tracker.RawPattern
		if tag == "MMD0" {
			pat = p.parseBlockMMD0(start)
		} else {
			pat = p.parseBlockMMD1(start)
		}
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		mod.Patterns = append(mod.Patterns, pat)
	}
	return mod, nil
}

// parseExpansion reads the song annotation and the instrument names.
func (p *Parser) parseExpansion(mod *tracker.Module, start int) []string {
	if start == 0 {
		return nil
	}
	c := p.c
	c.Seek(start, "expansion block")
	c.Uint32("next module")
	c.Uint32("sample extensions")
	c.Uint16("sample extension count")
	c.Uint16("sample extension size")
	annoStart := int(c.Uint32("annotation pointer"))
	annoLen := int(c.Uint32("annotation length"))
	infoStart := int(c.Uint32("instrument info pointer"))
	infoCount := int(c.Uint16("instrument info count"))
	infoLen := int(c.Uint16("instrument info size"))

	if annoStart != 0 && annoLen > 0 {
		c.Seek(annoStart, "annotation")
		mod.Description = c.String(annoLen, "annotation")
	}
	var names []string
	if infoStart != 0 && infoLen > 0 {
		c.Seek(infoStart, "instrument info")
		for range infoCount {
			names = append(names, c.String(infoLen, "instrument name"))
		}
	}
	return names
}

func (p *Parser) parseBlockMMD0(start int) tracker.RawPattern {
	c := p.c
	c.Seek(start, "block")
	tracks := int(c.Byte("track count"))
	lines := int(c.Byte("line count")) + 1
	if !c.Need(tracks*lines*3, "block data") {
		return tracker.RawPattern{}
	}
	pat := tracker.RawPattern{Length: lines, Rows: make([]tracker.Row, lines)}
	for row := range pat.Rows {
		pat.Rows[row] = make(tracker.Row, tracks)
		for track := range tracks {
			pat.Rows[row][track] = DecodeMMD0(c.Bytes(3, "note cell"))
		}
	}
	return pat
}

func (p *Parser) parseBlockMMD1(start int) tracker.RawPattern {
	c := p.c
	c.Seek(start, "block")
	tracks := int(c.Uint16("track count"))
	lines := int(c.Uint16("line count")) + 1
	infoStart := int(c.Uint32("block info pointer"))
	if !c.Need(tracks*lines*4, "block data") {
		return tracker.RawPattern{}
	}
	pat := tracker.RawPattern{Length: lines, Rows: make([]tracker.Row, lines)}
	for row := range pat.Rows {
		pat.Rows[row] = make(tracker.Row, tracks)
		for track := range tracks {
			pat.Rows[row][track] = DecodeMMD1(c.Bytes(4, "note cell"))
		}
	}
	if infoStart != 0 {
		c.Seek(infoStart+4, "block info")
		nameStart := int(c.Uint32("block name pointer"))
		nameLen := int(c.Uint32("block name length"))
		if nameStart != 0 && nameLen > 0 {
			c.Seek(nameStart, "block name")
			pat.Name = c.String(nameLen, "block name")
		}
	}
	return pat
}
