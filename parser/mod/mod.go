// Package mod reads ProTracker style MOD files (31 samples, 4, 6 or 8 channels).
package mod

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"

	"github.com/QEStudios/ModReader/parser"
	"github.com/QEStudios/ModReader/tracker"
)

const (
	sampleCount   = 31
	rowsPerPatt   = 64
	patternBreak  = 13
	orderTableLen = 128
)

// Note values are 1-based indexes into periods; index 1 is C-2 in the usual tracker notation.
const noteOffset = 2*tracker.OctaveLength - 1

// Amiga periods for five octaves, C-2 through B-6.
var periods = []int{
	1712, 1616, 1524, 1440, 1356, 1280, 1208, 1140, 1076, 1016, 960, 906,
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
	107, 101, 95, 90, 85, 80, 75, 71, 67, 63, 60, 56,
}

// channelCounts maps the type tag at offset 1080 to the number of channels.
var channelCounts = map[string]int{
	"M.K.": 4,
	"4CHN": 4,
	"FLT4": 4,
	"6CHN": 6,
	"8CHN": 8,
	"FLT8": 8,
}

// DecodeCell splits a 4 byte note cell into instrument, period, effect and parameter.
func DecodeCell(b []byte) (instrument, period, effect, param int) {
	instrument = int(b[0]&0xF0) | int(b[2]>>4)
	period = int(b[0]&0x0F)<<8 | int(b[1])
	effect = int(b[2] & 0x0F)
	param = int(b[3])
	return
}

// PeriodNote looks up the note for a period. Periods not in the table (finetuned samples)
// resolve to the nearest table entry with exact false. Period 0 is no note.
func PeriodNote(period int) (note int, exact bool) {
	if period == 0 {
		return 0, true
	}
	best, bestDiff := 0, -1
	for i, p := range periods {
		if p == period {
			return i + 1, true
		}
		diff := p - period
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best + 1, false
}

type Parser struct {
	r        io.Reader
	logger   *log.Logger
	c        *parser.Cursor
	warnings []tracker.Warning

	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a new parser to parse a MOD file.
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
	p.c = parser.NewCursor(data, binary.BigEndian)

	mod, err := p.parse()
	if err != nil {
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
	mod := &tracker.Module{Kind: "module", NoteOffset: noteOffset}
	mod.Description = c.String(20, "song name")

	for i := range sampleCount {
		name := c.String(22, "sample name")
		stats := c.Bytes(8, "sample header")
		// A nameless entry with length 0 (or the 1 word placeholder some trackers write) is unused.
		placeholder := stats[0] == 0 && stats[1] == 0 || stats[0] == 1 && stats[1] == 0
		if name == "" && placeholder {
			continue
		}
		mod.Samples = append(mod.Samples, tracker.Sample{
			Number: i + 1,
			Name:   name,
			Empty:  binary.BigEndian.Uint16(stats) == 0,
		})
	}

	songLength := int(c.Byte("song length"))
	c.Byte("restart position")
	orders := c.Bytes(orderTableLen, "pattern order table")
	tag := string(c.Bytes(4, "type tag"))
	if err := c.Err(); err != nil {
		return nil, err
	}
	channels, ok := channelCounts[tag]
	if !ok {
		return nil, tracker.InvalidFormat("not a valid MOD file: unknown type tag %q", tag)
	}
	mod.Format = tag

	if songLength > orderTableLen {
		p.warnings = append(p.warnings, tracker.Warning{
			Kind:    tracker.KindTruncatedOrder,
			Where:   "header",
			Message: fmt.Sprintf("song length %d exceeds the order table, truncated", songLength),
		})
		songLength = orderTableLen
	}
	mod.SongLength = songLength
	highest := 0
	for _, b := range orders[:songLength] {
		mod.Order = append(mod.Order, int(b))
		highest = max(highest, int(b))
	}

	for i := 0; i <= highest && songLength > 0; i++ {
		pat := p.parsePattern(i, channels)
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		mod.Patterns = append(mod.Patterns, pat)
	}
	return mod, nil
}

// parsePattern reads 64 rows. A pattern break ends the playable part after its row.
func (p *Parser) parsePattern(index, channels int) tracker.RawPattern {
	pat := tracker.RawPattern{Length: rowsPerPatt, Rows: make([]tracker.Row, rowsPerPatt)}
	broken := false
	for row := range pat.Rows {
		pat.Rows[row] = make(tracker.Row, channels)
		for ch := range channels {
			instrument, period, effect, param := DecodeCell(p.c.Bytes(4, "note cell"))
			note, exact := PeriodNote(period)
			if !exact {
				p.addWarning(fmt.Sprintf("pattern %d row %d", index, row),
					"period %d not in table, using %s", period, tracker.NoteName(note+noteOffset))
			}
			pat.Rows[row][ch] = tracker.Event{Note: note, Instrument: instrument, Effect: effect, Param: param}
			if effect == patternBreak && !broken {
				pat.Length = row + 1
				broken = true
			}
		}
	}
	return pat
}
