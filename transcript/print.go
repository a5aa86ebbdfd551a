package transcript

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/QEStudios/ModReader/pattern"
	"github.com/QEStudios/ModReader/tracker"
)

// PrintOptions control the continuous timeline output.
type PrintOptions struct {
	// Interval is the number of events per line; -1 puts the whole song on one line.
	Interval   int
	ClearEmpty bool
}

func (t *Transcript) interval(n int) int {
	if n <= 0 {
		return max(t.seg.TotalLength(), 1)
	}
	return n
}

func (t *Transcript) noteName(note int) string {
	return tracker.NoteName(note + t.mod.NoteOffset)
}

func (t *Transcript) instText(inst Instrument) string {
	text := inst.Sample.Name
	if letters, ok := t.letters[inst.Number]; ok {
		return text + " (" + letters + ")"
	}
	if inst.Sample.Channel > 0 {
		return fmt.Sprintf("%s (chn. %d)", text, inst.Sample.Channel)
	}
	return text
}

// PrintGeneralData writes the overview: header, instrument list, reader remarks and, unless full
// is set, the pattern sequence of every melodic instrument and of the drums.
func (t *Transcript) PrintGeneralData(w io.Writer, full bool) error {
	lines := BuildHeader(t.mod.Kind, t.filename, t.mod.Description)
	items := make([]InstListItem, len(t.instruments))
	for i, inst := range t.instruments {
		items[i] = InstListItem{Number: inst.Number, Text: t.instText(inst)}
	}
	lines = append(lines, BuildInstList(items, "")...)
	if len(t.mod.Remarks) > 0 {
		lines = append(lines, "")
		lines = append(lines, t.mod.Remarks...)
	}
	if !full {
		lines = append(lines, BuildPattHeader("")...)
		for _, inst := range t.Melodic() {
			lines = append(lines, BuildPattList(fmt.Sprint(inst.Number), inst.Sample.Name, t.melodic[inst.Number].Sequence)...)
		}
		if t.HasDrums() {
			lines = append(lines, BuildPattList("", "Drums", t.drumParts.Sequence)...)
		}
	}
	return flush(w, func(bw *bufio.Writer) { writeLines(bw, lines) })
}

// descending returns the keys of all patterns from high to low.
func descending(patterns []*pattern.Pattern[int]) []int {
	keys := pattern.AllKeys(patterns)
	slices.Reverse(keys)
	return keys
}

// PrintInstrument writes every distinct pattern of a melodic instrument as a piano roll,
// highest note on top.
func (t *Transcript) PrintInstrument(w io.Writer, number int) error {
	d, ok := t.melodic[number]
	if !ok {
		return t.noInstrument(number)
	}
	return flush(w, func(bw *bufio.Writer) {
		for i, p := range d.Patterns {
			fmt.Fprintf(bw, patternStart+"\n", i+1)
			for _, note := range descending([]*pattern.Pattern[int]{p}) {
				name := t.noteName(note)
				events := make([]string, p.Length)
				for row := range events {
					events[row] = emptyNote
					if p.Has(note, row) {
						events[row] = name
					}
				}
				bw.WriteString(lineStart + strings.Join(events, " ") + "\n")
			}
			bw.WriteString("\n")
		}
	})
}

// PreparePrintInstruments builds the continuous timeline of every note of every melodic
// instrument.
func (t *Transcript) PreparePrintInstruments() {
	t.notes = make(map[int][]int)
	t.noteTracks = make(map[int]map[int][]string)
	for _, inst := range t.Melodic() {
		d := t.melodic[inst.Number]
		notes := descending(d.Patterns)
		t.notes[inst.Number] = notes
		t.noteTracks[inst.Number] = pattern.Assemble(d, t.seg.Lengths, notes, t.noteName, emptyNote)
	}
}

func (t *Transcript) instrumentTracks(number int) ([][]string, error) {
	if t.noteTracks == nil {
		t.PreparePrintInstruments()
	}
	notes, ok := t.notes[number]
	if !ok {
		return nil, t.noInstrument(number)
	}
	tracks := make([][]string, len(notes))
	for i, n := range notes {
		tracks[i] = t.noteTracks[number][n]
	}
	return tracks, nil
}

// PrintInstrumentFull writes the timeline of a melodic instrument, opts.Interval events per line.
func (t *Transcript) PrintInstrumentFull(w io.Writer, number int, opts PrintOptions) error {
	tracks, err := t.instrumentTracks(number)
	if err != nil {
		return err
	}
	interval := t.interval(opts.Interval)
	return flush(w, func(bw *bufio.Writer) {
		for from := 0; from < t.seg.TotalLength(); from += interval {
			writeLines(bw, chunkLines(tracks, from, interval, " ", emptyNote, "", opts.ClearEmpty))
			bw.WriteString("\n")
		}
	})
}

// PreparePrintDrums builds the continuous timeline of every drum letter. printseq orders the
// letters top to bottom; an empty printseq uses the configured one.
func (t *Transcript) PreparePrintDrums(printseq string) {
	if printseq == "" {
		printseq = t.cfg.PrintSeq
	}
	t.printSeq = t.DrumLetters(printseq)
	t.drumTracks = pattern.Assemble(t.drumParts, t.seg.Lengths, t.printSeq, func(r rune) string { return string(r) }, emptyDrum)
}

func (t *Transcript) drumLines() [][]string {
	if t.drumTracks == nil {
		t.PreparePrintDrums("")
	}
	tracks := make([][]string, len(t.printSeq))
	for i, r := range t.printSeq {
		tracks[i] = t.drumTracks[r]
	}
	return tracks
}

// PrintDrums writes every distinct drum pattern, one line per letter that has events.
func (t *Transcript) PrintDrums(w io.Writer) error {
	if t.printSeq == nil {
		t.PreparePrintDrums("")
	}
	return flush(w, func(bw *bufio.Writer) {
		for i, p := range t.drumParts.Patterns {
			fmt.Fprintf(bw, patternStart+"\n", i+1)
			for _, letter := range t.printSeq {
				if len(p.Events[letter]) == 0 {
					continue
				}
				var line strings.Builder
				for row := 0; row < p.Length; row++ {
					if p.Has(letter, row) {
						line.WriteRune(letter)
					} else {
						line.WriteString(emptyDrum)
					}
				}
				bw.WriteString(lineStart + line.String() + "\n")
			}
			bw.WriteString("\n")
		}
	})
}

// PrintDrumsFull writes the drum timelines. Drum events take one character, so a line holds twice
// the interval.
func (t *Transcript) PrintDrumsFull(w io.Writer, opts PrintOptions) error {
	tracks := t.drumLines()
	interval := t.interval(opts.Interval)
	if opts.Interval > 0 {
		interval *= 2
	}
	return flush(w, func(bw *bufio.Writer) {
		for from := 0; from < t.seg.TotalLength(); from += interval {
			writeLines(bw, chunkLines(tracks, from, interval, "", emptyDrum, "", opts.ClearEmpty))
			bw.WriteString("\n")
		}
	})
}

// PrintAllInstrumentsFull writes the timelines of all melodic instruments and the drums
// interleaved: for each interval a block per instrument, then the drums.
func (t *Transcript) PrintAllInstrumentsFull(w io.Writer, opts PrintOptions) error {
	melodic := t.Melodic()
	tracks := make([][][]string, len(melodic))
	for i, inst := range melodic {
		var err error
		if tracks[i], err = t.instrumentTracks(inst.Number); err != nil {
			return err
		}
	}
	drums := t.drumLines()
	interval := t.interval(opts.Interval)
	const indent = "   "
	return flush(w, func(bw *bufio.Writer) {
		for from := 0; from < t.seg.TotalLength(); from += interval {
			for i, inst := range melodic {
				bw.WriteString(inst.Sample.Name + ":\n")
				writeLines(bw, chunkLines(tracks[i], from, interval, " ", emptyNote, indent, opts.ClearEmpty))
				bw.WriteString("\n")
			}
			if t.HasDrums() {
				bw.WriteString("drums:\n")
				writeLines(bw, chunkLines(drums, from, interval, "", emptyDrum, indent, opts.ClearEmpty))
				bw.WriteString("\n")
			}
			bw.WriteString("\n")
		}
	})
}
