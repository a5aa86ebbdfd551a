// Package transcript turns a module into text: an overview with the instrument list and the
// pattern sequence per instrument, one piano roll per melodic instrument, and a drum grid that
// superimposes all drum instruments as letters.
package transcript

import (
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"

	"github.com/QEStudios/ModReader/config"
	"github.com/QEStudios/ModReader/pattern"
	"github.com/QEStudios/ModReader/tracker"
)

// An Instrument is a sample that is actually played, with its display number.
type Instrument struct {
	Number int // 1-based, contiguous over the used samples.
	Sample tracker.Sample
}

// A DrumAssignment gives drum letters to an instrument by display number.
type DrumAssignment struct {
	Instrument int
	Letters    string
}

// ParseDrumAssignments parses a list like "1=b,2=s,4=bs".
func ParseDrumAssignments(s string) ([]DrumAssignment, error) {
	var out []DrumAssignment
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		num, letters, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fault.New(fmt.Sprintf("drum assignment %q: expected <instrument>=<letters>", item))
		}
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return nil, fault.New(fmt.Sprintf("drum assignment %q: invalid instrument number", item))
		}
		letters = strings.TrimSpace(letters)
		if letters == "" {
			return nil, fault.New(fmt.Sprintf("drum assignment %q: no letters", item))
		}
		out = append(out, DrumAssignment{Instrument: n, Letters: letters})
	}
	return out, nil
}

type Transcript struct {
	mod      *tracker.Module
	filename string
	cfg      *config.Config
	logger   *log.Logger

	seg   pattern.Segmented
	index []map[int]*pattern.Pattern[int]

	instruments []Instrument
	// Letters shown in the instrument list, by display number.
	letters map[int]string
	drums   []tracker.DrumSource
	isDrum  map[int]bool // By file instrument number.

	melodic   map[int]pattern.Deduped[int]
	drumParts pattern.Deduped[rune]

	// Filled by PreparePrintInstruments and PreparePrintDrums.
	notes      map[int][]int
	noteTracks map[int]map[int][]string
	printSeq   []rune
	drumTracks map[rune][]string

	warnings []tracker.Warning
}

// New segments and indexes the module. Instruments with a drum kit type become drum sources
// right away; others can be made drums with AssignDrums.
func New(mod *tracker.Module, filename string, cfg *config.Config, logger *log.Logger) (*Transcript, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := mod.Validate(); err != nil {
		return nil, err
	}
	t := &Transcript{mod: mod, filename: filename, cfg: cfg, logger: logger}
	t.seg = pattern.Segment(mod.Patterns, mod.PlayedOrder(), cfg.PerLine)
	t.index = pattern.IndexAll(t.seg.Chunks)

	used := pattern.UsedInstruments(t.index)
	for _, s := range mod.Samples {
		if used[s.Number] {
			t.instruments = append(t.instruments, Instrument{Number: len(t.instruments) + 1, Sample: s})
		}
	}
	if err := t.AssignDrums(nil); err != nil {
		return nil, err
	}
	return t, nil
}

// Instruments returns the used samples in display order.
func (t *Transcript) Instruments() []Instrument { return t.instruments }

// Instrument returns the instrument with the given display number.
func (t *Transcript) Instrument(number int) (Instrument, bool) {
	if number < 1 || number > len(t.instruments) {
		return Instrument{}, false
	}
	return t.instruments[number-1], true
}

// Melodic returns the instruments that are not drum sources.
func (t *Transcript) Melodic() []Instrument {
	var out []Instrument
	for _, inst := range t.instruments {
		if !t.isDrum[inst.Sample.Number] {
			out = append(out, inst)
		}
	}
	return out
}

// HasDrums reports whether any instrument is a drum source.
func (t *Transcript) HasDrums() bool { return len(t.drums) > 0 }

// Warnings returns the reader's warnings followed by those found while transcribing.
func (t *Transcript) Warnings() []tracker.Warning {
	return append(slices.Clone(t.mod.Warnings), t.warnings...)
}

// Module returns the transcribed module.
func (t *Transcript) Module() *tracker.Module { return t.mod }

func (t *Transcript) warn(w tracker.Warning) {
	t.warnings = append(t.warnings, w)
	t.logger.Printf("warning: %v", w)
}

// AssignDrums makes the given instruments drum sources and numbers the patterns of every
// instrument again. Kit instruments without an assignment get their letters from the settings.
// A letter may be the only letter of one instrument at most.
func (t *Transcript) AssignDrums(assignments []DrumAssignment) error {
	byNumber := make(map[int]string)
	single := make(map[rune]int)
	for _, a := range assignments {
		if _, ok := t.Instrument(a.Instrument); !ok {
			return fault.New(fmt.Sprintf("drum assignment: no instrument %d", a.Instrument))
		}
		if strings.ContainsRune(a.Letters, pattern.PlaceholderLetter) {
			return fault.New(fmt.Sprintf("drum assignment: %q is reserved", pattern.PlaceholderLetter))
		}
		if r := []rune(a.Letters); len(r) == 1 {
			if other, dup := single[r[0]]; dup && other != a.Instrument {
				return fault.New(fmt.Sprintf("drum assignment: letter %q given to instruments %d and %d", r[0], other, a.Instrument))
			}
			single[r[0]] = a.Instrument
		}
		byNumber[a.Instrument] = a.Letters
	}

	t.warnings = nil
	t.letters = make(map[int]string)
	t.drums = nil
	t.isDrum = make(map[int]bool)
	for _, inst := range t.instruments {
		s := inst.Sample
		if letters, ok := byNumber[inst.Number]; ok {
			t.addSource(inst, tracker.DrumSource{Instrument: s.Number, Letters: letters})
			continue
		}
		switch s.Kit {
		case tracker.KitNamed:
			letters, ok := t.cfg.SampleLetters(s.Name)
			if !ok {
				letters = string(pattern.PlaceholderLetter)
				t.warn(tracker.Warning{
					Kind:    tracker.KindUnmappedDrumNote,
					Where:   fmt.Sprintf("instrument %d", inst.Number),
					Message: fmt.Sprintf("no letter yet for `%s`", s.Name),
				})
			}
			t.addSource(inst, tracker.DrumSource{Instrument: s.Number, Letters: letters})
		case tracker.KitGM:
			t.addKit(inst)
		}
	}
	t.dedupe()
	return nil
}

func (t *Transcript) addSource(inst Instrument, src tracker.DrumSource) {
	t.drums = append(t.drums, src)
	t.isDrum[src.Instrument] = true
	if src.Note == 0 {
		t.letters[inst.Number] = src.Letters
	}
}

// addKit maps every note an instrument plays through the General MIDI drum table.
func (t *Transcript) addKit(inst Instrument) {
	var notes []int
	for _, chunk := range t.index {
		if p := chunk[inst.Sample.Number]; p != nil {
			notes = append(notes, p.Keys()...)
		}
	}
	slices.Sort(notes)
	for _, note := range slices.Compact(notes) {
		pitch := note + t.mod.NoteOffset
		letter, ok := t.cfg.GMLetter(pitch)
		if !ok {
			letter = string(pattern.PlaceholderLetter)
			name := fmt.Sprintf("note %d", pitch)
			if d, found := t.cfg.GMDrum(pitch); found {
				name = d.Name
			}
			t.warn(tracker.Warning{
				Kind:    tracker.KindUnmappedDrumNote,
				Where:   fmt.Sprintf("instrument %d", inst.Number),
				Message: fmt.Sprintf("no letter yet for `%s`", name),
			})
		}
		t.addSource(inst, tracker.DrumSource{Instrument: inst.Sample.Number, Note: note, Letters: letter})
	}
}

func (t *Transcript) dedupe() {
	t.melodic = make(map[int]pattern.Deduped[int])
	for _, inst := range t.Melodic() {
		slots := pattern.InstrumentSlots(t.index, t.seg.Order, inst.Sample.Number)
		t.melodic[inst.Number] = pattern.Dedupe(slots)
	}
	t.drumParts = pattern.Deduped[rune]{}
	if len(t.drums) > 0 {
		slots, warnings := pattern.DrumSlots(t.index, t.seg.Order, t.drums)
		for _, w := range warnings {
			t.warn(w)
		}
		t.drumParts = pattern.Dedupe(slots)
	}
	t.notes, t.noteTracks = nil, nil
	t.printSeq, t.drumTracks = nil, nil
}

// DrumLetters returns the letters used in the drum patterns, ordered by printseq. Letters missing
// from printseq follow in alphabetical order, the placeholder last.
func (t *Transcript) DrumLetters(printseq string) []rune {
	present := pattern.AllKeys(t.drumParts.Patterns)
	var out []rune
	for _, r := range printseq {
		if slices.Contains(present, r) && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	var placeholder bool
	for _, r := range present {
		switch {
		case r == pattern.PlaceholderLetter:
			placeholder = true
		case !slices.Contains(out, r):
			out = append(out, r)
		}
	}
	if placeholder {
		out = append(out, pattern.PlaceholderLetter)
	}
	return out
}

// Sequence returns the pattern sequence of a melodic instrument by display number.
func (t *Transcript) Sequence(number int) ([]int, error) {
	d, ok := t.melodic[number]
	if !ok {
		return nil, t.noInstrument(number)
	}
	return d.Sequence, nil
}

// DrumSequence returns the pattern sequence of the drum group.
func (t *Transcript) DrumSequence() []int { return t.drumParts.Sequence }

// Lengths returns the row count of every song position.
func (t *Transcript) Lengths() []int { return t.seg.Lengths }

func (t *Transcript) noInstrument(number int) error {
	return fault.New(fmt.Sprintf("no melodic instrument %d", number))
}
