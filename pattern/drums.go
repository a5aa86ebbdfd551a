package pattern

import (
	"fmt"

	"github.com/QEStudios/ModReader/tracker"
)

// PlaceholderLetter stands in for drum notes without a configured letter.
const PlaceholderLetter = '?'

// MergeDrums superimposes the drum sources of one chunk into a single pattern keyed by letter.
// Sources with one letter are taken first, then sources with several letters; the rows of a
// source are added to every one of its letters. The merged length is the length of the first
// contributing source; the other lengths are returned when they disagree. A chunk without any
// drum events gives nil.
func MergeDrums(chunk map[int]*Pattern[int], sources []tracker.DrumSource) (*Pattern[rune], []int) {
	var merged *Pattern[rune]
	var lengths []int
	for _, single := range []bool{true, false} {
		for _, src := range sources {
			if (len([]rune(src.Letters)) == 1) != single {
				continue
			}
			p := chunk[src.Instrument]
			if p == nil {
				continue
			}
			var rows []int
			if src.Note != 0 {
				rows = p.Events[src.Note]
			} else {
				rows = p.Rows()
			}
			if len(rows) == 0 {
				continue
			}
			if merged == nil {
				merged = NewPattern[rune](p.Length)
			}
			lengths = append(lengths, p.Length)
			for _, letter := range src.Letters {
				merged.Merge(letter, rows)
			}
		}
	}
	for _, l := range lengths {
		if l != lengths[0] {
			return merged, lengths
		}
	}
	return merged, nil
}

// DrumSlots merges the drum sources for every chunk in the play order. Length disagreements are
// reported as warnings, once per chunk.
func DrumSlots(index []map[int]*Pattern[int], order []int, sources []tracker.DrumSource) ([]*Pattern[rune], []tracker.Warning) {
	merged := make(map[int]*Pattern[rune])
	var warnings []tracker.Warning
	slots := make([]*Pattern[rune], len(order))
	for pos, chunk := range order {
		p, done := merged[chunk]
		if !done {
			var lengths []int
			p, lengths = MergeDrums(index[chunk], sources)
			merged[chunk] = p
			if lengths != nil {
				warnings = append(warnings, tracker.Warning{
					Kind:    tracker.KindInconsistentPatternLength,
					Where:   fmt.Sprintf("pattern %d", chunk+1),
					Message: fmt.Sprintf("unequal lengths %v, using %d", lengths, lengths[0]),
				})
			}
		}
		slots[pos] = p
	}
	return slots, warnings
}
