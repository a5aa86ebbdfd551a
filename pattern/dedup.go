package pattern

import "cmp"

// NoPattern marks a song position without events for an instrument.
const NoPattern = -1

// Deduped is the compact form of one instrument's (or the drum group's) part of the song.
type Deduped[K cmp.Ordered] struct {
	// Patterns holds every distinct pattern once; display number N is Patterns[N-1].
	Patterns []*Pattern[K]
	// Sequence holds one display number per song position, or NoPattern.
	Sequence []int
}

// Pattern returns the pattern for a 1-based display number.
func (d Deduped[K]) Pattern(number int) *Pattern[K] {
	if number < 1 || number > len(d.Patterns) {
		return nil
	}
	return d.Patterns[number-1]
}

// Dedupe numbers the patterns of the given song positions. Structurally equal patterns get the
// same number, the first one seen gets the lowest. A nil slot yields NoPattern.
func Dedupe[K cmp.Ordered](slots []*Pattern[K]) Deduped[K] {
	d := Deduped[K]{Sequence: make([]int, len(slots))}
	sigToNumber := make(map[string]int)
	for i, p := range slots {
		if p == nil {
			d.Sequence[i] = NoPattern
			continue
		}
		sig := p.signature()
		number, exists := sigToNumber[sig]
		if !exists {
			d.Patterns = append(d.Patterns, p)
			number = len(d.Patterns)
			sigToNumber[sig] = number
		}
		d.Sequence[i] = number
	}
	return d
}

// InstrumentSlots picks the pattern of one instrument for every chunk in the play order.
func InstrumentSlots(index []map[int]*Pattern[int], order []int, instrument int) []*Pattern[int] {
	slots := make([]*Pattern[int], len(order))
	for pos, chunk := range order {
		slots[pos] = index[chunk][instrument]
	}
	return slots
}
