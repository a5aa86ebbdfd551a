package pattern

import "github.com/QEStudios/ModReader/tracker"

// Index groups the sounding notes of a chunk by instrument: instrument -> note -> rows.
// Events without a note do not count.
func Index(chunk tracker.RawPattern) map[int]*Pattern[int] {
	index := make(map[int]*Pattern[int])
	for row, events := range chunk.Rows {
		if row >= chunk.Length {
			break
		}
		for _, ev := range events {
			if ev.Note == 0 {
				continue
			}
			p, ok := index[ev.Instrument]
			if !ok {
				p = NewPattern[int](chunk.Length)
				index[ev.Instrument] = p
			}
			p.Add(ev.Note, row)
		}
	}
	return index
}

// IndexAll indexes every chunk.
func IndexAll(chunks []tracker.RawPattern) []map[int]*Pattern[int] {
	all := make([]map[int]*Pattern[int], len(chunks))
	for i, c := range chunks {
		all[i] = Index(c)
	}
	return all
}

// UsedInstruments returns the set of instruments with at least one note anywhere.
func UsedInstruments(index []map[int]*Pattern[int]) map[int]bool {
	used := make(map[int]bool)
	for _, chunk := range index {
		for inst := range chunk {
			used[inst] = true
		}
	}
	return used
}
