// Package pattern holds the format independent part of a transcription: splitting patterns into
// chunks, indexing the note events of each chunk, numbering identical chunks once and laying the
// chunks out again as continuous timelines.
package pattern

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// A Pattern is the event map of one chunk for one instrument (keyed by note) or for the drum
// group (keyed by drum letter). Row offsets are chunk relative and strictly increasing.
type Pattern[K cmp.Ordered] struct {
	Length int
	Events map[K][]int
}

func NewPattern[K cmp.Ordered](length int) *Pattern[K] {
	return &Pattern[K]{Length: length, Events: make(map[K][]int)}
}

// Add records that key sounds at row. Rows must be added in increasing order; a repeat of the
// last row (the same note in two channels) is ignored.
func (p *Pattern[K]) Add(key K, row int) {
	rows := p.Events[key]
	if n := len(rows); n > 0 && rows[n-1] >= row {
		return
	}
	p.Events[key] = append(rows, row)
}

// Merge adds rows in any order, keeping the list for key sorted and free of duplicates.
func (p *Pattern[K]) Merge(key K, rows []int) {
	merged := append(slices.Clone(p.Events[key]), rows...)
	slices.Sort(merged)
	p.Events[key] = slices.Compact(merged)
}

// Keys returns the keys that have at least one event, in ascending order.
func (p *Pattern[K]) Keys() []K {
	keys := make([]K, 0, len(p.Events))
	for k, rows := range p.Events {
		if len(rows) > 0 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Has reports whether key sounds at row.
func (p *Pattern[K]) Has(key K, row int) bool {
	_, found := slices.BinarySearch(p.Events[key], row)
	return found
}

// Rows returns the union of the rows of all keys.
func (p *Pattern[K]) Rows() []int {
	var rows []int
	for _, r := range p.Events {
		rows = append(rows, r...)
	}
	slices.Sort(rows)
	return slices.Compact(rows)
}

// Equal compares two patterns structurally: same length, same keys and same row lists.
func (p *Pattern[K]) Equal(o *Pattern[K]) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.signature() == o.signature()
}

// signature renders the pattern into a string usable as a map key.
func (p *Pattern[K]) signature() string {
	var sig strings.Builder
	fmt.Fprintf(&sig, "%d|", p.Length)
	for _, k := range p.Keys() {
		fmt.Fprintf(&sig, "%v:", k)
		for _, r := range p.Events[k] {
			fmt.Fprintf(&sig, "%d,", r)
		}
		sig.WriteByte(';')
	}
	return sig.String()
}

// AllKeys returns the union of the keys of all patterns in ascending order.
func AllKeys[K cmp.Ordered](patterns []*Pattern[K]) []K {
	var keys []K
	for _, p := range patterns {
		keys = append(keys, p.Keys()...)
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}
