package parser

import (
	"fmt"
	"slices"

	"github.com/QEStudios/ModReader/tracker"
)

// MaxRows bounds the length of a grid. Notes placed at or past it are dropped and reported.
const MaxRows = 1 << 21

// A Grid collects note events at absolute row positions (time based formats like MIDI) and
// cuts them into patterns of a fixed number of rows, played in sequence.
type Grid struct {
	width   int
	rows    map[int][]tracker.Event
	last    int
	dropped int
}

func NewGrid(width int) *Grid {
	return &Grid{width: width, rows: make(map[int][]tracker.Event), last: -1}
}

// Add places an event at an absolute row. Negative rows are ignored, rows past MaxRows are
// counted as dropped.
func (g *Grid) Add(row int, ev tracker.Event) {
	if row < 0 {
		return
	}
	if row >= MaxRows {
		g.dropped++
		return
	}
	g.rows[row] = append(g.rows[row], ev)
	g.last = max(g.last, row)
}

// Empty reports whether no event was added.
func (g *Grid) Empty() bool { return g.last < 0 }

// Warnings reports the notes dropped by Add.
func (g *Grid) Warnings() []tracker.Warning {
	if g.dropped == 0 {
		return nil
	}
	return []tracker.Warning{{
		Where:   fmt.Sprintf("row %d", MaxRows),
		Message: fmt.Sprintf("%d notes past the end of the song dropped", g.dropped),
	}}
}

// Patterns returns full width patterns covering every added row and the matching order list.
// Patterns without events share one slice of empty rows.
func (g *Grid) Patterns() ([]tracker.RawPattern, []int) {
	if g.last < 0 {
		return nil, nil
	}
	count := g.last/g.width + 1
	patterns := make([]tracker.RawPattern, count)
	order := make([]int, count)
	empty := make([]tracker.Row, g.width)
	for i := range patterns {
		patterns[i] = tracker.RawPattern{Length: g.width, Rows: empty}
		order[i] = i
	}
	for row, events := range g.rows {
		p := &patterns[row/g.width]
		if &p.Rows[0] == &empty[0] {
			p.Rows = make([]tracker.Row, g.width)
		}
		events = slices.Clone(events)
		slices.SortStableFunc(events, func(a, b tracker.Event) int { return a.Instrument - b.Instrument })
		p.Rows[row%g.width] = append(p.Rows[row%g.width], events...)
	}
	return patterns, order
}
