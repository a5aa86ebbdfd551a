package pattern

import "github.com/QEStudios/ModReader/tracker"

// DefaultPerLine is the maximum number of rows in a chunk.
const DefaultPerLine = 32

// Segmented is the result of splitting all patterns of a module into chunks.
type Segmented struct {
	Chunks []tracker.RawPattern
	// ChunkMap maps an original pattern index to the indexes of the chunks it was split into.
	ChunkMap [][]int
	// Order is the play order rewritten to chunk indexes.
	Order []int
	// Lengths holds the chunk length for every position of Order.
	Lengths []int
}

// TotalLength is the number of rows of the whole song.
func (s Segmented) TotalLength() int {
	total := 0
	for _, l := range s.Lengths {
		total += l
	}
	return total
}

// Split cuts a pattern into chunks of at most perLine rows. The last chunk keeps the remaining
// length; a pattern of length 0 gives one empty chunk so that it stays addressable.
func Split(p tracker.RawPattern, perLine int) []tracker.RawPattern {
	if perLine <= 0 {
		perLine = DefaultPerLine
	}
	if p.Length <= 0 {
		return []tracker.RawPattern{{Name: p.Name}}
	}
	var chunks []tracker.RawPattern
	for start := 0; start < p.Length; start += perLine {
		end := min(start+perLine, p.Length)
		chunk := tracker.RawPattern{Name: p.Name, Length: end - start}
		if start < len(p.Rows) {
			chunk.Rows = p.Rows[start:min(end, len(p.Rows))]
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Segment splits every pattern and rewrites the played part of the order list in lock-step:
// each entry referring to pattern P is replaced by the run of chunks derived from P.
// Entries referring to patterns that do not exist are dropped.
func Segment(patterns []tracker.RawPattern, order []int, perLine int) Segmented {
	var s Segmented
	s.ChunkMap = make([][]int, len(patterns))
	for i, p := range patterns {
		for _, chunk := range Split(p, perLine) {
			s.ChunkMap[i] = append(s.ChunkMap[i], len(s.Chunks))
			s.Chunks = append(s.Chunks, chunk)
		}
	}
	for _, pat := range order {
		if pat < 0 || pat >= len(patterns) {
			continue
		}
		for _, c := range s.ChunkMap[pat] {
			s.Order = append(s.Order, c)
			s.Lengths = append(s.Lengths, s.Chunks[c].Length)
		}
	}
	return s
}
