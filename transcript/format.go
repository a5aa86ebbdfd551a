package transcript

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/QEStudios/ModReader/pattern"
)

const (
	patternStart  = "pattern %2d:"
	lineStart     = "            "
	pattLineStart = "         "
	emptyNote     = "..."
	emptyDrum     = "."
	pattsPerLine  = 8
)

// BuildHeader returns the title block of the overview.
func BuildHeader(kind, filename, description string) []string {
	title := fmt.Sprintf("Details of %s %s", kind, filename)
	lines := []string{title, strings.Repeat("=", len(title)), ""}
	if description != "" {
		lines = append(lines, "Description: "+description)
	} else {
		lines = append(lines, "No description available")
	}
	return append(lines, "", "")
}

// An InstListItem is one entry of the instrument list.
type InstListItem struct {
	Number int
	Text   string
}

// BuildInstList returns the instrument list. An empty title gives "Instruments:".
func BuildInstList(items []InstListItem, title string) []string {
	if title == "" {
		title = "Instruments:"
	}
	lines := []string{title, ""}
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("        %2d %s", it.Number, it.Text))
	}
	return append(lines, "")
}

// BuildPattHeader returns the heading of the pattern lists.
func BuildPattHeader(text string) []string {
	if text == "" {
		text = "Patterns per instrument:"
	}
	return []string{text, ""}
}

// BuildPattList returns the pattern sequence of one instrument, eight positions per line.
// NoPattern is shown as a dot.
func BuildPattList(seq, text string, sequence []int) []string {
	var lines []string
	if text != "" {
		lines = append(lines, fmt.Sprintf("    %2s %s", seq, text), "")
	}
	var line strings.Builder
	for i, number := range sequence {
		if i%pattsPerLine == 0 {
			if line.Len() > 0 {
				lines = append(lines, line.String())
			}
			line.Reset()
			line.WriteString(pattLineStart)
		}
		if number == pattern.NoPattern {
			line.WriteString(" . ")
		} else {
			fmt.Fprintf(&line, "%2d ", number)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return append(lines, "")
}

// writeLines writes lines without trailing blanks.
func writeLines(w *bufio.Writer, lines []string) {
	for _, l := range lines {
		w.WriteString(strings.TrimRight(l, " "))
		w.WriteByte('\n')
	}
}

// chunkLines renders one interval of a set of timelines. When clearEmpty is set, lines without
// events are left out; if that leaves nothing, a single placeholder is printed.
func chunkLines(tracks [][]string, from, interval int, sep, empty, indent string, clearEmpty bool) []string {
	var lines []string
	for _, track := range tracks {
		to := min(from+interval, len(track))
		if from >= to {
			continue
		}
		part := track[from:to]
		if clearEmpty && allEqual(part, empty) {
			continue
		}
		lines = append(lines, indent+strings.Join(part, sep))
	}
	if len(lines) == 0 {
		lines = append(lines, indent+empty)
	}
	return lines
}

func allEqual(items []string, s string) bool {
	for _, it := range items {
		if it != s {
			return false
		}
	}
	return true
}

func flush(w io.Writer, fn func(*bufio.Writer)) error {
	bw := bufio.NewWriter(w)
	fn(bw)
	return bw.Flush()
}
