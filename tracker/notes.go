package tracker

import "strconv"

const OctaveLength = 12

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName translates a note number to a 3 character name, e.g. 24 -> "C 2", 37 -> "C#3".
func NoteName(note int) string {
	if note < 0 {
		return "???"
	}
	octave, value := note/OctaveLength, note%OctaveLength
	name := noteNames[value]
	if len(name) == 1 {
		name += " "
	}
	return name + strconv.Itoa(octave)
}

// NoteNumber is the inverse of NoteName. It returns false for malformed names.
func NoteNumber(name string) (int, bool) {
	if len(name) != 3 {
		return 0, false
	}
	octave := int(name[2] - '0')
	if octave < 0 || octave > 9 {
		return 0, false
	}
	base := name[:2]
	if base[1] == ' ' {
		base = base[:1]
	}
	for i, n := range noteNames {
		if n == base {
			return octave*OctaveLength + i, true
		}
	}
	return 0, false
}
