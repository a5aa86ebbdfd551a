package convert

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/QEStudios/ModReader/tracker"
)

// SMF converts a standard MIDI file in-process to the subset of the midicsv listing the MIDI
// reader uses: the header, track titles and note events.
var SMF = Func(func(path string) ([]byte, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(tracker.InvalidFormat("not a MIDI file: %v", err), fmsg.With("reading "+path))
	}
	return Listing(s)
})

// Listing renders s in midicsv format.
func Listing(s *smf.SMF) ([]byte, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, tracker.InvalidFormat("SMPTE time code is not supported")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	itoa := strconv.Itoa
	format := 0
	if len(s.Tracks) > 1 {
		format = 1
	}
	w.Write([]string{"0", "0", "Header", itoa(format), itoa(len(s.Tracks)), itoa(int(ticks.Resolution()))})

	for i, track := range s.Tracks {
		n := itoa(i + 1)
		var now int
		w.Write([]string{n, "0", "Start_track"})
		for _, ev := range track {
			now += int(ev.Delta)
			at := itoa(now)
			var ch, key, vel uint8
			var name string
			switch {
			case ev.Message.GetMetaTrackName(&name):
				w.Write([]string{n, at, "Title_t", name})
			case ev.Message.GetNoteOn(&ch, &key, &vel):
				w.Write([]string{n, at, "Note_on_c", itoa(int(ch)), itoa(int(key)), itoa(int(vel))})
			case ev.Message.GetNoteOff(&ch, &key, &vel):
				w.Write([]string{n, at, "Note_off_c", itoa(int(ch)), itoa(int(key)), itoa(int(vel))})
			}
		}
		w.Write([]string{n, itoa(now), "End_track"})
	}
	w.Write([]string{"0", "0", "End_of_file"})
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
