package tracker

// An Event is a single decoded note cell of a pattern row.
type Event struct {
	Note       int // 0 means no note (silence or continuation).
	Instrument int // 1-based instrument/sample number as stored in the file.
	Effect     int
	Param      int
}

// A Row holds the events of all channels at one position of a pattern.
type Row []Event

// A RawPattern is a block of rows as read from the file.
type RawPattern struct {
	Name   string // Optional block annotation.
	Length int    // Number of playable rows. Rows past Length are ignored.
	Rows   []Row
}

// KitType says how the notes of a drum source instrument are turned into drum letters.
type KitType int

const (
	KitNone  KitType = iota // A regular (melodic) instrument.
	KitGM                   // Each note is looked up in the General MIDI drum table.
	KitNamed                // The instrument name is looked up in the sample-to-letter table.
)

// A Sample is an instrument or sample declared by the file.
type Sample struct {
	Number  int    // 1-based number as declared by the file.
	Name    string // Display name.
	Empty   bool   // Zero-length or placeholder entry.
	Channel int    // MIDI channel (1-based) for track based formats, 0 otherwise.
	Kit     KitType
}

// A DrumSource maps (notes of) an instrument onto one or more drum letters.
type DrumSource struct {
	Instrument int    // Instrument number as stored in the file.
	Note       int    // Only this note counts; 0 means every note of the instrument.
	Letters    string // One letter per drum sound, e.g. "bs".
}

// A Module is the uniform result of reading any of the supported file types.
type Module struct {
	Format      string // Container tag, e.g. "MMD0", "M.K.", "XM", "MIDI".
	Kind        string // "module" or "project", used in the overview header.
	Description string

	// NoteOffset is added to a stored note value to get a note number for NoteName.
	NoteOffset int

	Samples  []Sample
	Patterns []RawPattern

	// Order lists pattern indexes in play order. It may repeat or skip patterns.
	Order []int
	// SongLength is the number of Order entries that are actually played.
	SongLength int

	// Remarks are reader observations shown in the overview (e.g. channel changes inside a track).
	Remarks  []string
	Warnings []Warning
}

// PlayedOrder returns the order list truncated to the song length.
func (m *Module) PlayedOrder() []int {
	if m.SongLength > 0 && m.SongLength < len(m.Order) {
		return m.Order[:m.SongLength]
	}
	return m.Order
}

// Sample returns the declared sample with the given file number.
func (m *Module) Sample(number int) (Sample, bool) {
	for _, s := range m.Samples {
		if s.Number == number {
			return s, true
		}
	}
	return Sample{}, false
}

// Validate returns an EmptyModule error when the module has nothing to transcribe.
func (m *Module) Validate() error {
	if len(m.Patterns) == 0 || len(m.PlayedOrder()) == 0 {
		return EmptyModule("no decodable patterns in %s data", m.Format)
	}
	return nil
}

// A Reader turns one input file into a Module.
type Reader interface {
	Parse() (*Module, error)
}
