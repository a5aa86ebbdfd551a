package tracker

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	KindInvalidFormat             ftag.Kind = "INVALID_FORMAT"
	KindEmptyModule               ftag.Kind = "EMPTY_MODULE"
	KindInconsistentPatternLength ftag.Kind = "INCONSISTENT_PATTERN_LENGTH"
	KindUnmappedDrumNote          ftag.Kind = "UNMAPPED_DRUM_NOTE"
	KindExternalTool              ftag.Kind = "EXTERNAL_TOOL_FAILURE"
	KindTruncatedOrder            ftag.Kind = "TRUNCATED_ORDER"
)

// InvalidFormat returns an error for input that is not of the expected type.
func InvalidFormat(format string, args ...any) error {
	return fault.Wrap(fault.New(fmt.Sprintf(format, args...)), ftag.With(KindInvalidFormat))
}

// EmptyModule returns an error for input without any decodable patterns.
func EmptyModule(format string, args ...any) error {
	return fault.Wrap(fault.New(fmt.Sprintf(format, args...)), ftag.With(KindEmptyModule))
}

// ExternalTool wraps the failure of a conversion subprocess. Only the text of err is kept.
func ExternalTool(err error, tool string) error {
	if err == nil {
		return nil
	}
	return fault.Wrap(fault.New(err.Error()),
		fmsg.WithDesc(fmt.Sprintf("running %s", tool), fmt.Sprintf("Could not convert the file with %s.", tool)),
		ftag.With(KindExternalTool),
	)
}

// Truncated wraps a read past the end of the input.
func Truncated(err error, what string) error {
	return fault.Wrap(err, fmsg.With(fmt.Sprintf("reading %s", what)), ftag.With(KindInvalidFormat))
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ftag.Kind) bool {
	return err != nil && ftag.Get(err) == kind
}

// Small struct for non-fatal problems found while reading or transcribing.
type Warning struct {
	Kind    ftag.Kind // Empty for plain reader remarks.
	Where   string    // Line, offset or pattern the warning applies to.
	Message string
}

func (w Warning) String() string {
	if w.Where == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Where, w.Message)
}
