package recorder

import (
	"errors"
	"fmt"
)

// Sentinel errors for the simple failure modes.
var (
	// ErrInvalidDuration is returned before any I/O when the requested
	// duration is outside [1,60] seconds.
	ErrInvalidDuration = errors.New("duration must be between 1 and 60 seconds")
	// ErrTimeout is returned when the recording process is killed at the
	// deadline (duration + grace).
	ErrTimeout = errors.New("recording timed out")
	// ErrEmptyOutput is returned when the process exited 0 but the artifact
	// is missing or under the minimum size threshold.
	ErrEmptyOutput = errors.New("recording produced no usable output")
	// ErrTooLarge is returned by delivery layers when the artifact exceeds
	// the transport size ceiling. The engine itself never returns it.
	ErrTooLarge = errors.New("artifact exceeds upload size limit")
)

// ResolutionError wraps a stream resolution failure from the backend.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string { return "stream resolution failed: " + e.Err.Error() }
func (e *ResolutionError) Unwrap() error { return e.Err }

// ProcessError reports a nonzero exit of the recording process, carrying a
// stderr excerpt for diagnostics.
type ProcessError struct {
	Err    error
	Stderr string
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("recording process failed: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("recording process failed: %v", e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Kind buckets recording failures for user-facing messages and metric labels.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidDuration
	KindResolutionFailed
	KindProcessFailed
	KindTimedOut
	KindEmptyOutput
	KindTooLarge
)

// String returns a stable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidDuration:
		return "invalid_duration"
	case KindResolutionFailed:
		return "resolution_failed"
	case KindProcessFailed:
		return "process_failed"
	case KindTimedOut:
		return "timed_out"
	case KindEmptyOutput:
		return "empty_output"
	case KindTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// Classify maps an error from Record (or a delivery layer) to its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidDuration):
		return KindInvalidDuration
	case errors.Is(err, ErrTimeout):
		return KindTimedOut
	case errors.Is(err, ErrEmptyOutput):
		return KindEmptyOutput
	case errors.Is(err, ErrTooLarge):
		return KindTooLarge
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		return KindResolutionFailed
	}
	var pe *ProcessError
	if errors.As(err, &pe) {
		return KindProcessFailed
	}
	return KindUnknown
}

// UserMessage renders the one human-readable notification for each failure
// kind. Unknown errors get a generic message.
func UserMessage(err error) string {
	switch Classify(err) {
	case KindInvalidDuration:
		return "Duration must be between 1 and 60 seconds."
	case KindResolutionFailed:
		return "Could not reach the camera stream. Check Home Assistant."
	case KindProcessFailed:
		return "Recording failed while capturing the stream."
	case KindTimedOut:
		return "Recording timed out before the stream produced a clip."
	case KindEmptyOutput:
		return "Recording finished but produced an empty clip."
	case KindTooLarge:
		return "Recording succeeded but the file is too large to send. Try a shorter duration."
	default:
		return "Recording failed unexpectedly."
	}
}
