package recorder

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ekvall/camrelay/homeassistant"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"invalid duration", ErrInvalidDuration, KindInvalidDuration},
		{"wrapped invalid duration", fmt.Errorf("record: %w", ErrInvalidDuration), KindInvalidDuration},
		{"timeout", ErrTimeout, KindTimedOut},
		{"empty output", ErrEmptyOutput, KindEmptyOutput},
		{"too large", ErrTooLarge, KindTooLarge},
		{"resolution", &ResolutionError{Err: &homeassistant.StatusError{Code: 503}}, KindResolutionFailed},
		{"process", &ProcessError{Err: errors.New("exit status 1"), Stderr: "boom"}, KindProcessFailed},
		{"plain", errors.New("something else"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{
		KindInvalidDuration:  "invalid_duration",
		KindResolutionFailed: "resolution_failed",
		KindProcessFailed:    "process_failed",
		KindTimedOut:         "timed_out",
		KindEmptyOutput:      "empty_output",
		KindTooLarge:         "too_large",
		KindUnknown:          "unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestUserMessageDistinctPerKind(t *testing.T) {
	errs := []error{
		ErrInvalidDuration,
		&ResolutionError{Err: errors.New("probe failed")},
		&ProcessError{Err: errors.New("exit status 1")},
		ErrTimeout,
		ErrEmptyOutput,
		ErrTooLarge,
		errors.New("mystery"),
	}
	seen := map[string]error{}
	for _, err := range errs {
		msg := UserMessage(err)
		if msg == "" {
			t.Errorf("empty user message for %v", err)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("message %q shared by %v and %v", msg, prev, err)
		}
		seen[msg] = err
	}
}

func TestProcessErrorUnwrap(t *testing.T) {
	inner := errors.New("exit status 1")
	pe := &ProcessError{Err: inner, Stderr: "stderr tail"}
	if !errors.Is(pe, inner) {
		t.Error("ProcessError should unwrap to its cause")
	}
	re := &ResolutionError{Err: &homeassistant.StatusError{Code: 403}}
	var se *homeassistant.StatusError
	if !errors.As(re, &se) || se.Code != 403 {
		t.Error("ResolutionError should unwrap to the status error")
	}
}
