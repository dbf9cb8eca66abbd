package analyses

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInput means neither the resume nor the transcript yielded any
	// usable text. No model call is made in that case.
	ErrNoInput = errors.New("please upload a resume or provide transcript text")

	ErrMalformedOutput = errors.New("malformed model output")
)

const (
	ErrorCodeInvalidInput    = "invalid_input"
	ErrorCodeUpstream        = "upstream_error"
	ErrorCodeUpstreamTimeout = "upstream_timeout"
	ErrorCodeMalformedOutput = "malformed_model_output"
	ErrorCodeTooLarge        = "payload_too_large"
	ErrorCodeInternal        = "internal_error"
)

// MalformedOutputError carries the raw model reply for server-side
// diagnostics. Error() never includes Raw.
type MalformedOutputError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model output: %s: %v", e.Reason, e.Err)
	}
	return "malformed model output: " + e.Reason
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

func (e *MalformedOutputError) Is(target error) bool { return target == ErrMalformedOutput }

func malformed(raw, reason string, err error) *MalformedOutputError {
	return &MalformedOutputError{Raw: raw, Reason: reason, Err: err}
}
