package tts

import (
	"errors"
	"fmt"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
)

// Causes carried by a SynthesisError.
var (
	ErrEmptyText          = errors.New("text cannot be empty")
	ErrInvalidVoice       = errors.New("voice not available for this backend")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrQuotaExceeded      = errors.New("character quota exhausted")
	ErrUnauthenticated    = errors.New("credentials missing or rejected")
	ErrServiceUnavailable = errors.New("speech service unavailable")
)

// SynthesisError is a failed backend call. It matches
// pkg/errors.ErrProviderUnavailable so callers can classify it with the other
// external failures.
type SynthesisError struct {
	Backend string
	// Code is the backend status: a gRPC code name for google, an HTTP status
	// for openai. Empty when the call never got an answer.
	Code      string
	Message   string
	Cause     error
	Retryable bool
}

func (e *SynthesisError) Error() string {
	msg := e.Backend + " tts"
	if e.Code != "" {
		msg += fmt.Sprintf(" (%s)", e.Code)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SynthesisError) Unwrap() error { return e.Cause }

func (e *SynthesisError) Is(target error) bool {
	return target == pkgerrors.ErrProviderUnavailable
}

// NewSynthesisError builds a SynthesisError.
func NewSynthesisError(backend, code, message string, cause error, retryable bool) *SynthesisError {
	return &SynthesisError{
		Backend:   backend,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: retryable,
	}
}

// IsRetryable reports whether err wraps a SynthesisError marked retryable,
// i.e. the same sentence may succeed on a later run.
func IsRetryable(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se) && se.Retryable
}
