package providers

import (
	"errors"
	"fmt"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
)

// ErrProviderNotRunning is returned when the local model server refuses connections.
var ErrProviderNotRunning = errors.New("local model server is not running; start it with `ollama serve`")

// ErrNotConfigured is returned when a provider lacks a required credential.
var ErrNotConfigured = errors.New("provider is not configured")

// ProviderError describes a failed provider call. It matches pkg/errors.ErrProviderUnavailable.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + " error"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the provider-unavailable kind sentinel.
func (e *ProviderError) Is(target error) bool {
	return target == pkgerrors.ErrProviderUnavailable
}
