// Package errors provides the error taxonomy shared by the generator, the synthesizer,
// the training item store and the exporter.
//
// ContextualError captures the component and operation that failed together with a Kind.
// Kinds are matched with errors.Is against the exported sentinels:
//
//	err := errors.New("sentences", "Generate", cause).WithKind(errors.KindProviderUnavailable)
//	if stderrors.Is(err, errors.ErrProviderUnavailable) {
//	    // retry later
//	}
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error by how callers are expected to react to it.
type Kind string

// Error kinds.
const (
	// KindValidation marks malformed caller input. It fails fast and is never retried.
	KindValidation Kind = "validation"

	// KindProviderUnavailable marks an unreachable or failing remote dependency.
	KindProviderUnavailable Kind = "provider_unavailable"

	// KindParse marks model output that could not be decoded.
	KindParse Kind = "parse"

	// KindPersistence marks a failed store operation.
	KindPersistence Kind = "persistence"

	// KindFileSystem marks a failed file write or delete.
	KindFileSystem Kind = "filesystem"
)

// Sentinels matched by errors.Is for each Kind.
var (
	ErrValidation          = stderrors.New("validation error")
	ErrProviderUnavailable = stderrors.New("provider unavailable")
	ErrParse               = stderrors.New("parse error")
	ErrPersistence         = stderrors.New("persistence error")
	ErrFileSystem          = stderrors.New("filesystem error")
)

var kindSentinels = map[Kind]error{
	KindValidation:          ErrValidation,
	KindProviderUnavailable: ErrProviderUnavailable,
	KindParse:               ErrParse,
	KindPersistence:         ErrPersistence,
	KindFileSystem:          ErrFileSystem,
}

// Sentinel returns the sentinel error for a kind, or nil for an unknown kind.
func (k Kind) Sentinel() error {
	return kindSentinels[k]
}

// ContextualError is a structured error type that records where and why an error occurred.
type ContextualError struct {
	// Component identifies the package that produced the error (e.g. "store", "sentences").
	Component string

	// Operation describes what was being done when the error occurred.
	Operation string

	// Kind classifies the error. Empty means unclassified.
	Kind Kind

	// StatusCode is an optional HTTP or provider status code.
	StatusCode int

	// Details holds optional structured metadata about the error.
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// New creates a ContextualError with the given component, operation, and cause.
func New(component, operation string, cause error) *ContextualError {
	return &ContextualError{
		Component: component,
		Operation: operation,
		Cause:     cause,
	}
}

// Validation is shorthand for a KindValidation error with a formatted message.
func Validation(component, operation, format string, args ...any) *ContextualError {
	return New(component, operation, fmt.Errorf(format, args...)).WithKind(KindValidation)
}

// Error returns a human-readable representation of the error.
func (e *ContextualError) Error() string {
	base := fmt.Sprintf("[%s] %s", e.Component, e.Operation)

	if e.StatusCode != 0 {
		base += fmt.Sprintf(" (status %d)", e.StatusCode)
	}

	if e.Cause != nil {
		base += ": " + e.Cause.Error()
	}

	return base
}

// Unwrap returns the underlying cause, enabling use with errors.Is and errors.As.
func (e *ContextualError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel of this error's kind.
func (e *ContextualError) Is(target error) bool {
	if e.Kind == "" {
		return false
	}
	return target == e.Kind.Sentinel()
}

// WithKind sets the error kind.
func (e *ContextualError) WithKind(kind Kind) *ContextualError {
	e.Kind = kind
	return e
}

// WithStatusCode sets the status code.
func (e *ContextualError) WithStatusCode(code int) *ContextualError {
	e.StatusCode = code
	return e
}

// WithDetails sets the details map.
func (e *ContextualError) WithDetails(details map[string]any) *ContextualError {
	e.Details = details
	return e
}

// KindOf returns the kind of the first classified error in err's chain.
// Errors that are not classified but match a sentinel report that sentinel's kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *ContextualError
	for e := err; e != nil; {
		if stderrors.As(e, &ce) {
			if ce.Kind != "" {
				return ce.Kind
			}
			e = ce.Cause
			continue
		}
		break
	}
	for kind, sentinel := range kindSentinels {
		if stderrors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}
