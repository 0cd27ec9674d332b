// Package httputil builds the HTTP clients of the text generation and speech
// backends so that every backend uses the same timeout defaults.
package httputil

import (
	"net/http"
	"time"
)

// Timeout defaults.
const (
	// DefaultProviderTimeout bounds a hosted API call (chat completion or speech).
	DefaultProviderTimeout = 60 * time.Second

	// DefaultLocalModelTimeout bounds a call to a local model server.
	// Batch generation on CPU can take well over a minute.
	DefaultLocalModelTimeout = 120 * time.Second

	// DefaultProbeTimeout bounds a health check.
	DefaultProbeTimeout = 2 * time.Second
)

// NewHTTPClient returns an *http.Client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
