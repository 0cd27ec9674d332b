// Package providers defines the text generation backends used to write sentences
// and the registry that selects between them.
package providers

import (
	"context"
	"fmt"
	"strings"
)

// Kind names a provider variant.
type Kind string

// Provider kinds.
const (
	// KindOpenAI is the hosted chat completion API.
	KindOpenAI Kind = "openai"
	// KindOllama is a local Ollama server.
	KindOllama Kind = "ollama"
)

// ParseKind converts a provider name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindOpenAI, KindOllama:
		return k, nil
	default:
		return "", fmt.Errorf("unknown provider %q (want openai or ollama)", s)
	}
}

// Operation distinguishes batch generation from single-sentence regeneration.
// Hosted providers pick a model per operation.
type Operation string

// Operations.
const (
	OperationBatch  Operation = "batch"
	OperationSingle Operation = "single"
)

// Selection chooses a provider and, for providers that honour it, a model.
// The zero value means the registry default.
type Selection struct {
	Kind  Kind   `json:"provider"`
	Model string `json:"model,omitempty"`
}

// IsZero reports whether no provider is selected.
func (s Selection) IsZero() bool {
	return s.Kind == "" && s.Model == ""
}

func (s Selection) String() string {
	if s.Model == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + "/" + s.Model
}

// GenerateRequest is a single prompt to a text model.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	Operation   Operation
	// Model overrides the provider's configured model where supported.
	Model string
}

// Provider generates text from a prompt.
type Provider interface {
	// ID returns the provider kind as a string.
	ID() string

	// Generate returns the raw model output. Providers do not retry.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Available reports whether the provider can currently serve requests.
	Available(ctx context.Context) bool

	Close() error
}

// ModelLister is implemented by providers that can enumerate installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
