package logger

import (
	"context"
	"log/slog"
)

type fieldsKey struct{}

// Fields are the per-request values ContextHandler adds to every record
// logged with a context. Empty values are left out.
type Fields struct {
	// RequestID identifies one CLI invocation.
	RequestID string
	// Provider is the LLM provider ("openai", "ollama") or TTS backend.
	Provider string
	Model    string
	// Word is the target word being processed.
	Word string
	// Stage is the pipeline stage: generate, synthesize or export.
	Stage string
}

// FieldsFrom returns the fields stored on ctx.
func FieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}

// WithFields returns ctx with the non-empty values of f set over the ones
// already present.
func WithFields(ctx context.Context, f Fields) context.Context {
	cur := FieldsFrom(ctx)
	merge := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	merge(&cur.RequestID, f.RequestID)
	merge(&cur.Provider, f.Provider)
	merge(&cur.Model, f.Model)
	merge(&cur.Word, f.Word)
	merge(&cur.Stage, f.Stage)
	return context.WithValue(ctx, fieldsKey{}, cur)
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, id string) context.Context {
	return WithFields(ctx, Fields{RequestID: id})
}

// WithProvider returns a new context with the provider name set.
func WithProvider(ctx context.Context, provider string) context.Context {
	return WithFields(ctx, Fields{Provider: provider})
}

// WithModel returns a new context with the model name set.
func WithModel(ctx context.Context, model string) context.Context {
	return WithFields(ctx, Fields{Model: model})
}

// WithWord returns a new context with the target word set.
func WithWord(ctx context.Context, word string) context.Context {
	return WithFields(ctx, Fields{Word: word})
}

// WithStage returns a new context with the pipeline stage set.
func WithStage(ctx context.Context, stage string) context.Context {
	return WithFields(ctx, Fields{Stage: stage})
}

func (f Fields) attrs() []slog.Attr {
	pairs := [...]struct{ key, val string }{
		{"request_id", f.RequestID},
		{"provider", f.Provider},
		{"model", f.Model},
		{"word", f.Word},
		{"stage", f.Stage},
	}
	out := make([]slog.Attr, 0, len(pairs))
	for _, p := range pairs {
		if p.val != "" {
			out = append(out, slog.String(p.key, p.val))
		}
	}
	return out
}
