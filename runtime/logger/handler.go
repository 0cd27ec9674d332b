package logger

import (
	"context"
	"log/slog"
)

// ContextHandler decorates records with the Fields carried by the context
// they were logged with.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner. static attributes are attached once, ahead of
// any per-record ones.
func NewContextHandler(inner slog.Handler, static ...slog.Attr) *ContextHandler {
	if len(static) > 0 {
		inner = inner.WithAttrs(static)
	}
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

//nolint:gocritic // slog.Handler takes the record by value
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := FieldsFrom(ctx).attrs(); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

// Unwrap returns the wrapped handler.
func (h *ContextHandler) Unwrap() slog.Handler { return h.inner }

var _ slog.Handler = (*ContextHandler)(nil)
