// Package logger is the process-wide structured logger of ttsdatagen.
//
// It wraps log/slog. Records logged with a context carry the request id, LLM
// provider, model, target word and pipeline stage stored by WithFields, and the
// API helpers redact keys before anything reaches the output.
package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
)

// DefaultLogger is used by every helper in this package. Configure replaces
// it; SetLevel and SetVerbose adjust it in place.
var DefaultLogger *slog.Logger

var (
	mu    sync.Mutex
	level = new(slog.LevelVar)
)

func init() {
	level.Set(ParseLevel(os.Getenv("LOG_LEVEL")))
	DefaultLogger = slog.New(newHandler(os.Stderr, "text"))
}

// ParseLevel maps trace|debug|info|warn|warning|error to a slog level.
// Anything else is info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(w io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return NewContextHandler(slog.NewJSONHandler(w, opts))
	}
	return NewContextHandler(slog.NewTextHandler(w, opts))
}

// Configure sets the level and switches the output to w (stderr when nil) in
// the given format, "text" or "json".
func Configure(lvl, format string, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	level.Set(ParseLevel(lvl))
	DefaultLogger = slog.New(newHandler(w, format))
}

func SetLevel(l slog.Level) { level.Set(l) }

// SetVerbose switches between debug and info.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
		return
	}
	SetLevel(slog.LevelInfo)
}

// Level helpers on DefaultLogger. The Context variants add the Fields carried
// by ctx; the others are for process-level messages (startup, config).

func Info(msg string, args ...any)  { DefaultLogger.Info(msg, args...) }
func Debug(msg string, args ...any) { DefaultLogger.Debug(msg, args...) }
func Warn(msg string, args ...any)  { DefaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { DefaultLogger.Error(msg, args...) }

func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// WarnContext is used for recoverable failures such as a best-effort file
// removal that did not happen.
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}

// event logs msg at level with the fixed attributes first.
func event(ctx context.Context, level slog.Level, msg string, fixed []any, extra []any) {
	if !DefaultLogger.Enabled(ctx, level) {
		return
	}
	DefaultLogger.Log(ctx, level, msg, append(fixed, extra...)...)
}

// LLMCall logs a sentence request. operation is "batch" or "single".
func LLMCall(ctx context.Context, provider, operation string, temperature float64, attrs ...any) {
	event(ctx, slog.LevelDebug, "LLM call",
		[]any{"provider", provider, "operation", operation, "temperature", temperature}, attrs)
}

// LLMResponse logs the size of a raw model reply and how long it took.
func LLMResponse(ctx context.Context, provider, operation string, chars int, latencyMs int64, attrs ...any) {
	event(ctx, slog.LevelDebug, "LLM response",
		[]any{"provider", provider, "operation", operation, "response_chars", chars, "latency_ms", latencyMs}, attrs)
}

func LLMError(ctx context.Context, provider, operation string, err error, attrs ...any) {
	event(ctx, slog.LevelError, "LLM call failed",
		[]any{"provider", provider, "operation", operation, "error", err}, attrs)
}

// SynthesisCall logs one sentence sent to a TTS backend.
func SynthesisCall(ctx context.Context, backend, voice string, chars int, attrs ...any) {
	event(ctx, slog.LevelDebug, "TTS call",
		[]any{"backend", backend, "voice", voice, "chars", chars}, attrs)
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_-]+`),
}

// RedactSensitiveData masks OpenAI keys, Google API keys and bearer tokens.
// Keys keep their first 4 characters.
func RedactSensitiveData(input string) string {
	for _, re := range secretPatterns {
		input = re.ReplaceAllStringFunc(input, func(m string) string {
			switch {
			case strings.HasPrefix(m, "Bearer"):
				return "Bearer [REDACTED]"
			case len(m) > 8:
				return m[:4] + "...[REDACTED]"
			default:
				return "[REDACTED]"
			}
		})
	}
	return input
}

// APIRequest logs an outgoing provider request at debug level, redacted.
func APIRequest(ctx context.Context, provider, method, url string, headers map[string]string, body any) {
	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := []any{"provider", provider, "method", method, "url", RedactSensitiveData(url)}
	if len(headers) > 0 {
		redacted := make(map[string]string, len(headers))
		for k, v := range headers {
			redacted[k] = RedactSensitiveData(v)
		}
		attrs = append(attrs, "headers", redacted)
	}
	if body != nil {
		if b, err := json.Marshal(body); err != nil {
			attrs = append(attrs, "body_error", err.Error())
		} else {
			attrs = append(attrs, "body", RedactSensitiveData(string(b)))
		}
	}
	DefaultLogger.DebugContext(ctx, "API request", attrs...)
}

// APIResponse logs a provider response at debug level. A transport error is
// logged at error level whatever the configured level.
func APIResponse(ctx context.Context, provider string, statusCode int, body string, err error) {
	if err != nil {
		DefaultLogger.ErrorContext(ctx, "API response error",
			"provider", provider, "status_code", statusCode, "error", err.Error())
		return
	}
	attrs := []any{"provider", provider, "status_code", statusCode}
	if body != "" {
		attrs = append(attrs, "body", RedactSensitiveData(body))
	}
	event(ctx, slog.LevelDebug, "API response", attrs, nil)
}
