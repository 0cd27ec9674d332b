// Package sentences generates training sentences that contain a target word.
//
// A Generator asks a text model for sentences in sub-batches, keeps only those
// that contain the word and were not seen before, and retries each sub-batch a
// bounded number of times:
//
//	gen := sentences.NewGenerator(registry, sentences.WithRecorder(store))
//	list, err := gen.Generate(ctx, "köprü", 25, sentences.Options{Context: "engineering"})
package sentences

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
	metrics "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/metrics/prometheus"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers"
)

const component = "sentences"

// Defaults.
const (
	DefaultBatchSize      = 10
	DefaultMaxAttempts    = 3
	DefaultNegativeWindow = 20
	DefaultLanguage       = "Turkish"
)

// Sampling parameters per operation.
const (
	batchTemperature  = 0.8
	batchMaxTokens    = 2000
	singleTemperature = 0.9
	singleMaxTokens   = 150
)

// Attempt outcome labels.
const (
	outcomeComplete  = "complete"
	outcomeShort     = "short"
	outcomeExhausted = "exhausted"
	outcomeError     = "error"
)

// Completer runs a prompt on a selected provider. *providers.Registry implements it.
type Completer interface {
	Generate(ctx context.Context, sel providers.Selection, req providers.GenerateRequest) (string, error)
	Default() providers.Selection
}

// Options are per-call generation settings.
type Options struct {
	// Context is an optional subject domain, e.g. "aviation".
	Context string
	// Language overrides the generator's language.
	Language string
	// Provider selects the provider; the zero value uses the default.
	Provider providers.Selection
}

// Generator produces sentences containing a word.
type Generator struct {
	llm            Completer
	recorder       persistence.BatchRecorder
	batchSize      int
	maxAttempts    int
	negativeWindow int
	language       string
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder records each successful run as a generation batch.
func WithRecorder(r persistence.BatchRecorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithBatchSize sets the sub-batch size.
func WithBatchSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithMaxAttempts sets the number of attempts per sub-batch.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithLanguage sets the default sentence language.
func WithLanguage(lang string) Option {
	return func(g *Generator) {
		if lang != "" {
			g.language = lang
		}
	}
}

// NewGenerator creates a Generator backed by llm.
func NewGenerator(llm Completer, opts ...Option) *Generator {
	g := &Generator{
		llm:            llm,
		batchSize:      DefaultBatchSize,
		maxAttempts:    DefaultMaxAttempts,
		negativeWindow: DefaultNegativeWindow,
		language:       DefaultLanguage,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// resolve pins the provider selection for the duration of one call.
func (g *Generator) resolve(sel providers.Selection) providers.Selection {
	if sel.Kind != "" {
		return sel
	}
	def := g.llm.Default()
	if sel.Model != "" {
		def.Model = sel.Model
	}
	return def
}

func (g *Generator) languageFor(opts Options) string {
	if opts.Language != "" {
		return opts.Language
	}
	return g.language
}

// run tracks the accepted sentences of one Generate call.
type run struct {
	word     string
	wordKey  string
	accepted []string
	seen     map[string]struct{}
}

// accept adds candidates that contain the word and are new, up to limit.
func (r *run) accept(candidates []string, limit int) int {
	added := 0
	for _, s := range candidates {
		if added >= limit {
			break
		}
		s = strings.TrimSpace(s)
		if s == "" || !strings.Contains(strings.ToLower(s), r.wordKey) {
			continue
		}
		if _, dup := r.seen[s]; dup {
			continue
		}
		r.seen[s] = struct{}{}
		r.accepted = append(r.accepted, s)
		added++
	}
	return added
}

// Generate returns up to count distinct sentences, each containing word
// case-insensitively. Fewer sentences are returned when the model stops
// producing new ones. An error is returned only when nothing was accepted.
func (g *Generator) Generate(ctx context.Context, word string, count int, opts Options) ([]string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, pkgerrors.Validation(component, "Generate", "word is required")
	}
	if count < 1 {
		return nil, pkgerrors.Validation(component, "Generate", "count must be at least 1, got %d", count)
	}

	sel := g.resolve(opts.Provider)
	lang := g.languageFor(opts)
	ctx = logger.WithWord(logger.WithStage(ctx, "generate"), word)
	start := time.Now()

	r := &run{word: word, wordKey: strings.ToLower(word), seen: make(map[string]struct{}, count)}
	for len(r.accepted) < count {
		want := min(g.batchSize, count-len(r.accepted))
		added, exhausted, err := g.subBatch(ctx, r, sel, want, lang, opts.Context)
		if err != nil {
			if len(r.accepted) == 0 || ctx.Err() != nil {
				return nil, err
			}
			logger.WarnContext(ctx, "Sub-batch failed, returning partial result",
				"accepted", len(r.accepted), "requested", count, "error", err)
			break
		}
		if exhausted || added == 0 {
			logger.WarnContext(ctx, "Provider produced no new sentences, stopping",
				"accepted", len(r.accepted), "requested", count)
			break
		}
	}

	metrics.RecordSentencesAccepted(string(sel.Kind), len(r.accepted))
	logger.InfoContext(ctx, "Sentences generated",
		"provider", sel.String(),
		"accepted", len(r.accepted),
		"requested", count,
		"duration_ms", time.Since(start).Milliseconds())
	g.record(ctx, word, len(r.accepted))
	return r.accepted, nil
}

// subBatch makes up to maxAttempts calls to add want sentences. It reports
// exhausted when an attempt completed without a single new sentence, and an
// error only when every attempt failed with one.
func (g *Generator) subBatch(ctx context.Context, r *run, sel providers.Selection, want int, lang, domain string) (int, bool, error) {
	target := len(r.accepted) + want
	added := 0
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts && len(r.accepted) < target; attempt++ {
		if err := ctx.Err(); err != nil {
			return added, false, err
		}
		need := target - len(r.accepted)
		prompt := buildBatchPrompt(r.word, need, lang, domain, lastN(r.accepted, g.negativeWindow))

		raw, err := g.llm.Generate(ctx, sel, providers.GenerateRequest{
			System:      batchSystemPrompt,
			Prompt:      prompt,
			Temperature: batchTemperature,
			MaxTokens:   batchMaxTokens,
			Operation:   providers.OperationBatch,
		})
		if err == nil {
			var parsed []string
			if parsed, err = ParseSentences(raw); err == nil {
				n := r.accept(parsed, need)
				added += n
				switch {
				case n == 0:
					metrics.RecordGenerationAttempt(outcomeExhausted)
					return added, true, nil
				case n < need:
					metrics.RecordGenerationAttempt(outcomeShort)
					logger.DebugContext(ctx, "Too few new sentences, retrying",
						"got", n, "needed", need, "attempt", attempt, "max_attempts", g.maxAttempts)
				default:
					metrics.RecordGenerationAttempt(outcomeComplete)
				}
				lastErr = nil
				continue
			}
		}

		metrics.RecordGenerationAttempt(outcomeError)
		logger.WarnContext(ctx, "Generation attempt failed",
			"attempt", attempt, "max_attempts", g.maxAttempts, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return added, false, err
		}
		lastErr = err
	}

	if added == 0 && lastErr != nil {
		return 0, false, lastErr
	}
	return added, false, nil
}

func (g *Generator) record(ctx context.Context, word string, n int) {
	if g.recorder == nil || n == 0 {
		return
	}
	if _, err := g.recorder.AddGenerationBatch(ctx, persistence.GenerationBatch{Word: word, SentenceCount: n}); err != nil {
		logger.WarnContext(ctx, "Failed to record generation batch", "error", err)
	}
}

// RegenerateOne asks for a single sentence that differs from existing.
// Surrounding quotes are stripped. There is no retry.
func (g *Generator) RegenerateOne(ctx context.Context, word string, existing []string, opts Options) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", pkgerrors.Validation(component, "RegenerateOne", "word is required")
	}

	sel := g.resolve(opts.Provider)
	ctx = logger.WithWord(logger.WithStage(ctx, "regenerate"), word)

	raw, err := g.llm.Generate(ctx, sel, providers.GenerateRequest{
		System:      singleSystemPrompt,
		Prompt:      buildSinglePrompt(word, g.languageFor(opts), opts.Context, existing),
		Temperature: singleTemperature,
		MaxTokens:   singleMaxTokens,
		Operation:   providers.OperationSingle,
	})
	if err != nil {
		return "", err
	}

	sentence := strings.Trim(strings.TrimSpace(raw), `"'`)
	if sentence == "" {
		return "", &ParseError{Reason: "empty sentence", Raw: raw}
	}
	return sentence, nil
}
