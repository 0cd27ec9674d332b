package synthesis

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
	metrics "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/metrics/prometheus"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
)

// AudioGenerator synthesizes sentences for a word and records them as training items.
type AudioGenerator struct {
	synth  *Synthesizer
	guard  *DuplicateGuard
	store  persistence.TrainingItemStore
	root   string
	now    func() time.Time
	flight singleflight.Group
}

// AudioOption configures an AudioGenerator.
type AudioOption func(*AudioGenerator)

// WithClock overrides the clock used for file names.
func WithClock(now func() time.Time) AudioOption {
	return func(g *AudioGenerator) { g.now = now }
}

// NewAudioGenerator creates an AudioGenerator writing under outputRoot.
func NewAudioGenerator(synth *Synthesizer, store persistence.TrainingItemStore, outputRoot string, opts ...AudioOption) *AudioGenerator {
	g := &AudioGenerator{
		synth: synth,
		guard: NewDuplicateGuard(store),
		store: store,
		root:  outputRoot,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateOne synthesizes sentence for word unless a generated item already exists.
// Concurrent calls for the same pair share one synthesis.
func (g *AudioGenerator) GenerateOne(ctx context.Context, sentence, word string, p Params) Result {
	sentence = strings.TrimSpace(sentence)
	word = strings.TrimSpace(word)
	if sentence == "" || word == "" {
		return failure(sentence, pkgerrors.Validation(component, "GenerateOne", "sentence and word are required"))
	}

	key := word + "\x00" + sentence
	v, _, _ := g.flight.Do(key, func() (any, error) {
		return g.generateOne(logger.WithWord(ctx, word), sentence, word, p), nil
	})
	return v.(Result)
}

func (g *AudioGenerator) generateOne(ctx context.Context, sentence, word string, p Params) Result {
	if existing, ok, err := g.guard.Check(ctx, sentence, word); err != nil {
		return failure(sentence, err)
	} else if ok {
		metrics.RecordSynthesis(g.synth.Backend(), metrics.OutcomeSkipped, 0, 0)
		logger.InfoContext(ctx, "Audio already exists, skipping", "id", existing.ID, "path", existing.AudioPath)
		return skipped(sentence, existing)
	}

	p = p.withDefaults()
	path := filepath.Join(WordDir(g.root, word), TrainingFilename(sentence, g.now()))
	res := g.synth.Synthesize(ctx, sentence, path, p)
	if !res.Success {
		return res
	}

	duration := res.DurationSeconds
	item := &persistence.TrainingItem{
		Word:            word,
		Sentence:        sentence,
		AudioPath:       res.Path,
		Status:          persistence.StatusGenerated,
		Voice:           p.Voice,
		DurationSeconds: &duration,
	}
	id, err := g.store.AddItem(ctx, item)
	if err != nil {
		g.discard(ctx, res.Path)
		if errors.Is(err, persistence.ErrDuplicate) {
			if winner, ok, checkErr := g.guard.Check(ctx, sentence, word); checkErr == nil && ok {
				return skipped(sentence, winner)
			}
		}
		return failure(sentence, err)
	}
	res.ID = id
	return res
}

func (g *AudioGenerator) discard(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnContext(ctx, "Failed to remove orphaned audio", "path", path, "error", err)
	}
}

func skipped(sentence string, item *persistence.TrainingItem) Result {
	res := Result{
		Success: true,
		Skipped: true,
		ID:      item.ID,
		Path:    item.AudioPath,
		Text:    sentence,
		Voice:   item.Voice,
	}
	if item.DurationSeconds != nil {
		res.DurationSeconds = *item.DurationSeconds
	}
	return res
}

// BatchResult holds the per-sentence outcomes of GenerateBatch.
type BatchResult struct {
	Word      string   `json:"word"`
	Results   []Result `json:"results"`
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
}

// GenerateBatch synthesizes each sentence in order. A failed sentence does not
// stop the batch; cancellation marks the remaining sentences as failed.
func (g *AudioGenerator) GenerateBatch(ctx context.Context, word string, sentences []string, p Params) BatchResult {
	br := BatchResult{Word: word, Results: make([]Result, 0, len(sentences))}
	for _, s := range sentences {
		var res Result
		if err := ctx.Err(); err != nil {
			res = failure(s, err)
		} else {
			res = g.GenerateOne(ctx, s, word, p)
		}
		switch {
		case !res.Success:
			br.Failed++
		case res.Skipped:
			br.Skipped++
		default:
			br.Generated++
		}
		br.Results = append(br.Results, res)
	}

	logger.InfoContext(ctx, "Batch complete",
		"word", word, "generated", br.Generated, "skipped", br.Skipped, "failed", br.Failed)
	return br
}

// DeleteWord removes every item of word, together with its audio, and then the
// word folder if nothing is left in it. Words that sanitize to the same folder
// keep their files.
func (g *AudioGenerator) DeleteWord(ctx context.Context, word string) (int, error) {
	if strings.TrimSpace(word) == "" {
		return 0, pkgerrors.Validation(component, "DeleteWord", "word is required")
	}
	n, err := g.store.DeleteByWord(ctx, word)
	if err != nil {
		return 0, err
	}
	dir := WordDir(g.root, word)
	switch err := os.Remove(dir); {
	case err == nil, errors.Is(err, fs.ErrNotExist):
	default:
		logger.InfoContext(ctx, "Word folder kept", "dir", dir, "reason", err)
	}
	return n, nil
}
