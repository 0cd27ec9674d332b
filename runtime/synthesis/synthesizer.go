package synthesis

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
	metrics "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/metrics/prometheus"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/tts"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// Synthesizer writes the audio of one sentence to disk.
type Synthesizer struct {
	svc     tts.Service
	limiter *rate.Limiter
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithRateLimit allows at most rps backend calls per second. Zero disables it.
func WithRateLimit(rps float64) SynthesizerOption {
	return func(s *Synthesizer) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewSynthesizer creates a Synthesizer backed by svc.
func NewSynthesizer(svc tts.Service, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{svc: svc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the name of the TTS backend.
func (s *Synthesizer) Backend() string {
	return s.svc.Name()
}

// Synthesize writes the audio for text to outputPath, creating its directory.
// If outputPath exists, a numeric suffix is added. Failures are reported in
// the Result, never as a panic or error return.
func (s *Synthesizer) Synthesize(ctx context.Context, text, outputPath string, p Params) Result {
	p = p.withDefaults()
	backend := s.svc.Name()
	ctx = logger.WithStage(ctx, "synthesize")
	start := time.Now()

	res := s.synthesize(ctx, text, outputPath, p)

	if res.Success {
		metrics.RecordSynthesis(backend, metrics.OutcomeGenerated, time.Since(start).Seconds(), res.FileSizeBytes)
		logger.InfoContext(ctx, "Audio saved",
			"path", res.Path, "duration_seconds", res.DurationSeconds, "bytes", res.FileSizeBytes)
	} else {
		metrics.RecordSynthesis(backend, metrics.OutcomeFailed, 0, 0)
		logger.ErrorContext(ctx, "Synthesis failed", "backend", backend, "error", res.Err)
	}
	return res
}

func (s *Synthesizer) synthesize(ctx context.Context, text, outputPath string, p Params) Result {
	if strings.TrimSpace(text) == "" {
		return failure(text, pkgerrors.Validation(component, "Synthesize", "text is empty"))
	}
	if err := p.Validate(); err != nil {
		return failure(text, err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), dirPerm); err != nil {
		return failure(text, pkgerrors.New(component, "Synthesize", err).WithKind(pkgerrors.KindFileSystem))
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return failure(text, pkgerrors.New(component, "Synthesize", err).WithKind(pkgerrors.KindProviderUnavailable))
		}
	}

	logger.SynthesisCall(ctx, s.svc.Name(), p.Voice, len(text), "sample_rate", p.SampleRate)
	audio, err := s.svc.Synthesize(ctx, text, p.synthesisConfig())
	if err != nil {
		kind := pkgerrors.KindProviderUnavailable
		if errors.Is(err, tts.ErrEmptyText) {
			kind = pkgerrors.KindValidation
		}
		return failure(text, pkgerrors.New(component, "Synthesize", err).WithKind(kind))
	}
	defer audio.Close()

	path, size, err := writeAudio(outputPath, audio)
	if err != nil {
		return failure(text, pkgerrors.New(component, "Synthesize", err).WithKind(pkgerrors.KindFileSystem))
	}

	return Result{
		Success:         true,
		Path:            path,
		Text:            text,
		Voice:           p.Voice,
		DurationSeconds: EstimateDuration(size, tts.EffectiveSampleRate(s.svc, p.SampleRate)),
		FileSizeBytes:   size,
	}
}

// writeAudio copies audio into a new file at path or a suffixed sibling.
// A partially written file is removed.
func writeAudio(path string, audio io.Reader) (string, int64, error) {
	var f *os.File
	for {
		path = uniquePath(path)
		var err error
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", 0, err
		}
	}

	size, err := io.Copy(f, audio)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return path, size, nil
}
