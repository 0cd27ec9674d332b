// Package synthesis turns training sentences into audio files and training items.
//
// Synthesizer writes one audio file per call and never returns an error: the
// outcome is a Result. AudioGenerator adds the duplicate guard and the store on
// top, so that a (sentence, word) pair is synthesized at most once.
package synthesis

import (
	"math"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/tts"
)

const component = "synthesis"

// Params are the voice settings of one synthesis.
type Params struct {
	Voice        string  `json:"voice"`
	Language     string  `json:"language"`
	SampleRate   int     `json:"sample_rate"`
	SpeakingRate float64 `json:"speaking_rate"`
	Pitch        float64 `json:"pitch"`
	VolumeGainDB float64 `json:"volume_gain_db"`
}

// DefaultParams returns the Turkish training defaults.
func DefaultParams() Params {
	return Params{
		Voice:        tts.DefaultVoice,
		Language:     tts.DefaultLanguageCode,
		SampleRate:   tts.DefaultSampleRate,
		SpeakingRate: tts.DefaultSpeakingRate,
	}
}

// withDefaults fills zero fields from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Voice == "" {
		p.Voice = d.Voice
	}
	if p.Language == "" {
		p.Language = d.Language
	}
	if p.SampleRate == 0 {
		p.SampleRate = d.SampleRate
	}
	if p.SpeakingRate == 0 {
		p.SpeakingRate = d.SpeakingRate
	}
	return p
}

func (p Params) synthesisConfig() tts.SynthesisConfig {
	return tts.SynthesisConfig{
		Voice:        p.Voice,
		Language:     p.Language,
		SampleRate:   p.SampleRate,
		Speed:        p.SpeakingRate,
		Pitch:        p.Pitch,
		VolumeGainDB: p.VolumeGainDB,
	}
}

// Validate checks the numeric ranges.
func (p Params) Validate() error {
	if err := p.synthesisConfig().Validate(); err != nil {
		return pkgerrors.New(component, "Validate", err).WithKind(pkgerrors.KindValidation)
	}
	return nil
}

// Result is the outcome of one synthesis. Failures carry Err and Kind.
type Result struct {
	Success bool `json:"success"`
	// Skipped is set when an existing item was reused instead of synthesizing.
	Skipped bool `json:"skipped,omitempty"`

	ID              int64   `json:"id,omitempty"`
	Path            string  `json:"path,omitempty"`
	Text            string  `json:"text"`
	Voice           string  `json:"voice,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	FileSizeBytes   int64   `json:"file_size_bytes,omitempty"`

	Err  error          `json:"-"`
	Kind pkgerrors.Kind `json:"error_kind,omitempty"`
	// Error is Err's message, for JSON output.
	Error string `json:"error,omitempty"`
	// Retryable marks a transient backend failure worth another run.
	Retryable bool `json:"retryable,omitempty"`
}

func failure(text string, err error) Result {
	return Result{
		Text:      text,
		Err:       err,
		Kind:      pkgerrors.KindOf(err),
		Error:     err.Error(),
		Retryable: tts.IsRetryable(err),
	}
}

// EstimateDuration approximates the length of 16-bit mono audio from its size,
// rounded to two decimals.
func EstimateDuration(sizeBytes int64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	secs := float64(sizeBytes) / float64(sampleRate*2)
	return math.Round(secs*100) / 100
}
