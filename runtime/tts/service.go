package tts

import (
	"context"
	"fmt"
	"io"
)

// Common audio constants.
const (
	bitDepthDefault = 16
	bytesPerSample  = bitDepthDefault / 8
)

// Synthesis defaults.
const (
	DefaultVoice        = "tr-TR-Wavenet-D"
	DefaultLanguageCode = "tr-TR"
	DefaultSampleRate   = 22050
	DefaultSpeakingRate = 1.0
)

// Parameter ranges accepted by the backends.
const (
	MinSpeakingRate = 0.25
	MaxSpeakingRate = 4.0
	MinPitch        = -20.0
	MaxPitch        = 20.0
	MinVolumeGainDB = -96.0
	MaxVolumeGainDB = 16.0
	MaxSampleRate   = 48000
)

// Service converts text to speech audio.
type Service interface {
	// Name returns the backend identifier (for logging and metrics).
	Name() string

	// Synthesize converts text to a complete WAV file.
	// The caller is responsible for closing the reader.
	Synthesize(ctx context.Context, text string, config SynthesisConfig) (io.ReadCloser, error)

	// SupportedVoices returns the voices this backend offers.
	SupportedVoices() []Voice
}

// FixedRateService is implemented by backends that ignore the requested sample
// rate and always produce audio at their own rate.
type FixedRateService interface {
	Service
	OutputSampleRate() int
}

// EffectiveSampleRate returns the sample rate svc will produce for requested.
func EffectiveSampleRate(svc Service, requested int) int {
	if fixed, ok := svc.(FixedRateService); ok {
		return fixed.OutputSampleRate()
	}
	if requested <= 0 {
		return DefaultSampleRate
	}
	return requested
}

// SynthesisConfig configures text-to-speech synthesis.
type SynthesisConfig struct {
	// Voice is the backend voice ID.
	Voice string

	// Language is the language code, e.g. "tr-TR".
	Language string

	// SampleRate is the output sample rate in Hz.
	SampleRate int

	// Speed is the speaking rate multiplier (0.25-4.0, 0 means 1.0).
	Speed float64

	// Pitch is in semitones (-20 to 20).
	Pitch float64

	// VolumeGainDB is in decibels (-96 to 16).
	VolumeGainDB float64

	// Model is the backend model, where the backend has several.
	Model string
}

// DefaultSynthesisConfig returns the Turkish training defaults.
func DefaultSynthesisConfig() SynthesisConfig {
	return SynthesisConfig{
		Voice:      DefaultVoice,
		Language:   DefaultLanguageCode,
		SampleRate: DefaultSampleRate,
		Speed:      DefaultSpeakingRate,
	}
}

// Validate checks the numeric ranges.
func (c SynthesisConfig) Validate() error {
	if c.Speed != 0 && (c.Speed < MinSpeakingRate || c.Speed > MaxSpeakingRate) {
		return fmt.Errorf("speaking rate %.2f out of range [%.2f, %.2f]", c.Speed, MinSpeakingRate, MaxSpeakingRate)
	}
	if c.Pitch < MinPitch || c.Pitch > MaxPitch {
		return fmt.Errorf("pitch %.1f out of range [%.0f, %.0f]", c.Pitch, MinPitch, MaxPitch)
	}
	if c.VolumeGainDB < MinVolumeGainDB || c.VolumeGainDB > MaxVolumeGainDB {
		return fmt.Errorf("volume gain %.1f dB out of range [%.0f, %.0f]", c.VolumeGainDB, MinVolumeGainDB, MaxVolumeGainDB)
	}
	if c.SampleRate < 0 || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("sample rate %d out of range [0, %d]", c.SampleRate, MaxSampleRate)
	}
	return nil
}

// Voice describes a TTS voice available from a backend.
type Voice struct {
	// ID is the backend voice identifier.
	ID string `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// Language is the primary language code.
	Language string `json:"language"`

	// Gender is "male", "female" or "neutral".
	Gender string `json:"gender,omitempty"`

	Description string `json:"description,omitempty"`
}
