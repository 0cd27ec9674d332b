package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/httputil"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
)

const (
	// ModelTTS1 is the OpenAI TTS model optimized for speed.
	ModelTTS1 = "tts-1"
	// ModelTTS1HD is the OpenAI TTS model optimized for quality.
	ModelTTS1HD = "tts-1-hd"

	openAIBackend = "openai"

	// OpenAI returns raw 16-bit mono PCM at this rate.
	openAISampleRate = 24000

	openAIServerErrorThreshold = 500
)

// OpenAI voices.
const (
	VoiceAlloy   = "alloy"   // Neutral voice.
	VoiceEcho    = "echo"    // Male voice.
	VoiceFable   = "fable"   // British accent.
	VoiceOnyx    = "onyx"    // Deep male voice.
	VoiceNova    = "nova"    // Female voice.
	VoiceShimmer = "shimmer" // Soft female voice.
)

type speechClient interface {
	CreateSpeech(ctx context.Context, req goopenai.CreateSpeechRequest) (goopenai.RawResponse, error)
}

// OpenAIService implements TTS using OpenAI's speech API.
type OpenAIService struct {
	client speechClient
	model  string
	voice  string
}

type openAIOptions struct {
	cfg   goopenai.ClientConfig
	model string
	voice string
}

// OpenAIOption configures the OpenAI TTS service.
type OpenAIOption func(*openAIOptions)

// WithOpenAIBaseURL sets a custom base URL (for testing or proxies).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) {
		if url != "" {
			o.cfg.BaseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithOpenAIClient sets a custom HTTP client.
func WithOpenAIClient(client *http.Client) OpenAIOption {
	return func(o *openAIOptions) { o.cfg.HTTPClient = client }
}

// WithOpenAIModel sets the TTS model to use.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *openAIOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithOpenAIVoice sets the voice used when a request names none or a non-OpenAI voice.
func WithOpenAIVoice(voice string) OpenAIOption {
	return func(o *openAIOptions) {
		if voice != "" {
			o.voice = voice
		}
	}
}

// NewOpenAI creates an OpenAI TTS service.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAIService {
	o := openAIOptions{cfg: goopenai.DefaultConfig(apiKey), model: ModelTTS1, voice: VoiceAlloy}
	o.cfg.HTTPClient = httputil.NewHTTPClient(httputil.DefaultProviderTimeout)
	for _, opt := range opts {
		opt(&o)
	}
	return &OpenAIService{
		client: goopenai.NewClientWithConfig(o.cfg),
		model:  o.model,
		voice:  o.voice,
	}
}

// Name returns the backend identifier.
func (s *OpenAIService) Name() string {
	return openAIBackend
}

// OutputSampleRate reports the fixed PCM rate of the speech API.
func (s *OpenAIService) OutputSampleRate() int {
	return openAISampleRate
}

func (s *OpenAIService) voiceFor(requested string) string {
	for _, v := range s.SupportedVoices() {
		if v.ID == requested {
			return requested
		}
	}
	return s.voice
}

// Synthesize requests raw PCM and returns it as a WAV file.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy Service interface
func (s *OpenAIService) Synthesize(ctx context.Context, text string, config SynthesisConfig) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	voice := s.voiceFor(config.Voice)
	if config.Voice != "" && voice != config.Voice {
		logger.DebugContext(ctx, "Voice not offered by OpenAI, using default", "requested", config.Voice, "voice", voice)
	}

	speed := config.Speed
	if speed == 0 {
		speed = DefaultSpeakingRate
	}

	model := config.Model
	if model == "" {
		model = s.model
	}

	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(model),
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatPcm,
		Speed:          speed,
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, NewSynthesisError(openAIBackend, "", "failed to read audio", err, true)
	}
	if len(pcm) == 0 {
		return nil, NewSynthesisError(openAIBackend, "", "empty audio response", nil, true)
	}
	return io.NopCloser(bytes.NewReader(wrapPCMInWAV(pcm, openAISampleRate))), nil
}

func (s *OpenAIService) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewSynthesisError(openAIBackend, "", "request aborted", err, false)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		code := fmt.Sprintf("%d", apiErr.HTTPStatusCode)
		if c, ok := apiErr.Code.(string); ok && c != "" {
			code = c
		}
		retryable := apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= openAIServerErrorThreshold

		var cause error
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			cause = ErrRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			cause = ErrUnauthenticated
		case http.StatusBadRequest:
			if code == "invalid_voice" {
				cause = ErrInvalidVoice
			}
		}
		return NewSynthesisError(openAIBackend, code, apiErr.Message, cause, retryable)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return NewSynthesisError(openAIBackend, fmt.Sprintf("%d", reqErr.HTTPStatusCode), "request failed", reqErr.Err,
			reqErr.HTTPStatusCode >= openAIServerErrorThreshold)
	}

	return NewSynthesisError(openAIBackend, "", "request failed", err, true)
}

// SupportedVoices returns available OpenAI voices.
func (s *OpenAIService) SupportedVoices() []Voice {
	return []Voice{
		{ID: VoiceAlloy, Name: "Alloy", Language: "multi", Gender: "neutral", Description: "Balanced, versatile voice"},
		{ID: VoiceEcho, Name: "Echo", Language: "multi", Gender: "male", Description: "Clear male voice"},
		{ID: VoiceFable, Name: "Fable", Language: "multi", Gender: "female", Description: "Expressive, British accent"},
		{ID: VoiceOnyx, Name: "Onyx", Language: "multi", Gender: "male", Description: "Deep, authoritative voice"},
		{ID: VoiceNova, Name: "Nova", Language: "multi", Gender: "female", Description: "Warm, friendly voice"},
		{ID: VoiceShimmer, Name: "Shimmer", Language: "multi", Gender: "female", Description: "Soft, calm voice"},
	}
}

var _ FixedRateService = (*OpenAIService)(nil)
