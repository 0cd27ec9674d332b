package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	googleBackend = "google"

	defaultGoogleTimeout = 30 * time.Second
)

// googleClient is the subset of *texttospeech.Client the service needs.
type googleClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest,
		opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest,
		opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	Close() error
}

// GoogleService implements TTS using Google Cloud Text-to-Speech.
type GoogleService struct {
	client  googleClient
	timeout time.Duration
}

type googleOptions struct {
	clientOpts []option.ClientOption
	timeout    time.Duration
}

// GoogleOption configures the Google TTS service.
type GoogleOption func(*googleOptions)

// WithCredentialsFile authenticates with a service account key file.
// Without it, application default credentials are used.
func WithCredentialsFile(path string) GoogleOption {
	return func(o *googleOptions) {
		if path != "" {
			o.clientOpts = append(o.clientOpts, option.WithCredentialsFile(path))
		}
	}
}

// WithGoogleTimeout bounds each API call.
func WithGoogleTimeout(d time.Duration) GoogleOption {
	return func(o *googleOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewGoogle creates a Google TTS service. The caller must Close it.
func NewGoogle(ctx context.Context, opts ...GoogleOption) (*GoogleService, error) {
	o := googleOptions{timeout: defaultGoogleTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	client, err := texttospeech.NewClient(ctx, o.clientOpts...)
	if err != nil {
		return nil, NewSynthesisError(googleBackend, "", "failed to create client", err, false)
	}
	return &GoogleService{client: client, timeout: o.timeout}, nil
}

// Name returns the backend identifier.
func (s *GoogleService) Name() string {
	return googleBackend
}

// Close releases the client connection.
func (s *GoogleService) Close() error {
	return s.client.Close()
}

// Synthesize requests LINEAR16 audio, which Google returns as a WAV file.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy Service interface
func (s *GoogleService) Synthesize(ctx context.Context, text string, config SynthesisConfig) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := config.Validate(); err != nil {
		return nil, NewSynthesisError(googleBackend, codes.InvalidArgument.String(), "invalid audio config", err, false)
	}

	voice := config.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	lang := config.Language
	if lang == "" {
		lang = DefaultLanguageCode
	}
	rate := config.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}
	speed := config.Speed
	if speed == 0 {
		speed = DefaultSpeakingRate
	}

	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: int32(rate),
			SpeakingRate:    speed,
			Pitch:           config.Pitch,
			VolumeGainDb:    config.VolumeGainDB,
		},
	}, gax.WithTimeout(s.timeout))
	if err != nil {
		return nil, mapGoogleError(err)
	}
	if len(resp.GetAudioContent()) == 0 {
		return nil, NewSynthesisError(googleBackend, "", "empty audio response", nil, true)
	}
	return io.NopCloser(bytes.NewReader(resp.GetAudioContent())), nil
}

// SupportedVoices returns the Turkish voice catalogue.
func (s *GoogleService) SupportedVoices() []Voice {
	return TurkishVoices
}

// ListVoices asks the API for the voices of languageCode; empty lists all.
func (s *GoogleService) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	resp, err := s.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: languageCode},
		gax.WithTimeout(s.timeout))
	if err != nil {
		return nil, mapGoogleError(err)
	}
	voices := make([]Voice, 0, len(resp.GetVoices()))
	for _, v := range resp.GetVoices() {
		lang := ""
		if langs := v.GetLanguageCodes(); len(langs) > 0 {
			lang = langs[0]
		}
		voices = append(voices, Voice{
			ID:       v.GetName(),
			Name:     v.GetName(),
			Language: lang,
			Gender:   strings.ToLower(v.GetSsmlGender().String()),
		})
	}
	return voices, nil
}

func mapGoogleError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewSynthesisError(googleBackend, "", "request aborted", err, false)
	}
	st, ok := status.FromError(err)
	if !ok {
		return NewSynthesisError(googleBackend, "", "request failed", err, true)
	}

	code := st.Code()
	var cause error
	retryable := false
	switch code {
	case codes.InvalidArgument, codes.NotFound:
		if strings.Contains(strings.ToLower(st.Message()), "voice") {
			cause = ErrInvalidVoice
		}
	case codes.ResourceExhausted:
		cause = ErrQuotaExceeded
		retryable = true
	case codes.Unauthenticated, codes.PermissionDenied:
		cause = ErrUnauthenticated
	case codes.Unavailable:
		cause = ErrServiceUnavailable
		retryable = true
	case codes.DeadlineExceeded:
		cause = context.DeadlineExceeded
		retryable = true
	}
	return NewSynthesisError(googleBackend, code.String(), st.Message(), cause, retryable)
}

var _ Service = (*GoogleService)(nil)
