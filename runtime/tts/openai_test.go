package tts

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
)

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

func TestOpenAISynthesize_WrapsPCM(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/pcm")
		_, _ = w.Write(pcm)
	}))
	defer srv.Close()

	svc := NewOpenAI("sk-test", WithOpenAIBaseURL(srv.URL), WithOpenAIModel(ModelTTS1HD))
	rc, err := svc.Synthesize(context.Background(), "Merhaba", SynthesisConfig{Voice: VoiceNova, Speed: 1.5})
	require.NoError(t, err)
	defer rc.Close()
	wav, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Equal(t, ModelTTS1HD, got.Model)
	assert.Equal(t, "Merhaba", got.Input)
	assert.Equal(t, VoiceNova, got.Voice)
	assert.Equal(t, "pcm", got.ResponseFormat)
	assert.InDelta(t, 1.5, got.Speed, 1e-9)

	require.Len(t, wav, wavHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[wavHeaderSize:])
}

func TestOpenAISynthesize_NonOpenAIVoiceFallsBack(t *testing.T) {
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte{0, 0})
	}))
	defer srv.Close()

	svc := NewOpenAI("sk-test", WithOpenAIBaseURL(srv.URL), WithOpenAIVoice(VoiceOnyx))
	_, err := svc.Synthesize(context.Background(), "Merhaba", SynthesisConfig{Voice: DefaultVoice})
	require.NoError(t, err)
	assert.Equal(t, VoiceOnyx, got.Voice)
	assert.Equal(t, ModelTTS1, got.Model)
	assert.InDelta(t, 1.0, got.Speed, 1e-9)
}

func TestOpenAISynthesize_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		cause     error
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"requests","code":"rate_limit_exceeded"}}`, ErrRateLimited, true},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth","code":"invalid_api_key"}}`, ErrUnauthenticated, false},
		{"server", http.StatusBadGateway, `{"error":{"message":"upstream","type":"server"}}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAI("sk-test", WithOpenAIBaseURL(srv.URL)).Synthesize(context.Background(), "x", SynthesisConfig{})
			var se *SynthesisError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.retryable, se.Retryable)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
		})
	}
}

func TestOpenAISynthesize_EmptyText(t *testing.T) {
	_, err := NewOpenAI("sk-test").Synthesize(context.Background(), "", SynthesisConfig{})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOpenAIBasics(t *testing.T) {
	svc := NewOpenAI("sk-test")
	assert.Equal(t, "openai", svc.Name())
	assert.Len(t, svc.SupportedVoices(), 6)
	assert.Equal(t, 24000, EffectiveSampleRate(svc, 22050))
}
