package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers"
)

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider("", "")
	assert.Equal(t, DefaultBaseURL, p.BaseURL())
	assert.Equal(t, DefaultModel, p.Model())
	assert.Equal(t, "ollama", p.ID())
	assert.Equal(t, ollamaHTTPTimeout, p.GetHTTPClient().Timeout)

	p = NewProvider("http://gpu:11434/", "mistral")
	assert.Equal(t, "http://gpu:11434", p.BaseURL())
}

func TestGenerate_RequestShape(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, generatePath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "  [\"Köprü uzundu.\"]\n", Done: true})
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "llama3.1:8b")
	out, err := p.Generate(context.Background(), providers.GenerateRequest{
		System:      "sys",
		Prompt:      "write",
		Temperature: 0.8,
		MaxTokens:   2000,
		Operation:   providers.OperationBatch,
	})
	require.NoError(t, err)
	assert.Equal(t, `["Köprü uzundu."]`, out)
	assert.Equal(t, "llama3.1:8b", got.Model)
	assert.Equal(t, "write", got.Prompt)
	assert.Equal(t, "sys", got.System)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.8, got.Options.Temperature, 1e-6)
	assert.Equal(t, 2000, got.Options.NumPredict)
}

func TestGenerate_ModelOverride(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		_, _ = w.Write([]byte(`{"response":"x"}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "llama3.1:8b")
	_, err := p.Generate(context.Background(), providers.GenerateRequest{Prompt: "p", Model: "qwen2.5:7b"})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:7b", model)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"out of memory"}`))
		}},
		{"malformed json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"response": `))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewProvider(srv.URL, "").Generate(context.Background(), providers.GenerateRequest{Prompt: "p"})
			require.Error(t, err)
			var pe *providers.ProviderError
			assert.ErrorAs(t, err, &pe)
			assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
			assert.NotErrorIs(t, err, providers.ErrProviderNotRunning)
		})
	}
}

func TestGenerate_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewProvider(url, "").Generate(context.Background(), providers.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, providers.ErrProviderNotRunning)
	assert.Contains(t, err.Error(), "ollama serve")
}

func TestGenerate_HonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewProvider(srv.URL, "").Generate(ctx, providers.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAvailableAndListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tagsPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.1:8b"},{"name":"qwen2.5:7b"}]}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "")
	assert.True(t, p.Available(context.Background()))

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.1:8b", "qwen2.5:7b"}, models)
}

func TestAvailable_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewProvider(url, "")
	assert.False(t, p.Available(context.Background()))
	_, err := p.ListModels(context.Background())
	assert.ErrorIs(t, err, providers.ErrProviderNotRunning)
}
