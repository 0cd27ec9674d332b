package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers"
)

func chatServer(t *testing.T, got *goopenai.ChatCompletionRequest, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_BatchUsesBatchModel(t *testing.T) {
	var got goopenai.ChatCompletionRequest
	srv := chatServer(t, &got, http.StatusOK,
		`{"choices":[{"index":0,"message":{"role":"assistant","content":" [\"Köprüden geçtik.\"] "}}]}`)

	p := NewProvider("sk-test", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	out, err := p.Generate(context.Background(), providers.GenerateRequest{
		System:      "sys",
		Prompt:      "user",
		Temperature: 0.8,
		MaxTokens:   2000,
		Operation:   providers.OperationBatch,
		Model:       "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, `["Köprüden geçtik."]`, out)

	assert.Equal(t, ModelBatch, got.Model)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.InDelta(t, 0.8, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, goopenai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, "user", got.Messages[1].Content)
}

func TestGenerate_SingleUsesSingleModel(t *testing.T) {
	var got goopenai.ChatCompletionRequest
	srv := chatServer(t, &got, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Bir cümle."}}]}`)

	p := NewProvider("sk-test", WithBaseURL(srv.URL+"/"))
	out, err := p.Generate(context.Background(), providers.GenerateRequest{Prompt: "p", Operation: providers.OperationSingle})
	require.NoError(t, err)
	assert.Equal(t, "Bir cümle.", out)
	assert.Equal(t, ModelSingle, got.Model)
	assert.Len(t, got.Messages, 1)
}

func TestGenerate_APIError(t *testing.T) {
	srv := chatServer(t, nil, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)

	p := NewProvider("sk-test", WithBaseURL(srv.URL))
	_, err := p.Generate(context.Background(), providers.GenerateRequest{Prompt: "p"})
	require.Error(t, err)

	var pe *providers.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.Equal(t, "Rate limit reached", pe.Message)
	assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := chatServer(t, nil, http.StatusOK, `{"choices":[]}`)

	_, err := NewProvider("sk-test", WithBaseURL(srv.URL)).Generate(context.Background(), providers.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
}

func TestGenerate_MissingKey(t *testing.T) {
	p := NewProvider("")
	assert.False(t, p.Available(context.Background()))

	_, err := p.Generate(context.Background(), providers.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, providers.ErrNotConfigured)
	assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
}

func TestGenerate_Cancelled(t *testing.T) {
	srv := chatServer(t, nil, http.StatusOK, `{"choices":[]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider("sk-test", WithBaseURL(srv.URL)).Generate(ctx, providers.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelFor(t *testing.T) {
	assert.Equal(t, ModelBatch, ModelFor(providers.OperationBatch))
	assert.Equal(t, ModelSingle, ModelFor(providers.OperationSingle))
	assert.Equal(t, ModelBatch, ModelFor(""))
}

func TestProviderBasics(t *testing.T) {
	p := NewProvider("sk-test")
	assert.Equal(t, "openai", p.ID())
	assert.True(t, p.Available(context.Background()))
	assert.NoError(t, p.Close())
}
