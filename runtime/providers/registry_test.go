package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
)

type stubProvider struct {
	id        string
	available bool
	models    []string
	lastReq   GenerateRequest
	out       string
	err       error
	closed    bool
}

func (s *stubProvider) ID() string { return s.id }

func (s *stubProvider) Generate(_ context.Context, req GenerateRequest) (string, error) {
	s.lastReq = req
	return s.out, s.err
}

func (s *stubProvider) Available(context.Context) bool { return s.available }

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

type listingProvider struct {
	stubProvider
}

func (l *listingProvider) ListModels(context.Context) ([]string, error) {
	return l.models, nil
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Ollama ")
	require.NoError(t, err)
	assert.Equal(t, KindOllama, k)

	_, err = ParseKind("anthropic")
	assert.Error(t, err)
}

func TestSelection(t *testing.T) {
	assert.True(t, Selection{}.IsZero())
	assert.Equal(t, "ollama/llama3.1:8b", Selection{Kind: KindOllama, Model: "llama3.1:8b"}.String())
	assert.Equal(t, "openai", Selection{Kind: KindOpenAI}.String())
}

func TestRegistry_ResolveUsesDefaultSnapshot(t *testing.T) {
	r := NewRegistry(Selection{Kind: KindOllama, Model: "llama3.1:8b"})
	oll := &stubProvider{id: "ollama"}
	oai := &stubProvider{id: "openai"}
	r.Register(KindOllama, oll)
	r.Register(KindOpenAI, oai)

	p, eff, err := r.Resolve(Selection{})
	require.NoError(t, err)
	assert.Same(t, oll, p)
	assert.Equal(t, "llama3.1:8b", eff.Model)

	p, eff, err = r.Resolve(Selection{Model: "mistral"})
	require.NoError(t, err)
	assert.Same(t, oll, p)
	assert.Equal(t, "mistral", eff.Model)

	p, _, err = r.Resolve(Selection{Kind: KindOpenAI})
	require.NoError(t, err)
	assert.Same(t, oai, p)
}

func TestRegistry_SetDefault(t *testing.T) {
	r := NewRegistry(Selection{Kind: KindOpenAI})
	r.Register(KindOpenAI, &stubProvider{id: "openai"})

	err := r.SetDefault(Selection{Kind: KindOllama})
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)
	assert.Equal(t, KindOpenAI, r.Default().Kind)

	r.Register(KindOllama, &stubProvider{id: "ollama"})
	require.NoError(t, r.SetDefault(Selection{Kind: KindOllama, Model: "qwen2.5"}))
	assert.Equal(t, Selection{Kind: KindOllama, Model: "qwen2.5"}, r.Default())
}

func TestRegistry_ResolveUnregistered(t *testing.T) {
	r := NewRegistry(Selection{Kind: KindOpenAI})

	_, _, err := r.Resolve(Selection{})
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)
}

func TestRegistry_GenerateFillsModel(t *testing.T) {
	r := NewRegistry(Selection{Kind: KindOllama, Model: "llama3.1:8b"})
	oll := &stubProvider{id: "ollama", out: `["a"]`}
	r.Register(KindOllama, oll)

	out, err := r.Generate(context.Background(), Selection{}, GenerateRequest{Prompt: "p", Operation: OperationBatch})
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, out)
	assert.Equal(t, "llama3.1:8b", oll.lastReq.Model)

	_, err = r.Generate(context.Background(), Selection{}, GenerateRequest{Prompt: "p", Model: "explicit"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", oll.lastReq.Model)
}

func TestRegistry_GeneratePropagatesError(t *testing.T) {
	r := NewRegistry(Selection{Kind: KindOllama})
	want := &ProviderError{Provider: "ollama", Cause: ErrProviderNotRunning}
	r.Register(KindOllama, &stubProvider{id: "ollama", err: want})

	_, err := r.Generate(context.Background(), Selection{}, GenerateRequest{Operation: OperationSingle})
	assert.ErrorIs(t, err, ErrProviderNotRunning)
	assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
}

func TestRegistry_Status(t *testing.T) {
	r := NewRegistry(Selection{Kind: KindOpenAI})
	r.Register(KindOpenAI, &stubProvider{id: "openai", available: false})
	r.Register(KindOllama, &listingProvider{stubProvider{id: "ollama", available: true, models: []string{"llama3.1:8b"}}})

	st := r.Status(context.Background())
	assert.Equal(t, KindOpenAI, st.Default.Kind)
	require.Len(t, st.Providers, 2)
	assert.Equal(t, KindOllama, st.Providers[0].Kind)
	assert.True(t, st.Providers[0].Available)
	assert.Equal(t, []string{"llama3.1:8b"}, st.Providers[0].Models)
	assert.False(t, st.Providers[1].Available)
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry(Selection{Kind: KindOpenAI})
	a := &stubProvider{id: "openai"}
	r.Register(KindOpenAI, a)

	require.NoError(t, r.Close())
	assert.True(t, a.closed)
}

func TestMakeRawRequest_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'x' not found"}`))
	}))
	defer srv.Close()

	b := NewBaseProvider("ollama", srv.Client())
	_, err := b.MakeJSONRequest(context.Background(), srv.URL, map[string]string{"model": "x"}, nil)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusNotFound, pe.StatusCode)
	assert.Equal(t, "model 'x' not found", pe.Message)
	assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
}

func TestMakeRawRequest_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	b := NewBaseProvider("ollama", &http.Client{})
	_, err := b.MakeRawRequest(context.Background(), http.MethodGet, url+"/api/tags", nil, nil)
	assert.ErrorIs(t, err, ErrProviderNotRunning)
}

func TestMakeRawRequest_SendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	b := NewBaseProvider("test", srv.Client())
	body, err := b.MakeJSONRequest(context.Background(), srv.URL, struct{}{}, RequestHeaders{"X-Test": "v"})
	require.NoError(t, err)

	var out struct{ OK bool }
	require.NoError(t, DecodeJSON("test", body, &out))
	assert.True(t, out.OK)

	err = DecodeJSON("test", []byte("not json"), &out)
	assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
}
