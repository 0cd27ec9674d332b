// Package ollama provides the local Ollama text generation provider.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/httputil"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers"
)

// API paths.
const (
	generatePath = "/api/generate"
	tagsPath     = "/api/tags"
)

// Defaults.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1:8b"
)

// Timeouts. Local inference is slow, health probes are not.
const (
	ollamaHTTPTimeout = httputil.DefaultLocalModelTimeout
	singleTimeout     = httputil.DefaultProviderTimeout
	healthTimeout     = httputil.DefaultProbeTimeout
	listModelsTimeout = 5 * time.Second
)

// Provider implements providers.Provider for a local Ollama server.
type Provider struct {
	providers.BaseProvider
	model   string
	baseURL string
}

// Option configures a Provider.
type Option func(*providerOptions)

type providerOptions struct {
	client *http.Client
}

// WithHTTPClient replaces the default client, which has a 120 s timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *providerOptions) { o.client = client }
}

// NewProvider creates a new Ollama provider. Empty arguments take the defaults.
func NewProvider(baseURL, model string, opts ...Option) *Provider {
	o := providerOptions{client: httputil.NewHTTPClient(ollamaHTTPTimeout)}
	for _, opt := range opts {
		opt(&o)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Provider{
		BaseProvider: providers.NewBaseProvider(string(providers.KindOllama), o.client),
		model:        model,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// Model returns the configured model.
func (p *Provider) Model() string {
	return p.model
}

// BaseURL returns the server address.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate runs one non-streaming completion. req.Model overrides the configured model.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest) (string, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}
	if req.Operation == providers.OperationSingle {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, singleTimeout)
		defer cancel()
	}

	body, err := p.MakeJSONRequest(ctx, p.baseURL+generatePath, generateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}, nil)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := providers.DecodeJSON(p.ID(), body, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Available probes the tags endpoint with a 2 s timeout.
func (p *Provider) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	_, err := p.MakeRawRequest(ctx, http.MethodGet, p.baseURL+tagsPath, nil, nil)
	return err == nil
}

// ListModels returns the names of installed models.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, listModelsTimeout)
	defer cancel()

	body, err := p.MakeRawRequest(ctx, http.MethodGet, p.baseURL+tagsPath, nil, nil)
	if err != nil {
		return nil, err
	}
	var tags tagsResponse
	if err := providers.DecodeJSON(p.ID(), body, &tags); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

var (
	_ providers.Provider    = (*Provider)(nil)
	_ providers.ModelLister = (*Provider)(nil)
)
