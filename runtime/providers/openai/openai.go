// Package openai provides the hosted OpenAI chat completion provider.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/httputil"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers"
)

// Models used per operation.
const (
	ModelBatch  = "gpt-4.1"
	ModelSingle = "gpt-4o-mini"
)

// chatClient is the subset of *goopenai.Client the provider needs.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Provider implements providers.Provider for the OpenAI chat completion API.
// The model is fixed per operation; GenerateRequest.Model is not honoured.
type Provider struct {
	apiKey string
	client chatClient
	http   *http.Client
}

// Option configures a Provider.
type Option func(*goopenai.ClientConfig)

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *goopenai.ClientConfig) {
		if url != "" {
			c.BaseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *goopenai.ClientConfig) { c.HTTPClient = client }
}

// NewProvider creates an OpenAI provider. An empty apiKey yields a provider
// that reports unavailable and fails every call with ErrNotConfigured.
func NewProvider(apiKey string, opts ...Option) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.HTTPClient = httputil.NewHTTPClient(httputil.DefaultProviderTimeout)
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Provider{apiKey: apiKey, client: goopenai.NewClientWithConfig(cfg)}
	if hc, ok := cfg.HTTPClient.(*http.Client); ok {
		p.http = hc
	}
	return p
}

// ID returns the provider kind.
func (p *Provider) ID() string {
	return string(providers.KindOpenAI)
}

// Available reports whether an API key is configured.
func (p *Provider) Available(context.Context) bool {
	return p.apiKey != ""
}

// Close releases idle connections.
func (p *Provider) Close() error {
	if p.http != nil {
		p.http.CloseIdleConnections()
	}
	return nil
}

// ModelFor returns the model used for op.
func ModelFor(op providers.Operation) string {
	if op == providers.OperationSingle {
		return ModelSingle
	}
	return ModelBatch
}

// Generate sends a system and user message and returns the first choice's content.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest) (string, error) {
	if p.apiKey == "" {
		return "", &providers.ProviderError{Provider: p.ID(), Message: "OPENAI_API_KEY is not set", Cause: providers.ErrNotConfigured}
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       ModelFor(req.Operation),
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &providers.ProviderError{Provider: p.ID(), Message: "no choices in response"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *Provider) wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &providers.ProviderError{Provider: p.ID(), Message: "request aborted", Cause: err}
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &providers.ProviderError{Provider: p.ID(), StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &providers.ProviderError{Provider: p.ID(), StatusCode: reqErr.HTTPStatusCode, Message: "request failed", Cause: reqErr.Err}
	}
	return &providers.ProviderError{Provider: p.ID(), Message: "request failed", Cause: err}
}

var _ providers.Provider = (*Provider)(nil)
