package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
)

// BaseProvider provides the HTTP plumbing shared by JSON-over-HTTP providers.
// It should be embedded in concrete provider structs.
type BaseProvider struct {
	id     string
	client *http.Client
}

// NewBaseProvider creates a new BaseProvider.
func NewBaseProvider(id string, client *http.Client) BaseProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return BaseProvider{
		id:     id,
		client: client,
	}
}

// ID returns the provider ID
func (b *BaseProvider) ID() string {
	return b.id
}

// Close closes the HTTP client's idle connections
func (b *BaseProvider) Close() error {
	if b.client != nil {
		b.client.CloseIdleConnections()
	}
	return nil
}

// GetHTTPClient returns the underlying HTTP client for provider-specific use
func (b *BaseProvider) GetHTTPClient() *http.Client {
	return b.client
}

// RequestHeaders is a map of HTTP header key-value pairs
type RequestHeaders map[string]string

// MakeJSONRequest POSTs request as JSON and returns the response body.
func (b *BaseProvider) MakeJSONRequest(ctx context.Context, url string, request any, headers RequestHeaders) ([]byte, error) {
	reqBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return b.MakeRawRequest(ctx, http.MethodPost, url, reqBytes, headers)
}

// MakeRawRequest performs an HTTP request and returns the body of a 200 response.
// Connection refusal maps to ErrProviderNotRunning; other statuses to *ProviderError.
func (b *BaseProvider) MakeRawRequest(
	ctx context.Context,
	method, url string,
	body []byte,
	headers RequestHeaders,
) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	var logBody any
	if body != nil {
		logBody = json.RawMessage(body)
	}
	logger.APIRequest(ctx, b.id, method, url, headers, logBody)

	resp, err := b.client.Do(req)
	if err != nil {
		logger.APIResponse(ctx, b.id, 0, "", err)
		return nil, b.transportError(err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: b.id, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	logger.APIResponse(ctx, b.id, resp.StatusCode, string(respBytes), nil)

	if err := CheckHTTPError(b.id, resp.StatusCode, respBytes); err != nil {
		return nil, err
	}
	return respBytes, nil
}

func (b *BaseProvider) transportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: b.id, Message: "request aborted", Cause: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &ProviderError{Provider: b.id, Cause: ErrProviderNotRunning}
	}
	return &ProviderError{Provider: b.id, Message: "request failed", Cause: err}
}

// CheckHTTPError returns a *ProviderError for any non-200 status.
// A JSON body of the form {"error": "..."} supplies the message.
func CheckHTTPError(provider string, status int, body []byte) error {
	if status == http.StatusOK {
		return nil
	}
	msg := string(body)
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		msg = errResp.Error
	}
	return &ProviderError{Provider: provider, StatusCode: status, Message: msg}
}

// DecodeJSON unmarshals a provider response, reporting malformed bodies as *ProviderError.
func DecodeJSON(provider string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &ProviderError{Provider: provider, Message: "malformed response", Cause: err}
	}
	return nil
}
