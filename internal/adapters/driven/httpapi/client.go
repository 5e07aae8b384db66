// Package httpapi is the JSON client behind the OpenAI, Anthropic and
// Ollama adapters. It owns status handling so every provider reports rate
// limits and outages as the same domain errors.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// StatusOverloaded is Anthropic's non-standard overload status.
const StatusOverloaded = 529

// maxErrorBody caps how much of an error body ends up in a message.
const maxErrorBody = 512

// Client posts JSON to one provider.
type Client struct {
	name    string
	baseURL string
	header  http.Header
	http    *http.Client

	// unavailable wraps transport failures and overload statuses,
	// ErrLLMUnavailable or ErrEmbeddingUnavailable.
	unavailable error
}

// Option configures a Client.
type Option func(*Client)

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithBearer authenticates with an Authorization bearer token.
func WithBearer(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// New creates a client for baseURL. name prefixes every error.
func New(name, baseURL string, timeout time.Duration, unavailable error, opts ...Option) *Client {
	c := &Client{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		header:      make(http.Header),
		http:        &http.Client{Timeout: timeout},
		unavailable: unavailable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Post sends in as JSON to path and decodes a 2xx response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.name, err)
	}
	body, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

// Ping issues a GET against a cheap endpoint such as a model listing.
func (c *Client) Ping(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodGet, path, http.NoBody)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.name, err)
	}
	req.Header = c.header.Clone()
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: send request: %w: %w", c.name, c.unavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.name, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, c.statusError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) statusError(code int, body []byte) error {
	msg := fmt.Sprintf("%s: status %d", c.name, code)
	if detail := ErrorMessage(body); detail != "" {
		msg += ": " + detail
	}

	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", msg, domain.ErrRateLimited)
	case http.StatusServiceUnavailable, StatusOverloaded:
		return fmt.Errorf("%s: %w", msg, c.unavailable)
	}
	return errors.New(msg)
}

// ErrorMessage pulls the message out of the error bodies the providers
// send: {"error":{"message":...}} for OpenAI and Anthropic,
// {"error":"..."} for Ollama. Other JSON gives ""; plain text is returned
// trimmed and capped.
func ErrorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}

	if json.Valid(body) {
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
