// Package anthropic answers questions through the Anthropic Messages API.
package anthropic

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL     = "https://api.anthropic.com"
	DefaultModel       = "claude-3-5-sonnet-latest"
	DefaultTimeout     = 120 * time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2048

	anthropicVersion = "2023-06-01"
)

// Config configures the service. Only APIKey is required.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64 // used when a call passes 0
	MaxTokens   int     // used when a call passes 0
}

// LLMService calls /v1/messages. The API takes the system prompt as a
// top-level field rather than a message.
type LLMService struct {
	api         *httpapi.Client
	model       string
	temperature float64
	maxTokens   int
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewLLMService creates the service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required: %w", domain.ErrInvalidInput)
	}

	return &LLMService{
		api: httpapi.New("anthropic", cmp.Or(cfg.BaseURL, DefaultBaseURL), cmp.Or(cfg.Timeout, DefaultTimeout),
			domain.ErrLLMUnavailable,
			httpapi.WithHeader("x-api-key", cfg.APIKey),
			httpapi.WithHeader("anthropic-version", anthropicVersion)),
		model:       cmp.Or(cfg.Model, DefaultModel),
		temperature: cmp.Or(cfg.Temperature, DefaultTemperature),
		maxTokens:   cmp.Or(cfg.MaxTokens, DefaultMaxTokens),
	}, nil
}

// Generate sends a single user turn.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.send(ctx, messagesRequest{
		Messages:    []messagesMessage{{Role: driven.RoleUser, Content: prompt}},
		System:      opts.SystemPrompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopWords,
	})
}

// Chat joins system messages into the system field, separated by blank
// lines, and sends the rest in order.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var system []string
	var turns []messagesMessage
	for _, msg := range messages {
		if msg.Role == driven.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, messagesMessage(msg))
	}
	return s.send(ctx, messagesRequest{
		Messages:    turns,
		System:      strings.Join(system, "\n\n"),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
}

func (s *LLMService) send(ctx context.Context, req messagesRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("anthropic: no messages: %w", domain.ErrInvalidInput)
	}
	req.Model = s.model
	req.MaxTokens = cmp.Or(req.MaxTokens, s.maxTokens)
	req.Temperature = cmp.Or(req.Temperature, s.temperature)

	var resp messagesResponse
	if err := s.api.Post(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("anthropic: no text content returned")
	}
	return text.String(), nil
}

// ModelName returns the model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/v1/models")
}

func (s *LLMService) Close() error { return nil }
