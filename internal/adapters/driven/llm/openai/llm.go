// Package openai answers questions through the OpenAI chat completions API
// or any server that speaks it.
package openai

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultLLMModel    = "gpt-4o-mini"
	DefaultLLMTimeout  = 120 * time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2048
)

// LLMConfig configures the service. Only APIKey is required; BaseURL can
// point at Azure OpenAI or a compatible gateway.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64 // used when a call passes 0
	MaxTokens   int     // used when a call passes 0
}

// LLMService calls /chat/completions.
type LLMService struct {
	api         *httpapi.Client
	model       string
	temperature float64
	maxTokens   int
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
	Stop        []string            `json:"stop,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService creates the service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required: %w", domain.ErrInvalidInput)
	}
	cfg.BaseURL = cmp.Or(cfg.BaseURL, DefaultBaseURL)
	cfg.Model = cmp.Or(cfg.Model, DefaultLLMModel)

	return &LLMService{
		api: httpapi.New("openai", cfg.BaseURL, cmp.Or(cfg.Timeout, DefaultLLMTimeout),
			domain.ErrLLMUnavailable, httpapi.WithBearer(cfg.APIKey)),
		model:       cfg.Model,
		temperature: cmp.Or(cfg.Temperature, DefaultTemperature),
		maxTokens:   cmp.Or(cfg.MaxTokens, DefaultMaxTokens),
	}, nil
}

// Generate sends the system prompt, when set, as a leading system message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var messages []chatCompletionMsg
	if opts.SystemPrompt != "" {
		messages = append(messages, chatCompletionMsg{Role: driven.RoleSystem, Content: opts.SystemPrompt})
	}
	messages = append(messages, chatCompletionMsg{Role: driven.RoleUser, Content: prompt})

	return s.complete(ctx, chatCompletionRequest{
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	})
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	msgs := make([]chatCompletionMsg, len(messages))
	for i, m := range messages {
		msgs[i] = chatCompletionMsg(m)
	}
	return s.complete(ctx, chatCompletionRequest{
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
}

// complete fills the model and any zero sampling options from the service
// defaults.
func (s *LLMService) complete(ctx context.Context, req chatCompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("openai: no messages: %w", domain.ErrInvalidInput)
	}
	req.Model = s.model
	req.MaxTokens = cmp.Or(req.MaxTokens, s.maxTokens)
	req.Temperature = cmp.Or(req.Temperature, s.temperature)

	var resp chatCompletionResponse
	if err := s.api.Post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the chat model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

func (s *LLMService) Close() error { return nil }
