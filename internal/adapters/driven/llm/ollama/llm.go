// Package ollama answers questions with a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultLLMModel    = "llama3.2"
	DefaultLLMTimeout  = 300 * time.Second // local models are slow
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2048
)

// Nucleus and top-k sampling sent with every request.
const (
	topP = 0.95
	topK = 40
)

// LLMConfig configures the service. Nothing is required.
type LLMConfig struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64 // used when a call passes 0
	MaxTokens   int     // used when a call passes 0
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	api         *httpapi.Client
	model       string
	temperature float64
	maxTokens   int
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewLLMService creates the service.
func NewLLMService(cfg LLMConfig) *LLMService {
	return &LLMService{
		api: httpapi.New("ollama", cmp.Or(cfg.BaseURL, DefaultBaseURL),
			cmp.Or(cfg.Timeout, DefaultLLMTimeout), domain.ErrLLMUnavailable),
		model:       cmp.Or(cfg.Model, DefaultLLMModel),
		temperature: cmp.Or(cfg.Temperature, DefaultTemperature),
		maxTokens:   cmp.Or(cfg.MaxTokens, DefaultMaxTokens),
	}
}

// Generate goes through the chat endpoint, with the system prompt as a
// system message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var messages []chatMessage
	if opts.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: driven.RoleSystem, Content: opts.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: driven.RoleUser, Content: prompt})

	return s.chat(ctx, messages, options{
		NumPredict:  opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	})
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	turns := make([]chatMessage, len(messages))
	for i, m := range messages {
		turns[i] = chatMessage(m)
	}
	return s.chat(ctx, turns, options{NumPredict: opts.MaxTokens, Temperature: opts.Temperature})
}

func (s *LLMService) chat(ctx context.Context, messages []chatMessage, opts options) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("ollama: no messages: %w", domain.ErrInvalidInput)
	}
	opts.NumPredict = cmp.Or(opts.NumPredict, s.maxTokens)
	opts.Temperature = cmp.Or(opts.Temperature, s.temperature)
	opts.TopP, opts.TopK = topP, topK

	var resp chatResponse
	err := s.api.Post(ctx, "/api/chat", chatRequest{Model: s.model, Messages: messages, Options: opts}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	return resp.Message.Content, nil
}

// ModelName returns the chat model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists local models, which needs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/api/tags")
}

func (s *LLMService) Close() error { return nil }
