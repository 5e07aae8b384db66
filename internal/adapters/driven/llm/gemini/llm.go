// Package gemini provides an LLM service adapter for Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default generation parameters.
const (
	DefaultModel       = "gemini-1.5-pro"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2048
	DefaultTopP        = 0.95
	DefaultTopK        = 40
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the generative model (default: gemini-1.5-pro).
	Model string

	// Temperature and MaxTokens apply when a call leaves them zero.
	Temperature float64
	MaxTokens   int
}

// LLMService generates text with the Gemini API.
type LLMService struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewLLMService creates a Gemini client.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required: %w", domain.ErrInvalidInput)
	}
	cfg = cfg.withDefaults()

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &LLMService{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// generativeModel returns a fresh handle configured for one call.
func (s *LLMService) generativeModel(maxTokens int, temperature float64, system string, stop []string) *genai.GenerativeModel {
	m := s.client.GenerativeModel(s.model)
	m.GenerationConfig = generationConfig(s.maxTokens, s.temperature, maxTokens, temperature, stop)
	if system != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return m
}

func generationConfig(defMax int, defTemp float64, maxTokens int, temperature float64, stop []string) genai.GenerationConfig {
	if maxTokens <= 0 {
		maxTokens = defMax
	}
	if temperature <= 0 {
		temperature = defTemp
	}
	var cfg genai.GenerationConfig
	cfg.SetTemperature(float32(temperature))
	cfg.SetMaxOutputTokens(int32(maxTokens)) //nolint:gosec // bounded by settings
	cfg.SetTopP(DefaultTopP)
	cfg.SetTopK(DefaultTopK)
	cfg.StopSequences = stop
	return cfg
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("gemini: empty prompt: %w", domain.ErrInvalidInput)
	}
	m := s.generativeModel(opts.MaxTokens, opts.Temperature, opts.SystemPrompt, opts.StopWords)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", mapError(err)
	}
	return responseText(resp)
}

// Chat replays history into a chat session and sends the last user message.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var system []string
	var turns []driven.ChatMessage
	for _, msg := range messages {
		if msg.Role == driven.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != driven.RoleUser {
		return "", fmt.Errorf("gemini: chat must end with a user message: %w", domain.ErrInvalidInput)
	}

	m := s.generativeModel(opts.MaxTokens, opts.Temperature, strings.Join(system, "\n\n"), nil)
	cs := m.StartChat()
	cs.History = toHistory(turns[:len(turns)-1])

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", mapError(err)
	}
	return responseText(resp)
}

func toHistory(turns []driven.ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == driven.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}
	return history
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: no candidates returned")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: empty response")
	}
	return b.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches model info, which validates the key without inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.GenerativeModel(s.model).Info(ctx); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", mapError(err))
	}
	return nil
}

// Close releases the underlying client.
func (s *LLMService) Close() error {
	return s.client.Close()
}

func mapError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("gemini: %w", err)
	}
	switch gerr.Code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("gemini: %w: %w", domain.ErrRateLimited, err)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusInternalServerError:
		return fmt.Errorf("gemini: %w: %w", domain.ErrLLMUnavailable, err)
	default:
		return fmt.Errorf("gemini: %w", err)
	}
}
