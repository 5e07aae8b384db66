package resilient

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

// LLMService decorates a language model adapter.
type LLMService struct {
	inner driven.LLMService
	guard *guard
}

// NewLLMService wraps inner with the given config. BatchSize is ignored.
func NewLLMService(inner driven.LLMService, cfg Config) *LLMService {
	cfg = cfg.withDefaults()
	return &LLMService{
		inner: inner,
		guard: newGuard(cfg, domain.ErrLLMUnavailable),
	}
}

// Generate produces a completion through the limiter and breaker.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	res, err := s.guard.do(ctx, "generate", func(ctx context.Context) (any, error) {
		return s.inner.Generate(ctx, prompt, opts)
	},
		attribute.String("ai.model", s.inner.ModelName()),
		attribute.Int("ai.prompt_length", len(prompt)),
		attribute.Int("ai.max_tokens", opts.MaxTokens),
	)
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// Chat conducts a conversation through the limiter and breaker.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	res, err := s.guard.do(ctx, "chat", func(ctx context.Context) (any, error) {
		return s.inner.Chat(ctx, messages, opts)
	},
		attribute.String("ai.model", s.inner.ModelName()),
		attribute.Int("ai.messages", len(messages)),
	)
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// ModelName returns the inner model name.
func (s *LLMService) ModelName() string {
	return s.inner.ModelName()
}

// Ping reports an open breaker before reaching the provider.
func (s *LLMService) Ping(ctx context.Context) error {
	if s.guard.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: circuit breaker open: %w", s.guard.name, domain.ErrLLMUnavailable)
	}
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *LLMService) Close() error {
	return s.inner.Close()
}
