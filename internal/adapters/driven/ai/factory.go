// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	embedcache "github.com/custodia-labs/lexrag/internal/adapters/driven/embedding/cache"
	geminiembed "github.com/custodia-labs/lexrag/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/lexrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/lexrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/lexrag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/lexrag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/lexrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/lexrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/resilient"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var log = logger.With("ai")

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CacheFileName is the embedding cache file inside the data directory.
const CacheFileName = "embeddings.db"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues that caused fallback.
	FellBack         bool     // True if fell back to text-only retrieval.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Initialise builds both services from settings, wrapping them with the
// resilient decorators and the embedding cache. Unreachable providers are
// dropped with a warning so the caller can still run keyword search.
func Initialise(settings *domain.AppSettings, dataDir string) *InitResult {
	result := &InitResult{}

	embedding, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	case embedding == nil:
		result.FellBack = true
	default:
		result.EmbeddingService = wrapEmbedding(embedding, settings.Resilience, dataDir, &result.Warnings)
	}

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
	case llm != nil:
		result.LLMService = resilient.NewLLMService(llm,
			resilient.ConfigFrom(string(settings.LLM.Provider)+"-llm", settings.Resilience))
	}

	for _, w := range result.Warnings {
		log.Warn("%s", w)
	}
	return result
}

func wrapEmbedding(
	svc driven.EmbeddingService,
	res domain.ResilienceSettings,
	dataDir string,
	warnings *[]string,
) driven.EmbeddingService {
	wrapped := driven.EmbeddingService(resilient.NewEmbeddingService(svc,
		resilient.ConfigFrom(svc.ModelName(), res)))

	if !res.CacheEmbeddings || dataDir == "" {
		return wrapped
	}
	cached, err := embedcache.New(wrapped, filepath.Join(dataDir, CacheFileName))
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("embedding cache disabled: %v", err))
		return wrapped
	}
	return cached
}

// service is what both AI ports share for validation.
type service interface {
	Ping(ctx context.Context) error
	Close() error
}

func ping(svc service) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// createAndPing builds a service and keeps it only when it answers a ping.
// A nil service with a nil error means the provider is not configured.
func createAndPing[S service](
	create func() (S, error), unavailable error, provider domain.AIProvider,
) (S, error) {
	var none S
	svc, err := create()
	if err != nil {
		return none, fmt.Errorf("%w: %w. Run 'lexrag settings set-key %s' to fix", unavailable, err, provider)
	}
	if any(svc) == nil {
		return none, nil
	}
	if err := ping(svc); err != nil {
		_ = svc.Close()
		return none, fmt.Errorf("%w: service unreachable (%w)", unavailable, err)
	}
	return svc, nil
}

// createAndClose pings a throwaway service, for validating settings
// before they are saved.
func createAndClose[S service](create func() (S, error)) error {
	svc, err := create()
	if err != nil || any(svc) == nil {
		return err
	}
	defer svc.Close()
	return ping(svc)
}

// CreateAndValidateEmbeddingService creates an embedding service that
// answered a ping. Unconfigured settings give nil, nil.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	return createAndPing(func() (driven.EmbeddingService, error) { return CreateEmbeddingService(settings) },
		domain.ErrEmbeddingUnavailable, settings.Provider)
}

// CreateAndValidateLLMService creates an LLM service that answered a ping.
// Unconfigured settings give nil, nil.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	return createAndPing(func() (driven.LLMService, error) { return CreateLLMService(settings) },
		domain.ErrLLMUnavailable, settings.Provider)
}

// ValidateEmbeddingConfig reports whether the settings reach a working
// service. Unconfigured settings are valid.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	return createAndClose(func() (driven.EmbeddingService, error) { return CreateEmbeddingService(settings) })
}

// ValidateLLMConfig reports whether the settings reach a working service.
// Unconfigured settings are valid.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	return createAndClose(func() (driven.LLMService, error) { return CreateLLMService(settings) })
}

func asEmbedding[T driven.EmbeddingService](svc T, err error) (driven.EmbeddingService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func asLLM[T driven.LLMService](svc T, err error) (driven.LLMService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errors.New("anthropic does not support embeddings, use gemini, ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return asEmbedding(geminiembed.NewEmbeddingService(context.Background(), geminiembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}))
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil
	case domain.AIProviderOpenAI:
		return asEmbedding(openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}))
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return asLLM(geminillm.NewLLMService(context.Background(), geminillm.Config{
			APIKey:      settings.APIKey,
			Model:       settings.Model,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		}))
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		}), nil
	case domain.AIProviderOpenAI:
		return asLLM(openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:      settings.APIKey,
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		}))
	case domain.AIProviderAnthropic:
		return asLLM(anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:      settings.APIKey,
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		}))
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
