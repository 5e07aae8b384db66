package driving

import "github.com/custodia-labs/lexrag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment overrides applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates one setting by dotted key (e.g., "chunking.max_chunk_size").
	Set(key, value string) error

	// SetAPIKey stores the API key of a provider.
	SetAPIKey(provider domain.AIProvider, apiKey string) error

	// Validate checks settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
