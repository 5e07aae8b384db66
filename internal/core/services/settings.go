package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys that need special handling.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedDims     = "embedding.dimensions"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
	keyAPIKeyPrefix  = "api_keys."
)

// Environment variables consulted when the config leaves a value empty.
const (
	EnvMongoURI      = "MONGODB_URI"
	EnvMongoDatabase = "MONGODB_DATABASE"
	EnvRedisAddr     = "LEXRAG_REDIS_ADDR"
)

const defaultOllamaURL = "http://localhost:11434"

// settingField binds a dotted config key to a field of AppSettings.
type settingField struct {
	key    string
	secret bool
	get    func(s *domain.AppSettings) any
	parse  func(s *domain.AppSettings, raw string) error
}

// settingFields lists every persisted setting in display order.
var settingFields = []settingField{
	strField(keyEmbedProvider, func(s *domain.AppSettings) *string { return (*string)(&s.Embedding.Provider) }),
	strField(keyEmbedModel, func(s *domain.AppSettings) *string { return &s.Embedding.Model }),
	strField(keyEmbedBaseURL, func(s *domain.AppSettings) *string { return &s.Embedding.BaseURL }),
	secretField(keyEmbedAPIKey, func(s *domain.AppSettings) *string { return &s.Embedding.APIKey }),
	intField(keyEmbedDims, func(s *domain.AppSettings) *int { return &s.Embedding.Dimensions }),

	strField(keyLLMProvider, func(s *domain.AppSettings) *string { return (*string)(&s.LLM.Provider) }),
	strField(keyLLMModel, func(s *domain.AppSettings) *string { return &s.LLM.Model }),
	strField(keyLLMBaseURL, func(s *domain.AppSettings) *string { return &s.LLM.BaseURL }),
	secretField(keyLLMAPIKey, func(s *domain.AppSettings) *string { return &s.LLM.APIKey }),
	floatField("llm.temperature", func(s *domain.AppSettings) *float64 { return &s.LLM.Temperature }),
	intField("llm.max_tokens", func(s *domain.AppSettings) *int { return &s.LLM.MaxTokens }),

	intField("chunking.max_chunk_size", func(s *domain.AppSettings) *int { return &s.Chunking.MaxChunkSize }),
	intField("chunking.min_chunk_size", func(s *domain.AppSettings) *int { return &s.Chunking.MinChunkSize }),
	intField("chunking.chunk_size", func(s *domain.AppSettings) *int { return &s.Chunking.ChunkSize }),
	intField("chunking.overlap", func(s *domain.AppSettings) *int { return &s.Chunking.Overlap }),

	strField("storage.backend", func(s *domain.AppSettings) *string { return (*string)(&s.Storage.Backend) }),
	secretField("storage.mongo_uri", func(s *domain.AppSettings) *string { return &s.Storage.MongoURI }),
	strField("storage.database", func(s *domain.AppSettings) *string { return &s.Storage.Database }),
	strField("storage.documents_collection", func(s *domain.AppSettings) *string { return &s.Storage.DocumentsCollection }),
	strField("storage.vectors_collection", func(s *domain.AppSettings) *string { return &s.Storage.VectorsCollection }),
	strField("storage.vector_index", func(s *domain.AppSettings) *string { return &s.Storage.VectorIndex }),

	intField("retrieval.top_k", func(s *domain.AppSettings) *int { return &s.Retrieval.TopK }),
	strField("retrieval.mode", func(s *domain.AppSettings) *string { return (*string)(&s.Retrieval.Mode) }),

	intField("resilience.requests_per_minute", func(s *domain.AppSettings) *int { return &s.Resilience.RequestsPerMinute }),
	intField("resilience.batch_size", func(s *domain.AppSettings) *int { return &s.Resilience.BatchSize }),
	intField("resilience.max_failures", func(s *domain.AppSettings) *int { return &s.Resilience.MaxFailures }),
	durationField("resilience.breaker_timeout", func(s *domain.AppSettings) *time.Duration { return &s.Resilience.BreakerTimeout }),
	boolField("resilience.cache_embeddings", func(s *domain.AppSettings) *bool { return &s.Resilience.CacheEmbeddings }),

	strField("queue.redis_addr", func(s *domain.AppSettings) *string { return &s.Queue.RedisAddr }),
	intField("queue.concurrency", func(s *domain.AppSettings) *int { return &s.Queue.Concurrency }),

	strField("scraper.base_url", func(s *domain.AppSettings) *string { return &s.Scraper.BaseURL }),
	durationField("scraper.delay", func(s *domain.AppSettings) *time.Duration { return &s.Scraper.Delay }),
	intField("scraper.days", func(s *domain.AppSettings) *int { return &s.Scraper.Days }),
	intField("scraper.max_documents", func(s *domain.AppSettings) *int { return &s.Scraper.MaxDocuments }),
	strField("scraper.schedule", func(s *domain.AppSettings) *string { return &s.Scraper.Schedule }),
	strField("scraper.user_agent", func(s *domain.AppSettings) *string { return &s.Scraper.UserAgent }),

	intField("ingest.workers", func(s *domain.AppSettings) *int { return &s.Ingest.Workers }),
}

func strField(key string, ptr func(*domain.AppSettings) *string) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return *ptr(s) },
		parse: func(s *domain.AppSettings, raw string) error {
			*ptr(s) = strings.TrimSpace(raw)
			return nil
		},
	}
}

func secretField(key string, ptr func(*domain.AppSettings) *string) settingField {
	f := strField(key, ptr)
	f.secret = true
	return f
}

func intField(key string, ptr func(*domain.AppSettings) *int) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return *ptr(s) },
		parse: func(s *domain.AppSettings, raw string) error {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("%w: %s expects an integer, got %q", domain.ErrInvalidInput, key, raw)
			}
			*ptr(s) = n
			return nil
		},
	}
}

func floatField(key string, ptr func(*domain.AppSettings) *float64) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return *ptr(s) },
		parse: func(s *domain.AppSettings, raw string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("%w: %s expects a number, got %q", domain.ErrInvalidInput, key, raw)
			}
			*ptr(s) = f
			return nil
		},
	}
}

func boolField(key string, ptr func(*domain.AppSettings) *bool) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return *ptr(s) },
		parse: func(s *domain.AppSettings, raw string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("%w: %s expects true or false, got %q", domain.ErrInvalidInput, key, raw)
			}
			*ptr(s) = b
			return nil
		},
	}
}

func durationField(key string, ptr func(*domain.AppSettings) *time.Duration) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return ptr(s).String() },
		parse: func(s *domain.AppSettings, raw string) error {
			d, err := time.ParseDuration(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("%w: %s expects a duration such as 30s, got %q", domain.ErrInvalidInput, key, raw)
			}
			*ptr(s) = d
			return nil
		},
	}
}

func findField(key string) (settingField, bool) {
	for _, f := range settingFields {
		if f.key == key {
			return f, true
		}
	}
	return settingField{}, false
}

// SettingKeys returns every key accepted by Set, in display order.
func SettingKeys() []string {
	keys := make([]string, len(settingFields))
	for i, f := range settingFields {
		keys[i] = f.key
	}
	return keys
}

// SettingEntry is one key/value pair for display. Secrets are masked.
type SettingEntry struct {
	Key   string
	Value string
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// WithEnv replaces the environment lookup, mostly for tests.
func (s *SettingsService) WithEnv(getenv func(string) string) *SettingsService {
	s.getenv = getenv
	return s
}

// Get retrieves current application settings: defaults, then the config
// file, then environment variables for values the file leaves empty.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for _, f := range settingFields {
		val, ok := s.configStore.Get(f.key)
		if !ok {
			continue
		}
		raw := fmt.Sprint(val)
		if raw == "" {
			continue
		}
		// Unparseable values keep their default
		_ = f.parse(&settings, raw)
	}

	if !settings.Embedding.Provider.IsValid() {
		settings.Embedding.Provider = domain.DefaultAppSettings().Embedding.Provider
	}
	if !settings.LLM.Provider.IsValid() {
		settings.LLM.Provider = domain.DefaultAppSettings().LLM.Provider
	}
	if !settings.Retrieval.Mode.IsValid() {
		settings.Retrieval.Mode = domain.DefaultAppSettings().Retrieval.Mode
	}

	s.applyOverrides(&settings)
	return &settings, nil
}

// applyOverrides fills empty secrets from per-provider keys and the environment.
func (s *SettingsService) applyOverrides(settings *domain.AppSettings) {
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerKey(settings.LLM.Provider)
	}
	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = defaultOllamaURL
	}
	if settings.LLM.Provider.IsLocal() && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = defaultOllamaURL
	}
	if settings.Storage.MongoURI == "" {
		settings.Storage.MongoURI = s.getenv(EnvMongoURI)
	}
	if v := s.getenv(EnvMongoDatabase); v != "" && !s.isSet("storage.database") {
		settings.Storage.Database = v
	}
	if settings.Queue.RedisAddr == "" {
		settings.Queue.RedisAddr = s.getenv(EnvRedisAddr)
	}
}

func (s *SettingsService) providerKey(p domain.AIProvider) string {
	if key := s.configStore.GetString(keyAPIKeyPrefix + p.String()); key != "" {
		return key
	}
	if env := p.APIKeyEnv(); env != "" {
		return s.getenv(env)
	}
	return ""
}

func (s *SettingsService) isSet(key string) bool {
	_, ok := s.configStore.Get(key)
	return ok
}

// Save persists application settings. API keys that came from the
// environment are not written back.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, f := range settingFields {
		val := f.get(settings)
		if f.secret {
			str, _ := val.(string)
			if str == "" || s.fromEnvironment(f.key, str, settings) {
				continue
			}
		}
		if err := s.configStore.Set(f.key, val); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// fromEnvironment reports whether a secret value was resolved from a
// per-provider key or the environment rather than its own key.
func (s *SettingsService) fromEnvironment(key, value string, settings *domain.AppSettings) bool {
	if s.configStore.GetString(key) == value {
		return false
	}
	switch key {
	case keyEmbedAPIKey:
		return value == s.providerKey(settings.Embedding.Provider)
	case keyLLMAPIKey:
		return value == s.providerKey(settings.LLM.Provider)
	case "storage.mongo_uri":
		return value == s.getenv(EnvMongoURI)
	default:
		return false
	}
}

// Set updates one setting by dotted key and persists it. Changing the
// embedding provider or model resets the vector dimensions to the
// model's known size.
func (s *SettingsService) Set(key, value string) error {
	if strings.HasPrefix(key, keyAPIKeyPrefix) {
		provider := domain.AIProvider(strings.TrimPrefix(key, keyAPIKeyPrefix))
		return s.SetAPIKey(provider, value)
	}

	f, ok := findField(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := f.parse(settings, value); err != nil {
		return err
	}

	switch key {
	case keyEmbedProvider:
		if err := s.switchEmbeddingProvider(settings); err != nil {
			return err
		}
	case keyEmbedModel:
		resetDimensions(&settings.Embedding)
	case keyLLMProvider:
		if err := s.switchLLMProvider(settings); err != nil {
			return err
		}
	}

	if err := validateSettings(settings); err != nil {
		return err
	}

	changed := []string{key}
	switch key {
	case keyEmbedProvider:
		changed = append(changed, keyEmbedModel, keyEmbedBaseURL, keyEmbedDims)
	case keyEmbedModel:
		changed = append(changed, keyEmbedDims)
	case keyLLMProvider:
		changed = append(changed, keyLLMModel, keyLLMBaseURL)
	}
	for _, k := range changed {
		field, _ := findField(k)
		if err := s.configStore.Set(k, field.get(settings)); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return nil
}

func (s *SettingsService) switchEmbeddingProvider(settings *domain.AppSettings) error {
	p := settings.Embedding.Provider
	if !isEmbeddingProvider(p) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, p)
	}
	settings.Embedding.Model = domain.DefaultEmbeddingModels()[p]
	settings.Embedding.BaseURL = baseURLFor(p, settings.Embedding.BaseURL)
	resetDimensions(&settings.Embedding)
	return nil
}

func (s *SettingsService) switchLLMProvider(settings *domain.AppSettings) error {
	p := settings.LLM.Provider
	if !p.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider %q", domain.ErrInvalidInput, p)
	}
	settings.LLM.Model = domain.DefaultLLMModels()[p]
	settings.LLM.BaseURL = baseURLFor(p, settings.LLM.BaseURL)
	return nil
}

// baseURLFor keeps a custom URL for local providers and clears it for cloud ones.
func baseURLFor(p domain.AIProvider, current string) string {
	if !p.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// resetDimensions sets the dimensions of a known model, or clears them
// so the adapter reports its own.
func resetDimensions(e *domain.EmbeddingSettings) {
	e.Dimensions = domain.EmbeddingDimensions()[e.Model]
}

func isEmbeddingProvider(p domain.AIProvider) bool {
	for _, valid := range domain.AllEmbeddingProviders() {
		if valid == p {
			return true
		}
	}
	return false
}

// SetAPIKey stores the API key of a provider. It applies to whichever of
// the embedding and LLM settings use that provider.
func (s *SettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid provider %q", domain.ErrInvalidInput, provider)
	}
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: provider %s does not use an API key", domain.ErrInvalidInput, provider)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}
	if err := s.configStore.Set(keyAPIKeyPrefix+provider.String(), apiKey); err != nil {
		return fmt.Errorf("save %s API key: %w", provider, err)
	}
	return nil
}

// Entries returns every setting for display with secrets masked, followed
// by stored provider keys.
func (s *SettingsService) Entries() ([]SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	entries := make([]SettingEntry, 0, len(settingFields)+3)
	for _, f := range settingFields {
		val := fmt.Sprint(f.get(settings))
		if f.secret {
			val = MaskSecret(val)
		}
		entries = append(entries, SettingEntry{Key: f.key, Value: val})
	}

	for _, k := range s.configStore.Keys() {
		if !strings.HasPrefix(k, keyAPIKeyPrefix) {
			continue
		}
		if key := s.configStore.GetString(k); key != "" {
			entries = append(entries, SettingEntry{Key: k, Value: MaskSecret(key)})
		}
	}
	return entries, nil
}

// MaskSecret keeps the last four characters of a secret.
func MaskSecret(v string) string {
	switch {
	case v == "":
		return ""
	case len(v) <= 4:
		return "****"
	default:
		return "****" + v[len(v)-4:]
	}
}

// Validate checks settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return validateSettings(settings)
}

func validateSettings(settings *domain.AppSettings) error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
	}

	if !isEmbeddingProvider(settings.Embedding.Provider) {
		invalid("provider %s does not support embeddings", settings.Embedding.Provider)
	}
	if !settings.LLM.Provider.IsValid() {
		invalid("invalid LLM provider %q", settings.LLM.Provider)
	}
	if settings.Embedding.Dimensions < 0 {
		invalid("embedding dimensions must not be negative")
	}
	if settings.LLM.Temperature < 0 || settings.LLM.Temperature > 2 {
		invalid("llm temperature must be between 0 and 2")
	}

	c := settings.Chunking
	if c.MaxChunkSize <= 0 {
		invalid("chunking.max_chunk_size must be positive")
	}
	if c.MinChunkSize < 0 || c.MinChunkSize > c.MaxChunkSize {
		invalid("chunking.min_chunk_size must be between 0 and max_chunk_size")
	}
	if c.ChunkSize <= 0 {
		invalid("chunking.chunk_size must be positive")
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		invalid("chunking.overlap must be smaller than chunk_size")
	}

	if !settings.Storage.Backend.IsValid() {
		invalid("unknown storage backend %q", settings.Storage.Backend)
	}
	if settings.Retrieval.TopK <= 0 {
		invalid("retrieval.top_k must be positive")
	}
	if !settings.Retrieval.Mode.IsValid() {
		invalid("invalid search mode %q", settings.Retrieval.Mode)
	}
	if settings.Resilience.BatchSize <= 0 {
		invalid("resilience.batch_size must be positive")
	}
	if settings.Ingest.Workers <= 0 {
		invalid("ingest.workers must be positive")
	}
	if settings.Scraper.Days <= 0 {
		invalid("scraper.days must be positive")
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}
