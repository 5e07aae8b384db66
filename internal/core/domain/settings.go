package domain

import (
	"slices"
	"time"
)

const unknownDescription = "Unknown"

// SearchMode defines how retrieval combines vector and keyword search.
type SearchMode string

// Available search modes.
const (
	SearchModeVector SearchMode = "vector" // embedding similarity only
	SearchModeText   SearchMode = "text"   // full-text only
	SearchModeHybrid SearchMode = "hybrid" // rank fusion of both
)

var searchModes = map[SearchMode]string{
	SearchModeVector: "Vector (semantic similarity)",
	SearchModeText:   "Text (keyword search)",
	SearchModeHybrid: "Hybrid (vector + keyword, rank fusion)",
}

// IsValid reports whether m is a known mode.
func (m SearchMode) IsValid() bool {
	_, ok := searchModes[m]
	return ok
}

// RequiresEmbedding reports whether the mode embeds the query.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeVector || m == SearchModeHybrid
}

func (m SearchMode) String() string { return string(m) }

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	if d, ok := searchModes[m]; ok {
		return d
	}
	return unknownDescription
}

// AllSearchModes returns the modes in menu order.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeVector, SearchModeText, SearchModeHybrid}
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	AIProviderGemini    AIProvider = "gemini"
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

// providerInfo describes a provider. An empty keyEnv means it runs locally
// without a key.
type providerInfo struct {
	description string
	keyEnv      string
	embeds      bool
}

var providers = map[AIProvider]providerInfo{
	AIProviderGemini:    {"Google Gemini (cloud)", "GEMINI_API_KEY", true},
	AIProviderOllama:    {"Ollama (local)", "", true},
	AIProviderOpenAI:    {"OpenAI (cloud)", "OPENAI_API_KEY", true},
	AIProviderAnthropic: {"Anthropic (cloud)", "ANTHROPIC_API_KEY", false},
}

// providerOrder is the order providers are offered in.
var providerOrder = []AIProvider{AIProviderGemini, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}

// IsValid reports whether p is a known provider.
func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// RequiresAPIKey reports whether the provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool { return p.APIKeyEnv() != "" }

// IsLocal reports whether the provider runs on this machine.
func (p AIProvider) IsLocal() bool { return p.IsValid() && !p.RequiresAPIKey() }

// SupportsEmbeddings reports whether the provider has an embedding API.
func (p AIProvider) SupportsEmbeddings() bool { return providers[p].embeds }

func (p AIProvider) String() string { return string(p) }

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	if info, ok := providers[p]; ok {
		return info.description
	}
	return unknownDescription
}

// APIKeyEnv returns the environment variable holding the provider's key.
func (p AIProvider) APIKeyEnv() string { return providers[p].keyEnv }

// EmbeddingSettings holds embedding provider configuration. BaseURL is only
// read for Ollama and APIKey only for cloud providers.
type EmbeddingSettings struct {
	Provider   AIProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// IsConfigured reports whether the provider embeds and has its key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbeddings() && hasKey(e.Provider, e.APIKey)
}

// LLMSettings holds LLM provider configuration. Temperature and MaxTokens
// are the defaults for requests that leave them unset.
type LLMSettings struct {
	Provider    AIProvider
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// IsConfigured reports whether the provider is known and has its key.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && hasKey(l.Provider, l.APIKey)
}

func hasKey(p AIProvider, key string) bool {
	return !p.RequiresAPIKey() || key != ""
}

// ChunkingSettings holds chunk size policy.
type ChunkingSettings struct {
	// MaxChunkSize bounds multi-article chunks, in characters.
	MaxChunkSize int

	// MinChunkSize is the shortest preamble worth keeping.
	MinChunkSize int

	// ChunkSize is the window of the plain character chunker.
	ChunkSize int

	// Overlap is the overlap of the plain character chunker.
	Overlap int
}

// StorageBackend selects the persistence adapter.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite StorageBackend = "sqlite"
	StorageMongo  StorageBackend = "mongo"
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageMongo || b == StorageMemory
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// Backend selects sqlite, mongo or memory.
	Backend StorageBackend

	// MongoURI is the MongoDB connection string.
	MongoURI string

	// Database is the MongoDB database name.
	Database string

	// DocumentsCollection holds documents in MongoDB.
	DocumentsCollection string

	// VectorsCollection holds chunks and embeddings in MongoDB.
	VectorsCollection string

	// VectorIndex is the Atlas vector search index name.
	VectorIndex string
}

// RetrievalSettings holds search defaults.
type RetrievalSettings struct {
	// TopK is the default number of contexts retrieved.
	TopK int

	// Mode is the default search mode.
	Mode SearchMode
}

// ResilienceSettings governs calls to remote AI providers.
type ResilienceSettings struct {
	// RequestsPerMinute caps embedding requests. Zero disables limiting.
	RequestsPerMinute int

	// BatchSize is the number of texts sent per embedding batch.
	BatchSize int

	// MaxFailures trips the circuit breaker after consecutive failures.
	MaxFailures int

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration

	// CacheEmbeddings enables the on-disk embedding cache.
	CacheEmbeddings bool
}

// QueueSettings holds background queue configuration.
type QueueSettings struct {
	// RedisAddr is the Redis address used by the task queue.
	RedisAddr string

	// Concurrency is the number of worker goroutines.
	Concurrency int
}

// IsConfigured returns true if a queue backend is configured.
func (q QueueSettings) IsConfigured() bool {
	return q.RedisAddr != ""
}

// ScraperSettings holds Diário da República scraper configuration.
type ScraperSettings struct {
	// BaseURL is the site root.
	BaseURL string

	// Delay is the pause between requests.
	Delay time.Duration

	// Days is how many past days a scrape covers.
	Days int

	// MaxDocuments caps documents per scrape.
	MaxDocuments int

	// Schedule is the cron expression for the periodic scrape.
	Schedule string

	// UserAgent identifies the scraper.
	UserAgent string
}

// IngestSettings holds ingestion concurrency.
type IngestSettings struct {
	// Workers bounds concurrent document ingestion.
	Workers int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Chunking   ChunkingSettings
	Storage    StorageSettings
	Retrieval  RetrievalSettings
	Resilience ResilienceSettings
	Queue      QueueSettings
	Scraper    ScraperSettings
	Ingest     IngestSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty and come from the config file or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderGemini,
			Model:      DefaultEmbeddingModels()[AIProviderGemini],
			Dimensions: 3072,
		},
		LLM: LLMSettings{
			Provider:    AIProviderGemini,
			Model:       DefaultLLMModels()[AIProviderGemini],
			Temperature: 0.3,
			MaxTokens:   2048,
		},
		Chunking: ChunkingSettings{
			MaxChunkSize: 1000,
			MinChunkSize: 200,
			ChunkSize:    1000,
			Overlap:      200,
		},
		Storage: StorageSettings{
			Backend:             StorageSQLite,
			Database:            "legal_assistant",
			DocumentsCollection: "documents",
			VectorsCollection:   "vectors",
			VectorIndex:         "vector_index",
		},
		Retrieval: RetrievalSettings{
			TopK: 5,
			Mode: SearchModeHybrid,
		},
		Resilience: ResilienceSettings{
			RequestsPerMinute: 60,
			BatchSize:         5,
			MaxFailures:       5,
			BreakerTimeout:    30 * time.Second,
			CacheEmbeddings:   true,
		},
		Queue: QueueSettings{
			Concurrency: 4,
		},
		Scraper: ScraperSettings{
			BaseURL:      "https://diariodarepublica.pt",
			Delay:        1500 * time.Millisecond,
			Days:         7,
			MaxDocuments: 100,
			Schedule:     "0 6 * * *",
			UserAgent:    "lexrag/1.0 (+https://github.com/custodia-labs/lexrag)",
		},
		Ingest: IngestSettings{
			Workers: 4,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, p := range providerOrder {
		if p.SupportsEmbeddings() {
			out = append(out, p)
		}
	}
	return out
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return slices.Clone(providerOrder)
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-embedding-001",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-1.5-pro",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"gemini-embedding-001": 3072,
		"text-embedding-004":   768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Per-processor settings are generic maps so processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(DefaultAppSettings().Chunking)
}

// PipelineConfigFor builds the legal pipeline from chunking settings.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"legal_chunker", "law_references"},
		ProcessorConfigs: map[string]map[string]any{
			"legal_chunker": {
				"max_chunk_size": c.MaxChunkSize,
				"min_chunk_size": c.MinChunkSize,
				"chunk_size":     c.ChunkSize,
				"overlap":        c.Overlap,
			},
		},
	}
}
