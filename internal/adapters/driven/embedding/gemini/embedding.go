// Package gemini provides an embedding service adapter for Google Gemini.
//
// Documents are embedded with the RETRIEVAL_DOCUMENT task type and queries
// with RETRIEVAL_QUERY, which is what makes query-to-chunk similarity
// meaningful for this model family.
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

// Ensure EmbeddingService implements the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.QueryEmbedder    = (*EmbeddingService)(nil)
)

// Default configuration values.
const (
	DefaultModel      = "gemini-embedding-001"
	DefaultDimensions = 3072

	// maxBatch is the API limit for BatchEmbedContents.
	maxBatch = 100
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model (default: gemini-embedding-001).
	Model string

	// Dimensions is the vector size reported to the vector index.
	Dimensions int
}

// EmbeddingService generates embeddings with the Gemini API.
type EmbeddingService struct {
	client     *genai.Client
	documents  *genai.EmbeddingModel
	queries    *genai.EmbeddingModel
	model      string
	dimensions int
}

// NewEmbeddingService creates a Gemini client for the configured model.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required: %w", domain.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
		if cfg.Dimensions == 0 {
			cfg.Dimensions = DefaultDimensions
		}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	documents := client.EmbeddingModel(cfg.Model)
	documents.TaskType = genai.TaskTypeRetrievalDocument
	queries := client.EmbeddingModel(cfg.Model)
	queries.TaskType = genai.TaskTypeRetrievalQuery

	return &EmbeddingService{
		client:     client,
		documents:  documents,
		queries:    queries,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a document embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedOne(ctx, s.documents, text)
}

// EmbedQuery generates an embedding optimised for retrieval queries.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.embedOne(ctx, s.queries, query)
}

func (s *EmbeddingService) embedOne(ctx context.Context, m *genai.EmbeddingModel, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini: empty text: %w", domain.ErrInvalidInput)
	}
	resp, err := m.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, mapError(err)
	}
	if resp.Embedding == nil {
		return nil, errors.New("gemini: no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds documents, splitting into API-sized requests.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("gemini: empty text at index %d: %w", i, domain.ErrInvalidInput)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		batch := s.documents.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		resp, err := s.documents.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, mapError(err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini: got %d embeddings for %d inputs", len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			if e == nil {
				return nil, errors.New("gemini: nil embedding in batch response")
			}
			out = append(out, e.Values)
		}
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fetches model info, which validates the key without inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.documents.Info(ctx); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", mapError(err))
	}
	return nil
}

// Close releases the underlying client.
func (s *EmbeddingService) Close() error {
	return s.client.Close()
}

// mapError translates HTTP status codes into domain errors.
func mapError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("gemini: %w", err)
	}
	switch gerr.Code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("gemini: %w: %w", domain.ErrRateLimited, err)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return fmt.Errorf("gemini: %w: %w", domain.ErrEmbeddingUnavailable, err)
	case http.StatusBadRequest:
		return fmt.Errorf("gemini: %w: %w", domain.ErrInvalidInput, err)
	default:
		return fmt.Errorf("gemini: %w", err)
	}
}
