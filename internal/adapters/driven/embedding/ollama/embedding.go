// Package ollama provides an embedding service adapter using a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.QueryEmbedder    = (*EmbeddingService)(nil)
)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 768
)

// nomic-embed-text was trained with task prefixes.
const (
	nomicDocumentPrefix = "search_document: "
	nomicQueryPrefix    = "search_query: "
)

// Config configures the service. Nothing is required.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int // model-dependent, looked up when 0
}

// EmbeddingService calls /api/embed.
type EmbeddingService struct {
	api        *httpapi.Client
	model      string
	dimensions int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// NewEmbeddingService creates the service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	model := cmp.Or(cfg.Model, DefaultModel)
	return &EmbeddingService{
		api: httpapi.New("ollama", cmp.Or(cfg.BaseURL, DefaultBaseURL),
			cmp.Or(cfg.Timeout, DefaultTimeout), domain.ErrEmbeddingUnavailable),
		model:      model,
		dimensions: cmp.Or(cfg.Dimensions, domain.EmbeddingDimensions()[model], DefaultDimensions),
	}
}

// Embed embeds text as a document.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedQuery embeds a search query.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := s.embed(ctx, []string{query}, driven.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds documents in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embed(ctx, texts, driven.TaskRetrievalDocument)
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string, task driven.EmbeddingTask) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	input := make([]string, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("ollama: empty text at index %d: %w", i, domain.ErrInvalidInput)
		}
		input[i] = s.withPrefix(t, task)
	}

	var resp embedResponse
	if err := s.api.Post(ctx, "/api/embed", embedRequest{Model: s.model, Input: input}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: %s", resp.Error)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) withPrefix(text string, task driven.EmbeddingTask) string {
	if !strings.HasPrefix(s.model, "nomic-embed-text") {
		return text
	}
	if task == driven.TaskRetrievalQuery {
		return nomicQueryPrefix + text
	}
	return nomicDocumentPrefix + text
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the embedding model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists local models, which needs no inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/api/tags")
}

func (s *EmbeddingService) Close() error { return nil }
