package driven

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// SearchEngine provides full-text search operations over chunks.
type SearchEngine interface {
	// Index adds or updates a chunk in the search index.
	Index(ctx context.Context, chunk domain.Chunk) error

	// Delete removes a chunk from the search index.
	Delete(ctx context.Context, chunkID string) error

	// Search performs a keyword search among chunks matching the filter and
	// returns chunk IDs with scores, best first.
	Search(ctx context.Context, query string, limit int, filter domain.ChunkFilter) ([]SearchHit, error)

	// Close releases resources.
	Close() error
}

// SearchHit represents a search result from the engine.
type SearchHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the relevance score. Higher is better.
	Score float64
}
