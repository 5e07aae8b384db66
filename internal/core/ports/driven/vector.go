package driven

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// VectorIndex provides semantic similarity search operations.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, chunkID string) error

	// Search finds the k nearest neighbours to the query vector among
	// chunks matching the filter.
	Search(ctx context.Context, query []float32, k int, filter domain.ChunkFilter) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
