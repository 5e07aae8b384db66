// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector search is disabled.
//
// EmbeddingService generates vectors; VectorIndex stores them.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one per input, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingTask hints whether a text is stored or used as a query.
type EmbeddingTask int

// Embedding tasks.
const (
	TaskRetrievalDocument EmbeddingTask = iota
	TaskRetrievalQuery
)

// QueryEmbedder is implemented by services that embed queries differently
// from documents (e.g., Gemini task types).
type QueryEmbedder interface {
	// EmbedQuery generates an embedding optimised for retrieval queries.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}
