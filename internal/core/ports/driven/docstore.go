package driven

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// DocumentStore persists documents and chunks.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// FindChunks returns chunks matching every criterion of the filter,
	// ordered by document then position. Limit <= 0 means no limit.
	FindChunks(ctx context.Context, filter domain.ChunkFilter, limit int) ([]domain.Chunk, error)

	// DeleteChunks removes all chunks of a document, keeping the document.
	DeleteChunks(ctx context.Context, documentID string) error

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns documents, newest publication first.
	// An empty type lists every type.
	ListDocuments(ctx context.Context, docType domain.DocumentType, limit int) ([]domain.Document, error)
}
