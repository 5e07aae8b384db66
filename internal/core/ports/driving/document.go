package driving

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// DocumentService manages stored documents.
type DocumentService interface {
	// List returns documents of a type (empty for all), newest first.
	List(ctx context.Context, docType domain.DocumentType, limit int) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns a document's chunks, optionally only those carrying an article.
	Chunks(ctx context.Context, documentID, articleNumber string) ([]domain.Chunk, error)

	// GetDetails returns a display view of a document.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Delete removes a document, its chunks and its index entries.
	Delete(ctx context.Context, documentID string) error

	// Open opens the document's original location with the system handler.
	Open(ctx context.Context, documentID string) error
}

// DocumentDetails provides a display view of document metadata.
type DocumentDetails struct {
	// Document is the stored document.
	Document domain.Document

	// ChunkCount is the number of chunks.
	ChunkCount int

	// ArticleCount is the number of articles across chunks.
	ArticleCount int

	// KindCounts counts chunks per kind.
	KindCounts map[domain.ChunkKind]int

	// LawReferences lists references across chunks, deduplicated.
	LawReferences []string

	// Metadata contains flattened key-value pairs for display.
	Metadata map[string]string
}
