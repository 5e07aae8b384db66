package driving

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// IngestService turns raw documents into stored, chunked, embedded documents.
type IngestService interface {
	// Ingest normalises, chunks, embeds and stores one raw document.
	// Re-ingesting the same content replaces the previous chunks.
	Ingest(ctx context.Context, raw *domain.RawDocument) (*IngestResult, error)

	// IngestBatch ingests documents concurrently and reports per-document outcomes.
	// The returned error joins every per-document failure.
	IngestBatch(ctx context.Context, raws []domain.RawDocument) (*domain.IngestReport, error)

	// Reprocess re-chunks and re-embeds a stored document.
	Reprocess(ctx context.Context, documentID string) (*IngestResult, error)
}

// IngestResult describes a stored document.
type IngestResult struct {
	// Document is the stored document.
	Document domain.Document

	// Chunks are the stored chunks in order.
	Chunks []domain.Chunk

	// Embedded reports whether vectors were generated.
	Embedded bool
}
