package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// Connector fetches raw documents from a local or remote location.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the connector is ready to fetch.
	Validate(ctx context.Context) error

	// FullSync fetches all documents.
	// Both channels are closed when the sync ends.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch listens for changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}

// Scraper fetches recently published diplomas from an official gazette.
type Scraper interface {
	// FetchRange fetches diplomas published between from and to inclusive,
	// stopping after max documents (max <= 0 means the configured cap).
	FetchRange(ctx context.Context, from, to time.Time, max int) ([]domain.RawDocument, error)
}

// TaskQueue hands work to background workers.
type TaskQueue interface {
	// EnqueueIngest schedules ingestion of a raw document.
	EnqueueIngest(ctx context.Context, raw *domain.RawDocument) error

	// EnqueueReprocess schedules re-chunking of a stored document.
	EnqueueReprocess(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}
