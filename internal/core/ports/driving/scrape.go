package driving

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// ScrapeService pulls recent diplomas into the index.
type ScrapeService interface {
	// ScrapeRecent fetches diplomas from the last days and ingests them,
	// or enqueues them when a queue is configured and enqueue is set.
	ScrapeRecent(ctx context.Context, opts ScrapeOptions) (*ScrapeResult, error)
}

// ScrapeOptions configures a scrape.
type ScrapeOptions struct {
	// Days is how many past days to cover. Zero means the configured default.
	Days int

	// MaxDocuments caps the number fetched. Zero means the configured default.
	MaxDocuments int

	// Enqueue hands documents to the task queue instead of ingesting inline.
	Enqueue bool
}

// ScrapeResult summarises a scrape.
type ScrapeResult struct {
	// Fetched is the number of diplomas fetched.
	Fetched int

	// Enqueued is the number handed to the queue.
	Enqueued int

	// Report holds inline ingestion outcomes, nil when enqueued.
	Report *domain.IngestReport
}
