package driving

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// Scheduler runs periodic background tasks such as the daily scrape.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// RunNow runs a task immediately and records its result.
	RunNow(ctx context.Context, taskID string) (*domain.TaskResult, error)

	// Status returns the task's state and up to limit recent runs.
	Status(ctx context.Context, taskID string, limit int) (*domain.TaskStatus, error)
}
