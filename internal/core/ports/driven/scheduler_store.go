package driven

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// SchedulerStore persists scheduler state across restarts.
type SchedulerStore interface {
	// GetTask retrieves a scheduled task by ID.
	// Returns nil and no error if the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// SaveTask persists a task's state.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult logs a task execution result.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns recent results for a task, most recent first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the most recent 'keep' results per task.
	PruneHistory(ctx context.Context, keep int) error
}
