package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

const (
	taskColumns   = "id, name, schedule, last_run, next_run, last_error, last_success"
	resultColumns = "task_id, started_at, ended_at, success, error, items_processed, items_failed"
)

const upsertTask = `
	INSERT INTO scheduled_tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		schedule = excluded.schedule,
		last_run = excluded.last_run,
		next_run = excluded.next_run,
		last_error = excluded.last_error,
		last_success = excluded.last_success`

// pruneResults deletes every run past the newest ?1 of its task.
const pruneResults = `
	DELETE FROM task_results WHERE id IN (
		SELECT id FROM (
			SELECT id, ROW_NUMBER() OVER (
				PARTITION BY task_id ORDER BY started_at DESC, id DESC
			) AS rn
			FROM task_results
		) WHERE rn > ?1
	)`

// schedulerStore keeps scrape task state in scheduled_tasks and each run
// in task_results.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

// GetTask returns nil and no error for an unknown task.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	task, err := scanTask(s.store.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM scheduled_tasks WHERE id = ?", taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.store.db.ExecContext(ctx, upsertTask,
		task.ID, task.Name, task.Schedule,
		formatNullableTime(task.LastRun), formatNullableTime(task.NextRun),
		nullString(task.LastError), formatNullableTime(task.LastSuccess)); err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	return nil
}

func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	if _, err := s.store.db.ExecContext(ctx,
		"INSERT INTO task_results ("+resultColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		result.TaskID, result.StartedAt.UTC().Format(timeLayout), result.EndedAt.UTC().Format(timeLayout),
		boolToInt(result.Success), nullString(result.Error),
		result.ItemsProcessed, result.ItemsFailed); err != nil {
		return fmt.Errorf("recording result for %s: %w", result.TaskID, err)
	}
	return nil
}

// GetTaskHistory returns up to limit runs, newest first. A limit of zero
// or less returns every stored run.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+resultColumns+`
		FROM task_results
		WHERE task_id = ?1
		ORDER BY started_at DESC, id DESC
		LIMIT ?2`, taskID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", taskID, err)
	}
	return collect(rows, scanTaskResult)
}

// PruneHistory keeps the newest keep runs of every task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	if _, err := s.store.db.ExecContext(ctx, pruneResults, max(keep, 0)); err != nil {
		return fmt.Errorf("pruning task history: %w", err)
	}
	return nil
}

// scanTask passes sql.ErrNoRows through unwrapped.
func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task                                   domain.ScheduledTask
		lastRun, nextRun, lastErr, lastSuccess sql.NullString
	)
	err := row.Scan(&task.ID, &task.Name, &task.Schedule, &lastRun, &nextRun, &lastErr, &lastSuccess)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	task.LastRun = parseNullableTime(lastRun)
	task.NextRun = parseNullableTime(nextRun)
	task.LastSuccess = parseNullableTime(lastSuccess)
	task.LastError = lastErr.String
	return &task, nil
}

func scanTaskResult(row rowScanner) (*domain.TaskResult, error) {
	var (
		r                  domain.TaskResult
		startedAt, endedAt sql.NullString
		success            int
		errMsg             sql.NullString
	)
	if err := row.Scan(&r.TaskID, &startedAt, &endedAt, &success, &errMsg,
		&r.ItemsProcessed, &r.ItemsFailed); err != nil {
		return nil, fmt.Errorf("scanning task result: %w", err)
	}

	r.StartedAt = parseNullableTime(startedAt)
	r.EndedAt = parseNullableTime(endedAt)
	r.Success = success == 1
	r.Error = errMsg.String
	return &r, nil
}
