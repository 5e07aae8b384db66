// Package worker consumes queued ingestion tasks and runs the scrape
// schedule in the background.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/queue"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var log = logger.With("worker")

// Worker is an asynq server bound to the ingest service.
type Worker struct {
	settings  domain.QueueSettings
	ingest    driving.IngestService
	scheduler driving.Scheduler
}

// New creates a worker. The scheduler is optional.
func New(settings domain.QueueSettings, ingest driving.IngestService, scheduler driving.Scheduler) (*Worker, error) {
	if !settings.IsConfigured() {
		return nil, domain.ErrQueueUnavailable
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = domain.DefaultAppSettings().Queue.Concurrency
	}
	return &Worker{settings: settings, ingest: ingest, scheduler: scheduler}, nil
}

// Mux routes task types to their handlers.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeIngest, w.handleIngest)
	mux.HandleFunc(queue.TypeReprocess, w.handleReprocess)
	return mux
}

// Run serves tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	server := asynq.NewServer(
		queue.RedisOpt(w.settings),
		asynq.Config{
			Concurrency: w.settings.Concurrency,
			Queues: map[string]int{
				queue.DefaultQueue: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
				log.Error("task %s failed: %v", task.Type(), err)
			}),
		},
	)

	if err := server.Start(w.Mux()); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	log.Info("Worker started (concurrency %d, redis %s)", w.settings.Concurrency, w.settings.RedisAddr)

	schedDone := make(chan struct{})
	if w.scheduler != nil {
		go func() {
			defer close(schedDone)
			if err := w.scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("scheduler: %v", err)
			}
		}()
	} else {
		close(schedDone)
	}

	<-ctx.Done()
	log.Info("Shutting down worker")
	server.Shutdown()
	if w.scheduler != nil {
		_ = w.scheduler.Stop()
	}
	<-schedDone
	return nil
}

func (w *Worker) handleIngest(ctx context.Context, t *asynq.Task) error {
	raw, err := queue.DecodeIngest(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	res, err := w.ingest.Ingest(ctx, raw)
	if err != nil {
		return retryable(fmt.Errorf("ingest %s: %w", raw.URI, err))
	}
	log.Info("Ingested %s as %s (%d chunks)", raw.URI, res.Document.ID, len(res.Chunks))
	return nil
}

func (w *Worker) handleReprocess(ctx context.Context, t *asynq.Task) error {
	id, err := queue.DecodeReprocess(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	res, err := w.ingest.Reprocess(ctx, id)
	if err != nil {
		return retryable(fmt.Errorf("reprocess %s: %w", id, err))
	}
	log.Info("Reprocessed %s (%d chunks)", id, len(res.Chunks))
	return nil
}

// retryable marks errors that a retry cannot fix with asynq.SkipRetry.
func retryable(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrInvalidDocumentNumber),
		errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}
