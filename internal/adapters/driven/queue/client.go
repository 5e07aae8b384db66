// Package queue hands documents to background workers through asynq
// tasks stored in Redis.
package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var log = logger.With("queue")

// Ensure Client implements the interface.
var _ driven.TaskQueue = (*Client)(nil)

// enqueuer is the part of *asynq.Client the queue uses.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues ingest and reprocess tasks.
type Client struct {
	client enqueuer
}

// RedisOpt returns the asynq connection options for the settings.
func RedisOpt(settings domain.QueueSettings) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: settings.RedisAddr}
}

// New creates a client for the configured Redis.
func New(settings domain.QueueSettings) (*Client, error) {
	if !settings.IsConfigured() {
		return nil, domain.ErrQueueUnavailable
	}
	return &Client{client: asynq.NewClient(RedisOpt(settings))}, nil
}

// EnqueueIngest schedules ingestion of a raw document.
func (c *Client) EnqueueIngest(ctx context.Context, raw *domain.RawDocument) error {
	task, err := NewIngestTask(raw)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", raw.URI, err)
	}
	log.Debug("enqueued %s as %s", raw.URI, info.ID)
	return nil
}

// EnqueueReprocess schedules re-chunking of a stored document.
func (c *Client) EnqueueReprocess(ctx context.Context, documentID string) error {
	task, err := NewReprocessTask(documentID)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue reprocess %s: %w", documentID, err)
	}
	log.Debug("enqueued reprocess of %s as %s", documentID, info.ID)
	return nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
