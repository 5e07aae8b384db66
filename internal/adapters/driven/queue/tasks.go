package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// Task types handled by the worker.
const (
	TypeIngest    = "document:ingest"
	TypeReprocess = "document:reprocess"
)

// DefaultQueue is the asynq queue documents are enqueued on.
const DefaultQueue = "default"

// IngestPayload is the wire form of a raw document.
type IngestPayload struct {
	Source   string         `json:"source"`
	URI      string         `json:"uri"`
	MIMEType string         `json:"mime_type"`
	Content  []byte         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ReprocessPayload names a stored document to re-chunk.
type ReprocessPayload struct {
	DocumentID string `json:"document_id"`
}

// NewIngestTask builds a document:ingest task.
func NewIngestTask(raw *domain.RawDocument) (*asynq.Task, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	payload, err := json.Marshal(IngestPayload{
		Source:   string(raw.Source),
		URI:      raw.URI,
		MIMEType: raw.MIMEType,
		Content:  raw.Content,
		Metadata: raw.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ingest payload: %w", err)
	}

	return asynq.NewTask(
		TypeIngest,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(DefaultQueue),
	), nil
}

// NewReprocessTask builds a document:reprocess task.
func NewReprocessTask(documentID string) (*asynq.Task, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	payload, err := json.Marshal(ReprocessPayload{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("marshal reprocess payload: %w", err)
	}

	return asynq.NewTask(
		TypeReprocess,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue(DefaultQueue),
	), nil
}

// DecodeIngest reads the raw document from a document:ingest task.
func DecodeIngest(t *asynq.Task) (*domain.RawDocument, error) {
	var p IngestPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return nil, fmt.Errorf("unmarshal ingest payload: %w", err)
	}
	if p.URI == "" {
		return nil, fmt.Errorf("%w: ingest payload without uri", domain.ErrInvalidInput)
	}
	return &domain.RawDocument{
		Source:   domain.DocumentSource(p.Source),
		URI:      p.URI,
		MIMEType: p.MIMEType,
		Content:  p.Content,
		Metadata: p.Metadata,
	}, nil
}

// DecodeReprocess reads the document ID from a document:reprocess task.
func DecodeReprocess(t *asynq.Task) (string, error) {
	var p ReprocessPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return "", fmt.Errorf("unmarshal reprocess payload: %w", err)
	}
	if p.DocumentID == "" {
		return "", fmt.Errorf("%w: reprocess payload without document id", domain.ErrInvalidInput)
	}
	return p.DocumentID, nil
}
