package resilient

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.QueryEmbedder    = (*EmbeddingService)(nil)
)

// EmbeddingService decorates an embedding adapter.
//
// EmbedBatch never fails because of a single bad text: batches that fail are
// retried item by item and items that still fail get a zero vector.
type EmbeddingService struct {
	inner     driven.EmbeddingService
	guard     *guard
	batchSize int
}

// NewEmbeddingService wraps inner with the given config.
func NewEmbeddingService(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	cfg = cfg.withDefaults()
	return &EmbeddingService{
		inner:     inner,
		guard:     newGuard(cfg, domain.ErrEmbeddingUnavailable),
		batchSize: cfg.BatchSize,
	}
}

// Embed generates a document embedding. Errors are returned, not zeroed.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedOne(ctx, "embed", text, s.inner.Embed)
}

// EmbedQuery uses the inner QueryEmbedder when available.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	fn := s.inner.Embed
	if qe, ok := s.inner.(driven.QueryEmbedder); ok {
		fn = qe.EmbedQuery
	}
	return s.embedOne(ctx, "embed_query", query, fn)
}

func (s *EmbeddingService) embedOne(
	ctx context.Context,
	op, text string,
	fn func(context.Context, string) ([]float32, error),
) ([]float32, error) {
	res, err := s.guard.do(ctx, op, func(ctx context.Context) (any, error) {
		return fn(ctx, text)
	}, attribute.String("ai.model", s.inner.ModelName()), attribute.Int("ai.text_length", len(text)))
	if err != nil {
		return nil, err
	}
	return res.([]float32), nil
}

// EmbedBatch embeds texts in batches of the configured size.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch := texts[start:end]

		res, err := s.guard.do(ctx, "embed_batch", func(ctx context.Context) (any, error) {
			return s.inner.EmbedBatch(ctx, batch)
		}, attribute.String("ai.model", s.inner.ModelName()), attribute.Int("ai.batch_size", len(batch)))
		if err == nil {
			out = append(out, res.([][]float32)...)
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		log.Warn("batch %d-%d failed, embedding items individually: %v", start, end, err)
		for i, text := range batch {
			vec, err := s.Embed(ctx, text)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				log.Warn("embedding item %d failed, using zero vector: %v", start+i, err)
				vec = make([]float32, s.inner.Dimensions())
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping bypasses the limiter but still reports an open breaker.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if s.guard.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: circuit breaker open: %w", s.guard.name, domain.ErrEmbeddingUnavailable)
	}
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}

// Unwrap returns the decorated service.
func (s *EmbeddingService) Unwrap() driven.EmbeddingService {
	return s.inner
}
