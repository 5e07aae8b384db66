package legalchunker

import (
	"context"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
	"github.com/custodia-labs/lexrag/internal/postprocessors/chunker"
)

// Metadata keys recorded on the document.
const (
	MetaDroppedArticles = "dropped_articles"
	MetaArticleCount    = "article_count"
	MetaChunking        = "chunking"
)

var log = logger.With("legal_chunker")

// Processor routes documents to article-aware chunking or plain chunking
// depending on their type. It implements the PostProcessor interface.
type Processor struct {
	engine *Chunker
	plain  driven.PostProcessor
}

// Verify interface compliance.
var _ driven.PostProcessor = (*Processor)(nil)

// NewProcessor creates the routing processor. Documents that are not
// article-structured go to plain.
func NewProcessor(engine *Chunker, plain driven.PostProcessor) *Processor {
	if engine == nil {
		engine = NewChunker()
	}
	if plain == nil {
		plain = chunker.New()
	}
	return &Processor{engine: engine, plain: plain}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "legal_chunker"
}

// Process chunks the document content. Input chunks are ignored.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !doc.Type.IsArticleStructured() {
		setMeta(doc, MetaChunking, string(domain.ChunkKindCharacter))
		return p.plain.Process(ctx, doc, chunks)
	}

	res := p.engine.Chunk(doc.Content)
	if res.DroppedArticles > 0 {
		log.Warn("document %s: dropped %d articles with empty content", doc.ID, res.DroppedArticles)
		setMeta(doc, MetaDroppedArticles, res.DroppedArticles)
	}
	if res.Fallback && doc.Content != "" {
		log.Warn("document %s: no articles found, using fallback chunking", doc.ID)
	}
	setMeta(doc, MetaArticleCount, res.Articles)
	if res.Fallback {
		setMeta(doc, MetaChunking, string(domain.ChunkKindFallback))
	} else {
		setMeta(doc, MetaChunking, string(domain.ChunkKindArticles))
	}
	log.Debug("document %s: %d chunks from %d articles", doc.ID, len(res.Chunks), res.Articles)

	out := make([]domain.Chunk, 0, len(res.Chunks))
	for _, c := range res.Chunks {
		out = append(out, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    c.Text,
			Position:   c.Index,
			StartChar:  c.StartChar,
			EndChar:    c.EndChar,
			Meta:       c.Meta,
		})
	}
	return out, nil
}

func setMeta(doc *domain.Document, key string, value any) {
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata[key] = value
}
