package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/legal"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var _ driving.SearchService = (*SearchService)(nil)

// rrfK is the reciprocal rank fusion constant.
const rrfK = 60

// scoredChunk is a ranked hit before its chunk and document are loaded.
type scoredChunk struct {
	chunkID string
	score   float64
	source  string // keyword, vector or merged
}

// SearchService runs vector, keyword and hybrid retrieval over chunks.
// The keyword engine, vector index and embedder are each optional; modes
// that need a missing one fall back to what is available.
type SearchService struct {
	docStore driven.DocumentStore
	keywords driven.SearchEngine
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService
	defaults domain.RetrievalSettings
}

// NewSearchService creates a search service. Unset defaults take the
// application defaults.
func NewSearchService(
	docStore driven.DocumentStore,
	keywords driven.SearchEngine,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	defaults domain.RetrievalSettings,
) *SearchService {
	if defaults.TopK <= 0 {
		defaults.TopK = domain.DefaultAppSettings().Retrieval.TopK
	}
	if !defaults.Mode.IsValid() {
		defaults.Mode = domain.SearchModeHybrid
	}
	return &SearchService{
		docStore: docStore,
		keywords: keywords,
		vectors:  vectors,
		embedder: embedder,
		defaults: defaults,
	}
}

// Search returns up to opts.Limit results for query. Twice the limit is
// ranked so hits dropped during hydration can be replaced.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaults.TopK
	}

	mode, err := s.effectiveMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	logger.Info("Effective search mode: %s", mode.Description())
	logger.Debug("Query: %q, limit: %d, filter: %+v", query, limit, opts.Filter)

	ranked, err := s.rank(ctx, mode, query, 2*limit, opts.Filter)
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := s.hydrateResults(ctx, ranked, query, opts.Filter, limit)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}
	logger.Info("Final results: %d of %d ranked", len(results), len(ranked))
	return results, nil
}

func (s *SearchService) rank(
	ctx context.Context, mode domain.SearchMode, query string, limit int, filter domain.ChunkFilter,
) ([]scoredChunk, error) {
	switch mode {
	case domain.SearchModeVector:
		return s.vectorSearch(ctx, query, limit, filter)
	case domain.SearchModeHybrid:
		return s.hybridSearch(ctx, query, limit, filter)
	default:
		return s.keywordSearch(ctx, query, limit, filter)
	}
}

// effectiveMode resolves the requested mode against the available backends.
// Vector and hybrid degrade to text without embeddings; hybrid degrades to
// vector without a keyword engine.
func (s *SearchService) effectiveMode(requested domain.SearchMode) (domain.SearchMode, error) {
	mode := cmp.Or(requested, s.defaults.Mode)
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, requested)
	}

	hasVector := s.vectors != nil && s.embedder != nil
	hasKeyword := s.keywords != nil

	switch {
	case mode.RequiresEmbedding() && !hasVector && hasKeyword:
		logger.Warn("Vector search unavailable, degrading %s to text search", mode)
		return domain.SearchModeText, nil
	case mode.RequiresEmbedding() && !hasVector, mode == domain.SearchModeText && !hasKeyword:
		return "", domain.ErrSearchUnavailable
	case mode == domain.SearchModeHybrid && !hasKeyword:
		logger.Warn("Keyword search unavailable, degrading hybrid to vector search")
		return domain.SearchModeVector, nil
	}
	return mode, nil
}

func (s *SearchService) keywordSearch(
	ctx context.Context, query string, limit int, filter domain.ChunkFilter,
) ([]scoredChunk, error) {
	if s.keywords == nil {
		return nil, domain.ErrSearchUnavailable
	}
	hits, err := s.keywords.Search(ctx, query, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword search: %d hits", len(hits))

	out := make([]scoredChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, scoredChunk{chunkID: h.ChunkID, score: h.Score, source: "keyword"})
	}
	return out, nil
}

func (s *SearchService) vectorSearch(
	ctx context.Context, query string, limit int, filter domain.ChunkFilter,
) ([]scoredChunk, error) {
	switch {
	case s.vectors == nil:
		return nil, domain.ErrVectorIndexUnavailable
	case s.embedder == nil:
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}
	hits, err := s.vectors.Search(ctx, vec, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits over %d dimensions", len(hits), len(vec))

	out := make([]scoredChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, scoredChunk{chunkID: h.ChunkID, score: h.Similarity, source: "vector"})
	}
	return out, nil
}

// embedQuery uses the query task type when the provider has one.
func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	text := legal.PrepareForEmbedding(query)
	if qe, ok := s.embedder.(driven.QueryEmbedder); ok {
		return qe.EmbedQuery(ctx, text)
	}
	return s.embedder.Embed(ctx, text)
}

// hybridSearch runs both searches concurrently and fuses the rankings. When
// one side fails the other's ranking is returned alone.
func (s *SearchService) hybridSearch(
	ctx context.Context, query string, limit int, filter domain.ChunkFilter,
) ([]scoredChunk, error) {
	var (
		wg               sync.WaitGroup
		byKeyword, byVec []scoredChunk
		kwErr, vecErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		byKeyword, kwErr = s.keywordSearch(ctx, query, limit, filter)
	}()
	go func() {
		defer wg.Done()
		byVec, vecErr = s.vectorSearch(ctx, query, limit, filter)
	}()
	wg.Wait()

	switch {
	case kwErr != nil && vecErr != nil:
		return nil, fmt.Errorf("hybrid search: keyword=%w, vector=%w", kwErr, vecErr)
	case kwErr != nil:
		logger.Warn("Hybrid search: keyword search failed, using vector results only: %v", kwErr)
		return byVec, nil
	case vecErr != nil:
		logger.Warn("Hybrid search: vector search failed, using keyword results only: %v", vecErr)
		return byKeyword, nil
	}
	return reciprocalRankFusion(byKeyword, byVec, rrfK), nil
}

// reciprocalRankFusion scores each chunk by the sum of 1/(k+rank+1) over
// the lists it appears in. Equal scores order by chunk ID.
func reciprocalRankFusion(a, b []scoredChunk, k int) []scoredChunk {
	scores := make(map[string]float64, len(a)+len(b))
	for _, list := range [][]scoredChunk{a, b} {
		for rank, c := range list {
			scores[c.chunkID] += 1 / float64(k+rank+1)
		}
	}

	merged := make([]scoredChunk, 0, len(scores))
	for id, score := range scores {
		merged = append(merged, scoredChunk{chunkID: id, score: score, source: "merged"})
	}
	slices.SortFunc(merged, func(x, y scoredChunk) int {
		return cmp.Or(cmp.Compare(y.score, x.score), strings.Compare(x.chunkID, y.chunkID))
	})
	return merged
}

// hydrateResults loads the chunk and document of each ranked hit, in rank
// order, until limit results. Hits deleted since indexing or excluded by
// the filter are skipped.
func (s *SearchService) hydrateResults(
	ctx context.Context, ranked []scoredChunk, query string, filter domain.ChunkFilter, limit int,
) ([]domain.SearchResult, error) {
	if s.docStore == nil {
		return nil, domain.ErrStoreUnavailable
	}

	docs := make(map[string]*domain.Document)
	document := func(id string) (*domain.Document, error) {
		if d, ok := docs[id]; ok {
			return d, nil
		}
		d, err := s.docStore.GetDocument(ctx, id)
		if err == nil {
			docs[id] = d
		}
		return d, err
	}

	results := make([]domain.SearchResult, 0, min(len(ranked), limit))
	for _, sc := range ranked {
		if len(results) == limit {
			break
		}

		chunk, err := s.docStore.GetChunk(ctx, sc.chunkID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}
		if !filter.MatchesChunk(chunk) {
			continue
		}

		doc, err := document(chunk.DocumentID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
		}
		if !filter.MatchesDocumentType(doc.Type) {
			continue
		}

		results = append(results, domain.SearchResult{
			Document:   *doc,
			Chunk:      *chunk,
			Score:      sc.score,
			Highlights: generateHighlights(chunk.Content, query),
		})
	}
	return results, nil
}
