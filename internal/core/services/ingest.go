package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/legal"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Document metadata keys written during ingestion.
const (
	MetaEmbeddingModel = "embedding_model"
	MetaMIMEType       = "mime_type"
)

// DefaultIngestWorkers bounds IngestBatch when no worker count is given.
const DefaultIngestWorkers = 4

// IngestService coordinates the document processing pipeline.
type IngestService struct {
	registry         driven.NormaliserRegistry
	pipeline         driven.PostProcessorPipeline
	docStore         driven.DocumentStore
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	workers          int
	now              func() time.Time
}

// NewIngestService creates a new ingest service.
// The searchIndex, vectorIndex and embeddingService are optional - if nil,
// the matching index step is skipped.
func NewIngestService(
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	workers int,
) *IngestService {
	if workers <= 0 {
		workers = DefaultIngestWorkers
	}
	return &IngestService{
		registry:         registry,
		pipeline:         pipeline,
		docStore:         docStore,
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		workers:          workers,
		now:              time.Now,
	}
}

// Ingest normalises, chunks, embeds and stores one raw document.
func (s *IngestService) Ingest(ctx context.Context, raw *domain.RawDocument) (*driving.IngestResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	logger.Debug("Ingesting: %s", raw.URI)

	// 1. NORMALISE (produces Document with Content)
	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	doc := result.Document

	// 2. LEGAL IDENTITY (type, number, date, deterministic ID)
	if err := applyLegalFields(&doc, raw); err != nil {
		return nil, err
	}

	return s.process(ctx, &doc)
}

// applyLegalFields copies legal hints onto the document, detects what the
// hints leave out and assigns the deterministic ID.
func applyLegalFields(doc *domain.Document, raw *domain.RawDocument) error {
	doc.Content = legal.CleanText(doc.Content)
	if doc.Content == "" {
		return fmt.Errorf("%s: %w", raw.URI, domain.ErrEmptyDocument)
	}
	if doc.Source == "" {
		doc.Source = domain.SourceUpload
	}
	if title := strings.TrimSpace(raw.Hint(domain.HintTitle)); title != "" {
		doc.Title = title
	}

	if hint := raw.Hint(domain.HintDocumentType); hint != "" {
		t, err := domain.ParseDocumentType(hint)
		if err != nil {
			return err
		}
		doc.Type = t
	} else if doc.Type == "" || doc.Type == domain.DocumentTypeOther {
		doc.Type = legal.DetectDocumentType(doc.Title)
	}

	if hint := strings.TrimSpace(raw.Hint(domain.HintNumber)); hint != "" {
		if !legal.ValidateDocumentNumber(doc.Type, hint) {
			return fmt.Errorf("%w: %q for %s", domain.ErrInvalidDocumentNumber, hint, doc.Type.Label())
		}
		doc.Number = hint
	} else if doc.Number == "" {
		doc.Number = legal.ExtractDocumentNumber(doc.Title)
	}

	if hint := strings.TrimSpace(raw.Hint(domain.HintPublicationDate)); hint != "" {
		if !legal.ValidDate(hint) {
			return fmt.Errorf("%w: publication date %q is not YYYY-MM-DD", domain.ErrInvalidInput, hint)
		}
		doc.PublicationDate = hint
	} else if doc.PublicationDate == "" {
		doc.PublicationDate = legal.FirstDate(doc.Content)
	}

	if summary := raw.Hint(domain.HintSummary); summary != "" {
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		doc.Metadata[domain.HintSummary] = summary
	}

	doc.ID = legal.GenerateDocumentID(doc.Content, legal.IdentityFields{
		Number:          doc.Number,
		PublicationDate: doc.PublicationDate,
		Source:          string(doc.Source),
	})
	return nil
}

// process chunks, embeds and stores a document whose ID is set, replacing
// any previous chunks stored under that ID.
func (s *IngestService) process(ctx context.Context, doc *domain.Document) (*driving.IngestResult, error) {
	now := s.now()
	doc.UpdatedAt = now
	if existing, err := s.docStore.GetDocument(ctx, doc.ID); err == nil {
		doc.CreatedAt = existing.CreatedAt
	} else if errors.Is(err, domain.ErrNotFound) {
		doc.CreatedAt = now
	} else {
		return nil, fmt.Errorf("get document: %w", err)
	}

	// 3. RUN POST-PROCESSOR PIPELINE (produces Chunks)
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.ID, domain.ErrEmptyDocument)
	}
	logger.Debug("Document %s (%s): %d chunks", doc.ID, doc.Type, len(chunks))

	// 4. GENERATE EMBEDDINGS (if service available)
	embedded, err := s.embed(ctx, doc, chunks)
	if err != nil {
		return nil, err
	}

	// 5. DROP PREVIOUS CHUNKS of the same document
	if err := purgeChunks(ctx, s.docStore, s.searchIndex, s.vectorIndex, doc.ID); err != nil {
		return nil, err
	}

	// 6. SAVE TO DOCUMENT STORE
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	// 7. INDEX FOR KEYWORD SEARCH
	if s.searchIndex != nil {
		for _, chunk := range chunks {
			if err := s.searchIndex.Index(ctx, chunk); err != nil {
				return nil, fmt.Errorf("index chunk: %w", err)
			}
		}
	}

	// 8. INDEX FOR VECTOR SEARCH (if available)
	if s.vectorIndex != nil && embedded {
		for _, chunk := range chunks {
			if len(chunk.Embedding) == 0 {
				continue
			}
			if err := s.vectorIndex.Add(ctx, chunk.ID, chunk.Embedding); err != nil {
				return nil, fmt.Errorf("add vector: %w", err)
			}
		}
	}

	return &driving.IngestResult{Document: *doc, Chunks: chunks, Embedded: embedded}, nil
}

// embed fills chunk embeddings in one batch call. Zero vectors mark items
// the provider could not embed; those chunks are stored without a vector.
// A failed batch leaves the document searchable by keyword only.
func (s *IngestService) embed(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) (bool, error) {
	if s.embeddingService == nil {
		return false, nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = legal.PrepareForEmbedding(chunks[i].Content)
	}

	vectors, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.Warn("Embedding failed for %s, storing without vectors: %v", doc.ID, err)
		return false, nil
	}
	if len(vectors) != len(chunks) {
		return false, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	skipped := 0
	for i := range chunks {
		if isZeroVector(vectors[i]) {
			chunks[i].Embedding = nil
			skipped++
			continue
		}
		chunks[i].Embedding = vectors[i]
	}
	if skipped > 0 {
		logger.Warn("Document %s: %d of %d chunks have no embedding", doc.ID, skipped, len(chunks))
	}

	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata[MetaEmbeddingModel] = s.embeddingService.ModelName()
	return skipped < len(chunks), nil
}

func isZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// purgeChunks removes a document's chunks from both indexes and the store.
// Index failures are logged, a missing document is not an error.
func purgeChunks(
	ctx context.Context,
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	documentID string,
) error {
	chunks, err := docStore.GetChunks(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	for _, chunk := range chunks {
		if vectorIndex != nil {
			if err := vectorIndex.Delete(ctx, chunk.ID); err != nil {
				logger.Debug("Failed to delete vector %s: %v", chunk.ID, err)
			}
		}
		if searchIndex != nil {
			if err := searchIndex.Delete(ctx, chunk.ID); err != nil {
				logger.Debug("Failed to delete search index %s: %v", chunk.ID, err)
			}
		}
	}

	if err := docStore.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// IngestBatch ingests documents over a bounded worker pool. Items keep the
// input order and the returned error joins every per-document failure.
func (s *IngestService) IngestBatch(ctx context.Context, raws []domain.RawDocument) (*domain.IngestReport, error) {
	logger.Section("Ingest")
	start := s.now()
	report := &domain.IngestReport{Items: make([]domain.IngestItem, len(raws))}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i := range raws {
		report.Items[i].URI = raws[i].URI

		select {
		case <-ctx.Done():
			report.Items[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := s.Ingest(ctx, &raws[i])
			if err != nil {
				report.Items[i].Err = err
				logger.Debug("Failed to ingest %s: %v", raws[i].URI, err)
				return
			}
			report.Items[i].DocumentID = res.Document.ID
			report.Items[i].Chunks = len(res.Chunks)
		}(i)
	}
	wg.Wait()

	report.Duration = s.now().Sub(start)
	logger.Info("Ingested %d/%d documents, %d chunks in %s",
		report.Succeeded(), len(raws), report.TotalChunks(), report.Duration.Round(time.Millisecond))

	var errs []error
	for _, it := range report.Items {
		if it.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", it.URI, it.Err))
		}
	}
	return report, errors.Join(errs...)
}

// Reprocess re-chunks and re-embeds a stored document.
func (s *IngestService) Reprocess(ctx context.Context, documentID string) (*driving.IngestResult, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	logger.Debug("Reprocessing: %s", documentID)
	return s.process(ctx, doc)
}

// Watch applies change events until the channel closes or ctx is done.
// Created and updated files are ingested; deleted files are removed.
// onItem, when set, receives every outcome.
func (s *IngestService) Watch(
	ctx context.Context,
	changes <-chan domain.RawDocumentChange,
	onItem func(domain.IngestItem),
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case change, ok := <-changes:
			if !ok {
				return nil
			}

			item := domain.IngestItem{URI: change.Document.URI}
			switch change.Type {
			case domain.ChangeCreated, domain.ChangeUpdated:
				res, err := s.Ingest(ctx, &change.Document)
				if err != nil {
					item.Err = err
				} else {
					item.DocumentID = res.Document.ID
					item.Chunks = len(res.Chunks)
				}
			case domain.ChangeDeleted:
				id, err := s.RemoveByURI(ctx, change.Document.URI)
				item.DocumentID, item.Err = id, err
			}

			if item.Err != nil {
				logger.Warn("Watch: %s: %v", item.URI, item.Err)
			}
			if onItem != nil {
				onItem(item)
			}
		}
	}
}

// RemoveByURI deletes the document stored from a URI and returns its ID.
// An unknown URI is not an error and returns "".
func (s *IngestService) RemoveByURI(ctx context.Context, uri string) (string, error) {
	docs, err := s.docStore.ListDocuments(ctx, "", 0)
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}

	for i := range docs {
		if docs[i].URI != uri {
			continue
		}
		if err := purgeChunks(ctx, s.docStore, s.searchIndex, s.vectorIndex, docs[i].ID); err != nil {
			return "", err
		}
		if err := s.docStore.DeleteDocument(ctx, docs[i].ID); err != nil {
			return "", fmt.Errorf("delete document: %w", err)
		}
		return docs[i].ID, nil
	}
	return "", nil
}
