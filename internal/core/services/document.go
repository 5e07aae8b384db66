package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/legal"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages stored documents and their chunks.
type DocumentService struct {
	docStore    driven.DocumentStore
	searchIndex driven.SearchEngine
	vectorIndex driven.VectorIndex
	opener      func(target string) error
}

// NewDocumentService creates a document service. searchIndex and
// vectorIndex may be nil; when set, Delete also purges the document from them.
func NewDocumentService(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		searchIndex: searchIndex,
		vectorIndex: vectorIndex,
		opener:      openURL,
	}
}

// List returns documents of a type (empty for all), newest first.
func (s *DocumentService) List(ctx context.Context, docType domain.DocumentType, limit int) ([]domain.Document, error) {
	if docType != "" && !docType.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, docType)
	}
	return s.docStore.ListDocuments(ctx, docType, limit)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// Chunks returns a document's chunks in order. A non-empty article keeps
// only the chunks carrying it; "3", "3.º" and "Artigo 3.º" are equivalent.
func (s *DocumentService) Chunks(ctx context.Context, documentID, article string) ([]domain.Chunk, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(article) == "" {
		return s.docStore.GetChunks(ctx, documentID)
	}
	return s.docStore.FindChunks(ctx, domain.ChunkFilter{
		DocumentID:    documentID,
		ArticleNumber: legal.NormaliseArticleLabel(article),
	}, 0)
}

// GetDetails summarises a document's chunks: counts per kind, articles
// covered and law references in first-seen order.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}

	details := &driving.DocumentDetails{
		Document:   *doc,
		ChunkCount: len(chunks),
		KindCounts: make(map[domain.ChunkKind]int),
		Metadata:   make(map[string]string, len(doc.Metadata)),
	}
	for _, c := range chunks {
		details.KindCounts[c.Kind()]++
		if c.Meta != nil {
			details.ArticleCount += c.Meta.ArticleCount()
		}
		for _, ref := range c.LawReferences {
			if !slices.Contains(details.LawReferences, ref) {
				details.LawReferences = append(details.LawReferences, ref)
			}
		}
	}
	for key, value := range doc.Metadata {
		details.Metadata[key] = fmt.Sprint(value)
	}
	return details, nil
}

// Delete removes a document, its chunks and its index entries.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.Get(ctx, documentID); err != nil {
		return err
	}
	if err := purgeChunks(ctx, s.docStore, s.searchIndex, s.vectorIndex, documentID); err != nil {
		return err
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	logger.Debug("Deleted document %s", documentID)
	return nil
}

// Open opens the document's location in the default application.
func (s *DocumentService) Open(ctx context.Context, documentID string) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}
	return openDocument(doc, s.opener)
}
