package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk // by document ID, position order
	owners    map[string]string         // chunk ID -> document ID
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		owners:    make(map[string]string),
	}
}

// SaveDocument stores or updates a document.
// CreatedAt of an existing document is kept.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	if stored.Type == "" {
		stored.Type = domain.DocumentTypeOther
	}
	if prev, ok := s.documents[doc.ID]; ok && !prev.CreatedAt.IsZero() {
		stored.CreatedAt = prev.CreatedAt
	}
	s.documents[doc.ID] = stored
	return nil
}

// SaveChunks upserts chunks by ID. Each chunk's document must exist.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range chunks {
		c := chunks[i]
		if c.ID == "" || c.DocumentID == "" {
			return fmt.Errorf("saving chunk %d: %w", i, domain.ErrInvalidInput)
		}
		if _, ok := s.documents[c.DocumentID]; !ok {
			return fmt.Errorf("saving chunk %s: document %s: %w", c.ID, c.DocumentID, domain.ErrNotFound)
		}

		if owner, ok := s.owners[c.ID]; ok {
			s.removeChunk(owner, c.ID)
		}
		s.chunks[c.DocumentID] = append(s.chunks[c.DocumentID], c)
		s.owners[c.ID] = c.DocumentID
	}

	for docID := range s.chunks {
		list := s.chunks[docID]
		sort.SliceStable(list, func(a, b int) bool { return list[a].Position < list[b].Position })
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunks retrieves all chunks for a document in position order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := s.chunks[documentID]
	if len(chunks) == 0 {
		return nil, nil
	}
	return append([]domain.Chunk(nil), chunks...), nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.lookup(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// FindChunks returns chunks matching the filter, ordered by document ID and position.
// A limit of zero or less returns every match.
func (s *DocumentStore) FindChunks(_ context.Context, filter domain.ChunkFilter, limit int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docIDs := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	var result []domain.Chunk
	for _, docID := range docIDs {
		for _, c := range s.chunks[docID] {
			if !s.matches(filter, &c) {
				continue
			}
			result = append(result, c)
			if limit > 0 && len(result) == limit {
				return result, nil
			}
		}
	}
	return result, nil
}

// DeleteChunks removes every chunk of a document.
func (s *DocumentStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks[documentID] {
		delete(s.owners, c.ID)
	}
	delete(s.chunks, documentID)
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	if err := s.DeleteChunks(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}

// ListDocuments returns documents, most recently published first.
// An empty docType lists every type; a limit of zero or less lists all.
func (s *DocumentStore) ListDocuments(
	_ context.Context,
	docType domain.DocumentType,
	limit int,
) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if docType == "" || doc.Type == docType {
			result = append(result, doc)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.PublicationDate != b.PublicationDate {
			return a.PublicationDate > b.PublicationDate
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// matchChunk reports whether the stored chunk passes the filter.
// Unknown chunks only pass an empty filter.
func (s *DocumentStore) matchChunk(chunkID string, filter domain.ChunkFilter) bool {
	if filter.IsEmpty() {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.lookup(chunkID)
	if !ok {
		return false
	}
	return s.matches(filter, &c)
}

// matches checks chunk and document criteria. Caller holds the lock.
func (s *DocumentStore) matches(filter domain.ChunkFilter, c *domain.Chunk) bool {
	if !filter.MatchesChunk(c) {
		return false
	}
	return filter.MatchesDocumentType(s.documents[c.DocumentID].Type)
}

// lookup finds a chunk by ID. Caller holds the lock.
func (s *DocumentStore) lookup(id string) (domain.Chunk, bool) {
	docID, ok := s.owners[id]
	if !ok {
		return domain.Chunk{}, false
	}
	for _, c := range s.chunks[docID] {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Chunk{}, false
}

// removeChunk drops one chunk from a document's list. Caller holds the lock.
func (s *DocumentStore) removeChunk(docID, chunkID string) {
	list := s.chunks[docID]
	for i := range list {
		if list[i].ID == chunkID {
			s.chunks[docID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	delete(s.owners, chunkID)
}
