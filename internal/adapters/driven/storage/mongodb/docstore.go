package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument upserts a document. created_at is only written on insert.
// The document type is propagated to existing chunks.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	rec := toDocumentRecord(doc)

	update := bson.M{
		"$set": bson.M{
			"source":           rec.Source,
			"uri":              rec.URI,
			"title":            rec.Title,
			"content":          rec.Content,
			"document_type":    rec.DocumentType,
			"number":           rec.Number,
			"publication_date": rec.PublicationDate,
			"metadata":         rec.Metadata,
			"updated_at":       rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": rec.CreatedAt},
	}
	_, err := s.store.documents.UpdateOne(ctx, bson.M{"_id": rec.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	_, err = s.store.vectors.UpdateMany(ctx,
		bson.M{"document_id": rec.ID},
		bson.M{"$set": bson.M{"document_type": rec.DocumentType}})
	if err != nil {
		return fmt.Errorf("updating chunk document type: %w", err)
	}
	return nil
}

// SaveChunks upserts chunks in one bulk write.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	types := make(map[string]domain.DocumentType)
	models := make([]mongo.WriteModel, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" || c.DocumentID == "" {
			return fmt.Errorf("saving chunk %d: %w", i, domain.ErrInvalidInput)
		}

		docType, ok := types[c.DocumentID]
		if !ok {
			doc, err := s.GetDocument(ctx, c.DocumentID)
			if err != nil {
				return fmt.Errorf("saving chunk %s: document %s: %w", c.ID, c.DocumentID, err)
			}
			docType = doc.Type
			types[c.DocumentID] = docType
		}

		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": c.ID}).
			SetReplacement(toChunkRecord(c, docType)).
			SetUpsert(true))
	}

	if _, err := s.store.vectors.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var rec documentRecord
	err := s.store.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	doc := rec.toDomain()
	return &doc, nil
}

// GetChunks retrieves all chunks for a document in position order.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	return s.find(ctx, bson.M{"document_id": documentID},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	var rec chunkRecord
	err := s.store.vectors.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting chunk: %w", err)
	}
	c, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindChunks returns chunks matching the filter, ordered by document and position.
func (s *documentStore) FindChunks(ctx context.Context, filter domain.ChunkFilter, limit int) ([]domain.Chunk, error) {
	opts := options.Find().SetSort(bson.D{{Key: "document_id", Value: 1}, {Key: "position", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.find(ctx, chunkFilter(filter), opts)
}

// DeleteChunks removes every chunk of a document.
func (s *documentStore) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.store.vectors.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if err := s.DeleteChunks(ctx, id); err != nil {
		return err
	}
	if _, err := s.store.documents.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns documents, most recently published first.
func (s *documentStore) ListDocuments(
	ctx context.Context,
	docType domain.DocumentType,
	limit int,
) ([]domain.Document, error) {
	filter := bson.M{}
	if docType != "" {
		filter["document_type"] = string(docType)
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "publication_date", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.store.documents.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	var recs []documentRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}

	docs := make([]domain.Document, len(recs))
	for i, r := range recs {
		docs[i] = r.toDomain()
	}
	return docs, nil
}

func (s *documentStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Chunk, error) {
	cursor, err := s.store.vectors.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	var recs []chunkRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding chunks: %w", err)
	}

	var chunks []domain.Chunk
	for _, r := range recs {
		c, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}
