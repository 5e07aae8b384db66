package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var log = logger.With("mongodb")

// Default database, collection and index names.
const (
	DefaultDatabase            = "legal_assistant"
	DefaultDocumentsCollection = "documents"
	DefaultVectorsCollection   = "vectors"
	DefaultVectorIndexName     = "vector_index"
)

// Config holds connection settings.
type Config struct {
	// URI is the MongoDB connection string (MONGODB_URI).
	URI string

	// Database defaults to DefaultDatabase.
	Database string

	// DocumentsCollection defaults to DefaultDocumentsCollection.
	DocumentsCollection string

	// VectorsCollection holds chunks and embeddings.
	// Defaults to DefaultVectorsCollection.
	VectorsCollection string

	// VectorIndexName is the Atlas vector index on vectors.embedding.
	// Defaults to DefaultVectorIndexName.
	VectorIndexName string

	// ConnectTimeout bounds connect and ping. Defaults to 10s.
	ConnectTimeout time.Duration
}

// Store owns the client and exposes the storage ports.
type Store struct {
	client    *mongo.Client
	documents *mongo.Collection
	vectors   *mongo.Collection
	indexName string
}

// NewStore connects, pings and ensures the regular indexes exist.
// The Atlas vector index is managed outside the driver.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb uri: %w", domain.ErrInvalidInput)
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.DocumentsCollection == "" {
		cfg.DocumentsCollection = DefaultDocumentsCollection
	}
	if cfg.VectorsCollection == "" {
		cfg.VectorsCollection = DefaultVectorsCollection
	}
	if cfg.VectorIndexName == "" {
		cfg.VectorIndexName = DefaultVectorIndexName
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:    client,
		documents: db.Collection(cfg.DocumentsCollection),
		vectors:   db.Collection(cfg.VectorsCollection),
		indexName: cfg.VectorIndexName,
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// DocumentStore returns the document port.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// VectorIndex returns the Atlas vector search port.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// SearchEngine returns the $text search port.
func (s *Store) SearchEngine() driven.SearchEngine {
	return &searchEngine{store: s}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.documents.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "document_type", Value: 1}}},
		{Keys: bson.D{{Key: "publication_date", Value: -1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating document indexes: %w", err)
	}

	_, err = s.vectors.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "position", Value: 1}}},
		{Keys: bson.D{{Key: "article_numbers", Value: 1}}},
		{Keys: bson.D{{Key: "document_type", Value: 1}}},
		{
			Keys:    bson.D{{Key: "search_text", Value: "text"}},
			Options: options.Index().SetDefaultLanguage("portuguese").SetName("search_text_pt"),
		},
	})
	if err != nil {
		return fmt.Errorf("creating vector collection indexes: %w", err)
	}
	return nil
}

// VectorIndexDefinition returns the Atlas vector index definition for the
// given dimension, filterable on the same fields as domain.ChunkFilter.
func VectorIndexDefinition(dimensions int) bson.M {
	return bson.M{
		"fields": bson.A{
			bson.M{"type": "vector", "path": "embedding", "numDimensions": dimensions, "similarity": "cosine"},
			bson.M{"type": "filter", "path": "document_id"},
			bson.M{"type": "filter", "path": "document_type"},
			bson.M{"type": "filter", "path": "article_numbers"},
			bson.M{"type": "filter", "path": "chunk_type"},
		},
	}
}

// chunkFilter translates a domain filter to an MQL filter that both find
// and $vectorSearch accept.
func chunkFilter(f domain.ChunkFilter) bson.M {
	filter := bson.M{}
	if f.DocumentID != "" {
		filter["document_id"] = bson.M{"$eq": f.DocumentID}
	}
	if len(f.DocumentTypes) > 0 {
		types := make(bson.A, len(f.DocumentTypes))
		for i, t := range f.DocumentTypes {
			types[i] = string(t)
		}
		filter["document_type"] = bson.M{"$in": types}
	}
	if f.ArticleNumber != "" {
		filter["article_numbers"] = bson.M{"$eq": f.ArticleNumber}
	}
	if f.Kind != "" {
		filter["chunk_type"] = bson.M{"$eq": string(f.Kind)}
	}
	return filter
}
