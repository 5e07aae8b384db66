package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Index copies the chunk text into the $text-indexed field.
func (e *searchEngine) Index(ctx context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return domain.ErrInvalidInput
	}
	res, err := e.store.vectors.UpdateOne(ctx,
		bson.M{"_id": chunk.ID},
		bson.M{"$set": bson.M{"search_text": chunk.Content}})
	if err != nil {
		return fmt.Errorf("indexing chunk: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("chunk %s: %w", chunk.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the chunk from the keyword index but keeps the chunk.
func (e *searchEngine) Delete(ctx context.Context, chunkID string) error {
	_, err := e.store.vectors.UpdateOne(ctx,
		bson.M{"_id": chunkID},
		bson.M{"$unset": bson.M{"search_text": ""}})
	if err != nil {
		return fmt.Errorf("removing chunk from index: %w", err)
	}
	return nil
}

// Search runs a $text query sorted by textScore.
func (e *searchEngine) Search(
	ctx context.Context,
	query string,
	limit int,
	filter domain.ChunkFilter,
) ([]driven.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	q, opts := textSearchQuery(query, limit, filter)
	cursor, err := e.store.vectors.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	var rows []struct {
		ID    string  `bson:"_id"`
		Score float64 `bson:"score"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding search hits: %w", err)
	}

	hits := make([]driven.SearchHit, len(rows))
	for i, r := range rows {
		hits[i] = driven.SearchHit{ChunkID: r.ID, Score: r.Score}
	}
	return hits, nil
}

// Close is a no-op; the Store owns the client.
func (e *searchEngine) Close() error {
	return nil
}

func textSearchQuery(query string, limit int, filter domain.ChunkFilter) (bson.M, *options.FindOptions) {
	q := chunkFilter(filter)
	q["$text"] = bson.M{"$search": query}

	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "score": score}).
		SetSort(bson.D{{Key: "score", Value: score}}).
		SetLimit(int64(limit))
	return q, opts
}
