package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// numCandidatesFactor sets how many candidates $vectorSearch considers per result.
const numCandidatesFactor = 10

type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add stores the embedding on an existing chunk.
func (v *vectorIndex) Add(ctx context.Context, chunkID string, embedding []float32) error {
	if chunkID == "" || len(embedding) == 0 {
		return domain.ErrInvalidInput
	}
	res, err := v.store.vectors.UpdateOne(ctx,
		bson.M{"_id": chunkID},
		bson.M{"$set": bson.M{"embedding": embedding}})
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	return nil
}

// Delete clears the embedding of a chunk.
func (v *vectorIndex) Delete(ctx context.Context, chunkID string) error {
	_, err := v.store.vectors.UpdateOne(ctx,
		bson.M{"_id": chunkID},
		bson.M{"$unset": bson.M{"embedding": ""}})
	if err != nil {
		return fmt.Errorf("clearing embedding: %w", err)
	}
	return nil
}

// Search runs $vectorSearch. Aggregation failures such as a missing Atlas
// index are logged and yield no hits.
func (v *vectorIndex) Search(
	ctx context.Context,
	query []float32,
	k int,
	filter domain.ChunkFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	cursor, err := v.store.vectors.Aggregate(ctx, vectorSearchPipeline(v.store.indexName, query, k, filter))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error("vector search on index %q failed: %v", v.store.indexName, err)
		return nil, nil
	}

	var rows []struct {
		ID    string  `bson:"_id"`
		Score float64 `bson:"score"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding vector hits: %w", err)
	}

	hits := make([]driven.VectorHit, len(rows))
	for i, r := range rows {
		hits[i] = driven.VectorHit{ChunkID: r.ID, Similarity: r.Score}
	}
	return hits, nil
}

// Close is a no-op; the Store owns the client.
func (v *vectorIndex) Close() error {
	return nil
}

func vectorSearchPipeline(index string, query []float32, k int, filter domain.ChunkFilter) mongo.Pipeline {
	stage := bson.D{
		{Key: "index", Value: index},
		{Key: "path", Value: "embedding"},
		{Key: "queryVector", Value: query},
		{Key: "numCandidates", Value: k * numCandidatesFactor},
		{Key: "limit", Value: k},
	}
	if f := chunkFilter(filter); len(f) > 0 {
		stage = append(stage, bson.E{Key: "filter", Value: f})
	}

	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: stage}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}
