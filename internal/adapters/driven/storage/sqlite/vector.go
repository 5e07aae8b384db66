package sqlite

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex with a brute-force cosine scan
// over the embedding column of the chunks table.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add stores the embedding on an existing chunk.
func (v *vectorIndex) Add(ctx context.Context, chunkID string, embedding []float32) error {
	if chunkID == "" || len(embedding) == 0 {
		return domain.ErrInvalidInput
	}

	res, err := v.store.db.ExecContext(ctx,
		"UPDATE chunks SET embedding = ? WHERE id = ?", float32SliceToBytes(embedding), chunkID)
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	return nil
}

// Delete clears the embedding of a chunk.
func (v *vectorIndex) Delete(ctx context.Context, chunkID string) error {
	if _, err := v.store.db.ExecContext(ctx,
		"UPDATE chunks SET embedding = NULL WHERE id = ?", chunkID); err != nil {
		return fmt.Errorf("clearing embedding: %w", err)
	}
	return nil
}

// Search returns the k chunks most similar to the query among those matching the filter.
// Embeddings whose dimension differs from the query are skipped.
func (v *vectorIndex) Search(
	ctx context.Context,
	query []float32,
	k int,
	filter domain.ChunkFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	conds, args := chunkFilterConditions(filter)
	conds = append([]string{"c.embedding IS NOT NULL"}, conds...)
	where := strings.Join(conds, " AND ")

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT c.id, c.embedding
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		vec := bytesToFloat32Slice(blob)
		if len(vec) != len(query) {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: id, Similarity: cosineSimilarity(query, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *vectorIndex) Close() error {
	return nil
}

// cosineSimilarity returns the cosine of the angle between a and b,
// or 0 when either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
