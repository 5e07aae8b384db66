package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Search is an exhaustive cosine scan.
type VectorIndex struct {
	mu      sync.RWMutex
	docs    *DocumentStore
	vectors map[string][]float32
}

// NewVectorIndex creates a vector index that resolves filters through docs.
func NewVectorIndex(docs *DocumentStore) *VectorIndex {
	return &VectorIndex{
		docs:    docs,
		vectors: make(map[string][]float32),
	}
}

// Add inserts or replaces the vector of a chunk.
func (v *VectorIndex) Add(_ context.Context, chunkID string, embedding []float32) error {
	if chunkID == "" || len(embedding) == 0 {
		return domain.ErrInvalidInput
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vectors[chunkID] = append([]float32(nil), embedding...)
	return nil
}

// Delete removes a vector from the index.
func (v *VectorIndex) Delete(_ context.Context, chunkID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.vectors, chunkID)
	return nil
}

// Search returns the k most similar chunks that pass the filter.
func (v *VectorIndex) Search(
	_ context.Context,
	query []float32,
	k int,
	filter domain.ChunkFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	v.mu.RLock()
	var hits []driven.VectorHit
	for id, vec := range v.vectors {
		if len(vec) != len(query) {
			continue
		}
		if v.docs != nil && !v.docs.matchChunk(id, filter) {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: id, Similarity: cosine(query, vec)})
	}
	v.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
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

// Len returns the number of indexed vectors.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.vectors)
}

// Close releases nothing.
func (v *VectorIndex) Close() error {
	return nil
}

func cosine(a, b []float32) float64 {
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
