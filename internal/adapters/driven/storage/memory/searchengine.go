package memory

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var _ driven.SearchEngine = (*SearchEngine)(nil)

// BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

var termPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// SearchEngine is an in-memory BM25 keyword index over chunks.
// Terms are lowercased and stripped of diacritics, so "retribuição"
// matches "retribuicao".
type SearchEngine struct {
	mu       sync.RWMutex
	docs     *DocumentStore
	terms    map[string]map[string]int // chunk ID -> term frequencies
	lengths  map[string]int
	totalLen int
}

// NewSearchEngine creates a keyword index that resolves filters through docs.
func NewSearchEngine(docs *DocumentStore) *SearchEngine {
	return &SearchEngine{
		docs:    docs,
		terms:   make(map[string]map[string]int),
		lengths: make(map[string]int),
	}
}

// Index adds or replaces a chunk.
func (e *SearchEngine) Index(_ context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return domain.ErrInvalidInput
	}
	tokens := tokenize(chunk.Content)
	freqs := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freqs[t]++
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.remove(chunk.ID)
	e.terms[chunk.ID] = freqs
	e.lengths[chunk.ID] = len(tokens)
	e.totalLen += len(tokens)
	return nil
}

// Delete removes a chunk from the index.
func (e *SearchEngine) Delete(_ context.Context, chunkID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.remove(chunkID)
	return nil
}

// Search scores chunks containing any query term with BM25, best first.
func (e *SearchEngine) Search(
	_ context.Context,
	query string,
	limit int,
	filter domain.ChunkFilter,
) ([]driven.SearchHit, error) {
	queryTerms := uniqueTerms(tokenize(query))
	if len(queryTerms) == 0 || limit <= 0 {
		return nil, nil
	}

	e.mu.RLock()
	n := float64(len(e.terms))
	avgLen := 0.0
	if n > 0 {
		avgLen = float64(e.totalLen) / n
	}

	df := make(map[string]int, len(queryTerms))
	for _, freqs := range e.terms {
		for _, t := range queryTerms {
			if freqs[t] > 0 {
				df[t]++
			}
		}
	}

	var hits []driven.SearchHit
	for id, freqs := range e.terms {
		score := 0.0
		for _, t := range queryTerms {
			tf := float64(freqs[t])
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[t])+0.5)/(float64(df[t])+0.5))
			denom := tf + bm25K1*(1-bm25B+bm25B*float64(e.lengths[id])/avgLen)
			score += idf * tf * (bm25K1 + 1) / denom
		}
		if score == 0 {
			continue
		}
		hits = append(hits, driven.SearchHit{ChunkID: id, Score: score})
	}
	e.mu.RUnlock()

	if e.docs != nil && !filter.IsEmpty() {
		filtered := hits[:0]
		for _, h := range hits {
			if e.docs.matchChunk(h.ChunkID, filter) {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases nothing.
func (e *SearchEngine) Close() error {
	return nil
}

// remove drops a chunk. Caller holds the lock.
func (e *SearchEngine) remove(chunkID string) {
	if _, ok := e.terms[chunkID]; !ok {
		return
	}
	e.totalLen -= e.lengths[chunkID]
	delete(e.terms, chunkID)
	delete(e.lengths, chunkID)
}

// tokenize lowercases, folds diacritics and splits on non-alphanumerics.
func tokenize(text string) []string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	return termPattern.FindAllString(folded, -1)
}

func uniqueTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
