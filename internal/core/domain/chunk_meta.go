package domain

import "fmt"

// ChunkKind names the structural origin of a chunk.
type ChunkKind string

// Chunk kinds.
const (
	// ChunkKindArticles is one or more whole articles packed together.
	ChunkKindArticles ChunkKind = "articles"

	// ChunkKindPreamble is text preceding the first structural marker.
	ChunkKindPreamble ChunkKind = "preamble"

	// ChunkKindFallback is a window of a document without detectable structure.
	ChunkKindFallback ChunkKind = "fallback"

	// ChunkKindCharacter is a window produced by the plain overlapping chunker
	// used for documents that are not article-structured.
	ChunkKindCharacter ChunkKind = "character_based"
)

// ChunkMeta is the closed set of chunk metadata variants.
// Only the types declared in this file implement it.
type ChunkMeta interface {
	// Kind returns the chunk kind.
	Kind() ChunkKind

	// ArticleNumbers returns the article labels carried by the chunk, in order.
	ArticleNumbers() []string

	// ArticleCount returns the number of articles carried by the chunk.
	ArticleCount() int

	sealed()
}

// ArticlesMeta describes a chunk built from whole articles.
type ArticlesMeta struct {
	// Numbers lists member article labels in document order.
	Numbers []string
}

// Kind returns ChunkKindArticles.
func (ArticlesMeta) Kind() ChunkKind { return ChunkKindArticles }

// ArticleNumbers returns a copy of the member article labels.
func (m ArticlesMeta) ArticleNumbers() []string {
	out := make([]string, len(m.Numbers))
	copy(out, m.Numbers)
	return out
}

// ArticleCount returns the number of member articles.
func (m ArticlesMeta) ArticleCount() int { return len(m.Numbers) }

// FirstArticle returns the first member label, or "" when empty.
func (m ArticlesMeta) FirstArticle() string {
	if len(m.Numbers) == 0 {
		return ""
	}
	return m.Numbers[0]
}

// LastArticle returns the last member label, or "" when empty.
func (m ArticlesMeta) LastArticle() string {
	if len(m.Numbers) == 0 {
		return ""
	}
	return m.Numbers[len(m.Numbers)-1]
}

func (ArticlesMeta) sealed() {}

// PreambleMeta describes a chunk cut from the preamble.
type PreambleMeta struct{}

// Kind returns ChunkKindPreamble.
func (PreambleMeta) Kind() ChunkKind { return ChunkKindPreamble }

// ArticleNumbers returns nil.
func (PreambleMeta) ArticleNumbers() []string { return nil }

// ArticleCount returns 0.
func (PreambleMeta) ArticleCount() int { return 0 }

func (PreambleMeta) sealed() {}

// FallbackMeta describes a window of unstructured text.
type FallbackMeta struct{}

// Kind returns ChunkKindFallback.
func (FallbackMeta) Kind() ChunkKind { return ChunkKindFallback }

// ArticleNumbers returns nil.
func (FallbackMeta) ArticleNumbers() []string { return nil }

// ArticleCount returns 0.
func (FallbackMeta) ArticleCount() int { return 0 }

func (FallbackMeta) sealed() {}

// CharacterMeta describes a window from the overlapping character chunker.
type CharacterMeta struct{}

// Kind returns ChunkKindCharacter.
func (CharacterMeta) Kind() ChunkKind { return ChunkKindCharacter }

// ArticleNumbers returns nil.
func (CharacterMeta) ArticleNumbers() []string { return nil }

// ArticleCount returns 0.
func (CharacterMeta) ArticleCount() int { return 0 }

func (CharacterMeta) sealed() {}

// NewChunkMeta rebuilds a ChunkMeta from its persisted form.
// Article numbers are only accepted for the articles kind.
func NewChunkMeta(kind ChunkKind, numbers []string) (ChunkMeta, error) {
	switch kind {
	case ChunkKindArticles:
		if len(numbers) == 0 {
			return nil, fmt.Errorf("%w: articles chunk without article numbers", ErrInvalidInput)
		}
		return ArticlesMeta{Numbers: append([]string(nil), numbers...)}, nil
	case ChunkKindPreamble, ChunkKindFallback, ChunkKindCharacter:
		if len(numbers) > 0 {
			return nil, fmt.Errorf("%w: %s chunk cannot carry article numbers", ErrInvalidInput, kind)
		}
		switch kind {
		case ChunkKindPreamble:
			return PreambleMeta{}, nil
		case ChunkKindFallback:
			return FallbackMeta{}, nil
		default:
			return CharacterMeta{}, nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown chunk kind %q", ErrInvalidInput, kind)
	}
}

// ChunkFilter restricts chunk lookups and searches with exact-match criteria.
// Zero values mean "no restriction".
type ChunkFilter struct {
	// DocumentID limits results to one document.
	DocumentID string

	// DocumentTypes limits results to documents of these types.
	DocumentTypes []DocumentType

	// ArticleNumber limits results to chunks carrying this article label.
	ArticleNumber string

	// Kind limits results to one chunk kind.
	Kind ChunkKind
}

// IsEmpty returns true if the filter imposes no restriction.
func (f ChunkFilter) IsEmpty() bool {
	return f.DocumentID == "" && len(f.DocumentTypes) == 0 && f.ArticleNumber == "" && f.Kind == ""
}

// MatchesChunk reports whether a chunk satisfies the chunk-level criteria.
// Document type is checked separately with MatchesDocumentType.
func (f ChunkFilter) MatchesChunk(c *Chunk) bool {
	if f.DocumentID != "" && c.DocumentID != f.DocumentID {
		return false
	}
	if f.Kind != "" && c.Kind() != f.Kind {
		return false
	}
	if f.ArticleNumber != "" {
		if c.Meta == nil {
			return false
		}
		found := false
		for _, n := range c.Meta.ArticleNumbers() {
			if n == f.ArticleNumber {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MatchesDocumentType reports whether a document type passes the filter.
func (f ChunkFilter) MatchesDocumentType(t DocumentType) bool {
	if len(f.DocumentTypes) == 0 {
		return true
	}
	for _, want := range f.DocumentTypes {
		if want == t {
			return true
		}
	}
	return false
}
