package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMeta_Variants(t *testing.T) {
	tests := []struct {
		name    string
		meta    ChunkMeta
		kind    ChunkKind
		numbers []string
	}{
		{"articles", ArticlesMeta{Numbers: []string{"Artigo 1.º", "Artigo 2.º"}}, ChunkKindArticles, []string{"Artigo 1.º", "Artigo 2.º"}},
		{"preamble", PreambleMeta{}, ChunkKindPreamble, nil},
		{"fallback", FallbackMeta{}, ChunkKindFallback, nil},
		{"character", CharacterMeta{}, ChunkKindCharacter, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.meta.Kind())
			assert.Equal(t, tt.numbers, tt.meta.ArticleNumbers())
			assert.Equal(t, len(tt.numbers), tt.meta.ArticleCount())
		})
	}
}

func TestArticlesMeta_NumbersAreCopied(t *testing.T) {
	meta := ArticlesMeta{Numbers: []string{"Artigo 1.º"}}

	got := meta.ArticleNumbers()
	got[0] = "changed"

	assert.Equal(t, "Artigo 1.º", meta.Numbers[0])
}

func TestArticlesMeta_FirstLast(t *testing.T) {
	meta := ArticlesMeta{Numbers: []string{"Artigo 1.º", "Artigo 2.º", "Artigo 3.º"}}
	assert.Equal(t, "Artigo 1.º", meta.FirstArticle())
	assert.Equal(t, "Artigo 3.º", meta.LastArticle())

	empty := ArticlesMeta{}
	assert.Empty(t, empty.FirstArticle())
	assert.Empty(t, empty.LastArticle())
}

func TestNewChunkMeta(t *testing.T) {
	t.Run("articles", func(t *testing.T) {
		meta, err := NewChunkMeta(ChunkKindArticles, []string{"Artigo 4.º"})
		require.NoError(t, err)
		assert.Equal(t, ArticlesMeta{Numbers: []string{"Artigo 4.º"}}, meta)
	})

	t.Run("articles without numbers", func(t *testing.T) {
		_, err := NewChunkMeta(ChunkKindArticles, nil)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("numberless kinds", func(t *testing.T) {
		for _, kind := range []ChunkKind{ChunkKindPreamble, ChunkKindFallback, ChunkKindCharacter} {
			meta, err := NewChunkMeta(kind, nil)
			require.NoError(t, err)
			assert.Equal(t, kind, meta.Kind())
		}
	})

	t.Run("preamble with numbers", func(t *testing.T) {
		_, err := NewChunkMeta(ChunkKindPreamble, []string{"Artigo 1.º"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewChunkMeta(ChunkKind("section"), nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestChunk_Kind(t *testing.T) {
	c := &Chunk{}
	assert.Equal(t, ChunkKindFallback, c.Kind())

	c.Meta = PreambleMeta{}
	assert.Equal(t, ChunkKindPreamble, c.Kind())
}

func TestChunkFilter_IsEmpty(t *testing.T) {
	assert.True(t, ChunkFilter{}.IsEmpty())
	assert.False(t, ChunkFilter{DocumentID: "doc"}.IsEmpty())
	assert.False(t, ChunkFilter{DocumentTypes: []DocumentType{DocumentTypeLei}}.IsEmpty())
	assert.False(t, ChunkFilter{ArticleNumber: "Artigo 1.º"}.IsEmpty())
	assert.False(t, ChunkFilter{Kind: ChunkKindPreamble}.IsEmpty())
}

func TestChunkFilter_MatchesChunk(t *testing.T) {
	chunk := &Chunk{
		DocumentID: "doc-1",
		Meta:       ArticlesMeta{Numbers: []string{"Artigo 1.º", "Artigo 2.º"}},
	}

	tests := []struct {
		name   string
		filter ChunkFilter
		want   bool
	}{
		{"empty filter", ChunkFilter{}, true},
		{"same document", ChunkFilter{DocumentID: "doc-1"}, true},
		{"other document", ChunkFilter{DocumentID: "doc-2"}, false},
		{"member article", ChunkFilter{ArticleNumber: "Artigo 2.º"}, true},
		{"missing article", ChunkFilter{ArticleNumber: "Artigo 3.º"}, false},
		{"matching kind", ChunkFilter{Kind: ChunkKindArticles}, true},
		{"other kind", ChunkFilter{Kind: ChunkKindFallback}, false},
		{"all criteria", ChunkFilter{DocumentID: "doc-1", ArticleNumber: "Artigo 1.º", Kind: ChunkKindArticles}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.MatchesChunk(chunk))
		})
	}
}

func TestChunkFilter_ArticleOnNilMeta(t *testing.T) {
	f := ChunkFilter{ArticleNumber: "Artigo 1.º"}
	assert.False(t, f.MatchesChunk(&Chunk{}))
}

func TestChunkFilter_MatchesDocumentType(t *testing.T) {
	assert.True(t, ChunkFilter{}.MatchesDocumentType(DocumentTypeAviso))

	f := ChunkFilter{DocumentTypes: []DocumentType{DocumentTypeLei, DocumentTypeDecretoLei}}
	assert.True(t, f.MatchesDocumentType(DocumentTypeDecretoLei))
	assert.False(t, f.MatchesDocumentType(DocumentTypePortaria))
}
