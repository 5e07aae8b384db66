package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// stubSearchEngine returns fixed hits or an error.
type stubSearchEngine struct {
	hits []driven.SearchHit
	err  error
}

func (m *stubSearchEngine) Index(_ context.Context, _ domain.Chunk) error { return nil }
func (m *stubSearchEngine) Delete(_ context.Context, _ string) error     { return nil }
func (m *stubSearchEngine) Close() error                                 { return nil }

func (m *stubSearchEngine) Search(_ context.Context, _ string, _ int, _ domain.ChunkFilter) ([]driven.SearchHit, error) {
	return m.hits, m.err
}

func newSearchFixture(t *testing.T) (*testStack, *SearchService) {
	t.Helper()
	s := newTestStack(t, newFakeEmbedder())
	s.mustIngest(t, rawText("/docs/lei.txt", leiTeletrabalho, leiHints()))
	s.mustIngest(t, rawText("/docs/contrato.txt", contratoArrendamento, map[string]string{
		domain.HintDocumentType: "contract",
	}))
	svc := NewSearchService(s.docs, s.search, s.vectors, s.embedder, domain.RetrievalSettings{})
	return s, svc
}

func TestSearchService_Search_EmptyQuery(t *testing.T) {
	_, svc := newSearchFixture(t)

	results, err := svc.Search(context.Background(), "   ", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_Search_Modes(t *testing.T) {
	for _, mode := range domain.AllSearchModes() {
		t.Run(string(mode), func(t *testing.T) {
			_, svc := newSearchFixture(t)

			results, err := svc.Search(context.Background(), "teletrabalho retribuição", domain.SearchOptions{Mode: mode})

			require.NoError(t, err)
			require.NotEmpty(t, results)
			found := false
			for _, r := range results {
				found = found || r.Document.Type == domain.DocumentTypeLei
			}
			assert.True(t, found)
			if mode != domain.SearchModeVector {
				assert.Equal(t, domain.DocumentTypeLei, results[0].Document.Type)
			}
			assert.Greater(t, results[0].Score, 0.0)
			for i := 1; i < len(results); i++ {
				assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
			}
		})
	}
}

func TestSearchService_Search_VectorUsesQueryEmbedding(t *testing.T) {
	s, svc := newSearchFixture(t)

	_, err := svc.Search(context.Background(), "  renda mensal ", domain.SearchOptions{Mode: domain.SearchModeVector})

	require.NoError(t, err)
	assert.Equal(t, []string{"renda mensal"}, s.embedder.queries)
}

func TestSearchService_Search_Filters(t *testing.T) {
	_, svc := newSearchFixture(t)
	ctx := context.Background()

	t.Run("document type excludes", func(t *testing.T) {
		results, err := svc.Search(ctx, "arrendamento", domain.SearchOptions{
			Mode:   domain.SearchModeText,
			Filter: domain.ChunkFilter{DocumentTypes: []domain.DocumentType{domain.DocumentTypeLei}},
		})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("document type includes", func(t *testing.T) {
		results, err := svc.Search(ctx, "arrendamento", domain.SearchOptions{
			Mode:   domain.SearchModeHybrid,
			Filter: domain.ChunkFilter{DocumentTypes: []domain.DocumentType{domain.DocumentTypeContract}},
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, domain.DocumentTypeContract, r.Document.Type)
		}
	})

	t.Run("article number", func(t *testing.T) {
		results, err := svc.Search(ctx, "teletrabalho", domain.SearchOptions{
			Mode:   domain.SearchModeHybrid,
			Filter: domain.ChunkFilter{ArticleNumber: "Artigo 3.º"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Contains(t, r.Chunk.Meta.ArticleNumbers(), "Artigo 3.º")
		}
	})

	t.Run("chunk kind", func(t *testing.T) {
		results, err := svc.Search(ctx, "arrendamento teletrabalho", domain.SearchOptions{
			Mode:   domain.SearchModeText,
			Filter: domain.ChunkFilter{Kind: domain.ChunkKindCharacter},
		})
		require.NoError(t, err)
		for _, r := range results {
			assert.Equal(t, domain.ChunkKindCharacter, r.Chunk.Kind())
		}
	})
}

func TestSearchService_Search_Limit(t *testing.T) {
	_, svc := newSearchFixture(t)

	results, err := svc.Search(context.Background(), "lei trabalho arrendamento", domain.SearchOptions{
		Mode:  domain.SearchModeHybrid,
		Limit: 1,
	})

	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchService_Search_DegradesWithoutEmbeddings(t *testing.T) {
	s, _ := newSearchFixture(t)
	svc := NewSearchService(s.docs, s.search, s.vectors, nil, domain.RetrievalSettings{})

	results, err := svc.Search(context.Background(), "teletrabalho", domain.SearchOptions{Mode: domain.SearchModeVector})

	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestSearchService_Search_HybridDegradesOnFailure(t *testing.T) {
	t.Run("keyword failure", func(t *testing.T) {
		s, _ := newSearchFixture(t)
		broken := &stubSearchEngine{err: errors.New("index corrupted")}
		svc := NewSearchService(s.docs, broken, s.vectors, s.embedder, domain.RetrievalSettings{})

		results, err := svc.Search(context.Background(), "teletrabalho", domain.SearchOptions{Mode: domain.SearchModeHybrid})

		require.NoError(t, err)
		assert.NotEmpty(t, results)
	})

	t.Run("vector failure", func(t *testing.T) {
		s, _ := newSearchFixture(t)
		s.embedder.err = errors.New("provider down")
		svc := NewSearchService(s.docs, s.search, s.vectors, s.embedder, domain.RetrievalSettings{})

		results, err := svc.Search(context.Background(), "teletrabalho", domain.SearchOptions{Mode: domain.SearchModeHybrid})

		require.NoError(t, err)
		assert.NotEmpty(t, results)
	})

	t.Run("both fail", func(t *testing.T) {
		s, _ := newSearchFixture(t)
		s.embedder.err = errors.New("provider down")
		broken := &stubSearchEngine{err: errors.New("index corrupted")}
		svc := NewSearchService(s.docs, broken, s.vectors, s.embedder, domain.RetrievalSettings{})

		_, err := svc.Search(context.Background(), "teletrabalho", domain.SearchOptions{Mode: domain.SearchModeHybrid})

		assert.Error(t, err)
	})
}

func TestSearchService_Search_Errors(t *testing.T) {
	s, svc := newSearchFixture(t)

	t.Run("unknown mode", func(t *testing.T) {
		_, err := svc.Search(context.Background(), "lei", domain.SearchOptions{Mode: "semantic"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no indexes", func(t *testing.T) {
		bare := NewSearchService(s.docs, nil, nil, nil, domain.RetrievalSettings{})
		_, err := bare.Search(context.Background(), "lei", domain.SearchOptions{})
		assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
	})
}

func TestSearchService_Search_SkipsStaleHits(t *testing.T) {
	s, _ := newSearchFixture(t)
	chunks, err := s.docs.FindChunks(context.Background(), domain.ChunkFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	engine := &stubSearchEngine{hits: []driven.SearchHit{
		{ChunkID: "deleted-chunk", Score: 9},
		{ChunkID: chunks[0].ID, Score: 1},
	}}
	svc := NewSearchService(s.docs, engine, nil, nil, domain.RetrievalSettings{})

	results, err := svc.Search(context.Background(), "qualquer", domain.SearchOptions{Mode: domain.SearchModeText})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[0].ID, results[0].Chunk.ID)
}

func TestReciprocalRankFusion(t *testing.T) {
	keyword := []scoredChunk{{chunkID: "a"}, {chunkID: "b"}}
	vector := []scoredChunk{{chunkID: "b"}, {chunkID: "c"}}

	merged := reciprocalRankFusion(keyword, vector, 60)

	require.Len(t, merged, 3)
	assert.Equal(t, "b", merged[0].chunkID)
	assert.InDelta(t, 1.0/62+1.0/61, merged[0].score, 1e-12)
	assert.Equal(t, "a", merged[1].chunkID)
	assert.InDelta(t, 1.0/61, merged[1].score, 1e-12)
	assert.Equal(t, "c", merged[2].chunkID)
	for _, m := range merged {
		assert.Equal(t, "merged", m.source)
	}
}

func TestGenerateHighlights(t *testing.T) {
	content := "A Lei n.º 23/2023 regula o teletrabalho. O teletrabalho exige acordo escrito.\n" +
		"O empregador paga as despesas do teletrabalho. O teletrabalho pode cessar. Nada mais."

	t.Run("caps at three sentences", func(t *testing.T) {
		h := generateHighlights(content, "Teletrabalho")
		require.Len(t, h, 3)
		assert.Equal(t, "A Lei n.º 23/2023 regula o teletrabalho.", h[0])
	})

	t.Run("ignores short terms", func(t *testing.T) {
		assert.Nil(t, generateHighlights(content, "a o de"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, generateHighlights(content, "arrendamento"))
	})

	t.Run("truncates long sentences", func(t *testing.T) {
		long := "retribuição " + strings.Repeat("é ", 150)
		h := generateHighlights(long, "retribuição")
		require.Len(t, h, 1)
		assert.True(t, strings.HasSuffix(h[0], "..."))
		assert.Equal(t, maxHighlightLength+3, len([]rune(h[0])))
	})
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Artigo 1.º\nNos termos do n.º 2 do artigo 5.º. Fim! Sem ponto")

	assert.Equal(t, []string{"Artigo 1.º", "Nos termos do n.º 2 do artigo 5.º.", "Fim!", "Sem ponto"}, got)
}
