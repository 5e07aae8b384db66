package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/legal"
)

func leiHints() map[string]string {
	return map[string]string{domain.HintTitle: "Lei n.º 23/2023"}
}

func TestIngestService_Ingest_StoresLegalDocument(t *testing.T) {
	s := newTestStack(t, newFakeEmbedder())
	raw := rawText("/docs/lei.txt", leiTeletrabalho, leiHints())

	res, err := s.ingest.Ingest(context.Background(), &raw)

	require.NoError(t, err)
	doc := res.Document
	assert.Equal(t, domain.DocumentTypeLei, doc.Type)
	assert.Equal(t, "23/2023", doc.Number)
	assert.Equal(t, "2023-05-25", doc.PublicationDate)
	assert.Equal(t, domain.SourceUpload, doc.Source)
	assert.Equal(t, legal.GenerateDocumentID(legal.CleanText(leiTeletrabalho), legal.IdentityFields{
		Number:          "23/2023",
		PublicationDate: "2023-05-25",
		Source:          "upload",
	}), doc.ID)
	assert.True(t, res.Embedded)
	assert.Equal(t, "fake-embedding", doc.Metadata[MetaEmbeddingModel])

	require.NotEmpty(t, res.Chunks)
	for _, c := range res.Chunks {
		assert.Equal(t, doc.ID, c.DocumentID)
		assert.NotEmpty(t, c.Embedding)
		assert.Equal(t, domain.ChunkKindArticles, c.Kind())
	}

	stored, err := s.docs.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored, len(res.Chunks))
	assert.Equal(t, len(res.Chunks), s.vectors.Len())

	hits, err := s.search.Search(context.Background(), "teletrabalho", 10, domain.ChunkFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestIngestService_Ingest_ReplacesPreviousChunks(t *testing.T) {
	s := newTestStack(t, newFakeEmbedder())
	ctx := context.Background()
	raw := rawText("/docs/lei.txt", leiTeletrabalho, leiHints())

	first, err := s.ingest.Ingest(ctx, &raw)
	require.NoError(t, err)

	s.ingest.now = func() time.Time { return first.Document.CreatedAt.Add(time.Hour) }
	second, err := s.ingest.Ingest(ctx, &raw)
	require.NoError(t, err)

	assert.Equal(t, first.Document.ID, second.Document.ID)
	assert.Equal(t, first.Document.CreatedAt, second.Document.CreatedAt)
	assert.True(t, second.Document.UpdatedAt.After(first.Document.UpdatedAt))

	stored, err := s.docs.GetChunks(ctx, second.Document.ID)
	require.NoError(t, err)
	assert.Len(t, stored, len(second.Chunks))
	assert.Equal(t, len(second.Chunks), s.vectors.Len())

	for _, old := range first.Chunks {
		_, err := s.docs.GetChunk(ctx, old.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestIngestService_Ingest_Hints(t *testing.T) {
	tests := []struct {
		name    string
		hints   map[string]string
		wantErr error
		check   func(t *testing.T, doc domain.Document)
	}{
		{
			name: "explicit type and number",
			hints: map[string]string{
				domain.HintDocumentType: "decreto-lei",
				domain.HintNumber:       "10/2024",
			},
			check: func(t *testing.T, doc domain.Document) {
				assert.Equal(t, domain.DocumentTypeDecretoLei, doc.Type)
				assert.Equal(t, "10/2024", doc.Number)
			},
		},
		{
			name:  "explicit publication date",
			hints: map[string]string{domain.HintPublicationDate: "2024-01-31"},
			check: func(t *testing.T, doc domain.Document) {
				assert.Equal(t, "2024-01-31", doc.PublicationDate)
			},
		},
		{
			name:  "summary kept in metadata",
			hints: map[string]string{domain.HintSummary: "Regime do teletrabalho"},
			check: func(t *testing.T, doc domain.Document) {
				assert.Equal(t, "Regime do teletrabalho", doc.Metadata[domain.HintSummary])
			},
		},
		{
			name:    "invalid number",
			hints:   map[string]string{domain.HintDocumentType: "lei", domain.HintNumber: "23-2023"},
			wantErr: domain.ErrInvalidDocumentNumber,
		},
		{
			name:    "invalid date",
			hints:   map[string]string{domain.HintPublicationDate: "31/01/2024"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unknown type",
			hints:   map[string]string{domain.HintDocumentType: "tratado"},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStack(t, nil)
			raw := rawText("/docs/diploma.txt", leiTeletrabalho, tt.hints)

			res, err := s.ingest.Ingest(context.Background(), &raw)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			tt.check(t, res.Document)
		})
	}
}

func TestIngestService_Ingest_SourceDependsOnIdentity(t *testing.T) {
	s := newTestStack(t, nil)
	upload := rawText("/docs/a.txt", leiTeletrabalho, leiHints())
	scraped := rawText("https://dre.pt/a", leiTeletrabalho, leiHints())
	scraped.Source = domain.SourceScraper

	a := s.mustIngest(t, upload)
	b := s.mustIngest(t, scraped)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, domain.SourceScraper, b.Source)
}

func TestIngestService_Ingest_Errors(t *testing.T) {
	s := newTestStack(t, nil)

	t.Run("nil raw", func(t *testing.T) {
		_, err := s.ingest.Ingest(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("blank content", func(t *testing.T) {
		raw := rawText("/docs/blank.txt", "  \n\n \t ", nil)
		_, err := s.ingest.Ingest(context.Background(), &raw)
		assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	})

	t.Run("unsupported format", func(t *testing.T) {
		raw := domain.RawDocument{URI: "/docs/a.bin", MIMEType: "application/octet-stream", Content: []byte{0xff}}
		_, err := s.ingest.Ingest(context.Background(), &raw)
		assert.Error(t, err)
	})
}

func TestIngestService_Ingest_NonLegalDocumentUsesCharacterChunks(t *testing.T) {
	s := newTestStack(t, nil)
	raw := rawText("/docs/contrato.txt", contratoArrendamento, map[string]string{
		domain.HintDocumentType: "contract",
	})

	res, err := s.ingest.Ingest(context.Background(), &raw)

	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeContract, res.Document.Type)
	require.NotEmpty(t, res.Chunks)
	assert.Equal(t, domain.ChunkKindCharacter, res.Chunks[0].Kind())
}

func TestIngestService_Ingest_Embedding(t *testing.T) {
	t.Run("no embedding service", func(t *testing.T) {
		s := newTestStack(t, nil)
		raw := rawText("/docs/lei.txt", leiTeletrabalho, leiHints())

		res, err := s.ingest.Ingest(context.Background(), &raw)

		require.NoError(t, err)
		assert.False(t, res.Embedded)
		assert.Zero(t, s.vectors.Len())
		assert.NotContains(t, res.Document.Metadata, MetaEmbeddingModel)
	})

	t.Run("provider failure stores without vectors", func(t *testing.T) {
		emb := newFakeEmbedder()
		emb.err = errors.New("quota exceeded")
		s := newTestStack(t, emb)
		raw := rawText("/docs/lei.txt", leiTeletrabalho, leiHints())

		res, err := s.ingest.Ingest(context.Background(), &raw)

		require.NoError(t, err)
		assert.False(t, res.Embedded)
		assert.Zero(t, s.vectors.Len())
		stored, err := s.docs.GetChunks(context.Background(), res.Document.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, stored)
	})

	t.Run("zero vectors are skipped", func(t *testing.T) {
		emb := newFakeEmbedder()
		emb.zeroAt = map[int]bool{0: true}
		s := newTestStack(t, emb)
		raw := rawText("/docs/lei.txt", leiTeletrabalho, leiHints())

		res, err := s.ingest.Ingest(context.Background(), &raw)

		require.NoError(t, err)
		assert.Nil(t, res.Chunks[0].Embedding)
		assert.Equal(t, len(res.Chunks)-1, s.vectors.Len())
		assert.Equal(t, len(res.Chunks) > 1, res.Embedded)
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		emb := newFakeEmbedder()
		emb.err = errors.New("request aborted")
		s := newTestStack(t, emb)
		raw := rawText("/docs/lei.txt", leiTeletrabalho, leiHints())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.ingest.Ingest(ctx, &raw)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIngestService_IngestBatch(t *testing.T) {
	s := newTestStack(t, newFakeEmbedder())
	raws := []domain.RawDocument{
		rawText("/docs/lei.txt", leiTeletrabalho, leiHints()),
		rawText("/docs/vazio.txt", "   ", nil),
		rawText("/docs/contrato.txt", contratoArrendamento, map[string]string{domain.HintDocumentType: "contract"}),
	}

	report, err := s.ingest.IngestBatch(context.Background(), raws)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Contains(t, err.Error(), "/docs/vazio.txt")

	require.Len(t, report.Items, 3)
	for i, raw := range raws {
		assert.Equal(t, raw.URI, report.Items[i].URI)
	}
	assert.NoError(t, report.Items[0].Err)
	assert.NotEmpty(t, report.Items[0].DocumentID)
	assert.Error(t, report.Items[1].Err)
	assert.NoError(t, report.Items[2].Err)
	assert.Equal(t, 2, report.Succeeded())
	assert.Equal(t, 1, report.Failed())

	docs, err := s.docs.ListDocuments(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, report.TotalChunks(), report.Items[0].Chunks+report.Items[2].Chunks)
}

func TestIngestService_IngestBatch_ManyDocuments(t *testing.T) {
	s := newTestStack(t, nil)
	var raws []domain.RawDocument
	for i := range 12 {
		content := fmt.Sprintf("Portaria n.º %d/2024\n\nArtigo 1.º\nObjeto\nFixa o valor %d.\n", i+1, i)
		raws = append(raws, rawText(fmt.Sprintf("/docs/p%d.txt", i), content, map[string]string{
			domain.HintTitle: fmt.Sprintf("Portaria n.º %d/2024", i+1),
		}))
	}

	report, err := s.ingest.IngestBatch(context.Background(), raws)

	require.NoError(t, err)
	assert.Equal(t, 12, report.Succeeded())
	docs, err := s.docs.ListDocuments(context.Background(), domain.DocumentTypePortaria, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 12)
}

func TestIngestService_IngestBatch_CancelledContext(t *testing.T) {
	s := newTestStack(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.ingest.IngestBatch(ctx, []domain.RawDocument{
		rawText("/docs/lei.txt", leiTeletrabalho, leiHints()),
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Items, 1)
	assert.Error(t, report.Items[0].Err)
}

func TestIngestService_Reprocess(t *testing.T) {
	s := newTestStack(t, newFakeEmbedder())
	ctx := context.Background()
	doc := s.mustIngest(t, rawText("/docs/lei.txt", leiTeletrabalho, leiHints()))
	before, err := s.docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)

	res, err := s.ingest.Reprocess(ctx, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, doc.ID, res.Document.ID)
	assert.Len(t, res.Chunks, len(before))
	assert.NotEqual(t, before[0].ID, res.Chunks[0].ID)
	assert.Equal(t, len(res.Chunks), s.vectors.Len())

	_, err = s.ingest.Reprocess(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestService_RemoveByURI(t *testing.T) {
	s := newTestStack(t, newFakeEmbedder())
	ctx := context.Background()
	doc := s.mustIngest(t, rawText("/docs/lei.txt", leiTeletrabalho, leiHints()))

	id, err := s.ingest.RemoveByURI(ctx, "/docs/lei.txt")

	require.NoError(t, err)
	assert.Equal(t, doc.ID, id)
	_, err = s.docs.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, s.vectors.Len())

	id, err = s.ingest.RemoveByURI(ctx, "/docs/unknown.txt")
	assert.NoError(t, err)
	assert.Empty(t, id)
}

func TestIngestService_Watch(t *testing.T) {
	s := newTestStack(t, nil)
	changes := make(chan domain.RawDocumentChange, 3)
	changes <- domain.RawDocumentChange{Type: domain.ChangeCreated, Document: rawText("/docs/lei.txt", leiTeletrabalho, leiHints())}
	changes <- domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: rawText("/docs/vazio.txt", "", nil)}
	changes <- domain.RawDocumentChange{Type: domain.ChangeDeleted, Document: domain.RawDocument{URI: "/docs/lei.txt"}}
	close(changes)

	var (
		mu    sync.Mutex
		items []domain.IngestItem
	)
	err := s.ingest.Watch(context.Background(), changes, func(it domain.IngestItem) {
		mu.Lock()
		defer mu.Unlock()
		items = append(items, it)
	})

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.NoError(t, items[0].Err)
	assert.NotEmpty(t, items[0].DocumentID)
	assert.ErrorIs(t, items[1].Err, domain.ErrEmptyDocument)
	assert.NoError(t, items[2].Err)
	assert.Equal(t, items[0].DocumentID, items[2].DocumentID)

	docs, err := s.docs.ListDocuments(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngestService_Watch_StopsOnCancel(t *testing.T) {
	s := newTestStack(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.ingest.Watch(ctx, make(chan domain.RawDocumentChange), nil)

	assert.ErrorIs(t, err, context.Canceled)
}
