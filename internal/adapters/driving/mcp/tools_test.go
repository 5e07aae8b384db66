package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{
				{
					Document: domain.Document{
						ID:     "doc-1",
						Title:  "Lei n.º 12/2024",
						URI:    "https://diariodarepublica.pt/dr/detalhe/lei/12-2024",
						Type:   domain.DocumentTypeLei,
						Number: "12/2024",
					},
					Chunk: domain.Chunk{
						Content: "Artigo 3.º\nDefinições",
						Meta:    domain.ArticlesMeta{Numbers: []string{"Artigo 3.º"}},
					},
					Score:      0.95,
					Highlights: []string{"Definições"},
				},
			},
		}
		server := newTestServer(t, &Ports{Search: mockSearch})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "definições", Limit: 5})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		got := output.Results[0]
		assert.Equal(t, "doc-1", got.DocumentID)
		assert.Equal(t, "Lei n.º 12/2024", got.Title)
		assert.Equal(t, "lei", got.DocumentType)
		assert.Equal(t, "12/2024", got.Number)
		assert.Equal(t, 0.95, got.Score)
		assert.Equal(t, []string{"Artigo 3.º"}, got.ArticleNumbers)
		assert.Equal(t, "Artigo 3.º\nDefinições", got.Content)
		assert.Equal(t, 5, mockSearch.lastOpts.Limit)
	})

	t.Run("default limit is 10", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server := newTestServer(t, &Ports{Search: mockSearch})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "contrato"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, 10, mockSearch.lastOpts.Limit)
	})

	t.Run("filters and mode are passed through", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server := newTestServer(t, &Ports{Search: mockSearch})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{
			Query:         "arrendamento",
			Mode:          "Hybrid",
			DocumentTypes: []string{"decreto-lei", "Lei"},
			Article:       "5",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.SearchModeHybrid, mockSearch.lastOpts.Mode)
		assert.Equal(t, []domain.DocumentType{domain.DocumentTypeDecretoLei, domain.DocumentTypeLei},
			mockSearch.lastOpts.Filter.DocumentTypes)
		assert.Equal(t, "Artigo 5.º", mockSearch.lastOpts.Filter.ArticleNumber)
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name  string
			input SearchInput
		}{
			{name: "empty query", input: SearchInput{Query: "  "}},
			{name: "unknown mode", input: SearchInput{Query: "lei", Mode: "fuzzy"}},
			{name: "unknown type", input: SearchInput{Query: "lei", DocumentTypes: []string{"sentença"}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := newTestServer(t, &Ports{Search: &mockSearchService{}})
				_, _, err := server.handleSearch(ctx, nil, tt.input)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			})
		}
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{err: errors.New("search failed")}})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "lei"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and sources", func(t *testing.T) {
		ask := &mockAskService{answer: &domain.Answer{
			Query: "Qual o prazo?",
			Text:  "O prazo é de 30 dias.",
			Model: "gemini-1.5-flash",
			Sources: []domain.SearchResult{
				{Document: domain.Document{ID: "doc-1", Title: "Lei n.º 12/2024"}, Score: 0.8},
			},
		}}
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Ask: ask})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "Qual o prazo?", TopK: 3, UseLLM: true})

		require.NoError(t, err)
		assert.Equal(t, "O prazo é de 30 dias.", output.Answer)
		assert.Equal(t, "gemini-1.5-flash", output.Model)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "doc-1", output.Sources[0].DocumentID)
		assert.Equal(t, 3, ask.lastOpts.TopK)
		assert.True(t, ask.lastOpts.UseLLM)
	})

	t.Run("ask service not configured", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "Qual o prazo?"})

		assert.ErrorIs(t, err, errAskUnavailable)
	})

	t.Run("empty question", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Ask: &mockAskService{}})

		_, _, err := server.handleAsk(ctx, nil, AskInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

// legalText builds count articles of exactly size characters each.
func legalText(count, size int) string {
	parts := make([]string, count)
	for i := range parts {
		head := fmt.Sprintf("Artigo %d.º\nTítulo %d\n", i+1, i+1)
		parts[i] = head + strings.Repeat("x", size-utf8.RuneCountInString(head))
	}
	return strings.Join(parts, "\n\n")
}

func TestServer_handleChunk(t *testing.T) {
	ctx := context.Background()

	t.Run("packs articles within max size", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}})

		_, output, err := server.handleChunk(ctx, nil, ChunkInput{Text: legalText(5, 150), MaxChunkSize: 400})

		require.NoError(t, err)
		assert.Equal(t, 5, output.Articles)
		assert.False(t, output.Fallback)
		require.Len(t, output.Chunks, 3)
		assert.Equal(t, []string{"Artigo 1.º", "Artigo 2.º"}, output.Chunks[0].Metadata.ArticleNumbers)
		assert.Equal(t, "articles", output.Chunks[0].Metadata.ChunkType)
		assert.Equal(t, 2, output.Chunks[2].ChunkIndex)
	})

	t.Run("override does not change server chunker", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server := newTestServer(t, ports)
		before := ports.Chunker.MaxChunkSize()

		_, _, err := server.handleChunk(ctx, nil, ChunkInput{Text: legalText(1, 100), MaxChunkSize: 300})

		require.NoError(t, err)
		assert.Equal(t, before, ports.Chunker.MaxChunkSize())
	})

	t.Run("min above max is rejected", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}})

		_, _, err := server.handleChunk(ctx, nil, ChunkInput{Text: "x", MaxChunkSize: 100, MinChunkSize: 200})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("crlf and decomposed accents are cleaned", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}})
		text := "Artigo 1.º\r\nObjeto\r\nTexto um.\r\nCAPI\u0301TULO II\r\nDisposições finais\r\n" +
			"Artigo 2.º\r\nFim\r\nTexto dois."

		_, output, err := server.handleChunk(ctx, nil, ChunkInput{Text: text})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Articles)
		require.NotEmpty(t, output.Chunks)
		for _, c := range output.Chunks {
			assert.NotContains(t, c.Text, "CAPÍTULO")
			assert.NotContains(t, c.Text, "\r")
		}
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}})

		_, output, err := server.handleChunk(ctx, nil, ChunkInput{})

		require.NoError(t, err)
		assert.Empty(t, output.Chunks)
	})
}
