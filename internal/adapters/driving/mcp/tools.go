package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/legal"
	"github.com/custodia-labs/lexrag/internal/postprocessors/legalchunker"
)

const defaultSearchLimit = 10

// errAskUnavailable is returned by ask_legal_question when no ask service is wired.
var errAskUnavailable = errors.New("mcp: question answering is not configured")

// SearchInput is the input schema for the search_legislation tool.
type SearchInput struct {
	Query         string   `json:"query" jsonschema:"the search query, in Portuguese for best results"`
	Limit         int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Mode          string   `json:"mode,omitempty" jsonschema:"retrieval mode: vector, text or hybrid"`
	DocumentTypes []string `json:"document_types,omitempty" jsonschema:"restrict to document types such as lei or decreto_lei"`
	Article       string   `json:"article,omitempty" jsonschema:"restrict to an article, e.g. 3 or Artigo 3.º"`
}

// SearchOutput is the output schema for the search_legislation tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID     string   `json:"document_id"`
	Title          string   `json:"title"`
	URI            string   `json:"uri"`
	DocumentType   string   `json:"document_type,omitempty"`
	Number         string   `json:"number,omitempty"`
	Score          float64  `json:"score"`
	ArticleNumbers []string `json:"article_numbers,omitempty"`
	Highlights     []string `json:"highlights,omitempty"`
	Content        string   `json:"content,omitempty"`
}

// AskInput is the input schema for the ask_legal_question tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the legal question"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of legal contexts to retrieve"`
	UseLLM   bool   `json:"use_llm,omitempty" jsonschema:"generate an answer with the configured LLM"`
}

// AskOutput is the output schema for the ask_legal_question tool.
type AskOutput struct {
	Answer  string               `json:"answer,omitempty"`
	Model   string               `json:"model,omitempty"`
	Sources []SearchResultOutput `json:"sources"`
}

// ChunkInput is the input schema for the chunk_legal_text tool.
type ChunkInput struct {
	Text         string `json:"text" jsonschema:"the legal text to split into article-aware chunks"`
	MaxChunkSize int    `json:"max_chunk_size,omitempty" jsonschema:"maximum chunk size in characters"`
	MinChunkSize int    `json:"min_chunk_size,omitempty" jsonschema:"minimum chunk size in characters"`
}

// ChunkOutput is the output schema for the chunk_legal_text tool.
type ChunkOutput struct {
	Chunks          []legalchunker.Record `json:"chunks"`
	Articles        int                   `json:"articles"`
	DroppedArticles int                   `json:"dropped_articles"`
	Fallback        bool                  `json:"fallback"`
}

// registerTools adds the tools. ask_legal_question is only offered when an
// ask service is wired.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_legislation",
		Description: "Search indexed Portuguese legislation by meaning or keywords",
	}, s.handleSearch)

	if s.ports.Ask != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask_legal_question",
			Description: "Answer a legal question grounded in the indexed legislation",
		}, s.handleAsk)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunk_legal_text",
		Description: "Split Portuguese legal text into article-aware chunks",
	}, s.handleChunk)
}

// handleSearch handles the search_legislation tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	opts := domain.SearchOptions{Limit: limit}
	if input.Mode != "" {
		mode := domain.SearchMode(strings.ToLower(input.Mode))
		if !mode.IsValid() {
			return nil, SearchOutput{}, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, input.Mode)
		}
		opts.Mode = mode
	}

	filter, err := buildFilter(input.DocumentTypes, input.Article)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	opts.Filter = filter

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toResultOutputs(results),
		Count:   len(results),
	}, nil
}

// handleAsk handles the ask_legal_question tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Ask == nil {
		return nil, AskOutput{}, errAskUnavailable
	}
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	answer, err := s.ports.Ask.Ask(ctx, input.Question, driving.AskOptions{
		TopK:   input.TopK,
		UseLLM: input.UseLLM,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Model:   answer.Model,
		Sources: toResultOutputs(answer.Sources),
	}, nil
}

// handleChunk handles the chunk_legal_text tool invocation. The text is
// cleaned the way ingest cleans it, so offsets refer to the cleaned text.
// Sizes given in the input override the server chunker for this call only.
func (s *Server) handleChunk(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ChunkInput,
) (*mcp.CallToolResult, ChunkOutput, error) {
	chunker := s.ports.Chunker
	if input.MaxChunkSize > 0 || input.MinChunkSize > 0 {
		maxSize, minSize := chunker.MaxChunkSize(), chunker.MinChunkSize()
		if input.MaxChunkSize > 0 {
			maxSize = input.MaxChunkSize
		}
		if input.MinChunkSize > 0 {
			minSize = input.MinChunkSize
		}
		if minSize > maxSize {
			return nil, ChunkOutput{}, fmt.Errorf("%w: min_chunk_size %d exceeds max_chunk_size %d",
				domain.ErrInvalidInput, minSize, maxSize)
		}
		chunker = legalchunker.NewChunker(
			legalchunker.WithMaxChunkSize(maxSize),
			legalchunker.WithMinChunkSize(minSize),
		)
	}

	result := chunker.Chunk(legal.CleanText(input.Text))
	return nil, ChunkOutput{
		Chunks:          legalchunker.Records(result.Chunks),
		Articles:        result.Articles,
		DroppedArticles: result.DroppedArticles,
		Fallback:        result.Fallback,
	}, nil
}

func buildFilter(types []string, article string) (domain.ChunkFilter, error) {
	var filter domain.ChunkFilter
	for _, t := range types {
		docType, err := domain.ParseDocumentType(t)
		if err != nil {
			return domain.ChunkFilter{}, err
		}
		filter.DocumentTypes = append(filter.DocumentTypes, docType)
	}
	filter.ArticleNumber = legal.NormaliseArticleLabel(article)
	return filter, nil
}

func toResultOutputs(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		r := &results[i]
		out[i] = SearchResultOutput{
			DocumentID: r.Document.ID,
			Title:      r.Document.Title,
			URI:        r.Document.URI,
			Number:     r.Document.Number,
			Score:      r.Score,
			Highlights: r.Highlights,
			Content:    r.Chunk.Content,
		}
		if r.Chunk.Meta != nil {
			out[i].ArticleNumbers = r.Chunk.Meta.ArticleNumbers()
		}
		if r.Document.Type != "" && r.Document.Type != domain.DocumentTypeOther {
			out[i].DocumentType = string(r.Document.Type)
		}
	}
	return out
}
