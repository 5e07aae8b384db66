package mcp

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results   []domain.SearchResult
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockAskService implements driving.AskService for testing.
type mockAskService struct {
	answer   *domain.Answer
	err      error
	lastOpts driving.AskOptions
}

func (m *mockAskService) Ask(_ context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Query: question}, nil
}

func (m *mockAskService) AnalyzeContract(_ context.Context, id string, analysis domain.AnalysisType) (*domain.ContractAnalysis, error) {
	return &domain.ContractAnalysis{DocumentID: id, Type: analysis}, nil
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs    []domain.Document
	chunks  []domain.Chunk
	listErr error
}

func (m *mockDocumentService) List(_ context.Context, _ domain.DocumentType, _ int) ([]domain.Document, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.docs, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Chunks(ctx context.Context, id, _ string) ([]domain.Chunk, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.DocumentID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return nil
}

func (m *mockDocumentService) Open(_ context.Context, _ string) error {
	return nil
}
