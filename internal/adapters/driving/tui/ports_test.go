package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

type mockSearchService struct {
	results []domain.SearchResult
	err     error
}

func (m *mockSearchService) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return m.results, m.err
}

type mockDocumentService struct {
	driving.DocumentService
	chunks    []domain.Chunk
	chunksFor string
}

func (m *mockDocumentService) Chunks(_ context.Context, documentID, _ string) ([]domain.Chunk, error) {
	m.chunksFor = documentID
	return m.chunks, nil
}

func (m *mockDocumentService) List(_ context.Context, _ domain.DocumentType, _ int) ([]domain.Document, error) {
	return nil, nil
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"nil ports", nil, ErrInvalidPorts},
		{"missing search", NewPorts(nil, &mockDocumentService{}), ErrMissingSearchService},
		{"missing document", NewPorts(&mockSearchService{}, nil), ErrMissingDocumentService},
		{"valid", NewPorts(&mockSearchService{}, &mockDocumentService{}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewPorts_OptionalServicesUnset(t *testing.T) {
	p := NewPorts(&mockSearchService{}, &mockDocumentService{})

	assert.Nil(t, p.Ask)
	assert.Nil(t, p.Settings)
	assert.Nil(t, p.ResultAction)
}
