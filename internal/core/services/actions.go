package services

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// Ensure ResultActionService implements the interface.
var _ driving.ResultActionService = (*ResultActionService)(nil)

// ResultActionService provides actions on search results.
type ResultActionService struct {
	copy func(text string) error
	open func(target string) error
}

// NewResultActionService creates a result action service using the system
// clipboard and default application handler.
func NewResultActionService() *ResultActionService {
	return &ResultActionService{
		copy: clipboard.WriteAll,
		open: openURL,
	}
}

// CopyToClipboard copies the passage prefixed with its citation, for example
// "Lei n.º 12/2024, Artigo 5.º".
func (s *ResultActionService) CopyToClipboard(_ context.Context, result *domain.SearchResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is nil", domain.ErrInvalidInput)
	}
	return s.copy(Citation(result) + "\n\n" + result.Chunk.Content)
}

// OpenDocument opens the result's document in the default application.
func (s *ResultActionService) OpenDocument(_ context.Context, result *domain.SearchResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is nil", domain.ErrInvalidInput)
	}
	return openDocument(&result.Document, s.open)
}

// Citation names the document and, when known, the articles of a result.
func Citation(result *domain.SearchResult) string {
	title := result.Document.Title
	if title == "" {
		title = result.Document.ID
	}
	if result.Chunk.Meta == nil {
		return title
	}
	switch articles := result.Chunk.Meta.ArticleNumbers(); len(articles) {
	case 0:
		return title
	case 1:
		return title + ", " + articles[0]
	default:
		return title + ", " + articles[0] + " a " + articles[len(articles)-1]
	}
}
