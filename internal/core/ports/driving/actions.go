package driving

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// ResultActionService provides actions on search results.
type ResultActionService interface {
	// CopyToClipboard copies the passage with its citation to the system clipboard.
	CopyToClipboard(ctx context.Context, result *domain.SearchResult) error

	// OpenDocument opens the result's document in the default application.
	OpenDocument(ctx context.Context, result *domain.SearchResult) error
}
