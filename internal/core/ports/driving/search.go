package driving

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search retrieves chunks for a query using the requested mode and filters.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// AskService answers questions over the indexed legislation.
type AskService interface {
	// Ask retrieves context and, when useLLM is set, generates an answer.
	Ask(ctx context.Context, question string, opts AskOptions) (*domain.Answer, error)

	// AnalyzeContract reviews a stored contract against Portuguese law.
	AnalyzeContract(ctx context.Context, documentID string, analysis domain.AnalysisType) (*domain.ContractAnalysis, error)
}

// AskOptions configures a question.
type AskOptions struct {
	// TopK is the number of contexts retrieved. Zero means the configured default.
	TopK int

	// UseLLM enables answer generation.
	UseLLM bool

	// Filter restricts the retrieved contexts.
	Filter domain.ChunkFilter
}
