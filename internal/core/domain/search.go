package domain

import "time"

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Mode selects vector, keyword or hybrid retrieval.
	// Empty means the configured default.
	Mode SearchMode

	// Filter restricts results by document and chunk metadata.
	Filter ChunkFilter
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Document is the matched document.
	Document Document

	// Chunk is the specific chunk that matched.
	Chunk Chunk

	// Score is the relevance score. Higher is better.
	Score float64

	// Highlights contains snippets with matched terms.
	Highlights []string
}

// Answer is the result of a question answered over retrieved legislation.
type Answer struct {
	// Query is the question as asked.
	Query string

	// Text is the generated answer. Empty when the LLM was not used.
	Text string

	// Sources are the retrieved contexts, best first.
	Sources []SearchResult

	// Model is the LLM that produced the answer.
	Model string

	// ProcessingTime is the wall-clock time spent answering.
	ProcessingTime time.Duration
}

// AnalysisType selects the contract analysis prompt.
type AnalysisType string

// Available analysis types.
const (
	AnalysisComprehensive AnalysisType = "comprehensive"
	AnalysisSummary       AnalysisType = "summary"
	AnalysisCompliance    AnalysisType = "compliance"
)

// IsValid returns true if the analysis type is recognised.
func (a AnalysisType) IsValid() bool {
	switch a {
	case AnalysisComprehensive, AnalysisSummary, AnalysisCompliance:
		return true
	default:
		return false
	}
}

// AllAnalysisTypes returns every analysis type.
func AllAnalysisTypes() []AnalysisType {
	return []AnalysisType{AnalysisComprehensive, AnalysisSummary, AnalysisCompliance}
}

// ContractAnalysis is the structured outcome of analysing a contract.
type ContractAnalysis struct {
	// DocumentID identifies the analysed document.
	DocumentID string

	// Type is the analysis that was run.
	Type AnalysisType

	// Analysis is the full LLM response.
	Analysis string

	// RelevantLaws lists laws the analysis refers to.
	RelevantLaws []string

	// Issues lists potential problems found.
	Issues []string

	// Suggestions lists recommended changes.
	Suggestions []string

	// Model is the LLM that produced the analysis.
	Model string

	// ProcessingTime is the wall-clock time spent.
	ProcessingTime time.Duration
}
