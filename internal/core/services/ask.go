package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/legal"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Ensure AskService implements the interfaces.
var (
	_ driving.AskService      = (*AskService)(nil)
	_ driven.PromptStoreAware = (*AskService)(nil)
)

// Context limits sent to the LLM, in characters.
const (
	maxContextChars  = 1000
	maxContractChars = 4000
)

// AskService answers legal questions over retrieved legislation and
// reviews stored contracts.
type AskService struct {
	search   driving.SearchService
	docStore driven.DocumentStore
	llm      driven.LLMService
	prompts  driven.PromptStore
	topK     int
	now      func() time.Time
}

// NewAskService creates an ask service.
// The llm parameter is optional; without it only sources are returned.
func NewAskService(
	search driving.SearchService,
	docStore driven.DocumentStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	topK int,
) *AskService {
	if topK <= 0 {
		topK = domain.DefaultAppSettings().Retrieval.TopK
	}
	return &AskService{
		search:   search,
		docStore: docStore,
		llm:      llm,
		prompts:  prompts,
		topK:     topK,
		now:      time.Now,
	}
}

// SetPromptStore replaces the prompt templates.
func (s *AskService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Ask retrieves the top contexts for a question and, when requested,
// generates an answer grounded on them. No answer is generated when
// nothing relevant was found.
func (s *AskService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	start := s.now()
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if opts.UseLLM && s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.topK
	}

	sources, err := s.search.Search(ctx, question, domain.SearchOptions{Limit: topK, Filter: opts.Filter})
	if err != nil {
		return nil, fmt.Errorf("retrieve contexts: %w", err)
	}
	logger.Debug("Ask: %d contexts for %q", len(sources), question)

	answer := &domain.Answer{Query: question, Sources: sources}
	if opts.UseLLM && len(sources) > 0 {
		system, err := s.loadPrompt(driven.PromptLegalSystem)
		if err != nil {
			return nil, err
		}
		template, err := s.loadPrompt(driven.PromptLegalAnswer)
		if err != nil {
			return nil, err
		}

		prompt := fmt.Sprintf(template, buildContextBlock(sources), question)
		text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{SystemPrompt: system})
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		answer.Text = strings.TrimSpace(text)
		answer.Model = s.llm.ModelName()
	}

	answer.ProcessingTime = s.now().Sub(start)
	return answer, nil
}

// buildContextBlock renders the retrieved contexts as numbered documents.
func buildContextBlock(sources []domain.SearchResult) string {
	blocks := make([]string, len(sources))
	for i, src := range sources {
		title := src.Document.Title
		if title == "" {
			title = "Sem título"
		}
		date := src.Document.PublicationDate
		if date == "" {
			date = "Sem data"
		}
		blocks[i] = fmt.Sprintf("**Documento %d:**\nTítulo: %s\nTipo: %s\nData: %s\nTexto: %s...",
			i+1, title, src.Document.Type.Label(), date, legal.Truncate(src.Chunk.Content, maxContextChars))
	}
	return strings.Join(blocks, "\n\n")
}

// AnalyzeContract reviews a stored document with the chosen analysis prompt.
func (s *AskService) AnalyzeContract(
	ctx context.Context, documentID string, analysis domain.AnalysisType,
) (*domain.ContractAnalysis, error) {
	start := s.now()
	if analysis == "" {
		analysis = domain.AnalysisComprehensive
	}
	if !analysis.IsValid() {
		return nil, fmt.Errorf("%w: unknown analysis type %q", domain.ErrInvalidInput, analysis)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	template, err := s.loadPrompt(analysisPrompt(analysis))
	if err != nil {
		return nil, err
	}

	logger.Debug("Analyzing %s (%s)", documentID, analysis)
	prompt := fmt.Sprintf(template, legal.Truncate(doc.Content, maxContractChars)+"...")
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("analyze contract: %w", err)
	}

	result := &domain.ContractAnalysis{
		DocumentID: documentID,
		Type:       analysis,
		Analysis:   strings.TrimSpace(text),
		Model:      s.llm.ModelName(),
	}
	sections := parseAnalysisSections(result.Analysis)
	result.RelevantLaws = sections.laws
	result.Issues = sections.issues
	result.Suggestions = sections.suggestions
	if len(result.RelevantLaws) == 0 {
		result.RelevantLaws = legal.LawReferenceStrings(doc.Content)
	}

	result.ProcessingTime = s.now().Sub(start)
	return result, nil
}

func analysisPrompt(a domain.AnalysisType) string {
	switch a {
	case domain.AnalysisSummary:
		return driven.PromptContractSummary
	case domain.AnalysisCompliance:
		return driven.PromptContractCompliance
	default:
		return driven.PromptContractComprehensive
	}
}

func (s *AskService) loadPrompt(name string) (string, error) {
	if s.prompts == nil {
		return "", fmt.Errorf("load prompt %s: no prompt store", name)
	}
	p, err := s.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	return p, nil
}

type analysisSections struct {
	laws        []string
	issues      []string
	suggestions []string
}

// parseAnalysisSections collects bullet items under the law, issue and
// suggestion headings of an analysis. Headings are recognised by keyword.
func parseAnalysisSections(text string) analysisSections {
	var out analysisSections
	var current *[]string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if item, ok := bulletItem(line); ok {
			if current != nil && item != "" {
				*current = append(*current, item)
			}
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "legislação") || strings.Contains(lower, "leis"):
			current = &out.laws
		case strings.Contains(lower, "problema") || strings.Contains(lower, "quest"):
			current = &out.issues
		case strings.Contains(lower, "sugest") || strings.Contains(lower, "correç"):
			current = &out.suggestions
		}
	}
	return out
}

// bulletItem strips a "-", "*" or "•" list marker.
func bulletItem(line string) (string, bool) {
	for _, marker := range []string{"-", "*", "•"} {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			// "**Heading**" is emphasis, not a list item
			if marker == "*" && strings.HasPrefix(rest, "*") {
				return "", false
			}
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}
