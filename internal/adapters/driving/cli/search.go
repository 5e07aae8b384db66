package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/legal"
)

var (
	searchLimit   int
	searchJSON    bool
	searchMode    string
	searchTypes   []string
	searchArticle string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Searches indexed legislation and contracts.

Modes:
  vector - semantic similarity over chunk embeddings
  text   - keyword (BM25) search
  hybrid - both, merged with reciprocal rank fusion (default)

Filter with --type and --article to narrow results, e.g.:
  lexrag search --type lei --article 5 "prazo de pagamento"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: vector, text or hybrid")
	searchCmd.Flags().StringSliceVarP(&searchTypes, "type", "t", nil, "restrict to document types")
	searchCmd.Flags().StringVarP(&searchArticle, "article", "a", "", "restrict to an article (e.g. 5 or 5.º)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errNotConfigured("search")
	}

	filter, err := searchFilter(searchTypes, searchArticle)
	if err != nil {
		return err
	}
	opts := domain.SearchOptions{
		Limit:  searchLimit,
		Filter: filter,
	}
	if searchMode != "" {
		mode := domain.SearchMode(strings.ToLower(searchMode))
		if !mode.IsValid() {
			return fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, searchMode)
		}
		opts.Mode = mode
	}

	results, err := searchService.Search(commandContext(cmd), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	outputSearchTable(cmd, results)
	return nil
}

func searchFilter(types []string, article string) (domain.ChunkFilter, error) {
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

// searchResultJSON is the --json form of a hit.
type searchResultJSON struct {
	DocumentID string   `json:"document_id"`
	ChunkID    string   `json:"chunk_id"`
	Title      string   `json:"title"`
	Type       string   `json:"document_type"`
	Number     string   `json:"number,omitempty"`
	URI        string   `json:"uri"`
	Articles   []string `json:"article_numbers"`
	Score      float64  `json:"score"`
	Content    string   `json:"content"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i := range results {
		r := &results[i]
		out[i] = searchResultJSON{
			DocumentID: r.Document.ID,
			ChunkID:    r.Chunk.ID,
			Title:      r.Document.Title,
			Type:       string(r.Document.Type),
			Number:     r.Document.Number,
			URI:        r.Document.URI,
			Articles:   chunkArticles(&r.Chunk),
			Score:      r.Score,
			Content:    r.Chunk.Content,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println(heading("Results:"))
	cmd.Println()
	for i := range results {
		printResult(cmd, i+1, &results[i])
	}
}

// printResult writes "[N] Title (score)" followed by articles and a snippet.
func printResult(cmd *cobra.Command, n int, r *domain.SearchResult) {
	title := r.Document.Title
	if title == "" {
		title = r.Document.ID
	}

	cmd.Printf("  [%d] %s %s\n", n, title, scoreStyle.Render(fmt.Sprintf("(%.2f)", r.Score)))
	if articles := chunkArticles(&r.Chunk); len(articles) > 0 {
		cmd.Printf("      %s\n", label(strings.Join(articles, ", ")))
	}

	snippet := preview(r.Chunk.Content, 160)
	if len(r.Highlights) > 0 {
		snippet = r.Highlights[0]
	}
	if snippet != "" {
		cmd.Printf("      %s\n", snippet)
	}
	cmd.Println()
}

func chunkArticles(c *domain.Chunk) []string {
	if c.Meta == nil {
		return []string{}
	}
	if numbers := c.Meta.ArticleNumbers(); numbers != nil {
		return numbers
	}
	return []string{}
}
