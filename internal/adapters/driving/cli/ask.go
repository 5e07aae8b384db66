package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

var (
	askTopK    int
	askNoLLM   bool
	askTypes   []string
	askArticle string

	analyzeType string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a legal question",
	Long: `Retrieves the most relevant legal passages and asks the configured LLM
to answer from them, citing the documents used.

Use --no-llm to only list the retrieved passages.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [doc-id]",
	Short: "Analyse a contract against Portuguese law",
	Long: `Runs an LLM review of a stored contract.

Analysis types:
  comprehensive - parties, obligations, risks and applicable law (default)
  summary       - short plain-language summary
  compliance    - compliance issues and suggested fixes`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askNoLLM, "no-llm", false, "only retrieve passages, do not generate an answer")
	askCmd.Flags().StringSliceVarP(&askTypes, "type", "t", nil, "restrict to document types")
	askCmd.Flags().StringVarP(&askArticle, "article", "a", "", "restrict to an article")
	rootCmd.AddCommand(askCmd)

	analyzeCmd.Flags().StringVar(&analyzeType, "type", string(domain.AnalysisComprehensive),
		"analysis type: comprehensive, summary or compliance")
	rootCmd.AddCommand(analyzeCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errNotConfigured("ask")
	}

	filter, err := searchFilter(askTypes, askArticle)
	if err != nil {
		return err
	}

	answer, err := askService.Ask(commandContext(cmd), args[0], driving.AskOptions{
		TopK:   askTopK,
		UseLLM: !askNoLLM,
		Filter: filter,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if len(answer.Sources) == 0 {
		cmd.Println("No relevant legal passages found.")
		return nil
	}

	if answer.Text != "" {
		cmd.Println(heading("Answer:"))
		cmd.Println()
		cmd.Println(answer.Text)
		cmd.Println()
	}

	cmd.Println(heading("Sources:"))
	cmd.Println()
	for i := range answer.Sources {
		printResult(cmd, i+1, &answer.Sources[i])
	}

	footer := []string{answer.ProcessingTime.Round(time.Millisecond).String()}
	if answer.Model != "" {
		footer = append([]string{answer.Model}, footer...)
	}
	cmd.Println(label(strings.Join(footer, " · ")))
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errNotConfigured("ask")
	}

	analysis := domain.AnalysisType(strings.ToLower(analyzeType))
	if !analysis.IsValid() {
		return fmt.Errorf("%w: unknown analysis type %q", domain.ErrInvalidInput, analyzeType)
	}

	result, err := askService.AnalyzeContract(commandContext(cmd), args[0], analysis)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	cmd.Printf("%s %s (%s)\n\n", heading("Analysis:"), result.DocumentID, result.Type)
	cmd.Println(result.Analysis)

	printList(cmd, "Relevant laws", result.RelevantLaws)
	printList(cmd, "Issues", result.Issues)
	printList(cmd, "Suggestions", result.Suggestions)

	if result.Model != "" {
		cmd.Println()
		cmd.Println(label(result.Model + " · " + result.ProcessingTime.Round(time.Millisecond).String()))
	}
	return nil
}

func printList(cmd *cobra.Command, title string, items []string) {
	if len(items) == 0 {
		return
	}
	cmd.Printf("\n%s\n", heading(title+":"))
	for _, it := range items {
		cmd.Printf("  - %s\n", it)
	}
}
