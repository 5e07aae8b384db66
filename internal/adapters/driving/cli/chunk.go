package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/connectors/filesystem"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/legal"
	"github.com/custodia-labs/lexrag/internal/normalisers"
	"github.com/custodia-labs/lexrag/internal/postprocessors/legalchunker"
)

var (
	chunkJSON    bool
	chunkMaxSize int
	chunkMinSize int
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Preview article-aware chunks of a file",
	Long: `Splits a legal document into chunks without indexing it.

Articles ("Artigo 5.º") are kept whole and packed up to the maximum chunk
size. Text without articles is split by characters instead.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipInit: "true"},
	RunE:        runChunk,
}

func init() {
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output chunk records as JSON")
	chunkCmd.Flags().IntVar(&chunkMaxSize, "max-size", legalchunker.DefaultMaxChunkSize, "maximum chunk size in characters")
	chunkCmd.Flags().IntVar(&chunkMinSize, "min-size", legalchunker.DefaultMinChunkSize, "shortest preamble kept as its own chunk")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	text, err := readText(ctx, args[0])
	if err != nil {
		return err
	}

	chunker := legalchunker.NewChunker(
		legalchunker.WithMaxChunkSize(chunkMaxSize),
		legalchunker.WithMinChunkSize(chunkMinSize),
	)
	result := chunker.Chunk(text)

	if chunkJSON {
		data, err := json.MarshalIndent(legalchunker.Records(result.Chunks), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%s %d chunks, %d articles", heading("Chunks:"), len(result.Chunks), result.Articles)
	if result.DroppedArticles > 0 {
		cmd.Printf(", %d empty articles dropped", result.DroppedArticles)
	}
	if result.Fallback {
		cmd.Print(warnStyle.Render(" (no articles found, split by characters)"))
	}
	cmd.Println()
	cmd.Println()

	for _, r := range legalchunker.Records(result.Chunks) {
		cmd.Printf("  [%d] %s %d-%d", r.ChunkIndex, r.Metadata.ChunkType, r.StartChar, r.EndChar)
		switch {
		case r.Metadata.ArticleCount == 1:
			cmd.Printf("  %s", r.Metadata.FirstArticle)
		case r.Metadata.ArticleCount > 1:
			cmd.Printf("  %s .. %s", r.Metadata.FirstArticle, r.Metadata.LastArticle)
		}
		cmd.Println()
		cmd.Printf("      %s\n", label(preview(r.Text, 100)))
	}
	return nil
}

// readText reads and normalises one file.
func readText(ctx context.Context, path string) (string, error) {
	raws, err := collectDocuments(ctx, filesystem.New(path))
	if err != nil {
		return "", err
	}
	if len(raws) == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrEmptyDocument, path)
	}

	res, err := normalisers.NewDefaultRegistry().Normalise(ctx, &raws[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return legal.CleanText(res.Document.Content), nil
}

// collectDocuments drains a full sync of the connector.
func collectDocuments(ctx context.Context, c *filesystem.Connector) ([]domain.RawDocument, error) {
	docs, errs := c.FullSync(ctx)

	var out []domain.RawDocument
	for raw := range docs {
		out = append(out, raw)
	}
	if err := <-errs; err != nil {
		return out, err
	}
	return out, nil
}

// preview flattens whitespace and cuts s to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
