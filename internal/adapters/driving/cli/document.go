package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/postprocessors/legalchunker"
)

var (
	documentListType  string
	documentListLimit int
	documentArticle   string
	documentChunkJSON bool
	documentEnqueue   bool
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List, view, re-chunk, open or delete indexed documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Print a document's chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Remove a document from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Re-chunk and re-embed a document",
	Long: `Re-chunks a stored document with the current chunking settings and
replaces its chunks and embeddings.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentReprocess,
}

var documentOpenCmd = &cobra.Command{
	Use:   "open [doc-id]",
	Short: "Open document in default application",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentOpen,
}

func init() {
	documentListCmd.Flags().StringVarP(&documentListType, "type", "t", "", "only list documents of this type")
	documentListCmd.Flags().IntVarP(&documentListLimit, "limit", "n", 50, "maximum number of documents")
	documentChunksCmd.Flags().StringVarP(&documentArticle, "article", "a", "", "only chunks carrying this article")
	documentChunksCmd.Flags().BoolVar(&documentChunkJSON, "json", false, "output chunk records as JSON")
	documentReprocessCmd.Flags().BoolVar(&documentEnqueue, "enqueue", false, "hand the job to the background worker")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReprocessCmd)
	documentCmd.AddCommand(documentOpenCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	var docType domain.DocumentType
	if documentListType != "" {
		t, err := domain.ParseDocumentType(documentListType)
		if err != nil {
			return err
		}
		docType = t
	}

	docs, err := documentService.List(commandContext(cmd), docType, documentListLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		cmd.Printf("    Type:  %s", docs[i].Type.Label())
		if docs[i].Number != "" {
			cmd.Printf(" %s", docs[i].Number)
		}
		cmd.Println()
		if docs[i].PublicationDate != "" {
			cmd.Printf("    Date:  %s\n", docs[i].PublicationDate)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	details, err := documentService.GetDetails(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document details: %w", err)
	}
	doc := details.Document

	cmd.Printf("%s %s\n\n", heading("Document:"), doc.ID)
	cmd.Printf("  Title:       %s\n", doc.Title)
	cmd.Printf("  Type:        %s\n", doc.Type.Label())
	if doc.Number != "" {
		cmd.Printf("  Number:      %s\n", doc.Number)
	}
	if doc.PublicationDate != "" {
		cmd.Printf("  Published:   %s\n", doc.PublicationDate)
	}
	cmd.Printf("  Source:      %s\n", doc.Source)
	cmd.Printf("  URI:         %s\n", doc.URI)
	cmd.Printf("  Chunks:      %d\n", details.ChunkCount)
	cmd.Printf("  Articles:    %d\n", details.ArticleCount)
	cmd.Printf("  Ingested:    %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:     %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(details.KindCounts) > 0 {
		cmd.Println("\n  Chunk kinds:")
		for _, kind := range sortedKeys(details.KindCounts) {
			cmd.Printf("    %s: %d\n", kind, details.KindCounts[kind])
		}
	}

	if len(details.LawReferences) > 0 {
		cmd.Println("\n  Cited laws:")
		for _, ref := range details.LawReferences {
			cmd.Printf("    %s\n", ref)
		}
	}

	if len(details.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for _, k := range sortedKeys(details.Metadata) {
			cmd.Printf("    %s: %s\n", k, details.Metadata[k])
		}
	}

	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	chunks, err := documentService.Chunks(commandContext(cmd), args[0], documentArticle)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if documentChunkJSON {
		data, err := json.MarshalIndent(chunkRecords(chunks), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks found.")
		return nil
	}

	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("%s %s", heading(fmt.Sprintf("[%d]", c.Position)), c.Kind())
		if articles := chunkArticles(c); len(articles) > 0 {
			cmd.Printf("  %s", label(fmt.Sprint(articles)))
		}
		cmd.Println()
		cmd.Println(c.Content)
		cmd.Println()
	}
	return nil
}

// chunkRecords converts stored chunks into the chunker's record form.
func chunkRecords(chunks []domain.Chunk) []legalchunker.Record {
	out := make([]legalchunker.Record, len(chunks))
	for i := range chunks {
		out[i] = legalchunker.Chunk{
			Text:      chunks[i].Content,
			CharCount: chunks[i].EndChar - chunks[i].StartChar,
			Index:     chunks[i].Position,
			StartChar: chunks[i].StartChar,
			EndChar:   chunks[i].EndChar,
			Meta:      chunks[i].Meta,
		}.Record()
	}
	return out
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	if err := documentService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document: %s\n", args[0])
	return nil
}

func runDocumentReprocess(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if documentEnqueue {
		if taskQueue == nil {
			return domain.ErrQueueUnavailable
		}
		if err := taskQueue.EnqueueReprocess(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to enqueue reprocess: %w", err)
		}
		cmd.Printf("Enqueued reprocess of %s\n", args[0])
		return nil
	}

	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	res, err := ingestService.Reprocess(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to reprocess document: %w", err)
	}

	cmd.Printf("Reprocessed %s: %d chunks", res.Document.ID, len(res.Chunks))
	if !res.Embedded {
		cmd.Print(warnStyle.Render(" (not embedded)"))
	}
	cmd.Println()
	return nil
}

func runDocumentOpen(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	if err := documentService.Open(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}

	cmd.Printf("Opened document: %s\n", args[0])
	return nil
}

func sortedKeys[V any, K ~string](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
