package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/connectors/filesystem"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/legal"
)

var (
	ingestType     string
	ingestNumber   string
	ingestDate     string
	ingestTitle    string
	ingestIncludes []string
	ingestExcludes []string
	ingestWatch    bool
	ingestEnqueue  bool
)

// watcher is implemented by ingest services that apply change streams.
type watcher interface {
	Watch(ctx context.Context, changes <-chan domain.RawDocumentChange, onItem func(domain.IngestItem)) error
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Index legal documents from files or directories",
	Long: `Reads .txt, .md, .html, .pdf and .docx files, chunks them by article
and stores them with their embeddings.

Use --type and --number to record the diploma identity when ingesting a
single law, e.g.:
  lexrag ingest --type lei --number 12/2024 --date 2024-03-14 lei-12-2024.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestType, "type", "", "document type (lei, decreto_lei, portaria, ...)")
	ingestCmd.Flags().StringVar(&ingestNumber, "number", "", "diploma number in N/YYYY form")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "publication date (YYYY-MM-DD)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title")
	ingestCmd.Flags().StringSliceVar(&ingestIncludes, "include", nil, "glob patterns to include (default: all supported formats)")
	ingestCmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "glob patterns to exclude")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the paths for changes")
	ingestCmd.Flags().BoolVar(&ingestEnqueue, "enqueue", false, "hand documents to the background worker")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	hints, err := ingestHints()
	if err != nil {
		return err
	}
	if ingestEnqueue && taskQueue == nil {
		return fmt.Errorf("%w: set queue.redis_addr or LEXRAG_REDIS_ADDR", domain.ErrQueueUnavailable)
	}
	if !ingestEnqueue && ingestService == nil {
		return errNotConfigured("ingest")
	}

	ctx := commandContext(cmd)
	connectors := make([]*filesystem.Connector, len(args))
	var raws []domain.RawDocument
	for i, path := range args {
		connectors[i] = newFileConnector(path, hints)
		docs, err := collectDocuments(ctx, connectors[i])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		raws = append(raws, docs...)
	}

	if len(raws) == 0 {
		cmd.Println("No documents found.")
	} else if ingestEnqueue {
		if err := enqueueDocuments(cmd, ctx, raws); err != nil {
			return err
		}
	} else {
		ingestDocuments(cmd, ctx, raws)
	}

	if ingestWatch {
		return watchPaths(cmd, ctx, connectors)
	}
	return nil
}

func ingestHints() (map[string]string, error) {
	hints := make(map[string]string)

	docType := domain.DocumentTypeOther
	if ingestType != "" {
		t, err := domain.ParseDocumentType(ingestType)
		if err != nil {
			return nil, err
		}
		docType = t
		hints[domain.HintDocumentType] = string(t)
	}
	if ingestNumber != "" {
		if !legal.ValidateDocumentNumber(docType, ingestNumber) {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDocumentNumber, ingestNumber)
		}
		hints[domain.HintNumber] = ingestNumber
	}
	if ingestDate != "" {
		if !legal.ValidDate(ingestDate) {
			return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, ingestDate)
		}
		hints[domain.HintPublicationDate] = ingestDate
	}
	if ingestTitle != "" {
		hints[domain.HintTitle] = ingestTitle
	}
	return hints, nil
}

func newFileConnector(path string, hints map[string]string) *filesystem.Connector {
	opts := []filesystem.Option{
		filesystem.WithSource(domain.SourceUpload),
		filesystem.WithHints(hints),
	}
	if len(ingestIncludes) > 0 {
		opts = append(opts, filesystem.WithIncludes(ingestIncludes...))
	}
	if len(ingestExcludes) > 0 {
		opts = append(opts, filesystem.WithExcludes(ingestExcludes...))
	}
	return filesystem.New(path, opts...)
}

func enqueueDocuments(cmd *cobra.Command, ctx context.Context, raws []domain.RawDocument) error {
	var errs []error
	enqueued := 0
	for i := range raws {
		if err := taskQueue.EnqueueIngest(ctx, &raws[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		enqueued++
	}
	cmd.Printf("Enqueued %d/%d documents.\n", enqueued, len(raws))
	return errors.Join(errs...)
}

// ingestDocuments ingests one document at a time so the bar tracks each.
// Failures are reported and do not stop the run.
func ingestDocuments(cmd *cobra.Command, ctx context.Context, raws []domain.RawDocument) {
	bar := progressbar.NewOptions(len(raws),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionClearOnFinish(),
	)

	start := time.Now()
	report := &domain.IngestReport{Items: make([]domain.IngestItem, len(raws))}
	for i := range raws {
		item := &report.Items[i]
		item.URI = raws[i].URI

		res, err := ingestService.Ingest(ctx, &raws[i])
		if err != nil {
			item.Err = err
		} else {
			item.DocumentID = res.Document.ID
			item.Chunks = len(res.Chunks)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	report.Duration = time.Since(start)

	printIngestReport(cmd, report)
}

func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) {
	for _, it := range report.Items {
		if it.Err != nil {
			cmd.Printf("  %s %s: %v\n", errorStyle.Render("✗"), it.URI, it.Err)
			continue
		}
		cmd.Printf("  %s %s -> %s (%d chunks)\n", scoreStyle.Render("✓"), it.URI, it.DocumentID, it.Chunks)
	}
	cmd.Printf("\nIngested %d/%d documents, %d chunks in %s\n",
		report.Succeeded(), len(report.Items), report.TotalChunks(), report.Duration.Round(time.Millisecond))
}

func watchPaths(cmd *cobra.Command, ctx context.Context, connectors []*filesystem.Connector) error {
	w, ok := ingestService.(watcher)
	if !ok {
		return errors.New("ingest service does not support watching")
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	errs := make([]error, len(connectors))

	for i, c := range connectors {
		changes, err := c.Watch(ctx)
		if err != nil {
			return fmt.Errorf("failed to watch: %w", err)
		}
		defer c.Close()

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = w.Watch(ctx, changes, func(it domain.IngestItem) {
				mu.Lock()
				defer mu.Unlock()
				switch {
				case it.Err != nil:
					cmd.Printf("%s %s: %v\n", errorStyle.Render("✗"), it.URI, it.Err)
				case it.DocumentID == "":
					cmd.Printf("- %s (not indexed)\n", it.URI)
				default:
					cmd.Printf("%s %s -> %s (%d chunks)\n", scoreStyle.Render("✓"), it.URI, it.DocumentID, it.Chunks)
				}
			})
		}(i)
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	wg.Wait()

	err := errors.Join(errs...)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
