package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

var (
	scrapeDays    int
	scrapeMax     int
	scrapeEnqueue bool
	historyLimit  int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch recent diplomas from the Diário da República",
	Long: `Fetches diplomas published in the last days from the Diário da
República and indexes them. With --enqueue the documents are handed to the
background worker instead.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().IntVarP(&scrapeDays, "days", "d", 0, "number of past days to fetch (default from settings)")
	scrapeCmd.Flags().IntVarP(&scrapeMax, "max", "n", 0, "maximum number of diplomas (default from settings)")
	scrapeCmd.Flags().BoolVar(&scrapeEnqueue, "enqueue", false, "hand documents to the background worker")
	scrapeHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of recent runs to show")
	scrapeCmd.AddCommand(scrapeHistoryCmd)
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the scheduled scrape and its recent runs",
	Args:  cobra.NoArgs,
	RunE:  runScrapeHistory,
}

func runScrape(cmd *cobra.Command, _ []string) error {
	if scrapeService == nil {
		return errNotConfigured("scrape")
	}
	if scrapeDays < 0 || scrapeMax < 0 {
		return fmt.Errorf("%w: --days and --max must not be negative", domain.ErrInvalidInput)
	}

	result, err := scrapeService.ScrapeRecent(commandContext(cmd), driving.ScrapeOptions{
		Days:         scrapeDays,
		MaxDocuments: scrapeMax,
		Enqueue:      scrapeEnqueue,
	})
	if result != nil {
		cmd.Printf("Fetched %d diplomas.\n", result.Fetched)
		if result.Enqueued > 0 {
			cmd.Printf("Enqueued %d for the worker.\n", result.Enqueued)
		}
		if result.Report != nil && len(result.Report.Items) > 0 {
			printIngestReport(cmd, result.Report)
		}
	}
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	return nil
}

func runScrapeHistory(cmd *cobra.Command, _ []string) error {
	if schedulerService == nil {
		return errNotConfigured("scheduler")
	}
	if historyLimit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", domain.ErrInvalidInput)
	}

	status, err := schedulerService.Status(commandContext(cmd), domain.TaskIDScrapeRecent, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read scrape history: %w", err)
	}

	task := status.Task
	schedule := task.Schedule
	if task.Manual() {
		schedule = "manual only"
	}
	cmd.Println(heading(task.Name))
	cmd.Printf("%s %s\n", label("Schedule:"), schedule)
	cmd.Printf("%s %s\n", label("Last run:"), formatRunTime(task.LastRun))
	cmd.Printf("%s %s\n", label("Next run:"), formatRunTime(task.NextRun))
	if task.LastError != "" {
		cmd.Printf("%s %s\n", label("Last error:"), errorStyle.Render(task.LastError))
	}

	if len(status.Recent) == 0 {
		cmd.Println("\nNo runs recorded yet.")
		return nil
	}

	cmd.Println()
	for _, r := range status.Recent {
		mark := scoreStyle.Render("✓")
		if !r.Success {
			mark = errorStyle.Render("✗")
		}
		cmd.Printf("  %s %s  %6s  %d indexed", mark, formatRunTime(r.StartedAt),
			r.Duration().Round(time.Second), r.ItemsProcessed)
		if r.ItemsFailed > 0 {
			cmd.Printf(", %s", warnStyle.Render(fmt.Sprintf("%d failed", r.ItemsFailed)))
		}
		if r.Error != "" {
			cmd.Printf("  %s", r.Error)
		}
		cmd.Println()
	}
	return nil
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
