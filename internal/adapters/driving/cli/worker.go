package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/worker"
	"github.com/custodia-labs/lexrag/internal/core/domain"
)

var workerNoSchedule bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background ingestion worker",
	Long: `Consumes ingest and reprocess tasks from Redis and runs the daily
Diário da República scrape on its cron schedule.

Requires queue.redis_addr (or LEXRAG_REDIS_ADDR).`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().BoolVar(&workerNoSchedule, "no-schedule", false, "do not run the scrape schedule")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return err
	}

	scheduler := schedulerService
	if workerNoSchedule {
		scheduler = nil
	}

	w, err := worker.New(settings.Queue, ingestService, scheduler)
	if err != nil {
		if errors.Is(err, domain.ErrQueueUnavailable) {
			cmd.Println("No Redis configured. Run 'lexrag settings set queue.redis_addr localhost:6379'.")
		}
		return err
	}
	return w.Run(commandContext(cmd))
}
