// Package cli implements the lexrag command line on top of the driving ports.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// version is set by Execute from the build.
var version = "dev"

// Services holds the driving ports the commands run against.
// Any field may be nil; commands report the missing service.
type Services struct {
	Settings  driving.SettingsService
	Ingest    driving.IngestService
	Document  driving.DocumentService
	Search    driving.SearchService
	Ask       driving.AskService
	Scrape    driving.ScrapeService
	Scheduler driving.Scheduler
	Queue     driven.TaskQueue
}

// Options are the global flags handed to the Initializer.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Initializer builds the services once flags are parsed. The returned
// cleanup runs after the command finishes.
type Initializer func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	settingsService  driving.SettingsService
	ingestService    driving.IngestService
	documentService  driving.DocumentService
	searchService    driving.SearchService
	askService       driving.AskService
	scrapeService    driving.ScrapeService
	schedulerService driving.Scheduler
	taskQueue        driven.TaskQueue

	initializer Initializer
	cleanup     func()
)

var (
	verbose   bool
	configDir string
)

// skipInit marks commands that run without services.
const skipInit = "lexrag/skip-init"

var rootCmd = &cobra.Command{
	Use:   "lexrag",
	Short: "Portuguese legal document retrieval",
	Long: `lexrag indexes Portuguese legislation and contracts with article-aware
chunking, then answers searches and legal questions against the index.

Documents come from local files or from the Diário da República.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.lexrag)")
}

// SetServices installs the services directly, bypassing the Initializer.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	ingestService = s.Ingest
	documentService = s.Document
	searchService = s.Search
	askService = s.Ask
	scrapeService = s.Scrape
	schedulerService = s.Scheduler
	taskQueue = s.Queue
}

// SetInitializer registers the function that builds services before a command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// Execute runs the root command.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.ExecuteContext(ctx)
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if initializer == nil || cmd.Annotations[skipInit] == "true" {
		return nil
	}

	services, done, err := initializer(commandContext(cmd), Options{
		ConfigDir: configDir,
		Verbose:   verbose,
	})
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

// commandContext returns the command context, which is nil when a test
// calls Execute instead of ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// errNotConfigured names a service missing from the current setup.
func errNotConfigured(service string) error {
	return errors.New(service + " service not configured")
}
