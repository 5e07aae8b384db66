package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/lexrag/internal/core/services"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal interface for lexrag.

Search the index, ask legal questions, browse stored documents and their
article chunks, and change providers without leaving the terminal.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Ask / Select
  Tab      - Cycle search mode
  Ctrl+T   - Cycle document type filter
  Esc      - Back
  q        - Quit (from the menu)`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().Bool("schedule", false, "run the scrape scheduler while the UI is open")
	rootCmd.AddCommand(tuiCmd)
}

// tuiPorts builds the TUI ports from the installed services.
func tuiPorts() *tui.Ports {
	ports := tui.NewPorts(searchService, documentService)
	ports.Ask = askService
	ports.Settings = settingsService
	ports.ResultAction = services.NewResultActionService()
	return ports
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\nStack trace:\n%s\n", r, debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(tuiPorts())
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx := commandContext(cmd)
	schedule, _ := cmd.Flags().GetBool("schedule")
	if schedule && schedulerService != nil {
		schedCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		go func() {
			if err := schedulerService.Start(schedCtx); err != nil {
				logger.Warn("scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := schedulerService.Stop(); err != nil {
				logger.Warn("scheduler stop: %v", err)
			}
		}()
	}

	app.WithContext(ctx)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
