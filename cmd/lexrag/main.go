// Command lexrag indexes Portuguese legislation and contracts and answers
// questions about them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Set by the release build.
var version = "dev"

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetInitializer(buildServices)

	if err := cli.Execute(ctx, version); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
