package main

import (
	"context"
	"os"
	"os/signal"

	"labgraph/internal/cli"
	"labgraph/internal/config"
	"labgraph/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand(cfg).ExecuteContext(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("labgraph failed")
		stop()
		os.Exit(1)
	}
}
