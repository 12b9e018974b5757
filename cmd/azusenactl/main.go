package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"azusena/internal/app"
	"azusena/internal/cli"
	"azusena/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		slog.SetDefault(app.NewLogger(cfg, os.Stderr))
		return cfg, nil
	}

	if err := cli.NewRootCommand(loadConfig).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
