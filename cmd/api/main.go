package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"azusena/internal/app"
	"azusena/internal/config"
	"azusena/internal/http"
	"azusena/internal/service"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// AzuSENA answers questions about Colombian health legislation from a
// corpus of law and decree articles.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: AzuSENA API
//   description: |
//     Question answering over a corpus of legal articles. Explicit article
//     numbers are answered by exact lookup; other questions are answered
//     from the best matching articles or by the generative model.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const (
	sessionSweepInterval = time.Minute
	shutdownTimeout      = 10 * time.Second
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	// Generation degrades to a fallback answer, so a missing model is not fatal
	if err := a.EnsureModel(ctx); err != nil {
		slog.Warn("LLM model unavailable", "error", err)
	}

	// The index must be ready before the first query is served
	stats, err := a.Sync(ctx, false)
	if err != nil {
		log.Fatalf("Failed to build article index: %v", err)
	}
	slog.Info("Article index ready",
		"articles", stats.ArticlesIndexed,
		"incomplete", stats.ArticlesIncomplete,
		"reused", stats.Reused,
		"index_version", stats.IndexVersion,
	)

	go a.Sessions.Run(ctx, sessionSweepInterval)

	router := http.NewRouter(&http.Deps{
		QueryService: service.NewQueryService(a.Engine),
		Vectors:      a.Vectors,
		LLM:          a.LLM,
		Sync:         a.Sync,
		CORSOrigins:  cfg.CORSOrigins,
	})

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
}
