package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/paperquery/internal/answer"
	"github.com/dgallion1/paperquery/internal/api"
	"github.com/dgallion1/paperquery/internal/arxiv"
	"github.com/dgallion1/paperquery/internal/config"
	"github.com/dgallion1/paperquery/internal/corpus"
	"github.com/dgallion1/paperquery/internal/intent"
	"github.com/dgallion1/paperquery/internal/pipeline"
	"github.com/dgallion1/paperquery/internal/retrieve"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	claude := answer.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicTimeout)
	papers := arxiv.NewClient(cfg.ArxivBaseURL, cfg.ArxivTimeout)

	// Initialize corpus and pipeline.
	store := corpus.New()
	orch := pipeline.NewOrchestrator(cfg, store, log)
	orch.Start(ctx)

	query := pipeline.NewQueryService(
		store,
		intent.RuleClassifier{},
		retrieve.New(cfg.UnitBudget),
		answer.NewComposer(cfg.MaxContextTokens),
		claude,
		papers,
		claude.Stats,
		log,
	)

	// Initialize HTTP server.
	srv := api.NewServer(orch, query, store, claude, papers, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
	}()

	log.Info("starting paperquery", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
