package main

import (
	"context"
	"errors"
	"os"
	"time"

	"nexu/internal/amqp"
	"nexu/internal/cache"
	"nexu/internal/cli"
	"nexu/internal/config"
	"nexu/internal/log"
	"nexu/internal/metrics"
	"nexu/internal/services"
	"nexu/internal/storage"
	"nexu/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting insights-worker")

	// Insights reach the API through the SQLite cache table.
	switch {
	case cfg.DataBackend != config.BackendSQLite:
		logger.Error("insights-worker requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	case cfg.AMQPURL == "":
		logger.Error("insights-worker requires AMQP_URL")
		os.Exit(1)
	case !cfg.InsightsEnabled():
		logger.Error("insights-worker requires GEMINI_API_KEY")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	m := metrics.New()
	caches := cache.NewManager(logger)
	shared := storage.NewInsightCache(repo.DB())

	advisor, err := cli.NewCachedGemini(context.Background(), logger, cfg, shared, caches, m)
	if err != nil {
		logger.Error("Failed to initialize insights advisor", log.FieldError, err)
		os.Exit(1)
	}
	cli.RegisterSharedPurge(caches, shared, logger)
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	summaries := services.NewSummaryService(repo, m, logger)
	w := worker.NewInsightsWorker(summaries, advisor, m, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	logger.Info("Warming insights for the current month...")
	if err := w.WarmCurrent(ctx, time.Now()); err != nil {
		logger.Error("Startup warm-up failed", log.FieldError, err)
	}

	if err := client.ConsumeLedgerChanges(ctx, w.HandleLedgerChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("insights-worker stopped")
}
