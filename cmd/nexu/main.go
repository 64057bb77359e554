package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"nexu/internal/cache"
	"nexu/internal/cli"
	apphttp "nexu/internal/http"
	"nexu/internal/log"
	"nexu/internal/metrics"
	"nexu/internal/services"
)

const cacheCleanupInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	m := metrics.New()
	res := cli.InitBackend(context.Background(), logger, cfg)

	ledgerSvc := services.NewLedgerService(res.Store,
		services.WithPublisher(res.Publisher),
		services.WithMetrics(m),
		services.WithLogger(logger),
		services.WithClosers(res.Cleanup),
	)
	summaries := services.NewSummaryService(res.Store, m, logger)
	recurring := services.NewRecurringProcessor(ledgerSvc, m, logger)

	caches := cache.NewManager(logger)
	advisor, err := cli.NewAdvisor(context.Background(), logger, cfg, res.InsightStore, caches, m)
	if err != nil {
		logger.Error("Failed to initialize insights advisor", log.FieldError, err)
		_ = ledgerSvc.Close()
		os.Exit(1)
	}
	cli.RegisterSharedPurge(caches, res.InsightStore, logger)
	caches.StartCleanup(cacheCleanupInterval)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:    ledgerSvc,
		Summaries: summaries,
		Recurring: recurring,
		Advisor:   advisor,
		Metrics:   m,
		Logger:    logger,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	_, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := ledgerSvc.Close(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	})

	logger.Info("Starting nexu server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", res.Publisher != nil,
		"insights", cfg.InsightsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
