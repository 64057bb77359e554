package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"nexu/internal/cli"
	"nexu/internal/core"
	"nexu/internal/log"
	"nexu/internal/metrics"
	"nexu/internal/services"
)

func main() {
	now := time.Now()
	var month, year int
	flag.IntVar(&month, "month", int(now.Month()), "Target month (1-12)")
	flag.IntVar(&year, "year", now.Year(), "Target year")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)

	target, err := core.NewPeriod(year, month)
	if err != nil {
		logger.Error("Invalid target period", log.FieldError, err, log.FieldYear, year, log.FieldMonth, month)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	ledgerSvc := services.NewLedgerService(res.Store,
		services.WithPublisher(res.Publisher),
		services.WithLogger(logger),
		services.WithClosers(res.Cleanup),
	)
	defer func() {
		if err := ledgerSvc.Close(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	}()

	created, err := services.NewRecurringProcessor(ledgerSvc, metrics.New(), logger).Rollover(ctx, target)
	if err != nil {
		logger.Error("Rollover failed", log.FieldError, err, "period", target.String())
		_ = ledgerSvc.Close()
		os.Exit(1)
	}

	fmt.Printf("%s: %d recurring entries created\n", target, created)
}
