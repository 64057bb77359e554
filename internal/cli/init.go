// Package cli provides common CLI initialization utilities shared by
// cmd/nexu, cmd/insights-worker and cmd/recurring-rollover.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nexu/internal/backend"
	"nexu/internal/cache"
	"nexu/internal/config"
	"nexu/internal/insights"
	"nexu/internal/log"
	"nexu/internal/metrics"
)

// SetupLogger builds the process logger at LOG_LEVEL and makes it the
// slog default.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the configured ledger backend or exits the process.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// NewAdvisor returns the advisor the API serves: cached Gemini when an API
// key is configured, the static default tips otherwise.
func NewAdvisor(ctx context.Context, logger *log.Logger, cfg *config.Config, shared insights.Store, caches *cache.Manager, m *metrics.Metrics) (insights.Advisor, error) {
	if !cfg.InsightsEnabled() {
		logger.Info("GEMINI_API_KEY not set, serving default insights")
		return insights.StaticAdvisor{}, nil
	}
	return NewCachedGemini(ctx, logger, cfg, shared, caches, m)
}

// NewCachedGemini builds the Gemini advisor behind an in-process cache
// layered over shared, which may be nil. The in-process cache is registered
// with caches for periodic expiry when caches is non-nil.
func NewCachedGemini(ctx context.Context, logger *log.Logger, cfg *config.Config, shared insights.Store, caches *cache.Manager, m *metrics.Metrics) (*insights.CachedAdvisor, error) {
	gemini, err := insights.NewGeminiAdvisor(ctx, insights.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.InsightsTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create gemini advisor: %w", err)
	}
	return insights.NewCachedAdvisor(gemini, insightStore(cfg, shared, caches), cfg.InsightsCacheTTL, m, logger), nil
}

func insightStore(cfg *config.Config, shared insights.Store, caches *cache.Manager) insights.Store {
	if cfg.InsightsCacheTTL == 0 {
		return nil
	}
	lru := cache.NewLRUCache[[]string](cfg.InsightsCacheSize, cfg.InsightsCacheTTL)
	if caches != nil {
		caches.Register(lru)
	}
	fast := insights.NewMemoryStore(lru)
	if shared == nil {
		return fast
	}
	return insights.NewTieredStore(fast, shared, cfg.InsightsCacheTTL)
}

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// RegisterSharedPurge lets caches expire rows of a shared insight store that
// supports purging. Other stores are ignored.
func RegisterSharedPurge(caches *cache.Manager, shared insights.Store, logger *log.Logger) bool {
	p, ok := shared.(purger)
	if !ok || caches == nil {
		return false
	}
	caches.Register(cache.CleanerFunc(func() int {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := p.Purge(ctx)
		if err != nil {
			logger.Warn("Failed to purge shared insight cache", log.FieldError, err)
			return 0
		}
		return int(n)
	}))
	return true
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs after cancellation, bounded by timeout; done is closed once it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
