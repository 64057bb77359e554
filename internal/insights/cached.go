package insights

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"nexu/internal/cache"
	"nexu/internal/core"
	"nexu/internal/log"
	"nexu/internal/metrics"
)

// DefaultTTL is how long generated insights stay cached.
const DefaultTTL = 30 * time.Minute

// Store holds generated insights by summary key.
type Store interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, insights []string, ttl time.Duration) error
}

// Generator produces insights and reports failure, unlike Advisor.
type Generator interface {
	Generate(ctx context.Context, s core.MonthlySummary) ([]string, error)
}

// CachedAdvisor serves insights from a Store keyed by the summary hash and
// collapses concurrent requests for the same summary into one upstream call.
// Fallback answers are never cached. A nil Store disables caching.
type CachedAdvisor struct {
	next    Generator
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewCachedAdvisor(next Generator, store Store, ttl time.Duration, m *metrics.Metrics, logger *log.Logger) *CachedAdvisor {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &CachedAdvisor{
		next:    next,
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentInsights),
	}
}

func (c *CachedAdvisor) Advise(ctx context.Context, s core.MonthlySummary) []string {
	key := Key(s)

	if tips, ok := c.lookup(ctx, key); ok {
		c.metrics.Insight(metrics.OutcomeCacheHit)
		return tips
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		if tips, ok := c.lookup(ctx, key); ok {
			c.metrics.Insight(metrics.OutcomeCacheHit)
			return tips, nil
		}

		tips, err := c.next.Generate(ctx, s)
		if err != nil {
			c.metrics.Insight(metrics.OutcomeFallback)
			if IsQuotaError(err) {
				c.logger.WarnContext(ctx, "Gemini API quota exceeded, using default insights",
					log.FieldErrorType, log.ErrorTypeQuota)
			} else {
				c.logger.ErrorContext(ctx, "Error getting insights",
					log.NewFields().WithError(err).WithOperation(log.OpAdvise).ToSlice()...)
			}
			return DefaultInsights(), nil
		}

		c.metrics.Insight(metrics.OutcomeGenerated)
		if c.store != nil {
			if err := c.store.Set(ctx, key, tips, c.ttl); err != nil {
				c.logger.WarnContext(ctx, "Failed to cache insights", log.FieldError, err.Error())
			}
		}
		return tips, nil
	})

	return append([]string(nil), v.([]string)...)
}

// Warm generates and stores insights for s unless a fresh entry exists.
// It reports whether the model was called.
func (c *CachedAdvisor) Warm(ctx context.Context, s core.MonthlySummary) bool {
	if _, ok := c.lookup(ctx, Key(s)); ok {
		return false
	}
	c.Advise(ctx, s)
	return true
}

func (c *CachedAdvisor) lookup(ctx context.Context, key string) ([]string, bool) {
	if c.store == nil {
		return nil, false
	}
	tips, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "Insight cache lookup failed", log.FieldError, err.Error())
		return nil, false
	}
	return tips, ok
}

// MemoryStore adapts an in-process LRU cache to Store.
type MemoryStore struct {
	lru *cache.LRUCache[[]string]
}

func NewMemoryStore(lru *cache.LRUCache[[]string]) *MemoryStore {
	return &MemoryStore{lru: lru}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]string, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, insights []string, ttl time.Duration) error {
	m.lru.SetWithTTL(key, insights, ttl)
	return nil
}

// TieredStore reads the fast store first and falls back to the shared one,
// promoting hits. Writes go to both.
type TieredStore struct {
	fast   Store
	shared Store
	ttl    time.Duration
}

// NewTieredStore combines a local store with one shared across processes.
// Promoted entries live for promoteTTL in the fast tier.
func NewTieredStore(fast, shared Store, promoteTTL time.Duration) *TieredStore {
	return &TieredStore{fast: fast, shared: shared, ttl: promoteTTL}
}

func (t *TieredStore) Get(ctx context.Context, key string) ([]string, bool, error) {
	if v, ok, err := t.fast.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}
	v, ok, err := t.shared.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.fast.Set(ctx, key, v, t.ttl)
	return v, true, nil
}

func (t *TieredStore) Set(ctx context.Context, key string, insights []string, ttl time.Duration) error {
	if err := t.fast.Set(ctx, key, insights, ttl); err != nil {
		return err
	}
	return t.shared.Set(ctx, key, insights, ttl)
}
