package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// InsightCache persists advisor output in the insight_cache table so that
// every process sharing the database sees the same cached insights.
type InsightCache struct {
	db  *sql.DB
	now func() time.Time
}

func NewInsightCache(db *sql.DB) *InsightCache {
	return &InsightCache{db: db, now: time.Now}
}

// Get returns the cached insights for key unless missing or expired.
func (c *InsightCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	var raw string
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT insights, expires_at FROM insight_cache WHERE key = ?`, key).Scan(&raw, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached insights: %w", err)
	}
	if c.now().Unix() >= expiresAt {
		return nil, false, nil
	}

	var insights []string
	if err := json.Unmarshal([]byte(raw), &insights); err != nil {
		return nil, false, fmt.Errorf("decode cached insights: %w", err)
	}
	return insights, true, nil
}

func (c *InsightCache) Set(ctx context.Context, key string, insights []string, ttl time.Duration) error {
	raw, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}
	expiresAt := c.now().Add(ttl).Unix()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO insight_cache (key, insights, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET insights = excluded.insights, expires_at = excluded.expires_at`,
		key, string(raw), expiresAt)
	if err != nil {
		return fmt.Errorf("store insights: %w", err)
	}
	return nil
}

// Purge removes expired rows and reports how many were deleted.
func (c *InsightCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM insight_cache WHERE expires_at <= ?`, c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge insights: %w", err)
	}
	return res.RowsAffected()
}
