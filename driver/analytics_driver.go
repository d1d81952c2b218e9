package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"thai-search-proxy/port"
)

// AnalyticsDriver writes completed searches to Postgres. It is
// fire-and-forget: the request path never waits on it and never fails
// because of it.
type AnalyticsDriver struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewAnalyticsDriver connects to the analytics database and ensures the
// search_queries table exists.
func NewAnalyticsDriver(ctx context.Context, databaseURL string, log *slog.Logger) (*AnalyticsDriver, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	const ddl = `
		CREATE TABLE IF NOT EXISTS search_queries (
			id            BIGSERIAL PRIMARY KEY,
			request_id    TEXT NOT NULL,
			query         TEXT NOT NULL,
			index_name    TEXT NOT NULL,
			variant_count INT NOT NULL,
			hit_count     BIGINT NOT NULL,
			fallback_used BOOLEAN NOT NULL,
			cache_hit     BOOLEAN NOT NULL,
			latency_ms    DOUBLE PRECISION NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		)`
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := pool.Exec(initCtx, ddl); err != nil {
		pool.Close()
		return nil, err
	}

	return &AnalyticsDriver{pool: pool, log: log}, nil
}

// Record inserts one search record.
func (d *AnalyticsDriver) Record(ctx context.Context, rec port.SearchRecord) error {
	const stmt = `
		INSERT INTO search_queries
			(request_id, query, index_name, variant_count, hit_count, fallback_used, cache_hit, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := d.pool.Exec(ctx, stmt,
		rec.RequestID, rec.Query, rec.IndexName, rec.VariantCount,
		rec.HitCount, rec.FallbackUsed, rec.CacheHit,
		float64(rec.Latency)/float64(time.Millisecond), rec.At,
	)
	if err != nil {
		d.log.Warn("analytics insert failed", "err", err)
	}
	return err
}

// Close releases the pool.
func (d *AnalyticsDriver) Close() {
	d.pool.Close()
}
