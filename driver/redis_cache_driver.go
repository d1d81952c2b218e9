package driver

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"thai-search-proxy/domain"
)

// RedisCacheDriver is the shared result-cache backend for deployments
// running more than one proxy replica. Cache faults are logged and
// treated as misses.
type RedisCacheDriver struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisCacheDriver connects using a redis:// URL.
func NewRedisCacheDriver(url string, log *slog.Logger) (*RedisCacheDriver, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCacheDriver{client: redis.NewClient(opts), log: log}, nil
}

// Get returns the cached response for key, or a miss on any fault.
func (d *RedisCacheDriver) Get(ctx context.Context, key string) (*domain.SearchResponse, bool) {
	data, err := d.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			d.log.Warn("redis cache get failed", "err", err)
		}
		return nil, false
	}
	var resp domain.SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		d.log.Warn("redis cache entry corrupt", "key", key, "err", err)
		return nil, false
	}
	return &resp, true
}

// Set stores the response under key with the given TTL.
func (d *RedisCacheDriver) Set(ctx context.Context, key string, resp *domain.SearchResponse, ttl time.Duration) {
	data, err := json.Marshal(resp)
	if err != nil {
		d.log.Warn("redis cache encode failed", "err", err)
		return
	}
	if err := d.client.Set(ctx, key, data, ttl).Err(); err != nil {
		d.log.Warn("redis cache set failed", "err", err)
	}
}

// Ping probes the backend for the health endpoint.
func (d *RedisCacheDriver) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (d *RedisCacheDriver) Close() error {
	return d.client.Close()
}
