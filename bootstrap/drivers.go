package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"thai-search-proxy/cache"
	"thai-search-proxy/config"
	"thai-search-proxy/driver"
	"thai-search-proxy/port"
)

// initMeilisearchClient initializes the index engine client with retry
// logic: the engine container often comes up after the proxy.
func initMeilisearchClient(snap *config.Snapshot, log *slog.Logger) (meilisearch.ServiceManager, error) {
	const maxRetries = 5
	const retryDelay = 5 * time.Second

	if snap.IndexEngineHost == "" {
		return nil, fmt.Errorf("INDEX_ENGINE_HOST environment variable is not set")
	}

	log.Info("Connecting to index engine", "host", snap.IndexEngineHost)

	var msClient meilisearch.ServiceManager

	for i := range maxRetries {
		msClient = driver.NewMeilisearchClient(snap.IndexEngineHost, snap.IndexEngineAPIKey, snap.ConnectionPoolSize)

		if _, healthErr := msClient.Health(); healthErr != nil {
			log.Warn("index engine not ready, retrying", "attempt", i+1, "max", maxRetries, "err", healthErr)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to index engine after %d attempts: %w", maxRetries, healthErr)
		}

		log.Info("Connected to index engine successfully")
		break
	}

	return msClient, nil
}

// initCacheBackend picks the result cache backend. The Redis backend
// falls back to the in-process LRU when the connection cannot be made,
// keeping the proxy up.
func initCacheBackend(snap *config.Snapshot, log *slog.Logger) (port.ResultCache, func()) {
	if !snap.CacheEnabled {
		return nil, nil
	}
	if snap.CacheBackend == "redis" && snap.RedisURL != "" {
		redisCache, err := driver.NewRedisCacheDriver(snap.RedisURL, log)
		if err != nil {
			log.Warn("redis cache unavailable, using memory backend", "err", err)
		} else {
			log.Info("result cache backend: redis")
			return redisCache, func() { _ = redisCache.Close() }
		}
	}
	log.Info("result cache backend: memory", "size", snap.CacheSize, "ttl", snap.CacheTTL)
	return cache.NewMemoryCache(snap.CacheSize, snap.CacheTTL), nil
}

// initAnalytics builds the optional search analytics sink. Absence of
// DATABASE_URL simply disables recording.
func initAnalytics(ctx context.Context, snap *config.Snapshot, log *slog.Logger) port.AnalyticsRecorder {
	if snap.DatabaseURL == "" {
		return nil
	}
	sink, err := driver.NewAnalyticsDriver(ctx, snap.DatabaseURL, log)
	if err != nil {
		log.Warn("analytics sink unavailable, continuing without it", "err", err)
		return nil
	}
	log.Info("analytics sink enabled")
	return sink
}
