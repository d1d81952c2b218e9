package port

import (
	"context"
	"time"

	"thai-search-proxy/domain"
)

// ResultCache stores finished SearchResponses by fingerprint.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.SearchResponse, bool)
	Set(ctx context.Context, key string, resp *domain.SearchResponse, ttl time.Duration)
}
