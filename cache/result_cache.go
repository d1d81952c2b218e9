// Package cache provides the result cache: an in-process expirable LRU
// by default, with the Redis driver as an alternative backend for
// multi-replica deployments.
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"thai-search-proxy/domain"
)

// MemoryCache is the default in-process backend.
type MemoryCache struct {
	lru *expirable.LRU[string, *domain.SearchResponse]
}

// NewMemoryCache builds an LRU with per-entry TTL expiry.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, *domain.SearchResponse](size, nil, ttl),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*domain.SearchResponse, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Set(_ context.Context, key string, resp *domain.SearchResponse, _ time.Duration) {
	// TTL is fixed at construction for the LRU backend.
	c.lru.Add(key, resp)
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Fingerprint keys a search by everything that affects its response:
// query, index and the ranking-relevant options.
func Fingerprint(query, index string, opts domain.SearchOptions) string {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write(query, index,
		fmt.Sprintf("%d:%d", opts.Limit, opts.Offset),
		opts.Filters,
		strings.Join(opts.Sort, ","),
		fmt.Sprintf("%t", opts.Highlight),
		strings.Join(opts.AttributesToRetrieve, ","),
		strings.Join(opts.AttributesToHighlight, ","),
		fmt.Sprintf("%d", opts.CropLength),
		opts.CropMarker,
		opts.MatchingStrategy,
	)
	return fmt.Sprintf("search:%x", h.Sum64())
}
