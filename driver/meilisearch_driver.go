// Package driver holds the infrastructure clients: the Meilisearch
// index engine, the optional Redis cache backend and the optional
// Postgres analytics sink.
package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/meilisearch/meilisearch-go"

	"thai-search-proxy/domain"
)

// maxFetchPerVariant caps how many candidates one variant pulls from
// the engine regardless of the requested page.
const maxFetchPerVariant = 200

// MeilisearchDriver talks to the external index engine. Idempotent
// searches are retried with exponential backoff and jitter; 4xx
// responses are fatal for the variant and never retried.
type MeilisearchDriver struct {
	client        meilisearch.ServiceManager
	retryAttempts int
	retryBase     time.Duration
	retryMax      time.Duration
}

// NewMeilisearchClient constructs the engine client. The API key, when
// set, is attached to every outbound request as a bearer header.
func NewMeilisearchClient(host, apiKey string, poolSize int) meilisearch.ServiceManager {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        poolSize,
			MaxIdleConnsPerHost: poolSize,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return meilisearch.New(host,
		meilisearch.WithAPIKey(apiKey),
		meilisearch.WithCustomClient(httpClient),
	)
}

// NewMeilisearchDriver wraps a constructed client with the retry policy.
func NewMeilisearchDriver(client meilisearch.ServiceManager, retryAttempts int, retryBase, retryMax time.Duration) *MeilisearchDriver {
	return &MeilisearchDriver{
		client:        client,
		retryAttempts: retryAttempts,
		retryBase:     retryBase,
		retryMax:      retryMax,
	}
}

// Search runs one variant's query against index with retries.
func (d *MeilisearchDriver) Search(ctx context.Context, variant domain.QueryVariant, index string, opts domain.SearchOptions) (*domain.EngineSearchResult, error) {
	req := buildSearchRequest(variant, opts)

	operation := func() (*meilisearch.SearchResponse, error) {
		resp, err := d.client.Index(index).SearchWithContext(ctx, variant.Text, req)
		if err != nil {
			classified := classify("Search", err)
			if !classified.Retryable() {
				return nil, backoff.Permanent(classified)
			}
			return nil, classified
		}
		return resp, nil
	}

	start := time.Now()
	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(d.newBackOff()),
		backoff.WithMaxTries(uint(d.retryAttempts+1)),
	)
	if err != nil {
		return &domain.EngineSearchResult{
			Variant: variant,
			Latency: time.Since(start),
			Err:     err,
		}, err
	}

	return toEngineResult(variant, resp, time.Since(start)), nil
}

// BareSearch is the no-retry last resort after all variants failed.
func (d *MeilisearchDriver) BareSearch(ctx context.Context, text string, index string, limit int) (*domain.EngineSearchResult, error) {
	variant := domain.QueryVariant{Text: text, Type: domain.VariantOriginal, Weight: 1.0}
	if limit <= 0 {
		limit = domain.DefaultLimit
	}

	start := time.Now()
	resp, err := d.client.Index(index).SearchWithContext(ctx, text, &meilisearch.SearchRequest{
		Limit:            int64(limit),
		ShowRankingScore: true,
	})
	if err != nil {
		classified := classify("BareSearch", err)
		return &domain.EngineSearchResult{
			Variant: variant,
			Latency: time.Since(start),
			Err:     classified,
		}, classified
	}
	return toEngineResult(variant, resp, time.Since(start)), nil
}

// Healthy probes the engine.
func (d *MeilisearchDriver) Healthy(ctx context.Context) error {
	if _, err := d.client.HealthWithContext(ctx); err != nil {
		return classify("Health", err)
	}
	return nil
}

func (d *MeilisearchDriver) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.retryBase
	bo.MaxInterval = d.retryMax
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.5
	return bo
}

func buildSearchRequest(variant domain.QueryVariant, opts domain.SearchOptions) *meilisearch.SearchRequest {
	fetch := opts.Offset + opts.Limit
	if fetch <= 0 {
		fetch = domain.DefaultLimit
	}
	if fetch > maxFetchPerVariant {
		fetch = maxFetchPerVariant
	}

	req := &meilisearch.SearchRequest{
		Limit:            int64(fetch),
		ShowRankingScore: true,
	}
	if opts.Filters != "" {
		req.Filter = opts.Filters
	}
	if len(opts.Sort) > 0 {
		req.Sort = opts.Sort
	}
	if len(opts.AttributesToRetrieve) > 0 {
		req.AttributesToRetrieve = opts.AttributesToRetrieve
	}
	if opts.Highlight && len(opts.AttributesToHighlight) > 0 {
		req.AttributesToHighlight = opts.AttributesToHighlight
	}
	if opts.CropLength > 0 {
		req.CropLength = int64(opts.CropLength)
	}
	if opts.CropMarker != "" {
		req.CropMarker = opts.CropMarker
	}
	if opts.MatchingStrategy != "" {
		req.MatchingStrategy = meilisearch.MatchingStrategy(opts.MatchingStrategy)
	}
	if variant.Phrase {
		req.ShowMatchesPosition = false
	}
	return req
}

// toEngineResult maps the engine response into the domain shape,
// extracting ids, ranking scores and highlight fragments.
func toEngineResult(variant domain.QueryVariant, resp *meilisearch.SearchResponse, latency time.Duration) *domain.EngineSearchResult {
	hits := make([]domain.RawHit, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		var hitMap map[string]interface{}
		if err := h.Decode(&hitMap); err != nil {
			continue
		}
		hit := domain.RawHit{
			ID:       getString(hitMap, "id"),
			Score:    getFloat(hitMap, "_rankingScore"),
			Document: hitMap,
		}
		if formatted, ok := hitMap["_formatted"].(map[string]interface{}); ok {
			hit.Highlights = formatted
		}
		if hit.ID == "" {
			continue
		}
		hits = append(hits, hit)
	}

	return &domain.EngineSearchResult{
		Variant:   variant,
		Hits:      hits,
		TotalHits: resp.EstimatedTotalHits,
		Latency:   latency,
	}
}

// classify maps transport errors into the typed taxonomy: timeouts,
// network faults, 5xx (retryable) and 4xx (fatal for the variant).
func classify(op string, err error) *domain.IndexEngineError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.IndexEngineError{Op: op, Kind: domain.IndexEngineTimeout, Err: err.Error()}
	}

	var msErr *meilisearch.Error
	if errors.As(err, &msErr) && msErr.StatusCode != 0 {
		kind := domain.IndexEngineServer
		if msErr.StatusCode >= 400 && msErr.StatusCode < 500 {
			kind = domain.IndexEngineClient
		}
		return &domain.IndexEngineError{
			Op:         op,
			Kind:       kind,
			StatusCode: msErr.StatusCode,
			Err:        fmt.Sprintf("engine returned %d: %s", msErr.StatusCode, msErr.Error()),
		}
	}

	return &domain.IndexEngineError{Op: op, Kind: domain.IndexEngineNetwork, Err: err.Error()}
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		// Numeric document ids arrive as float64 from JSON.
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("%v", f)
		}
	}
	return ""
}

func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return 0
}
