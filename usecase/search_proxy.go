// Package usecase orchestrates the request pipeline: query processing,
// variant fan-out, ranking, caching and metrics.
package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"thai-search-proxy/cache"
	"thai-search-proxy/config"
	"thai-search-proxy/domain"
	"thai-search-proxy/executor"
	"thai-search-proxy/metrics"
	"thai-search-proxy/port"
	"thai-search-proxy/queryproc"
	"thai-search-proxy/ranker"
)

// SearchInput is one search request after transport-level decoding.
type SearchInput struct {
	Query               string
	IndexName           string
	Options             domain.SearchOptions
	IncludeTokenization bool
	RequestID           string
}

// SearchProxyUsecase runs the single-request flow under exactly one
// config snapshot acquired at the start.
type SearchProxyUsecase struct {
	cfg       *config.Manager
	processor *queryproc.Processor
	exec      *executor.Executor
	ranker    *ranker.Ranker
	cacheBack port.ResultCache
	analytics port.AnalyticsRecorder
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewSearchProxyUsecase(
	cfg *config.Manager,
	processor *queryproc.Processor,
	exec *executor.Executor,
	rnk *ranker.Ranker,
	cacheBack port.ResultCache,
	analytics port.AnalyticsRecorder,
	m *metrics.Metrics,
	log *slog.Logger,
) *SearchProxyUsecase {
	return &SearchProxyUsecase{
		cfg:       cfg,
		processor: processor,
		exec:      exec,
		ranker:    rnk,
		cacheBack: cacheBack,
		analytics: analytics,
		metrics:   m,
		log:       log,
	}
}

// Execute runs one search. Blank queries return an empty response, not
// an error; only malformed input (over-length query, bad options)
// errors out. Partial downstream failure degrades instead of failing.
func (u *SearchProxyUsecase) Execute(ctx context.Context, in SearchInput) (*domain.SearchResponse, error) {
	snap := u.cfg.Current()
	start := time.Now()

	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}
	if err := validateInput(&in, snap); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Query) == "" {
		resp := emptyResponse(in, start)
		u.metrics.SearchCompleted(true, time.Since(start), false)
		return resp, nil
	}

	key := cache.Fingerprint(in.Query, in.IndexName, in.Options)
	if snap.CacheEnabled && u.cacheBack != nil {
		if cached, ok := u.cacheBack.Get(ctx, key); ok {
			resp := *cached
			resp.CacheHit = true
			resp.ProcessingTimeMs = float64(time.Since(start)) / float64(time.Millisecond)
			u.metrics.SearchCompleted(true, time.Since(start), true)
			u.record(in, &resp, time.Since(start))
			return &resp, nil
		}
	}

	// The whole pipeline shares one deadline derived from the snapshot.
	searchCtx, cancel := context.WithTimeout(ctx, snap.SearchTimeout)
	defer cancel()

	tokStart := time.Now()
	pq := u.processor.Process(searchCtx, in.Query, snap)
	tokenizationTime := time.Since(tokStart)

	execStart := time.Now()
	result := u.exec.Execute(searchCtx, pq, in.IndexName, in.Options)
	searchTime := time.Since(execStart)

	rankStart := time.Now()
	hits, total := u.ranker.Rank(result.Results, pq, snap, in.Options)
	rankTime := time.Since(rankStart)

	fallbackUsed := result.FallbackUsed || (len(hits) == 0 && noVariantSucceeded(result.Results))

	resp := &domain.SearchResponse{
		Hits:      hits,
		TotalHits: total,
		QueryInfo: buildQueryInfo(in, pq, fallbackUsed),
		Pagination: buildPagination(in.Options, total),
		Timings: domain.StageTimings{
			Tokenization: tokenizationTime,
			Search:       searchTime,
			Ranking:      rankTime,
			Total:        time.Since(start),
		},
	}
	resp.ProcessingTimeMs = float64(time.Since(start)) / float64(time.Millisecond)

	if snap.CacheEnabled && u.cacheBack != nil {
		u.cacheBack.Set(ctx, key, resp, snap.CacheTTL)
	}

	u.metrics.SearchCompleted(!fallbackUsed || total > 0, time.Since(start), false)
	u.record(in, resp, time.Since(start))

	u.log.Info("search completed",
		"request_id", in.RequestID,
		"query", in.Query,
		"index", in.IndexName,
		"variants", len(pq.Variants),
		"hits", len(hits),
		"total", total,
		"fallback", fallbackUsed,
		"duration_ms", resp.ProcessingTimeMs,
	)
	return resp, nil
}

// record ships the search to the analytics sink without blocking the
// response.
func (u *SearchProxyUsecase) record(in SearchInput, resp *domain.SearchResponse, latency time.Duration) {
	if u.analytics == nil {
		return
	}
	rec := port.SearchRecord{
		RequestID:    in.RequestID,
		Query:        in.Query,
		IndexName:    in.IndexName,
		VariantCount: resp.QueryInfo.VariantsUsed,
		HitCount:     resp.TotalHits,
		FallbackUsed: resp.QueryInfo.FallbackUsed,
		CacheHit:     resp.CacheHit,
		Latency:      latency,
		At:           time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = u.analytics.Record(ctx, rec)
	}()
}

func validateInput(in *SearchInput, snap *config.Snapshot) error {
	if len([]rune(in.Query)) > snap.MaxQueryLength {
		return &domain.ValidationError{Field: "query", Err: "exceeds maximum length"}
	}
	if in.IndexName == "" {
		return &domain.ValidationError{Field: "index_name", Err: "is required"}
	}
	if in.Options.Limit < 0 || in.Options.Limit > domain.MaxLimit {
		return &domain.ValidationError{Field: "limit", Err: "must be between 0 and 100"}
	}
	if in.Options.Offset < 0 {
		return &domain.ValidationError{Field: "offset", Err: "must be >= 0"}
	}
	return nil
}

// noVariantSucceeded reports whether every variant search failed. A
// variant that answered cleanly with zero hits still counts as a
// success; an empty result set is not degradation.
func noVariantSucceeded(results []domain.EngineSearchResult) bool {
	for i := range results {
		if !results[i].Failed() {
			return false
		}
	}
	return true
}

func buildQueryInfo(in SearchInput, pq *domain.ProcessedQuery, fallbackUsed bool) domain.QueryInfo {
	info := domain.QueryInfo{
		OriginalQuery:  pq.Original,
		ProcessedQuery: processedText(pq),
		ThaiDetected:   pq.Language.ThaiDetected,
		MixedContent:   pq.Language.MixedContent,
		VariantsUsed:   len(pq.Variants),
		FallbackUsed:   fallbackUsed,
	}
	if in.IncludeTokenization && pq.Tokenization != nil {
		info.TokenizationInfo = &domain.TokenizationInfo{
			PrimaryEngine: pq.Tokenization.Engine,
			Tokens:        pq.Tokenization.Tokens,
			CompoundWords: compoundsOrEmpty(pq.Tokenization),
		}
	}
	return info
}

func compoundsOrEmpty(tok *domain.TokenizationResult) []string {
	if tok.Compounds == nil {
		return []string{}
	}
	return tok.Compounds
}

// processedText is the tokenized form when one exists, otherwise the
// original query.
func processedText(pq *domain.ProcessedQuery) string {
	for _, v := range pq.Variants {
		if v.Type == domain.VariantTokenized {
			return v.Text
		}
	}
	return pq.Original
}

func buildPagination(opts domain.SearchOptions, total int64) domain.Pagination {
	return domain.Pagination{
		Offset:          opts.Offset,
		Limit:           opts.Limit,
		TotalHits:       total,
		HasNextPage:     int64(opts.Offset+opts.Limit) < total,
		HasPreviousPage: opts.Offset > 0,
	}
}

func emptyResponse(in SearchInput, start time.Time) *domain.SearchResponse {
	return &domain.SearchResponse{
		Hits:      []domain.RankedHit{},
		TotalHits: 0,
		QueryInfo: domain.QueryInfo{
			OriginalQuery:  in.Query,
			ProcessedQuery: in.Query,
		},
		Pagination:       buildPagination(in.Options, 0),
		ProcessingTimeMs: float64(time.Since(start)) / float64(time.Millisecond),
	}
}
