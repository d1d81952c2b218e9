package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"thai-search-proxy/config"
	"thai-search-proxy/domain"
	"thai-search-proxy/metrics"
)

// BatchItem is one slot of a batch result. Failing slots carry the
// error alongside an empty response; they never abort the batch.
type BatchItem struct {
	Response *domain.SearchResponse
	Err      error
}

// BatchSearchUsecase drives N single searches with bounded outer
// concurrency, distinct from the per-request fan-out semaphore.
// Results come back in input order.
type BatchSearchUsecase struct {
	search  *SearchProxyUsecase
	cfg     *config.Manager
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewBatchSearchUsecase(search *SearchProxyUsecase, cfg *config.Manager, m *metrics.Metrics, log *slog.Logger) *BatchSearchUsecase {
	return &BatchSearchUsecase{search: search, cfg: cfg, metrics: m, log: log}
}

// Execute runs each query through the single-request flow.
func (u *BatchSearchUsecase) Execute(ctx context.Context, queries []string, index string, opts domain.SearchOptions) []BatchItem {
	snap := u.cfg.Current()
	u.metrics.BatchStarted()

	items := make([]BatchItem, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snap.BatchConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			resp, err := u.search.Execute(gctx, SearchInput{
				Query:     q,
				IndexName: index,
				Options:   opts,
			})
			if err != nil {
				u.log.Warn("batch slot failed", "slot", i, "query", q, "err", err)
				items[i] = BatchItem{Response: emptySlotResponse(q, opts), Err: err}
				return nil
			}
			items[i] = BatchItem{Response: resp}
			return nil
		})
	}
	_ = g.Wait()

	return items
}

func emptySlotResponse(query string, opts domain.SearchOptions) *domain.SearchResponse {
	return &domain.SearchResponse{
		Hits:       []domain.RankedHit{},
		QueryInfo:  domain.QueryInfo{OriginalQuery: query, ProcessedQuery: query},
		Pagination: buildPagination(opts, 0),
	}
}
