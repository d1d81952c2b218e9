// Package executor fans one processed query out to the index engine,
// one search per variant, under bounded parallelism.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"thai-search-proxy/domain"
	"thai-search-proxy/port"
)

// Observer receives fan-out events for metrics.
type Observer interface {
	VariantDispatched()
	VariantCompleted(variantType domain.VariantType, latency time.Duration, err error)
	FallbackSearch()
}

// Executor runs the variant fan-out. The semaphore is shared across
// all requests so the process-wide in-flight engine call count stays
// bounded no matter how many requests arrive.
type Executor struct {
	engine   port.SearchEngine
	sem      *semaphore.Weighted
	observer Observer
	log      *slog.Logger
}

// New builds an executor with a process-wide fan-out cap.
func New(engine port.SearchEngine, maxConcurrent int, observer Observer, log *slog.Logger) *Executor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Executor{
		engine:   engine,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		observer: observer,
		log:      log,
	}
}

// Result is the fan-out outcome: every variant's result in input
// (weight-descending) order, plus whether the bare fallback ran.
type Result struct {
	Results      []domain.EngineSearchResult
	FallbackUsed bool
}

// Execute searches every variant of pq. Variant failures are recorded,
// never propagated: a failed variant simply contributes nothing. When
// every variant errored, one bare attempt with the original text runs
// without retries.
func (e *Executor) Execute(ctx context.Context, pq *domain.ProcessedQuery, index string, opts domain.SearchOptions) Result {
	variants := pq.Variants
	if len(variants) == 0 {
		return Result{Results: []domain.EngineSearchResult{}}
	}

	results := make([]domain.EngineSearchResult, len(variants))
	var wg sync.WaitGroup
	for i := range variants {
		wg.Add(1)
		go func(slot int, variant domain.QueryVariant) {
			defer wg.Done()
			results[slot] = e.searchVariant(ctx, variant, index, opts)
		}(i, variants[i])
	}
	wg.Wait()

	if !allFailed(results) {
		return Result{Results: results}
	}

	// Last resort: the original text, bare endpoint, no retries.
	e.log.Warn("all variants failed, attempting bare fallback",
		"query", pq.Original, "variants", len(variants))
	if e.observer != nil {
		e.observer.FallbackSearch()
	}
	bare, err := e.engine.BareSearch(ctx, pq.Original, index, opts.Limit)
	if err != nil || bare == nil {
		return Result{Results: results, FallbackUsed: true}
	}
	return Result{Results: append(results, *bare), FallbackUsed: true}
}

func (e *Executor) searchVariant(ctx context.Context, variant domain.QueryVariant, index string, opts domain.SearchOptions) domain.EngineSearchResult {
	if e.observer != nil {
		e.observer.VariantDispatched()
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		// Deadline fired while queued; record as a timeout for this
		// variant and let the others proceed.
		res := domain.EngineSearchResult{
			Variant: variant,
			Err: &domain.IndexEngineError{
				Op:   "Acquire",
				Kind: domain.IndexEngineTimeout,
				Err:  err.Error(),
			},
		}
		if e.observer != nil {
			e.observer.VariantCompleted(variant.Type, 0, res.Err)
		}
		return res
	}
	defer e.sem.Release(1)

	res, err := e.engine.Search(ctx, variant, index, opts)
	if e.observer != nil {
		var latency time.Duration
		if res != nil {
			latency = res.Latency
		}
		e.observer.VariantCompleted(variant.Type, latency, err)
	}
	if res == nil {
		return domain.EngineSearchResult{Variant: variant, Err: err}
	}
	if err != nil && res.Err == nil {
		res.Err = err
	}
	return *res
}

func allFailed(results []domain.EngineSearchResult) bool {
	for i := range results {
		if !results[i].Failed() {
			return false
		}
	}
	return true
}
