package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"thai-search-proxy/domain"
)

type stubSearchEngine struct {
	mu          sync.Mutex
	failTexts   map[string]bool
	failAll     bool
	bareErr     error
	searchCalls []string
	bareCalls   int
}

func (s *stubSearchEngine) Search(_ context.Context, variant domain.QueryVariant, _ string, _ domain.SearchOptions) (*domain.EngineSearchResult, error) {
	s.mu.Lock()
	s.searchCalls = append(s.searchCalls, variant.Text)
	s.mu.Unlock()

	if s.failAll || s.failTexts[variant.Text] {
		err := &domain.IndexEngineError{Op: "Search", Kind: domain.IndexEngineServer, Err: "upstream 500"}
		return &domain.EngineSearchResult{Variant: variant, Err: err}, err
	}
	return &domain.EngineSearchResult{
		Variant: variant,
		Hits:    []domain.RawHit{{ID: "doc-" + variant.Text, Score: 1}},
	}, nil
}

func (s *stubSearchEngine) BareSearch(_ context.Context, text, _ string, _ int) (*domain.EngineSearchResult, error) {
	s.mu.Lock()
	s.bareCalls++
	s.mu.Unlock()

	if s.bareErr != nil {
		return nil, s.bareErr
	}
	return &domain.EngineSearchResult{
		Variant: domain.QueryVariant{Text: text, Type: domain.VariantOriginal, Weight: 1.0},
		Hits:    []domain.RawHit{{ID: "bare-" + text, Score: 1}},
	}, nil
}

func (s *stubSearchEngine) Healthy(context.Context) error { return nil }

func newExecutor(engine *stubSearchEngine, maxConcurrent int) *Executor {
	return New(engine, maxConcurrent, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func threeVariants() *domain.ProcessedQuery {
	return &domain.ProcessedQuery{
		Original: "ข้าวผัด",
		Variants: []domain.QueryVariant{
			{Text: "ข้าวผัด", Type: domain.VariantOriginal, Weight: 1.0},
			{Text: "ข้าว ผัด", Type: domain.VariantTokenized, Weight: 0.9},
			{Text: "ข้าว", Type: domain.VariantCompoundSplit, Weight: 0.7},
		},
	}
}

func TestExecute_ResultsKeepVariantOrder(t *testing.T) {
	engine := &stubSearchEngine{}
	pq := threeVariants()

	out := newExecutor(engine, 2).Execute(context.Background(), pq, "articles", domain.SearchOptions{Limit: 20})

	if out.FallbackUsed {
		t.Error("FallbackUsed = true, want false")
	}
	if len(out.Results) != len(pq.Variants) {
		t.Fatalf("got %d results, want %d", len(out.Results), len(pq.Variants))
	}
	for i, v := range pq.Variants {
		if out.Results[i].Variant.Text != v.Text {
			t.Errorf("results[%d] variant = %q, want %q", i, out.Results[i].Variant.Text, v.Text)
		}
		if out.Results[i].Failed() {
			t.Errorf("results[%d] failed: %v", i, out.Results[i].Err)
		}
	}

	sort.Strings(engine.searchCalls)
	if len(engine.searchCalls) != 3 {
		t.Errorf("engine saw %d calls, want 3", len(engine.searchCalls))
	}
	if engine.bareCalls != 0 {
		t.Errorf("bareCalls = %d, want 0", engine.bareCalls)
	}
}

func TestExecute_PartialFailureDegrades(t *testing.T) {
	engine := &stubSearchEngine{failTexts: map[string]bool{"ข้าว ผัด": true}}
	pq := threeVariants()

	out := newExecutor(engine, 2).Execute(context.Background(), pq, "articles", domain.SearchOptions{Limit: 20})

	if out.FallbackUsed {
		t.Error("one surviving variant must not trigger the bare fallback")
	}
	if !out.Results[1].Failed() {
		t.Error("failed variant slot should carry its error")
	}
	if out.Results[0].Failed() || out.Results[2].Failed() {
		t.Error("healthy variants must not be affected by a sibling failure")
	}
}

func TestExecute_AllFailedRunsBareFallback(t *testing.T) {
	engine := &stubSearchEngine{failAll: true}
	pq := threeVariants()

	out := newExecutor(engine, 2).Execute(context.Background(), pq, "articles", domain.SearchOptions{Limit: 20})

	if !out.FallbackUsed {
		t.Fatal("FallbackUsed = false, want true")
	}
	if engine.bareCalls != 1 {
		t.Errorf("bareCalls = %d, want exactly one", engine.bareCalls)
	}
	if len(out.Results) != len(pq.Variants)+1 {
		t.Fatalf("got %d results, want %d plus the bare result", len(out.Results), len(pq.Variants))
	}
	bare := out.Results[len(out.Results)-1]
	if bare.Failed() || len(bare.Hits) == 0 || bare.Hits[0].ID != "bare-ข้าวผัด" {
		t.Errorf("bare result = %+v, want the original-text hit", bare)
	}
}

func TestExecute_BareFallbackAlsoFails(t *testing.T) {
	engine := &stubSearchEngine{failAll: true, bareErr: errors.New("still down")}
	pq := threeVariants()

	out := newExecutor(engine, 2).Execute(context.Background(), pq, "articles", domain.SearchOptions{Limit: 20})

	if !out.FallbackUsed {
		t.Error("FallbackUsed = false, want true")
	}
	if len(out.Results) != len(pq.Variants) {
		t.Errorf("got %d results, want only the failed variant slots", len(out.Results))
	}
	for i := range out.Results {
		if !out.Results[i].Failed() {
			t.Errorf("results[%d] should be failed", i)
		}
	}
}

func TestExecute_NoVariants(t *testing.T) {
	engine := &stubSearchEngine{}
	out := newExecutor(engine, 2).Execute(context.Background(), &domain.ProcessedQuery{}, "articles", domain.SearchOptions{})
	if len(out.Results) != 0 || out.FallbackUsed {
		t.Errorf("empty variant list should produce no results, got %+v", out)
	}
	if len(engine.searchCalls) != 0 {
		t.Errorf("engine saw %d calls, want 0", len(engine.searchCalls))
	}
}

func TestExecute_ConcurrencyCapIsSharedAcrossRequests(t *testing.T) {
	engine := &stubSearchEngine{}
	exec := newExecutor(engine, 1)
	pq := threeVariants()

	// All variants complete even when only one engine call may be in
	// flight at a time.
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := exec.Execute(context.Background(), pq, "articles", domain.SearchOptions{Limit: 20})
			if len(out.Results) != 3 {
				t.Errorf("got %d results, want 3", len(out.Results))
			}
		}()
	}
	wg.Wait()

	if len(engine.searchCalls) != 9 {
		t.Errorf("engine saw %d calls, want 9", len(engine.searchCalls))
	}
}
