package metrics

import (
	"errors"
	"testing"
	"time"

	"thai-search-proxy/domain"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := New(func() float64 { return 42 }, func() float64 { return 1 })

	m.SearchCompleted(true, 10*time.Millisecond, false)
	m.SearchCompleted(true, 5*time.Millisecond, true)
	m.SearchCompleted(false, 20*time.Millisecond, false)
	m.FallbackSearch()
	m.VariantDispatched()
	m.VariantCompleted(domain.VariantOriginal, time.Millisecond, nil)
	m.VariantDispatched()

	s := m.Snapshot()
	if s.SearchesOK != 2 {
		t.Errorf("SearchesOK = %d, want 2", s.SearchesOK)
	}
	if s.SearchesFailed != 1 {
		t.Errorf("SearchesFailed = %d, want 1", s.SearchesFailed)
	}
	if s.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", s.CacheHits)
	}
	if s.FallbackSearches != 1 {
		t.Errorf("FallbackSearches = %d, want 1", s.FallbackSearches)
	}
	if s.InflightSearches != 1 {
		t.Errorf("InflightSearches = %d, want 1", s.InflightSearches)
	}
	if s.OverallHealth != StatusHealthy {
		t.Errorf("OverallHealth = %s, want healthy", s.OverallHealth)
	}
	if s.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %v", s.UptimeSeconds)
	}
}

func TestMetrics_ObserverCallbacksDoNotPanic(t *testing.T) {
	m := New(nil, nil)
	m.TokenizationCompleted(domain.EngineNewMM, time.Millisecond, nil)
	m.TokenizationCompleted(domain.EngineAttaCut, time.Millisecond, errors.New("down"))
	m.VariantCompleted(domain.VariantFallback, 0, errors.New("timeout"))
	m.BatchStarted()
	if m.Handler() == nil {
		t.Error("Handler() = nil")
	}
}
