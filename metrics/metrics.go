// Package metrics holds the process-wide counters, histograms and
// component health states fed by the tokenizer facade, the executor and
// the search usecase.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"thai-search-proxy/domain"
)

// Metrics owns the Prometheus registry and the health tracker.
type Metrics struct {
	registry *prometheus.Registry
	health   *HealthTracker
	started  time.Time

	searchesTotal    *prometheus.CounterVec
	searchDuration   prometheus.Histogram
	variantDuration  *prometheus.HistogramVec
	variantErrors    *prometheus.CounterVec
	tokenizeDuration *prometheus.HistogramVec
	tokenizeErrors   *prometheus.CounterVec
	inflight         prometheus.Gauge
	fallbackTotal    prometheus.Counter
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	batchTotal       prometheus.Counter

	// Plain counters backing the JSON summary endpoint.
	searchOK      atomic.Int64
	searchFailed  atomic.Int64
	fallbackCount atomic.Int64
	cacheHitCount atomic.Int64
	inflightCount atomic.Int64
}

// New builds the registry and registers all instruments.
// dictSize and reloadCount are sampled lazily via gauge functions.
func New(dictSize func() float64, reloadCount func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		health:   NewHealthTracker(),
		started:  time.Now(),
	}

	m.searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thai_search_proxy_searches_total",
		Help: "Total searches by outcome.",
	}, []string{"result"})

	m.searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "thai_search_proxy_search_duration_seconds",
		Help:    "End-to-end search latency.",
		Buckets: prometheus.DefBuckets,
	})

	m.variantDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thai_search_proxy_variant_duration_seconds",
		Help:    "Per-variant index engine latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"variant_type"})

	m.variantErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thai_search_proxy_variant_errors_total",
		Help: "Failed variant searches by type.",
	}, []string{"variant_type"})

	m.tokenizeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thai_search_proxy_tokenize_duration_seconds",
		Help:    "Per-engine tokenization latency.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"engine"})

	m.tokenizeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thai_search_proxy_tokenize_errors_total",
		Help: "Tokenization failures by engine.",
	}, []string{"engine"})

	m.inflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "thai_search_proxy_inflight_searches",
		Help: "Variant searches currently in flight.",
	})

	m.fallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thai_search_proxy_fallback_total",
		Help: "Bare fallback searches after total variant failure.",
	})

	m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thai_search_proxy_cache_hits_total",
		Help: "Result cache hits.",
	})

	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thai_search_proxy_cache_misses_total",
		Help: "Result cache misses.",
	})

	m.batchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thai_search_proxy_batch_searches_total",
		Help: "Batch search requests.",
	})

	m.registry.MustRegister(
		m.searchesTotal, m.searchDuration,
		m.variantDuration, m.variantErrors,
		m.tokenizeDuration, m.tokenizeErrors,
		m.inflight, m.fallbackTotal,
		m.cacheHits, m.cacheMisses, m.batchTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if dictSize != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "thai_search_proxy_dictionary_size",
			Help: "Entries in the compound dictionary.",
		}, dictSize))
	}
	if reloadCount != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "thai_search_proxy_config_reloads",
			Help: "Completed config hot reloads.",
		}, reloadCount))
	}

	return m
}

// Health exposes the component health tracker.
func (m *Metrics) Health() *HealthTracker { return m.health }

// Uptime is the time since construction.
func (m *Metrics) Uptime() time.Duration { return time.Since(m.started) }

// Handler serves the registry in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SearchCompleted records one finished search request.
func (m *Metrics) SearchCompleted(success bool, d time.Duration, cacheHit bool) {
	result := "success"
	if success {
		m.searchOK.Add(1)
	} else {
		result = "failure"
		m.searchFailed.Add(1)
	}
	m.searchesTotal.WithLabelValues(result).Inc()
	m.searchDuration.Observe(d.Seconds())
	if cacheHit {
		m.cacheHits.Inc()
		m.cacheHitCount.Add(1)
	} else {
		m.cacheMisses.Inc()
	}
}

// BatchStarted records a batch request.
func (m *Metrics) BatchStarted() { m.batchTotal.Inc() }

// TokenizationCompleted implements tokenize.Observer.
func (m *Metrics) TokenizationCompleted(engine string, d time.Duration, err error) {
	m.tokenizeDuration.WithLabelValues(engine).Observe(d.Seconds())
	if err != nil {
		m.tokenizeErrors.WithLabelValues(engine).Inc()
	}
}

// VariantDispatched implements executor.Observer.
func (m *Metrics) VariantDispatched() {
	m.inflight.Inc()
	m.inflightCount.Add(1)
}

// VariantCompleted implements executor.Observer.
func (m *Metrics) VariantCompleted(variantType domain.VariantType, latency time.Duration, err error) {
	m.inflight.Dec()
	m.inflightCount.Add(-1)
	m.variantDuration.WithLabelValues(string(variantType)).Observe(latency.Seconds())
	if err != nil {
		m.variantErrors.WithLabelValues(string(variantType)).Inc()
	}
}

// FallbackSearch implements executor.Observer.
func (m *Metrics) FallbackSearch() {
	m.fallbackTotal.Inc()
	m.fallbackCount.Add(1)
}

// Summary is the human-readable JSON counterpart of the registry.
type Summary struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	SearchesOK       int64   `json:"searches_success"`
	SearchesFailed   int64   `json:"searches_failed"`
	FallbackSearches int64   `json:"fallback_searches"`
	CacheHits        int64   `json:"cache_hits"`
	InflightSearches int64   `json:"inflight_searches"`
	OverallHealth    Status  `json:"overall_health"`
}

// Snapshot builds the summary.
func (m *Metrics) Snapshot() Summary {
	return Summary{
		UptimeSeconds:    m.Uptime().Seconds(),
		SearchesOK:       m.searchOK.Load(),
		SearchesFailed:   m.searchFailed.Load(),
		FallbackSearches: m.fallbackCount.Load(),
		CacheHits:        m.cacheHitCount.Load(),
		InflightSearches: m.inflightCount.Load(),
		OverallHealth:    m.health.Overall(),
	}
}
