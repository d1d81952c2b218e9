package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all OTel metric instruments for thai-search-proxy.
var Metrics *SearchProxyMetrics

// SearchProxyMetrics contains all metric instruments exported over OTLP.
// The Prometheus registry stays the scrape surface; these mirror the
// request-level signals into the trace/metric pipeline.
type SearchProxyMetrics struct {
	SearchesTotal  metric.Int64Counter
	FallbacksTotal metric.Int64Counter
	ErrorsTotal    metric.Int64Counter
	SearchDuration metric.Float64Histogram
	ProbeDuration  metric.Float64Histogram
}

// InitMetrics initializes all metric instruments.
func InitMetrics() error {
	meter := otel.Meter("thai-search-proxy")

	searchesTotal, err := meter.Int64Counter("thai_search_proxy_searches_total",
		metric.WithDescription("Total number of search requests"),
	)
	if err != nil {
		return err
	}

	fallbacksTotal, err := meter.Int64Counter("thai_search_proxy_fallbacks_total",
		metric.WithDescription("Total number of bare fallback searches"),
	)
	if err != nil {
		return err
	}

	errorsTotal, err := meter.Int64Counter("thai_search_proxy_errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return err
	}

	searchDuration, err := meter.Float64Histogram("thai_search_proxy_search_duration_seconds",
		metric.WithDescription("Search request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	probeDuration, err := meter.Float64Histogram("thai_search_proxy_probe_duration_seconds",
		metric.WithDescription("Index engine health probe duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	Metrics = &SearchProxyMetrics{
		SearchesTotal:  searchesTotal,
		FallbacksTotal: fallbacksTotal,
		ErrorsTotal:    errorsTotal,
		SearchDuration: searchDuration,
		ProbeDuration:  probeDuration,
	}

	return nil
}
