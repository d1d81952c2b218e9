// Package rest exposes the proxy's HTTP API: search, batch search,
// tokenization, health, metrics and the admin config endpoints.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"thai-search-proxy/config"
	"thai-search-proxy/domain"
	"thai-search-proxy/metrics"
	"thai-search-proxy/usecase"
	"thai-search-proxy/utils"
)

// Handler holds the use cases behind the HTTP surface.
type Handler struct {
	search    *usecase.SearchProxyUsecase
	batch     *usecase.BatchSearchUsecase
	tokenizer *usecase.TokenizeTextUsecase
	cfg       *config.Manager
	metrics   *metrics.Metrics
	sanitizer *utils.QuerySanitizer
	version   string
	log       *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(
	search *usecase.SearchProxyUsecase,
	batch *usecase.BatchSearchUsecase,
	tokenizer *usecase.TokenizeTextUsecase,
	cfg *config.Manager,
	m *metrics.Metrics,
	version string,
	log *slog.Logger,
) *Handler {
	return &Handler{
		search:    search,
		batch:     batch,
		tokenizer: tokenizer,
		cfg:       cfg,
		metrics:   m,
		sanitizer: utils.NewQuerySanitizer(nil),
		version:   version,
		log:       log,
	}
}

// Register wires every route onto e. Only /health stays open for
// probes; every other route, /metrics included, runs behind the
// supplied middleware, so scrapers present the API key when one is
// configured.
func (h *Handler) Register(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()), mws...)

	api := e.Group("/api/v1", mws...)
	api.POST("/search", h.Search)
	api.POST("/batch-search", h.BatchSearch)
	api.POST("/tokenize", h.Tokenize)
	api.GET("/health/detailed", h.HealthDetailed)
	api.GET("/metrics/summary", h.MetricsSummary)

	admin := api.Group("/admin")
	admin.GET("/config", h.GetConfig)
	admin.GET("/config/:type", h.GetConfigSection)
	admin.PUT("/config/:type", h.PutConfigSection)
	admin.POST("/config/validate", h.ValidateConfig)
	admin.POST("/config/hot-reload/trigger", h.TriggerReload)
	admin.GET("/config/hot-reload/status", h.ReloadStatus)
}

// Search handles POST /api/v1/search.
func (h *Handler) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	if err := h.sanitizer.ValidateQuery(ctx, req.Query); err != nil {
		return writeError(c, &domain.ValidationError{Field: "query", Err: err.Error()})
	}
	query, _ := h.sanitizer.SanitizeQuery(ctx, req.Query)

	resp, err := h.search.Execute(ctx, usecase.SearchInput{
		Query:               query,
		IndexName:           req.IndexName,
		Options:             req.Options.toDomainOptions(),
		IncludeTokenization: req.IncludeTokenizationInfo,
		RequestID:           requestID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, renderSearchResponse(resp))
}

// BatchSearch handles POST /api/v1/batch-search.
func (h *Handler) BatchSearch(c echo.Context) error {
	var req BatchSearchRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	queries := make([]string, len(req.Queries))
	for i, q := range req.Queries {
		if err := h.sanitizer.ValidateQuery(ctx, q); err != nil {
			return writeError(c, &domain.ValidationError{Field: "queries", Err: err.Error()})
		}
		queries[i], _ = h.sanitizer.SanitizeQuery(ctx, q)
	}

	items := h.batch.Execute(ctx, queries, req.IndexName, req.Options.toDomainOptions())

	out := make([]SearchResponseDTO, len(items))
	for i, item := range items {
		out[i] = renderSearchResponse(item.Response)
	}
	return c.JSON(http.StatusOK, out)
}

// Tokenize handles POST /api/v1/tokenize.
func (h *Handler) Tokenize(c echo.Context) error {
	var req TokenizeRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}

	out, err := h.tokenizer.Execute(c.Request().Context(), req.Text, req.Engine)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, TokenizeResponseDTO{
		OriginalText:     out.OriginalText,
		Tokens:           out.Tokens,
		WordBoundaries:   out.WordBoundaries,
		ConfidenceScores: out.ConfidenceScores,
		Engine:           out.Engine,
		ProcessingTimeMs: out.ProcessingTimeMs,
	})
}

// Health handles GET /health. It always answers 200 so that probes can
// read the status field; routing decisions belong to the orchestrator.
func (h *Handler) Health(c echo.Context) error {
	tracker := h.metrics.Health()
	components := tracker.Components()

	deps := map[string]string{
		"index_engine": string(metrics.StatusHealthy),
		"tokenizer":    string(metrics.StatusHealthy),
	}
	if ch, ok := components[metrics.ComponentIndexEngine]; ok {
		deps["index_engine"] = string(ch.Status)
	}
	if ch, ok := components[metrics.ComponentTokenizer]; ok {
		deps["tokenizer"] = string(ch.Status)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         tracker.Overall(),
		"version":        h.version,
		"uptime_seconds": h.metrics.Uptime().Seconds(),
		"dependencies":   deps,
	})
}

// HealthDetailed handles GET /api/v1/health/detailed.
func (h *Handler) HealthDetailed(c echo.Context) error {
	tracker := h.metrics.Health()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     tracker.Overall(),
		"version":    h.version,
		"components": tracker.Components(),
		"metrics":    h.metrics.Snapshot(),
		"config":     h.cfg.Status(),
	})
}

// MetricsSummary handles GET /api/v1/metrics/summary.
func (h *Handler) MetricsSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok {
		return id
	}
	return ""
}
