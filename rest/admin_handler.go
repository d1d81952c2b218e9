package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"thai-search-proxy/config"
	"thai-search-proxy/domain"
)

// rankingView renders the active ranking tunables.
func rankingView(snap *config.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"boost_exact_matches":     snap.TypeBoost(domain.VariantOriginal),
		"boost_tokenized_matches": snap.TypeBoost(domain.VariantTokenized),
		"boost_compound_matches":  snap.CompoundBoost,
		"boost_thai_matches":      snap.ThaiMatchBoost,
		"min_score_threshold":     snap.MinScoreThreshold,
	}
}

// tokenizerView renders the active tokenization tunables.
func tokenizerView(snap *config.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"primary_engine":     snap.PrimaryEngine,
		"fallback_engines":   snap.FallbackEngines,
		"timeout_ms":         int(snap.TokenizerTimeout / time.Millisecond),
		"max_query_variants": snap.MaxQueryVariants,
	}
}

// GetConfig handles GET /api/v1/admin/config.
func (h *Handler) GetConfig(c echo.Context) error {
	snap := h.cfg.Current()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":    snap.Version,
		"ranking":    rankingView(snap),
		"tokenizer":  tokenizerView(snap),
		"hot_reload": h.cfg.Status(),
	})
}

// GetConfigSection handles GET /api/v1/admin/config/:type.
func (h *Handler) GetConfigSection(c echo.Context) error {
	snap := h.cfg.Current()
	switch c.Param("type") {
	case "ranking":
		return c.JSON(http.StatusOK, rankingView(snap))
	case "tokenizer", "tokenization":
		return c.JSON(http.StatusOK, tokenizerView(snap))
	default:
		return errorJSON(c, http.StatusBadRequest, "invalid_request",
			"unknown config section: "+c.Param("type"), nil)
	}
}

// PutConfigSection handles PUT /api/v1/admin/config/:type. The body is
// the section's value tree (JSON or YAML); the overlay is validated
// before the swap and rejected wholesale on failure.
func (h *Handler) PutConfigSection(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return bindError(c, err)
	}

	switch c.Param("type") {
	case "ranking":
		values, err := config.ParseRankingOverride(body)
		if err != nil {
			return writeError(c, err)
		}
		if err := h.cfg.ApplyRanking(values); err != nil {
			return writeError(c, err)
		}
	case "tokenizer", "tokenization":
		var values config.TokenizerValues
		if err := json.Unmarshal(body, &values); err != nil {
			return bindError(c, err)
		}
		if err := h.cfg.ApplyTokenizer(&values); err != nil {
			return writeError(c, err)
		}
	default:
		return errorJSON(c, http.StatusBadRequest, "invalid_request",
			"unknown config section: "+c.Param("type"), nil)
	}

	h.log.Info("config section updated", "section", c.Param("type"),
		"version", h.cfg.Current().Version)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "applied",
		"version": h.cfg.Current().Version,
	})
}

// ValidateConfigRequest is the POST /api/v1/admin/config/validate body.
type ValidateConfigRequest struct {
	Type   string          `json:"type" validate:"required,oneof=ranking tokenizer tokenization"`
	Values json.RawMessage `json:"values" validate:"required"`
}

// ValidateConfig handles POST /api/v1/admin/config/validate. It applies
// the candidate overlay to a copy of the active snapshot and reports
// the outcome without swapping.
func (h *Handler) ValidateConfig(c echo.Context) error {
	var req ValidateConfigRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}

	candidate := h.cfg.Current().Clone()
	switch req.Type {
	case "ranking":
		values, err := config.ParseRankingOverride(req.Values)
		if err != nil {
			return c.JSON(http.StatusOK, map[string]interface{}{"valid": false, "error": err.Error()})
		}
		config.ApplyRankingValues(candidate, values)
	case "tokenizer", "tokenization":
		var values config.TokenizerValues
		if err := json.Unmarshal(req.Values, &values); err != nil {
			return c.JSON(http.StatusOK, map[string]interface{}{"valid": false, "error": err.Error()})
		}
		if values.PrimaryEngine != "" {
			candidate.PrimaryEngine = values.PrimaryEngine
		}
		if len(values.FallbackEngines) > 0 {
			candidate.FallbackEngines = values.FallbackEngines
		}
	}

	if err := candidate.Validate(); err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"valid": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"valid": true})
}

// TriggerReload handles POST /api/v1/admin/config/hot-reload/trigger.
func (h *Handler) TriggerReload(c echo.Context) error {
	if err := h.cfg.Reload(); err != nil {
		h.log.Error("manual reload failed", "err", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "reloaded",
		"version": h.cfg.Current().Version,
	})
}

// ReloadStatus handles GET /api/v1/admin/config/hot-reload/status.
func (h *Handler) ReloadStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cfg.Status())
}
