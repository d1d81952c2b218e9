package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"thai-search-proxy/domain"
)

// ErrorResponse is the uniform error body for every non-2xx reply.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

func errorJSON(c echo.Context, status int, code, message string, details map[string]interface{}) error {
	return c.JSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps domain and binding failures onto the HTTP contract.
func writeError(c echo.Context, err error) error {
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]interface{}, len(valErrs))
		for _, fe := range valErrs {
			details[fe.Field()] = fe.Tag()
		}
		return errorJSON(c, http.StatusUnprocessableEntity, "validation_error", "request validation failed", details)
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return errorJSON(c, http.StatusUnprocessableEntity, "validation_error", vErr.Error(),
			map[string]interface{}{"field": vErr.Field})
	}

	var aErr *domain.AuthError
	if errors.As(err, &aErr) {
		status := http.StatusUnauthorized
		if aErr.Forbidden {
			status = http.StatusForbidden
		}
		return errorJSON(c, status, "auth_error", aErr.Error(), nil)
	}

	if errors.Is(err, domain.ErrTooBusy) {
		return errorJSON(c, http.StatusTooManyRequests, "too_busy", "server is at capacity, retry later", nil)
	}

	var cErr *domain.ConfigError
	if errors.As(err, &cErr) {
		return errorJSON(c, http.StatusBadRequest, "config_error", cErr.Error(), nil)
	}

	var ieErr *domain.IndexEngineError
	if errors.As(err, &ieErr) {
		return errorJSON(c, http.StatusServiceUnavailable, "index_engine_unavailable", ieErr.Error(), nil)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, _ := httpErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(httpErr.Code)
		}
		return errorJSON(c, httpErr.Code, "request_error", msg, nil)
	}

	return errorJSON(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
}

// HTTPErrorHandler renders errors returned by middleware and handlers
// that bypass writeError, keeping the error body shape uniform.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	_ = writeError(c, err)
}

// bindError reports a malformed JSON body.
func bindError(c echo.Context, err error) error {
	return errorJSON(c, http.StatusBadRequest, "invalid_request", "malformed request body: "+err.Error(), nil)
}
