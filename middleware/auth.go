// Package middleware holds the echo middleware for the HTTP surface:
// API key auth, request ids, admission limiting and OTel span status.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"thai-search-proxy/config"
	"thai-search-proxy/domain"
)

// APIKeyAuth checks the configured API key on every request it covers.
// The key is read from the active snapshot so a rotation takes effect
// without restart.
type APIKeyAuth struct {
	cfg *config.Manager
}

func NewAPIKeyAuth(cfg *config.Manager) *APIKeyAuth {
	return &APIKeyAuth{cfg: cfg}
}

// Require returns the middleware. A missing key yields 401, a
// mismatched key 403. When no key is configured the check is a no-op.
func (m *APIKeyAuth) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := m.cfg.Current()
			if !snap.APIKeyRequired || snap.APIKey == "" {
				return next(c)
			}

			presented := presentedKey(c)
			if presented == "" {
				return &domain.AuthError{Reason: "API key required"}
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(snap.APIKey)) != 1 {
				return &domain.AuthError{Reason: "invalid API key", Forbidden: true}
			}
			return next(c)
		}
	}
}

// presentedKey reads the key from X-API-Key or a Bearer token.
func presentedKey(c echo.Context) string {
	if key := c.Request().Header.Get("X-API-Key"); key != "" {
		return key
	}
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
