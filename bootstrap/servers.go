package bootstrap

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"thai-search-proxy/config"
	"thai-search-proxy/middleware"
	"thai-search-proxy/rest"
	appOtel "thai-search-proxy/utils/otel"
)

// newHTTPServer creates the REST HTTP server. HTTP/2 without TLS (h2c)
// is supported for internal service communication.
func newHTTPServer(handler *rest.Handler, cfgMgr *config.Manager, otelCfg appOtel.Config) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = rest.NewValidator()
	e.HTTPErrorHandler = rest.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())

	auth := middleware.NewAPIKeyAuth(cfgMgr)
	admission := middleware.NewAdmission(cfgMgr)
	handler.Register(e, auth.Require(), admission.Limit())

	var root http.Handler = e
	if otelCfg.Enabled {
		root = middleware.OTelStatusHandler(root, "thai-search-proxy.http")
	}

	return &http.Server{
		Addr:              cfgMgr.Current().HTTPAddr,
		Handler:           h2c.NewHandler(root, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
