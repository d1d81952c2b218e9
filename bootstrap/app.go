// Package bootstrap wires the proxy together: config, dictionary,
// tokenizer engines, index engine client, cache, metrics and the HTTP
// server, plus graceful shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"thai-search-proxy/config"
	"thai-search-proxy/dictionary"
	"thai-search-proxy/domain"
	"thai-search-proxy/driver"
	"thai-search-proxy/executor"
	"thai-search-proxy/gateway"
	"thai-search-proxy/logger"
	"thai-search-proxy/metrics"
	"thai-search-proxy/port"
	"thai-search-proxy/queryproc"
	"thai-search-proxy/ranker"
	"thai-search-proxy/rest"
	"thai-search-proxy/tokenize"
	"thai-search-proxy/usecase"
	appOtel "thai-search-proxy/utils/otel"
)

// healthProbeInterval is how often downstream dependencies are probed.
const healthProbeInterval = 30 * time.Second

// App holds the long-lived components of the proxy.
type App struct {
	httpServer   *http.Server
	cacheClose   func()
	analytics    port.AnalyticsRecorder
	otelShutdown appOtel.ShutdownFunc
}

// Run initializes all components and starts the service.
// It blocks until ctx is cancelled, then performs graceful shutdown.
func Run(ctx context.Context) error {
	// ── OpenTelemetry ──
	otelCfg := appOtel.ConfigFromEnv()
	otelShutdown, err := appOtel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	// ── Logger ──
	logger.InitWithOTel(otelCfg.Enabled)
	log := logger.Logger
	log.Info("Starting thai-search-proxy",
		"service", otelCfg.ServiceName,
		"otel_enabled", otelCfg.Enabled,
	)

	// ── Config and dictionary ──
	dict := dictionary.NewStore()
	cfgMgr, err := config.NewManager(dict, log)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		return err
	}
	snap := cfgMgr.Current()

	// ── Metrics ──
	m := metrics.New(
		func() float64 { return float64(dict.Size()) },
		func() float64 { return float64(cfgMgr.Status().Reloads) },
	)

	// ── Tokenizer engines ──
	registry := buildEngineRegistry(dict, snap)
	facade := tokenize.NewFacade(registry, dict, snap.CacheSize, snap.CacheTTL, m, log)
	processor := queryproc.NewProcessor(facade, log)

	// ── Index engine (infrastructure layer) ──
	msClient, err := initMeilisearchClient(snap, log)
	if err != nil {
		log.Error("Failed to initialize index engine client", "err", err)
		return err
	}
	searchDriver := driver.NewMeilisearchDriver(msClient,
		snap.RetryAttempts, snap.RetryBaseDelay, snap.RetryMaxDelay)
	searchEngine := gateway.NewSearchEngineGateway(searchDriver)

	// ── Fan-out, ranking, cache ──
	exec := executor.New(searchEngine, snap.MaxConcurrentSearches, m, log)
	rnk := ranker.New(log)

	cacheBack, cacheClose := initCacheBackend(snap, log)
	analytics := initAnalytics(ctx, snap, log)

	// ── Use cases (application layer) ──
	searchUC := usecase.NewSearchProxyUsecase(cfgMgr, processor, exec, rnk, cacheBack, analytics, m, log)
	batchUC := usecase.NewBatchSearchUsecase(searchUC, cfgMgr, m, log)
	tokenizeUC := usecase.NewTokenizeTextUsecase(facade, cfgMgr)

	// ── HTTP server ──
	handler := rest.NewHandler(searchUC, batchUC, tokenizeUC, cfgMgr, m, otelCfg.ServiceVersion, log)
	app := &App{
		httpServer:   newHTTPServer(handler, cfgMgr, otelCfg),
		cacheClose:   cacheClose,
		analytics:    analytics,
		otelShutdown: otelShutdown,
	}

	// ── Background loops ──
	go func() {
		if err := cfgMgr.Watch(ctx); err != nil {
			log.Error("config watcher stopped", "err", err)
		}
	}()
	go runHealthLoop(ctx, searchEngine, cfgMgr, m)

	go func() {
		log.Info("http listen", "addr", snap.HTTPAddr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http", "err", err)
		}
	}()

	// ── Wait for shutdown signal ──
	<-ctx.Done()
	app.shutdown()
	return nil
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http shutdown error", "err", err)
	}
	if a.analytics != nil {
		a.analytics.Close()
	}
	if a.cacheClose != nil {
		a.cacheClose()
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := a.otelShutdown(otelCtx); err != nil {
		fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
	}
}

// buildEngineRegistry registers the in-process segmenter plus any
// configured sidecar engines.
func buildEngineRegistry(dict *dictionary.Store, snap *config.Snapshot) *tokenize.Registry {
	engines := []tokenize.Engine{tokenize.NewNewMM(dict)}
	if snap.AttaCutURL != "" {
		engines = append(engines, tokenize.NewRemoteEngine(domain.EngineAttaCut, snap.AttaCutURL, snap.TokenizerTimeout))
	}
	if snap.DeepCutURL != "" {
		engines = append(engines, tokenize.NewRemoteEngine(domain.EngineDeepCut, snap.DeepCutURL, snap.TokenizerTimeout))
	}
	return tokenize.NewRegistry(engines...)
}

// runHealthLoop probes downstream dependencies and feeds the health
// tracker that backs /health.
func runHealthLoop(ctx context.Context, engine port.SearchEngine, cfgMgr *config.Manager, m *metrics.Metrics) {
	probe := func() {
		start := time.Now()
		err := engine.Healthy(ctx)
		elapsed := time.Since(start)

		if om := appOtel.Metrics; om != nil {
			om.ProbeDuration.Record(ctx, elapsed.Seconds())
			if err != nil {
				om.ErrorsTotal.Add(ctx, 1)
			}
		}

		tracker := m.Health()
		if err != nil {
			tracker.Set(metrics.ComponentIndexEngine, metrics.StatusUnhealthy, err.Error())
		} else {
			tracker.Set(metrics.ComponentIndexEngine, metrics.StatusHealthy, "")
		}

		// The in-process segmenter cannot fail; an empty dictionary only
		// degrades compound preservation.
		if cfgMgr.Dictionary().Size() == 0 {
			tracker.Set(metrics.ComponentDictionary, metrics.StatusDegraded, "dictionary empty")
		} else {
			tracker.Set(metrics.ComponentDictionary, metrics.StatusHealthy, "")
		}
		tracker.Set(metrics.ComponentTokenizer, metrics.StatusHealthy, "")

		status := cfgMgr.Status()
		if status.ReloadErrors > 0 && status.ReloadErrors > status.Reloads {
			tracker.Set(metrics.ComponentConfig, metrics.StatusDegraded, "recent reload failures")
		} else {
			tracker.Set(metrics.ComponentConfig, metrics.StatusHealthy, "")
		}
	}

	probe()
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
