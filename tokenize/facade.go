package tokenize

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"thai-search-proxy/config"
	"thai-search-proxy/dictionary"
	"thai-search-proxy/domain"
)

// Observer receives tokenization events for metrics.
type Observer interface {
	TokenizationCompleted(engine string, d time.Duration, err error)
}

// Facade selects the primary engine from the snapshot, applies the
// per-call timeout, walks the fallback ladder on failure and finishes
// with dictionary-aware compound preservation. Results are cached by
// fingerprint with time-based expiry.
type Facade struct {
	registry *Registry
	dict     *dictionary.Store
	cache    *expirable.LRU[string, *domain.TokenizationResult]
	observer Observer
	log      *slog.Logger
}

// NewFacade builds the facade. cacheSize <= 0 disables the cache.
func NewFacade(registry *Registry, dict *dictionary.Store, cacheSize int, cacheTTL time.Duration, observer Observer, log *slog.Logger) *Facade {
	var cache *expirable.LRU[string, *domain.TokenizationResult]
	if cacheSize > 0 {
		cache = expirable.NewLRU[string, *domain.TokenizationResult](cacheSize, nil, cacheTTL)
	}
	return &Facade{
		registry: registry,
		dict:     dict,
		cache:    cache,
		observer: observer,
		log:      log,
	}
}

// Tokenize never returns an error: when every engine fails it emits a
// single-token fallback result with Success=false so downstream stages
// can still run the original query.
func (f *Facade) Tokenize(ctx context.Context, text string, snap *config.Snapshot) *domain.TokenizationResult {
	if strings.TrimSpace(text) == "" {
		return emptyResult(snap.PrimaryEngine)
	}

	key := f.fingerprint(snap, text)
	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			return cached
		}
	}

	var lastErr error
	for _, name := range snap.Engines() {
		engine, ok := f.registry.Get(name)
		if !ok {
			f.log.Warn("unknown tokenizer engine in config", "engine", name)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, snap.TokenizerTimeout)
		start := time.Now()
		res, err := engine.Tokenize(callCtx, text)
		cancel()

		if f.observer != nil {
			f.observer.TokenizationCompleted(name, time.Since(start), err)
		}
		if err != nil {
			lastErr = err
			f.log.Debug("tokenizer engine failed, trying next", "engine", name, "err", err)
			continue
		}

		res = PreserveCompounds(res, f.dict)
		if f.cache != nil {
			f.cache.Add(key, res)
		}
		return res
	}

	f.log.Warn("all tokenizer engines failed", "err", lastErr)
	return f.fallbackResult(text, lastErr)
}

// fallbackResult carries the whole input as one token so the original
// variant still works downstream.
func (f *Facade) fallbackResult(text string, cause error) *domain.TokenizationResult {
	reason := domain.ErrAllEnginesFailed.Error()
	if cause != nil {
		reason = cause.Error()
	}
	return &domain.TokenizationResult{
		OriginalText: text,
		Tokens:       []string{text},
		Engine:       domain.EngineFallback,
		Success:      false,
		FailReason:   reason,
	}
}

// fingerprint keys the cache on the engine ladder, the dictionary
// generation and the text, so reloads never serve stale merges.
func (f *Facade) fingerprint(snap *config.Snapshot, text string) string {
	h := fnv.New64a()
	h.Write([]byte(snap.PrimaryEngine))
	for _, e := range snap.FallbackEngines {
		h.Write([]byte{0})
		h.Write([]byte(e))
	}
	h.Write([]byte{0})
	h.Write([]byte(f.dict.Version()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum64())
}
