package config

import (
	"fmt"

	"thai-search-proxy/domain"
)

// knownEngines are the engine ids the registry can resolve.
var knownEngines = map[string]bool{
	domain.EngineNewMM:   true,
	domain.EngineAttaCut: true,
	domain.EngineDeepCut: true,
}

// Validate rejects a candidate snapshot that could not serve requests.
// A rejected candidate leaves the prior snapshot active.
func (s *Snapshot) Validate() error {
	for t, b := range s.TypeBoosts {
		if b <= 0 {
			return &domain.ConfigError{Op: "validate", Err: fmt.Sprintf("boost for %s must be > 0, got %v", t, b)}
		}
	}
	if s.ThaiMatchBoost <= 0 {
		return &domain.ConfigError{Op: "validate", Err: "thai match boost must be > 0"}
	}
	if s.CompoundBoost <= 0 {
		return &domain.ConfigError{Op: "validate", Err: "compound boost must be > 0"}
	}
	if s.TokenizerTimeout <= 0 {
		return &domain.ConfigError{Op: "validate", Err: "tokenizer timeout must be > 0"}
	}
	if s.SearchTimeout <= 0 {
		return &domain.ConfigError{Op: "validate", Err: "search timeout must be > 0"}
	}
	if s.MaxConcurrentSearches < 1 {
		return &domain.ConfigError{Op: "validate", Err: "max concurrent searches must be >= 1"}
	}
	if s.BatchConcurrency < 1 {
		return &domain.ConfigError{Op: "validate", Err: "batch concurrency must be >= 1"}
	}
	if s.MaxQueryVariants < 1 {
		return &domain.ConfigError{Op: "validate", Err: "max query variants must be >= 1"}
	}
	if !knownEngines[s.PrimaryEngine] {
		return &domain.ConfigError{Op: "validate", Err: "unknown primary engine: " + s.PrimaryEngine}
	}
	for _, e := range s.FallbackEngines {
		if !knownEngines[e] {
			return &domain.ConfigError{Op: "validate", Err: "unknown fallback engine: " + e}
		}
	}
	if s.RetryAttempts < 0 {
		return &domain.ConfigError{Op: "validate", Err: "retry attempts must be >= 0"}
	}
	if s.MinScoreThreshold < 0 || s.MinScoreThreshold > 1 {
		return &domain.ConfigError{Op: "validate", Err: "min score threshold must be in [0,1]"}
	}
	if s.CacheBackend != "memory" && s.CacheBackend != "redis" {
		return &domain.ConfigError{Op: "validate", Err: "cache backend must be memory or redis"}
	}
	return nil
}
