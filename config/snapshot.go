package config

import (
	"time"

	"thai-search-proxy/domain"
)

// Snapshot is an immutable bundle of every hot-reloadable tunable.
// A request acquires one snapshot at the start and reads only from it;
// reloads publish a fresh snapshot and never mutate a live one.
type Snapshot struct {
	// Tokenization
	PrimaryEngine    string
	FallbackEngines  []string
	TokenizerTimeout time.Duration
	MaxQueryLength   int

	// Fan-out
	MaxConcurrentSearches int
	MaxQueryVariants      int
	SearchTimeout         time.Duration
	RetryAttempts         int
	RetryBaseDelay        time.Duration
	RetryMaxDelay         time.Duration
	ConnectionPoolSize    int
	BatchConcurrency      int

	// Ranking
	TypeBoosts        map[domain.VariantType]float64
	ThaiMatchBoost    float64
	CompoundBoost     float64
	MinScoreThreshold float64

	// Cache
	CacheEnabled bool
	CacheTTL     time.Duration
	CacheBackend string // "memory" or "redis"
	CacheSize    int
	RedisURL     string

	// Index engine
	IndexEngineHost   string
	IndexEngineAPIKey string

	// Auth and admission
	APIKeyRequired bool
	APIKey         string
	AdmissionRPS   float64
	AdmissionBurst int

	// Files
	DictionaryPath      string
	RankingConfigPath   string
	TokenizerConfigPath string
	EnvFile             string
	EnableHotReload     bool
	ReloadDebounce      time.Duration

	// Sidecar engines
	AttaCutURL string
	DeepCutURL string

	// Optional analytics sink
	DatabaseURL string

	// HTTP
	HTTPAddr string

	// Version increases with every published snapshot.
	Version int64
}

// Defaults returns the built-in configuration.
func Defaults() *Snapshot {
	return &Snapshot{
		PrimaryEngine:    domain.EngineNewMM,
		FallbackEngines:  []string{domain.EngineAttaCut, domain.EngineDeepCut},
		TokenizerTimeout: 500 * time.Millisecond,
		MaxQueryLength:   1000,

		MaxConcurrentSearches: 5,
		MaxQueryVariants:      5,
		SearchTimeout:         5 * time.Second,
		RetryAttempts:         2,
		RetryBaseDelay:        100 * time.Millisecond,
		RetryMaxDelay:         2 * time.Second,
		ConnectionPoolSize:    10,
		BatchConcurrency:      10,

		TypeBoosts: map[domain.VariantType]float64{
			domain.VariantOriginal:      2.0,
			domain.VariantTokenized:     1.5,
			domain.VariantCompoundSplit: 1.3,
			domain.VariantThaiOnly:      1.0,
			domain.VariantEnglishOnly:   1.0,
			domain.VariantPhrase:        1.0,
			domain.VariantFallback:      0.6,
		},
		ThaiMatchBoost:    1.4,
		CompoundBoost:     1.3,
		MinScoreThreshold: 0.0,

		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
		CacheBackend: "memory",
		CacheSize:    1024,

		AdmissionRPS:   100,
		AdmissionBurst: 200,

		ReloadDebounce: 250 * time.Millisecond,

		HTTPAddr: ":9400",
	}
}

// Clone returns a deep copy so a candidate snapshot can be edited
// without touching the published one.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.FallbackEngines = append([]string(nil), s.FallbackEngines...)
	c.TypeBoosts = make(map[domain.VariantType]float64, len(s.TypeBoosts))
	for k, v := range s.TypeBoosts {
		c.TypeBoosts[k] = v
	}
	return &c
}

// TypeBoost returns the boost for t, defaulting to 1.0 for unknown types.
func (s *Snapshot) TypeBoost(t domain.VariantType) float64 {
	if b, ok := s.TypeBoosts[t]; ok {
		return b
	}
	return 1.0
}

// Engines returns the engine ladder: primary first, then fallbacks.
func (s *Snapshot) Engines() []string {
	out := make([]string, 0, 1+len(s.FallbackEngines))
	out = append(out, s.PrimaryEngine)
	for _, e := range s.FallbackEngines {
		if e != s.PrimaryEngine {
			out = append(out, e)
		}
	}
	return out
}
