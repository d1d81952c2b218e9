package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"thai-search-proxy/domain"
)

// RankingValues is the on-disk shape of the ranking config (YAML or JSON).
type RankingValues struct {
	BoostExactMatches     *float64 `yaml:"boost_exact_matches" json:"boost_exact_matches"`
	BoostTokenizedMatches *float64 `yaml:"boost_tokenized_matches" json:"boost_tokenized_matches"`
	BoostCompoundMatches  *float64 `yaml:"boost_compound_matches" json:"boost_compound_matches"`
	BoostThaiMatches      *float64 `yaml:"boost_thai_matches" json:"boost_thai_matches"`
	MinScoreThreshold     *float64 `yaml:"min_score_threshold" json:"min_score_threshold"`
}

// TokenizerValues is the on-disk shape of the tokenization config.
type TokenizerValues struct {
	PrimaryEngine    string   `yaml:"primary_engine" json:"primary_engine"`
	FallbackEngines  []string `yaml:"fallback_engines" json:"fallback_engines"`
	TimeoutMs        int      `yaml:"timeout_ms" json:"timeout_ms"`
	MaxQueryVariants int      `yaml:"max_query_variants" json:"max_query_variants"`
}

// Load builds a candidate snapshot from defaults, the optional env file,
// process environment and the optional ranking/tokenization config files.
// Precedence: env > config files > defaults.
func Load() (*Snapshot, error) {
	s := Defaults()

	if envFile := getEnvOrDefault("ENV_FILE", ""); envFile != "" {
		s.EnvFile = envFile
		if err := godotenv.Load(envFile); err != nil {
			return nil, &domain.ConfigError{Op: "env_file", Err: err.Error()}
		}
	}

	s.TokenizerConfigPath = getEnvOrDefault("TOKENIZER_CONFIG_PATH", "")
	s.RankingConfigPath = getEnvOrDefault("RANKING_CONFIG_PATH", "")

	if s.TokenizerConfigPath != "" {
		if err := applyTokenizerFile(s, s.TokenizerConfigPath); err != nil {
			return nil, err
		}
	}
	if s.RankingConfigPath != "" {
		if err := applyRankingFile(s, s.RankingConfigPath); err != nil {
			return nil, err
		}
	}

	applyEnv(s)
	return s, nil
}

func applyTokenizerFile(s *Snapshot, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.ConfigError{Op: "tokenizer_config", Err: err.Error()}
	}
	var f TokenizerValues
	if err := yaml.Unmarshal(data, &f); err != nil {
		return &domain.ConfigError{Op: "tokenizer_config", Err: err.Error()}
	}
	if f.PrimaryEngine != "" {
		s.PrimaryEngine = f.PrimaryEngine
	}
	if len(f.FallbackEngines) > 0 {
		s.FallbackEngines = f.FallbackEngines
	}
	if f.TimeoutMs > 0 {
		s.TokenizerTimeout = time.Duration(f.TimeoutMs) * time.Millisecond
	}
	if f.MaxQueryVariants > 0 {
		s.MaxQueryVariants = f.MaxQueryVariants
	}
	return nil
}

func applyRankingFile(s *Snapshot, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.ConfigError{Op: "ranking_config", Err: err.Error()}
	}
	var f RankingValues
	if err := yaml.Unmarshal(data, &f); err != nil {
		return &domain.ConfigError{Op: "ranking_config", Err: err.Error()}
	}
	ApplyRankingValues(s, &f)
	return nil
}

// ApplyRankingValues copies the non-nil fields of f onto s.
func ApplyRankingValues(s *Snapshot, f *RankingValues) {
	if f.BoostExactMatches != nil {
		s.TypeBoosts[domain.VariantOriginal] = *f.BoostExactMatches
	}
	if f.BoostTokenizedMatches != nil {
		s.TypeBoosts[domain.VariantTokenized] = *f.BoostTokenizedMatches
	}
	if f.BoostCompoundMatches != nil {
		s.TypeBoosts[domain.VariantCompoundSplit] = *f.BoostCompoundMatches
		s.CompoundBoost = *f.BoostCompoundMatches
	}
	if f.BoostThaiMatches != nil {
		s.ThaiMatchBoost = *f.BoostThaiMatches
	}
	if f.MinScoreThreshold != nil {
		s.MinScoreThreshold = *f.MinScoreThreshold
	}
}

// ParseRankingOverride decodes a ranking section body (JSON or YAML).
func ParseRankingOverride(data []byte) (*RankingValues, error) {
	var f RankingValues
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &domain.ConfigError{Op: "ranking_override", Err: err.Error()}
	}
	return &f, nil
}

func applyEnv(s *Snapshot) {
	s.PrimaryEngine = getEnvOrDefault("PRIMARY_ENGINE", s.PrimaryEngine)
	if v := getEnvOrDefault("FALLBACK_ENGINES", ""); v != "" {
		parts := strings.Split(v, ",")
		engines := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				engines = append(engines, p)
			}
		}
		s.FallbackEngines = engines
	}
	s.TokenizerTimeout = msEnv("TOKENIZER_TIMEOUT_MS", s.TokenizerTimeout)
	s.MaxConcurrentSearches = intEnv("MAX_CONCURRENT_SEARCHES", s.MaxConcurrentSearches)
	s.MaxQueryVariants = intEnv("MAX_QUERY_VARIANTS", s.MaxQueryVariants)
	s.SearchTimeout = msEnv("SEARCH_TIMEOUT_MS", s.SearchTimeout)
	s.RetryAttempts = intEnv("RETRY_ATTEMPTS", s.RetryAttempts)
	s.ConnectionPoolSize = intEnv("CONNECTION_POOL_SIZE", s.ConnectionPoolSize)
	s.BatchConcurrency = intEnv("BATCH_CONCURRENCY", s.BatchConcurrency)
	s.MaxQueryLength = intEnv("MAX_QUERY_LENGTH", s.MaxQueryLength)

	s.TypeBoosts[domain.VariantOriginal] = floatEnv("BOOST_EXACT", s.TypeBoosts[domain.VariantOriginal])
	s.TypeBoosts[domain.VariantTokenized] = floatEnv("BOOST_TOKENIZED", s.TypeBoosts[domain.VariantTokenized])
	s.TypeBoosts[domain.VariantCompoundSplit] = floatEnv("BOOST_COMPOUND", s.TypeBoosts[domain.VariantCompoundSplit])
	s.CompoundBoost = floatEnv("BOOST_COMPOUND", s.CompoundBoost)
	s.ThaiMatchBoost = floatEnv("BOOST_THAI", s.ThaiMatchBoost)
	s.MinScoreThreshold = floatEnv("MIN_SCORE_THRESHOLD", s.MinScoreThreshold)

	s.CacheEnabled = boolEnv("CACHE_ENABLED", s.CacheEnabled)
	if v := intEnv("CACHE_TTL_SECONDS", int(s.CacheTTL/time.Second)); v > 0 {
		s.CacheTTL = time.Duration(v) * time.Second
	}
	s.CacheBackend = getEnvOrDefault("CACHE_BACKEND", s.CacheBackend)
	s.CacheSize = intEnv("CACHE_SIZE", s.CacheSize)
	s.RedisURL = getEnvOrDefault("REDIS_URL", s.RedisURL)

	s.EnableHotReload = boolEnv("ENABLE_HOT_RELOAD", s.EnableHotReload)
	s.APIKeyRequired = boolEnv("API_KEY_REQUIRED", s.APIKeyRequired)
	s.APIKey = getEnvOrDefault("API_KEY", s.APIKey)

	s.IndexEngineHost = getEnvOrDefault("INDEX_ENGINE_HOST", s.IndexEngineHost)
	s.IndexEngineAPIKey = getEnvOrDefault("INDEX_ENGINE_API_KEY", s.IndexEngineAPIKey)
	s.DictionaryPath = getEnvOrDefault("DICTIONARY_PATH", s.DictionaryPath)

	s.AttaCutURL = getEnvOrDefault("ATTACUT_URL", s.AttaCutURL)
	s.DeepCutURL = getEnvOrDefault("DEEPCUT_URL", s.DeepCutURL)
	s.DatabaseURL = getEnvOrDefault("DATABASE_URL", s.DatabaseURL)

	s.AdmissionRPS = floatEnv("ADMISSION_RPS", s.AdmissionRPS)
	s.AdmissionBurst = intEnv("ADMISSION_BURST", s.AdmissionBurst)

	s.HTTPAddr = getEnvOrDefault("HTTP_ADDR", s.HTTPAddr)
}

// getEnvOrDefault resolves key from the environment, honoring the
// KEY_FILE indirection used for mounted secrets.
func getEnvOrDefault(key, defaultValue string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func floatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func boolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return defaultVal
}

func msEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}
