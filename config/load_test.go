package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thai-search-proxy/domain"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PRIMARY_ENGINE", "attacut")
	t.Setenv("FALLBACK_ENGINES", "newmm, deepcut")
	t.Setenv("MAX_CONCURRENT_SEARCHES", "9")
	t.Setenv("TOKENIZER_TIMEOUT_MS", "750")
	t.Setenv("BOOST_EXACT", "3.5")
	t.Setenv("MIN_SCORE_THRESHOLD", "0.2")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("ADMISSION_RPS", "25")
	t.Setenv("HTTP_ADDR", ":9999")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "attacut", s.PrimaryEngine)
	assert.Equal(t, []string{"newmm", "deepcut"}, s.FallbackEngines)
	assert.Equal(t, 9, s.MaxConcurrentSearches)
	assert.Equal(t, 750*time.Millisecond, s.TokenizerTimeout)
	assert.Equal(t, 3.5, s.TypeBoosts[domain.VariantOriginal])
	assert.Equal(t, 0.2, s.MinScoreThreshold)
	assert.Equal(t, time.Minute, s.CacheTTL)
	assert.Equal(t, "redis", s.CacheBackend)
	assert.Equal(t, 25.0, s.AdmissionRPS)
	assert.Equal(t, ":9999", s.HTTPAddr)
}

func TestLoad_SecretFileIndirection(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(keyFile, []byte("s3cret\n"), 0o600))

	t.Setenv("API_KEY_FILE", keyFile)
	t.Setenv("API_KEY", "ignored-when-file-present")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", s.APIKey)
}

func TestLoad_TokenizerConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"primary_engine: deepcut\ntimeout_ms: 900\nmax_query_variants: 3\n"), 0o644))

	t.Setenv("TOKENIZER_CONFIG_PATH", path)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "deepcut", s.PrimaryEngine)
	assert.Equal(t, 900*time.Millisecond, s.TokenizerTimeout)
	assert.Equal(t, 3, s.MaxQueryVariants)
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("primary_engine: deepcut\n"), 0o644))

	t.Setenv("TOKENIZER_CONFIG_PATH", path)
	t.Setenv("PRIMARY_ENGINE", "attacut")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "attacut", s.PrimaryEngine)
}

func TestLoad_RankingConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"boost_exact_matches: 3.0\nboost_thai_matches: 2.2\nmin_score_threshold: 0.15\n"), 0o644))

	t.Setenv("RANKING_CONFIG_PATH", path)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.TypeBoosts[domain.VariantOriginal])
	assert.Equal(t, 2.2, s.ThaiMatchBoost)
	assert.Equal(t, 0.15, s.MinScoreThreshold)
}

func TestLoad_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	t.Setenv("RANKING_CONFIG_PATH", path)

	_, err := Load()
	require.Error(t, err)
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestParseRankingOverride(t *testing.T) {
	// The admin endpoint accepts JSON; yaml.Unmarshal handles both.
	f, err := ParseRankingOverride([]byte(`{"boost_exact_matches": 3.0, "min_score_threshold": 0.4}`))
	require.NoError(t, err)
	require.NotNil(t, f.BoostExactMatches)
	assert.Equal(t, 3.0, *f.BoostExactMatches)
	require.NotNil(t, f.MinScoreThreshold)
	assert.Equal(t, 0.4, *f.MinScoreThreshold)
	assert.Nil(t, f.BoostTokenizedMatches)

	_, err = ParseRankingOverride([]byte("{broken"))
	assert.Error(t, err)
}

func TestApplyRankingValues(t *testing.T) {
	s := Defaults()
	compound := 2.5
	ApplyRankingValues(s, &RankingValues{BoostCompoundMatches: &compound})

	// The compound boost drives both the variant type boost and the
	// per-hit compound multiplier.
	assert.Equal(t, 2.5, s.TypeBoosts[domain.VariantCompoundSplit])
	assert.Equal(t, 2.5, s.CompoundBoost)
	// Untouched fields keep their defaults.
	assert.Equal(t, 2.0, s.TypeBoosts[domain.VariantOriginal])
}
