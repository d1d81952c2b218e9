package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thai-search-proxy/dictionary"
	"thai-search-proxy/domain"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(dictionary.NewStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

func TestNewManager_PublishesInitialSnapshot(t *testing.T) {
	m := newManager(t)
	snap := m.Current()
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, domain.EngineNewMM, snap.PrimaryEngine)
}

func TestNewManager_LoadsDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": ["วากาเมะ", "สาหร่าย"]}`), 0o644))
	t.Setenv("DICTIONARY_PATH", path)

	m := newManager(t)
	assert.Equal(t, 2, m.Dictionary().Size())
	assert.True(t, m.Dictionary().Contains("วากาเมะ"))
}

func TestNewManager_ToleratesMissingDictionary(t *testing.T) {
	t.Setenv("DICTIONARY_PATH", filepath.Join(t.TempDir(), "missing.json"))

	m := newManager(t)
	assert.Equal(t, 0, m.Dictionary().Size())
}

func TestManager_ApplyRanking(t *testing.T) {
	m := newManager(t)
	before := m.Current()

	boost := 3.0
	require.NoError(t, m.ApplyRanking(&RankingValues{BoostExactMatches: &boost}))

	after := m.Current()
	assert.Equal(t, 3.0, after.TypeBoosts[domain.VariantOriginal])
	assert.Greater(t, after.Version, before.Version)

	// The snapshot held by an in-flight request is untouched.
	assert.Equal(t, 2.0, before.TypeBoosts[domain.VariantOriginal])

	status := m.Status()
	assert.Equal(t, int64(1), status.Reloads)
	assert.Equal(t, int64(0), status.ReloadErrors)
	assert.False(t, status.LastReload.IsZero())
}

func TestManager_ApplyRankingRejectsInvalid(t *testing.T) {
	m := newManager(t)
	before := m.Current()

	bad := -1.0
	err := m.ApplyRanking(&RankingValues{BoostExactMatches: &bad})
	require.Error(t, err)

	// A rejected candidate never replaces the active snapshot.
	assert.Same(t, before, m.Current())
	assert.Equal(t, int64(1), m.Status().ReloadErrors)
	assert.Equal(t, int64(0), m.Status().Reloads)
}

func TestManager_ApplyTokenizer(t *testing.T) {
	m := newManager(t)

	require.NoError(t, m.ApplyTokenizer(&TokenizerValues{
		PrimaryEngine: domain.EngineAttaCut,
		TimeoutMs:     900,
	}))
	snap := m.Current()
	assert.Equal(t, domain.EngineAttaCut, snap.PrimaryEngine)
	assert.Equal(t, 900*time.Millisecond, snap.TokenizerTimeout)

	err := m.ApplyTokenizer(&TokenizerValues{PrimaryEngine: "sertis"})
	require.Error(t, err)
	assert.Equal(t, domain.EngineAttaCut, m.Current().PrimaryEngine)
}

func TestManager_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": ["วากาเมะ"]}`), 0o644))
	t.Setenv("DICTIONARY_PATH", path)

	m := newManager(t)
	v1 := m.Current().Version
	require.Equal(t, 1, m.Dictionary().Size())

	// Grow the dictionary on disk, then reload.
	require.NoError(t, os.WriteFile(path, []byte(`{"a": ["วากาเมะ", "สาหร่าย"]}`), 0o644))
	require.NoError(t, m.Reload())

	assert.Greater(t, m.Current().Version, v1)
	assert.Equal(t, 2, m.Dictionary().Size())
	assert.Equal(t, int64(1), m.Status().Reloads)
}

func TestManager_ReloadKeepsSnapshotOnBadDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": ["วากาเมะ"]}`), 0o644))
	t.Setenv("DICTIONARY_PATH", path)

	m := newManager(t)
	before := m.Current()

	require.NoError(t, os.WriteFile(path, []byte("broken"), 0o644))
	require.Error(t, m.Reload())

	assert.Same(t, before, m.Current())
	assert.Equal(t, 1, m.Dictionary().Size())
	assert.Equal(t, int64(1), m.Status().ReloadErrors)
}
