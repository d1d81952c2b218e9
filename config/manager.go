package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"thai-search-proxy/dictionary"
)

// Manager publishes immutable snapshots by atomic pointer swap and
// rebuilds them when watched files change. In-flight requests keep the
// snapshot they acquired; a failed candidate never replaces a good one.
type Manager struct {
	current atomic.Pointer[Snapshot]
	dict    *dictionary.Store
	log     *slog.Logger

	mu           sync.Mutex // serializes reloads
	version      atomic.Int64
	reloads      atomic.Int64
	reloadErrors atomic.Int64
	lastReload   atomic.Int64 // unix nanos, 0 until first reload
}

// ReloadStatus is the observable hot-reload state.
type ReloadStatus struct {
	Enabled        bool      `json:"enabled"`
	Reloads        int64     `json:"reload_count"`
	ReloadErrors   int64     `json:"reload_error_count"`
	LastReload     time.Time `json:"last_reload"`
	ActiveVersion  int64     `json:"active_version"`
	DictionarySize int       `json:"dictionary_size"`
	DictVersion    string    `json:"dictionary_version"`
}

// NewManager loads the initial snapshot and dictionary.
// A missing dictionary file is tolerated: the service starts with an
// empty set and a warning.
func NewManager(dict *dictionary.Store, log *slog.Logger) (*Manager, error) {
	m := &Manager{dict: dict, log: log}

	snap, err := Load()
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	if snap.DictionaryPath != "" {
		if _, statErr := os.Stat(snap.DictionaryPath); statErr != nil {
			log.Warn("dictionary file missing, starting with empty set",
				"path", snap.DictionaryPath, "err", statErr)
		} else if err := dict.ReloadFrom(snap.DictionaryPath); err != nil {
			return nil, err
		}
	}

	m.publish(snap)
	return m, nil
}

// Current returns the active snapshot. Callers hold it for the whole
// request; it is never mutated after publication.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Dictionary returns the store the manager reloads.
func (m *Manager) Dictionary() *dictionary.Store {
	return m.dict
}

// Reload rebuilds a candidate snapshot from the environment and config
// files, validates it, reloads the dictionary and swaps. Manual trigger
// for the admin endpoint; also driven by the file watcher.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := Load()
	if err != nil {
		m.reloadErrors.Add(1)
		return err
	}
	if err := snap.Validate(); err != nil {
		m.reloadErrors.Add(1)
		return err
	}
	if snap.DictionaryPath != "" {
		if err := m.dict.ReloadFrom(snap.DictionaryPath); err != nil {
			m.reloadErrors.Add(1)
			return err
		}
	}

	m.publish(snap)
	m.reloads.Add(1)
	m.lastReload.Store(time.Now().UnixNano())
	m.log.Info("config reloaded",
		"version", snap.Version,
		"dictionary_size", m.dict.Size(),
	)
	return nil
}

// ApplyRanking overlays ranking values on the active snapshot and swaps.
func (m *Manager) ApplyRanking(values *RankingValues) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate := m.Current().Clone()
	ApplyRankingValues(candidate, values)
	if err := candidate.Validate(); err != nil {
		m.reloadErrors.Add(1)
		return err
	}
	m.publish(candidate)
	m.reloads.Add(1)
	m.lastReload.Store(time.Now().UnixNano())
	return nil
}

// ApplyTokenizer overlays tokenizer values on the active snapshot and swaps.
func (m *Manager) ApplyTokenizer(values *TokenizerValues) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate := m.Current().Clone()
	if values.PrimaryEngine != "" {
		candidate.PrimaryEngine = values.PrimaryEngine
	}
	if len(values.FallbackEngines) > 0 {
		candidate.FallbackEngines = values.FallbackEngines
	}
	if values.TimeoutMs > 0 {
		candidate.TokenizerTimeout = time.Duration(values.TimeoutMs) * time.Millisecond
	}
	if values.MaxQueryVariants > 0 {
		candidate.MaxQueryVariants = values.MaxQueryVariants
	}
	if err := candidate.Validate(); err != nil {
		m.reloadErrors.Add(1)
		return err
	}
	m.publish(candidate)
	m.reloads.Add(1)
	m.lastReload.Store(time.Now().UnixNano())
	return nil
}

// Status reports reload counters for the admin endpoint and metrics.
func (m *Manager) Status() ReloadStatus {
	var last time.Time
	if ns := m.lastReload.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return ReloadStatus{
		Enabled:        m.Current().EnableHotReload,
		Reloads:        m.reloads.Load(),
		ReloadErrors:   m.reloadErrors.Load(),
		LastReload:     last,
		ActiveVersion:  m.Current().Version,
		DictionarySize: m.dict.Size(),
		DictVersion:    m.dict.Version(),
	}
}

func (m *Manager) publish(snap *Snapshot) {
	snap.Version = m.version.Add(1)
	m.current.Store(snap)
}

// Watch runs the debounced file watcher until ctx is cancelled.
// Editor saves fire several events in quick succession; the debounce
// window coalesces them into one reload.
func (m *Manager) Watch(ctx context.Context) error {
	snap := m.Current()
	if !snap.EnableHotReload {
		m.log.Info("hot reload disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := map[string]bool{}
	for _, path := range []string{snap.DictionaryPath, snap.RankingConfigPath, snap.TokenizerConfigPath, snap.EnvFile} {
		if path == "" {
			continue
		}
		// Watch the parent directory: editors replace files by rename,
		// which drops a watch on the file itself.
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			m.log.Warn("cannot watch config dir", "dir", dir, "err", err)
			continue
		}
		watched[dir] = true
	}
	if len(watched) == 0 {
		m.log.Info("no config files to watch")
		return nil
	}

	interesting := map[string]bool{}
	for _, path := range []string{snap.DictionaryPath, snap.RankingConfigPath, snap.TokenizerConfigPath, snap.EnvFile} {
		if path != "" {
			interesting[filepath.Clean(path)] = true
		}
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !interesting[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(snap.ReloadDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if err := m.Reload(); err != nil {
				m.log.Error("hot reload failed, keeping prior snapshot", "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("config watcher error", "err", err)
		}
	}
}
