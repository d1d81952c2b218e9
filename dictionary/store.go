// Package dictionary holds the curated compound-word set. The set is
// immutable once built; reloads publish a whole new set by an atomic
// pointer swap so concurrent readers never observe a partial state.
package dictionary

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"thai-search-proxy/domain"
)

// wordSet is one immutable generation of the dictionary.
type wordSet struct {
	words    map[string]struct{}
	maxRunes int
	version  string
	loadedAt time.Time
}

// Store exposes O(1) membership checks over the compound-word set.
type Store struct {
	current atomic.Pointer[wordSet]
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&wordSet{
		words:    map[string]struct{}{},
		version:  "empty",
		loadedAt: time.Now(),
	})
	return s
}

// Contains reports whether word is a recognized compound.
func (s *Store) Contains(word string) bool {
	_, ok := s.current.Load().words[word]
	return ok
}

// Size returns the number of entries in the current set.
func (s *Store) Size() int {
	return len(s.current.Load().words)
}

// LongestEntryRunes is the rune length of the longest entry in the
// current set, 0 when the set is empty. It bounds how many engine
// tokens one compound can possibly span.
func (s *Store) LongestEntryRunes() int {
	return s.current.Load().maxRunes
}

// Version is the content hash of the current set.
func (s *Store) Version() string {
	return s.current.Load().version
}

// LoadedAt is when the current set was published.
func (s *Store) LoadedAt() time.Time {
	return s.current.Load().loadedAt
}

// Words returns the entries of the current set in sorted order.
func (s *Store) Words() []string {
	set := s.current.Load()
	out := make([]string, 0, len(set.words))
	for w := range set.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// ReloadFrom parses the JSON category file at path and atomically swaps
// in the new set. On any error the prior set is retained.
func (s *Store) ReloadFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.DictionaryError{Path: path, Err: err.Error()}
	}
	set, err := parse(data)
	if err != nil {
		return &domain.DictionaryError{Path: path, Err: err.Error()}
	}
	s.current.Store(set)
	return nil
}

// parse flattens the category → words mapping into one set, dropping
// blank entries and entries without a single Thai codepoint.
func parse(data []byte) (*wordSet, error) {
	var categories map[string][]string
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, err
	}

	words := make(map[string]struct{})
	maxRunes := 0
	for _, list := range categories {
		for _, w := range list {
			w = strings.TrimSpace(w)
			if w == "" || !domain.ContainsThai(w) {
				continue
			}
			words[w] = struct{}{}
			if n := utf8.RuneCountInString(w); n > maxRunes {
				maxRunes = n
			}
		}
	}

	// Version by content hash so identical files reload to the same id.
	sorted := make([]string, 0, len(words))
	for w := range words {
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)
	h := sha256.Sum256([]byte(strings.Join(sorted, "\n")))

	return &wordSet{
		words:    words,
		maxRunes: maxRunes,
		version:  hex.EncodeToString(h[:8]),
		loadedAt: time.Now(),
	}, nil
}
