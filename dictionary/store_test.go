package dictionary

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictionary.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dictionary fixture: %v", err)
	}
	return path
}

func TestNewStore_Empty(t *testing.T) {
	s := NewStore()
	if s.Size() != 0 {
		t.Errorf("Size() = %d, want 0", s.Size())
	}
	if s.Version() != "empty" {
		t.Errorf("Version() = %q, want \"empty\"", s.Version())
	}
	if s.Contains("วากาเมะ") {
		t.Error("empty store should contain nothing")
	}
}

func TestStore_ReloadFrom(t *testing.T) {
	path := writeDict(t, `{
		"seaweed": ["วากาเมะ", "สาหร่าย"],
		"agriculture": ["เกษตรอัจฉริยะ", "  ", "latin-only", ""]
	}`)

	s := NewStore()
	if err := s.ReloadFrom(path); err != nil {
		t.Fatalf("ReloadFrom: %v", err)
	}

	// Blank entries and entries without a Thai codepoint are dropped.
	if s.Size() != 3 {
		t.Errorf("Size() = %d, want 3", s.Size())
	}
	for _, w := range []string{"วากาเมะ", "สาหร่าย", "เกษตรอัจฉริยะ"} {
		if !s.Contains(w) {
			t.Errorf("Contains(%q) = false, want true", w)
		}
	}
	if s.Contains("latin-only") {
		t.Error("non-Thai entry should be filtered out")
	}
	if s.Version() == "empty" || s.Version() == "" {
		t.Errorf("Version() = %q, want a content hash", s.Version())
	}
}

func TestStore_VersionStableAcrossIdenticalContent(t *testing.T) {
	content := `{"a": ["วากาเมะ"], "b": ["สาหร่าย"]}`
	a, b := NewStore(), NewStore()
	if err := a.ReloadFrom(writeDict(t, content)); err != nil {
		t.Fatal(err)
	}
	if err := b.ReloadFrom(writeDict(t, content)); err != nil {
		t.Fatal(err)
	}
	if a.Version() != b.Version() {
		t.Errorf("identical content produced versions %q and %q", a.Version(), b.Version())
	}
}

func TestStore_ReloadKeepsPriorSetOnError(t *testing.T) {
	s := NewStore()
	if err := s.ReloadFrom(writeDict(t, `{"a": ["วากาเมะ"]}`)); err != nil {
		t.Fatal(err)
	}
	version := s.Version()

	if err := s.ReloadFrom(writeDict(t, `not json`)); err == nil {
		t.Fatal("expected parse error")
	}
	if !s.Contains("วากาเมะ") {
		t.Error("failed reload must keep the prior set")
	}
	if s.Version() != version {
		t.Error("failed reload must keep the prior version")
	}

	if err := s.ReloadFrom(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected read error for missing file")
	}
	if s.Size() != 1 {
		t.Errorf("Size() = %d after failed reloads, want 1", s.Size())
	}
}

func TestStore_LongestEntryRunes(t *testing.T) {
	s := NewStore()
	if s.LongestEntryRunes() != 0 {
		t.Errorf("LongestEntryRunes() = %d on an empty store, want 0", s.LongestEntryRunes())
	}

	// วากาเมะ has 7 runes, เกษตรอัจฉริยะ has 13.
	if err := s.ReloadFrom(writeDict(t, `{"a": ["วากาเมะ", "เกษตรอัจฉริยะ"]}`)); err != nil {
		t.Fatal(err)
	}
	if got := s.LongestEntryRunes(); got != 13 {
		t.Errorf("LongestEntryRunes() = %d, want 13", got)
	}
}

func TestStore_WordsSorted(t *testing.T) {
	s := NewStore()
	if err := s.ReloadFrom(writeDict(t, `{"a": ["สาหร่าย", "วากาเมะ", "เกษตร"]}`)); err != nil {
		t.Fatal(err)
	}
	words := s.Words()
	if len(words) != 3 {
		t.Fatalf("Words() returned %d entries, want 3", len(words))
	}
	for i := 1; i < len(words); i++ {
		if words[i-1] >= words[i] {
			t.Errorf("Words() not sorted at %d: %q >= %q", i, words[i-1], words[i])
		}
	}
}
