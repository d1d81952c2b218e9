package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"thai-search-proxy/config"
	"thai-search-proxy/dictionary"
	"thai-search-proxy/domain"
	"thai-search-proxy/tokenize"
)

func newTokenizeUsecase(t *testing.T, dictWords ...string) *TokenizeTextUsecase {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	data, err := json.Marshal(map[string][]string{"test": dictWords})
	if err != nil {
		t.Fatal(err)
	}
	dictPath := filepath.Join(t.TempDir(), "dictionary.json")
	if err := os.WriteFile(dictPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	dict := dictionary.NewStore()
	if err := dict.ReloadFrom(dictPath); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.NewManager(dict, log)
	if err != nil {
		t.Fatal(err)
	}
	facade := tokenize.NewFacade(tokenize.NewRegistry(tokenize.NewNewMM(dict)), dict, 0, time.Minute, nil, log)
	return NewTokenizeTextUsecase(facade, cfg)
}

func TestTokenizeText_Execute(t *testing.T) {
	uc := newTokenizeUsecase(t, "ข้าว", "ผัด")

	out, err := uc.Execute(context.Background(), "ข้าวผัด", "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out.Tokens, []string{"ข้าว", "ผัด"}) {
		t.Fatalf("Tokens = %v", out.Tokens)
	}
	if out.Engine != domain.EngineNewMM {
		t.Errorf("Engine = %q", out.Engine)
	}
	// Boundaries are rune offsets: ข้าว spans [0,4), ผัด spans [4,7).
	if !reflect.DeepEqual(out.WordBoundaries, []int{0, 4, 7}) {
		t.Errorf("WordBoundaries = %v, want [0 4 7]", out.WordBoundaries)
	}
	if len(out.WordBoundaries) != len(out.Tokens)+1 {
		t.Error("boundary count invariant violated")
	}
	if len(out.ConfidenceScores) != len(out.Tokens) {
		t.Errorf("ConfidenceScores = %v", out.ConfidenceScores)
	}
}

func TestTokenizeText_BoundariesSkipWhitespace(t *testing.T) {
	uc := newTokenizeUsecase(t, "ข้าว", "ผัด")

	out, err := uc.Execute(context.Background(), "ข้าว ผัด", "")
	if err != nil {
		t.Fatal(err)
	}
	// The dropped space shifts the second token's start to rune 5.
	if !reflect.DeepEqual(out.WordBoundaries, []int{0, 5, 8}) {
		t.Errorf("WordBoundaries = %v, want [0 5 8]", out.WordBoundaries)
	}
}

func TestTokenizeText_EmptyText(t *testing.T) {
	uc := newTokenizeUsecase(t)

	out, err := uc.Execute(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Tokens) != 0 {
		t.Errorf("Tokens = %v", out.Tokens)
	}
	if !reflect.DeepEqual(out.WordBoundaries, []int{0}) {
		t.Errorf("WordBoundaries = %v, want [0]", out.WordBoundaries)
	}
}

func TestTokenizeText_EngineOverride(t *testing.T) {
	uc := newTokenizeUsecase(t)

	if _, err := uc.Execute(context.Background(), "ข้าว", domain.EngineNewMM); err != nil {
		t.Errorf("valid engine override rejected: %v", err)
	}

	_, err := uc.Execute(context.Background(), "ข้าว", "sertis")
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("err = %v, want ValidationError for unknown engine", err)
	}
}

func TestTokenizeText_LengthLimit(t *testing.T) {
	uc := newTokenizeUsecase(t)

	_, err := uc.Execute(context.Background(), strings.Repeat("ก", 1001), "")
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}
