package queryproc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"thai-search-proxy/config"
	"thai-search-proxy/dictionary"
	"thai-search-proxy/domain"
	"thai-search-proxy/tokenize"
)

func newDict(t *testing.T, words ...string) *dictionary.Store {
	t.Helper()
	data, err := json.Marshal(map[string][]string{"test": words})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "dictionary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	s := dictionary.NewStore()
	if err := s.ReloadFrom(path); err != nil {
		t.Fatal(err)
	}
	return s
}

func newProcessor(t *testing.T, dict *dictionary.Store, engines ...tokenize.Engine) *Processor {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if len(engines) == 0 {
		engines = []tokenize.Engine{tokenize.NewNewMM(dict)}
	}
	facade := tokenize.NewFacade(tokenize.NewRegistry(engines...), dict, 0, time.Minute, nil, log)
	return NewProcessor(facade, log)
}

type failingEngine struct{ name string }

func (e *failingEngine) Name() string { return e.name }

func (e *failingEngine) Tokenize(context.Context, string) (*domain.TokenizationResult, error) {
	return nil, errors.New("engine unavailable")
}

type variantExpect struct {
	text   string
	typ    domain.VariantType
	weight float64
}

func assertVariants(t *testing.T, got []domain.QueryVariant, want []variantExpect) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d variants %+v, want %d", len(got), got, len(want))
	}
	for i, w := range want {
		if got[i].Text != w.text || got[i].Type != w.typ || got[i].Weight != w.weight {
			t.Errorf("variant[%d] = {%q %s %v}, want {%q %s %v}",
				i, got[i].Text, got[i].Type, got[i].Weight, w.text, w.typ, w.weight)
		}
	}
}

func TestProcess_CompoundPreservation(t *testing.T) {
	dict := newDict(t, "วากาเมะ")
	p := newProcessor(t, dict)

	pq := p.Process(context.Background(), "สาหร่ายวากาเมะ", config.Defaults())

	if !pq.Language.ThaiDetected || pq.Language.MixedContent {
		t.Errorf("language = %+v, want pure Thai", pq.Language)
	}
	assertVariants(t, pq.Variants, []variantExpect{
		{"สาหร่ายวากาเมะ", domain.VariantOriginal, 1.0},
		{"สาหร่าย วากาเมะ", domain.VariantTokenized, 0.9},
		{"สาหร่าย", domain.VariantCompoundSplit, 0.7},
	})

	if got := pq.Tokenization.Tokens; !reflect.DeepEqual(got, []string{"สาหร่าย", "วากาเมะ"}) {
		t.Errorf("tokens = %v", got)
	}
	if got := pq.Tokenization.Compounds; !reflect.DeepEqual(got, []string{"วากาเมะ"}) {
		t.Errorf("compounds = %v", got)
	}
}

func TestProcess_MixedLanguage(t *testing.T) {
	dict := newDict(t, "เกษตร", "อัจฉริยะ")
	p := newProcessor(t, dict)

	pq := p.Process(context.Background(), "Smart Farm เกษตรอัจฉริยะ", config.Defaults())

	if !pq.Language.ThaiDetected || !pq.Language.MixedContent {
		t.Fatalf("language = %+v, want mixed", pq.Language)
	}
	assertVariants(t, pq.Variants, []variantExpect{
		{"Smart Farm เกษตรอัจฉริยะ", domain.VariantOriginal, 1.0},
		{"Smart Farm เกษตร อัจฉริยะ", domain.VariantTokenized, 0.85},
		{"เกษตร อัจฉริยะ", domain.VariantThaiOnly, 0.7},
		{"Smart Farm", domain.VariantEnglishOnly, 0.7},
	})
}

func TestProcess_NonThaiQuery(t *testing.T) {
	p := newProcessor(t, newDict(t))

	pq := p.Process(context.Background(), "smart farm", config.Defaults())

	if pq.Language.ThaiDetected {
		t.Error("no Thai expected")
	}
	assertVariants(t, pq.Variants, []variantExpect{
		{"smart farm", domain.VariantOriginal, 1.0},
	})
	if pq.Tokenization != nil {
		t.Error("non-Thai queries skip tokenization")
	}
}

func TestProcess_BlankQuery(t *testing.T) {
	p := newProcessor(t, newDict(t))
	for _, q := range []string{"", "   ", "\t\n"} {
		pq := p.Process(context.Background(), q, config.Defaults())
		if len(pq.Variants) != 0 {
			t.Errorf("Process(%q) variants = %v, want none", q, pq.Variants)
		}
	}
}

func TestProcess_TokenizationFailure(t *testing.T) {
	dict := newDict(t)
	p := newProcessor(t, dict, &failingEngine{name: domain.EngineNewMM})

	snap := config.Defaults()
	snap.FallbackEngines = nil
	pq := p.Process(context.Background(), "ข้าว", snap)

	assertVariants(t, pq.Variants, []variantExpect{
		{"ข้าว", domain.VariantOriginal, 1.0},
		{"ข้าว", domain.VariantFallback, 0.5},
	})
	if !pq.FallbackUsed() {
		t.Error("FallbackUsed() = false after total engine failure")
	}
}

func TestProcess_SingleTokenQuery(t *testing.T) {
	// One token gives nothing to reformulate; only the original remains.
	p := newProcessor(t, newDict(t))
	pq := p.Process(context.Background(), "ข้าว", config.Defaults())
	assertVariants(t, pq.Variants, []variantExpect{
		{"ข้าว", domain.VariantOriginal, 1.0},
	})
}

func TestProcess_VariantTruncation(t *testing.T) {
	dict := newDict(t, "เกษตร", "อัจฉริยะ")
	p := newProcessor(t, dict)

	snap := config.Defaults()
	snap.MaxQueryVariants = 2
	pq := p.Process(context.Background(), "Smart Farm เกษตรอัจฉริยะ", snap)

	assertVariants(t, pq.Variants, []variantExpect{
		{"Smart Farm เกษตรอัจฉริยะ", domain.VariantOriginal, 1.0},
		{"Smart Farm เกษตร อัจฉริยะ", domain.VariantTokenized, 0.85},
	})
}

func TestProcess_Deterministic(t *testing.T) {
	dict := newDict(t, "เกษตร", "อัจฉริยะ")
	p := newProcessor(t, dict)
	snap := config.Defaults()

	first := p.Process(context.Background(), "Smart Farm เกษตรอัจฉริยะ", snap)
	second := p.Process(context.Background(), "Smart Farm เกษตรอัจฉริยะ", snap)
	if !reflect.DeepEqual(first.Variants, second.Variants) {
		t.Errorf("variant lists differ:\n%v\n%v", first.Variants, second.Variants)
	}
}

func TestProcess_AllTokensCompound(t *testing.T) {
	// When every token is a compound the first one is searched alone.
	dict := newDict(t, "สาหร่าย", "วากาเมะ")
	p := newProcessor(t, dict)

	pq := p.Process(context.Background(), "สาหร่ายวากาเมะ", config.Defaults())
	var split *domain.QueryVariant
	for i := range pq.Variants {
		if pq.Variants[i].Type == domain.VariantCompoundSplit {
			split = &pq.Variants[i]
		}
	}
	if split == nil {
		t.Fatalf("no compound_split variant in %+v", pq.Variants)
	}
	if split.Text != "สาหร่าย" {
		t.Errorf("compound_split text = %q, want สาหร่าย", split.Text)
	}
}
