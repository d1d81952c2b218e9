// Package queryproc turns a raw query into a ProcessedQuery: detected
// language mix, primary tokenization and the weighted variant list the
// executor fans out.
package queryproc

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"thai-search-proxy/config"
	"thai-search-proxy/domain"
	"thai-search-proxy/tokenize"
)

// Variant weights. The original query always carries full weight.
const (
	weightOriginal       = 1.0
	weightTokenized      = 0.9
	weightTokenizedMixed = 0.85
	weightCompoundSplit  = 0.7
	weightThaiOnly       = 0.7
	weightEnglishOnly    = 0.7
	weightFallback       = 0.5
)

// Processor builds ProcessedQueries. Given the same input and snapshot
// the variant list is identical across invocations.
type Processor struct {
	facade *tokenize.Facade
	log    *slog.Logger
}

func NewProcessor(facade *tokenize.Facade, log *slog.Logger) *Processor {
	return &Processor{facade: facade, log: log}
}

// Process analyzes query under snap. A blank query yields an empty
// variant list; every other query yields at least the original variant.
func (p *Processor) Process(ctx context.Context, query string, snap *config.Snapshot) *domain.ProcessedQuery {
	out := &domain.ProcessedQuery{Original: query}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		out.Variants = []domain.QueryVariant{}
		return out
	}

	out.Language = detectLanguage(trimmed)

	if !out.Language.ThaiDetected {
		out.Variants = []domain.QueryVariant{originalVariant(trimmed)}
		return out
	}

	tok := p.facade.Tokenize(ctx, trimmed, snap)
	out.Tokenization = tok

	switch {
	case !tok.Success:
		out.Variants = []domain.QueryVariant{
			originalVariant(trimmed),
			{Text: trimmed, Type: domain.VariantFallback, Weight: weightFallback, Engine: tok.Engine},
		}
	case out.Language.MixedContent:
		out.Variants = p.mixedVariants(trimmed, tok)
	default:
		out.Variants = p.thaiVariants(trimmed, tok)
	}

	sortVariants(out.Variants)
	if len(out.Variants) > snap.MaxQueryVariants {
		out.Variants = out.Variants[:snap.MaxQueryVariants]
	}
	return out
}

func originalVariant(text string) domain.QueryVariant {
	return domain.QueryVariant{Text: text, Type: domain.VariantOriginal, Weight: weightOriginal}
}

// thaiVariants covers pure-Thai queries: the tokenized form when the
// engine split anything, plus the first recognized compound alone.
func (p *Processor) thaiVariants(query string, tok *domain.TokenizationResult) []domain.QueryVariant {
	variants := []domain.QueryVariant{originalVariant(query)}
	if len(tok.Tokens) < 2 {
		return variants
	}

	variants = append(variants, domain.QueryVariant{
		Text:   strings.Join(tok.Tokens, " "),
		Type:   domain.VariantTokenized,
		Weight: weightTokenized,
		Engine: tok.Engine,
	})

	if first := firstNonCompoundToken(tok); first != "" {
		variants = append(variants, domain.QueryVariant{
			Text:   first,
			Type:   domain.VariantCompoundSplit,
			Weight: weightCompoundSplit,
			Engine: tok.Engine,
		})
	}
	return variants
}

// mixedVariants covers Thai–English queries: the tokenized whole plus
// each language's tokens alone.
func (p *Processor) mixedVariants(query string, tok *domain.TokenizationResult) []domain.QueryVariant {
	variants := []domain.QueryVariant{
		originalVariant(query),
		{
			Text:   strings.Join(tok.Tokens, " "),
			Type:   domain.VariantTokenized,
			Weight: weightTokenizedMixed,
			Engine: tok.Engine,
		},
	}

	var thai, english []string
	for _, t := range tok.Tokens {
		if domain.ContainsThai(t) {
			thai = append(thai, t)
		} else if domain.HasASCIILetter(t) {
			english = append(english, t)
		}
	}
	if len(thai) > 0 {
		variants = append(variants, domain.QueryVariant{
			Text:   strings.Join(thai, " "),
			Type:   domain.VariantThaiOnly,
			Weight: weightThaiOnly,
			Engine: tok.Engine,
		})
	}
	if len(english) > 0 {
		variants = append(variants, domain.QueryVariant{
			Text:   strings.Join(english, " "),
			Type:   domain.VariantEnglishOnly,
			Weight: weightEnglishOnly,
			Engine: tok.Engine,
		})
	}
	return variants
}

// firstNonCompoundToken picks the text for the compound-split variant:
// the leading component next to the query's first detected compound.
// Returns "" when the query carries no dictionary compound.
func firstNonCompoundToken(tok *domain.TokenizationResult) string {
	if len(tok.Compounds) == 0 {
		return ""
	}
	for _, t := range tok.Tokens {
		if !tok.IsCompound(t) {
			return t
		}
	}
	// Every token is a compound; search the first one alone.
	return tok.Tokens[0]
}

// sortVariants orders by weight descending. The sort is stable so equal
// weights keep their emission order, which keeps the list deterministic.
func sortVariants(variants []domain.QueryVariant) {
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Weight > variants[j].Weight
	})
}

// detectLanguage computes the Thai fraction over non-whitespace runes.
func detectLanguage(text string) domain.LanguageInfo {
	ratio := domain.ThaiRatio(text)
	hasEnglish := domain.HasASCIILetter(text)
	return domain.LanguageInfo{
		ThaiRatio:    ratio,
		ThaiDetected: ratio > 0,
		HasEnglish:   hasEnglish,
		MixedContent: ratio > 0 && ratio < 1 && hasEnglish,
	}
}
