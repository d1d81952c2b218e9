package usecase

import (
	"context"
	"strings"
	"time"

	"thai-search-proxy/config"
	"thai-search-proxy/domain"
	"thai-search-proxy/tokenize"
)

// TokenizeOutput is the standalone tokenization operation's result.
// WordBoundaries are rune offsets into the original text: entry i is
// where token i starts, and the final entry is where the last token
// ends, giving len(tokens)+1 entries.
type TokenizeOutput struct {
	OriginalText     string
	Tokens           []string
	WordBoundaries   []int
	ConfidenceScores []float64
	Engine           string
	ProcessingTimeMs float64
}

// TokenizeTextUsecase exposes the tokenizer facade as its own
// operation for debugging and for index-time segmentation.
type TokenizeTextUsecase struct {
	facade *tokenize.Facade
	cfg    *config.Manager
}

func NewTokenizeTextUsecase(facade *tokenize.Facade, cfg *config.Manager) *TokenizeTextUsecase {
	return &TokenizeTextUsecase{facade: facade, cfg: cfg}
}

// Execute tokenizes text, optionally forcing a specific engine.
func (u *TokenizeTextUsecase) Execute(ctx context.Context, text, engine string) (*TokenizeOutput, error) {
	snap := u.cfg.Current()
	if len([]rune(text)) > snap.MaxQueryLength {
		return nil, &domain.ValidationError{Field: "text", Err: "exceeds maximum length"}
	}
	if engine != "" {
		snap = snap.Clone()
		snap.PrimaryEngine = engine
		snap.FallbackEngines = nil
		if err := snap.Validate(); err != nil {
			return nil, &domain.ValidationError{Field: "engine", Err: "unknown engine: " + engine}
		}
	}

	start := time.Now()
	res := u.facade.Tokenize(ctx, text, snap)

	out := &TokenizeOutput{
		OriginalText:     text,
		Tokens:           res.Tokens,
		WordBoundaries:   wordBoundaries(text, res.Tokens),
		Engine:           res.Engine,
		ProcessingTimeMs: float64(time.Since(start)) / float64(time.Millisecond),
	}
	if res.Confidences != nil {
		out.ConfidenceScores = res.Confidences
	}
	return out, nil
}

// wordBoundaries locates each token in text and returns rune offsets.
// Tokens appear in order; engines may drop whitespace between them.
func wordBoundaries(text string, tokens []string) []int {
	boundaries := make([]int, 0, len(tokens)+1)
	runes := []rune(text)
	pos := 0
	for _, tok := range tokens {
		tokRunes := []rune(tok)
		start := indexRunes(runes, tokRunes, pos)
		if start < 0 {
			// Token not found verbatim (engine normalized something);
			// fall back to sequential placement.
			start = pos
		}
		boundaries = append(boundaries, start)
		pos = start + len(tokRunes)
	}
	boundaries = append(boundaries, pos)
	if len(tokens) == 0 {
		boundaries = []int{0}
	}
	return boundaries
}

func indexRunes(haystack, needle []rune, from int) int {
	if len(needle) == 0 {
		return from
	}
	limit := len(haystack) - len(needle)
	for i := from; i <= limit; i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return i
		}
	}
	// Tokens can contain normalized whitespace; try a looser search.
	if idx := strings.Index(string(haystack[from:]), string(needle)); idx >= 0 {
		return from + len([]rune(string(haystack[from:])[:idx]))
	}
	return -1
}
