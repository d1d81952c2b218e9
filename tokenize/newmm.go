package tokenize

import (
	"context"
	"time"
	"unicode"

	"thai-search-proxy/dictionary"
	"thai-search-proxy/domain"
)

// Confidence levels reported by the in-process engine.
const (
	newmmDictConfidence    = 0.9
	newmmUnknownConfidence = 0.7
)

// NewMM is the primary engine: dictionary-based longest matching over
// the compound set, with Thai character-cluster rules for spans the
// dictionary does not cover. It runs in-process and never blocks on I/O.
//
// Whitespace policy: whitespace runs are dropped; concatenating the
// tokens reproduces the input with whitespace removed.
type NewMM struct {
	dict *dictionary.Store
}

// NewNewMM builds the engine over the shared dictionary store.
func NewNewMM(dict *dictionary.Store) *NewMM {
	return &NewMM{dict: dict}
}

func (e *NewMM) Name() string { return domain.EngineNewMM }

// Tokenize segments text. The engine is CPU-bound; ctx is checked once
// up front so a request already past its deadline fails fast.
func (e *NewMM) Tokenize(ctx context.Context, text string) (*domain.TokenizationResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, &domain.TokenizationError{Engine: e.Name(), Kind: domain.TokenizationTimeout, Err: err.Error()}
	}
	if err := checkInput(e.Name(), text); err != nil {
		return nil, err
	}
	if text == "" {
		return emptyResult(e.Name()), nil
	}

	res := &domain.TokenizationResult{
		OriginalText: text,
		Engine:       e.Name(),
	}

	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case domain.IsThaiRune(r):
			i = e.segmentThaiRun(runes, i, res)
		default:
			// Non-Thai run: one token until whitespace or Thai.
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) && !domain.IsThaiRune(runes[j]) {
				j++
			}
			appendToken(res, string(runes[i:j]), newmmDictConfidence)
			i = j
		}
	}

	return finish(res, start), nil
}

// segmentThaiRun applies greedy longest dictionary matching starting at
// pos. Characters not covered by any dictionary entry accumulate into a
// single unknown token, broken only at cluster boundaries so a token
// never starts with a dependent mark.
func (e *NewMM) segmentThaiRun(runes []rune, pos int, res *domain.TokenizationResult) int {
	unknownStart := -1

	flushUnknown := func(end int) {
		if unknownStart >= 0 && end > unknownStart {
			appendToken(res, string(runes[unknownStart:end]), newmmUnknownConfidence)
			unknownStart = -1
		}
	}

	i := pos
	for i < len(runes) && domain.IsThaiRune(runes[i]) {
		if match := e.longestMatchAt(runes, i); match > 0 {
			flushUnknown(i)
			appendToken(res, string(runes[i:i+match]), newmmDictConfidence)
			i += match
			continue
		}
		if unknownStart < 0 {
			unknownStart = i
		}
		i = nextClusterBoundary(runes, i)
	}
	flushUnknown(i)
	return i
}

// longestMatchAt returns the length in runes of the longest dictionary
// entry starting at pos, or 0.
func (e *NewMM) longestMatchAt(runes []rune, pos int) int {
	// Dictionary entries are short surface forms; cap the lookahead.
	const maxEntry = 30
	end := pos + maxEntry
	if end > len(runes) {
		end = len(runes)
	}
	for j := end; j > pos; j-- {
		if !domain.IsThaiRune(runes[j-1]) {
			continue
		}
		if e.dict.Contains(string(runes[pos:j])) {
			return j - pos
		}
	}
	return 0
}

// nextClusterBoundary advances past one Thai character cluster: an
// optional leading vowel, a base character, then any dependent marks.
func nextClusterBoundary(runes []rune, pos int) int {
	i := pos
	if i < len(runes) && isLeadingVowel(runes[i]) {
		i++
	}
	if i < len(runes) {
		i++
	}
	for i < len(runes) && isDependentMark(runes[i]) {
		i++
	}
	return i
}

// Leading vowels U+0E40..U+0E44 precede their consonant.
func isLeadingVowel(r rune) bool {
	return r >= 0x0E40 && r <= 0x0E44
}

// Dependent marks cannot start a token: MAI HAN-AKAT, SARA AM, the
// above/below vowels and the tone and diacritic marks.
func isDependentMark(r rune) bool {
	switch {
	case r == 0x0E31, r == 0x0E33:
		return true
	case r >= 0x0E34 && r <= 0x0E3A:
		return true
	case r >= 0x0E47 && r <= 0x0E4E:
		return true
	}
	return false
}

func appendToken(res *domain.TokenizationResult, token string, confidence float64) {
	res.Tokens = append(res.Tokens, token)
	res.Confidences = append(res.Confidences, confidence)
}
