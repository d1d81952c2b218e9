package tokenize

import (
	"strings"

	"thai-search-proxy/dictionary"
	"thai-search-proxy/domain"
)

// PreserveCompounds rewrites a tokenization result so that any
// contiguous token span whose concatenation is a dictionary entry
// becomes a single token. Engines routinely split transliterated
// compounds into their syllables; the dictionary is the authority that
// those syllables, in that order, are one word.
//
// The scan is greedy-longest and left-to-right, which keeps the result
// deterministic and the pass linear over the token count. The merged
// token's confidence is the minimum of its components, capped at 0.95.
func PreserveCompounds(res *domain.TokenizationResult, dict *dictionary.Store) *domain.TokenizationResult {
	if res == nil || len(res.Tokens) == 0 || dict.Size() == 0 {
		return res
	}

	tokens := make([]string, 0, len(res.Tokens))
	confidences := make([]float64, 0, len(res.Tokens))
	var compounds []string

	i := 0
	for i < len(res.Tokens) {
		span := longestCompoundSpan(res, dict, i)
		if span >= 2 {
			merged := strings.Join(res.Tokens[i:i+span], "")
			conf := res.Confidence(i)
			for k := i + 1; k < i+span; k++ {
				if c := res.Confidence(k); c < conf {
					conf = c
				}
			}
			if conf > domain.CompoundConfidenceCap {
				conf = domain.CompoundConfidenceCap
			}
			tokens = append(tokens, merged)
			confidences = append(confidences, conf)
			compounds = append(compounds, merged)
			i += span
			continue
		}

		tok := res.Tokens[i]
		tokens = append(tokens, tok)
		confidences = append(confidences, res.Confidence(i))
		// A token the engine already emitted whole still counts as a
		// detected compound when the dictionary lists it.
		if dict.Contains(tok) {
			compounds = append(compounds, tok)
		}
		i++
	}

	out := *res
	out.Tokens = tokens
	out.Confidences = confidences
	out.Compounds = compounds
	return &out
}

// longestCompoundSpan returns the largest n >= 2 such that the
// concatenation of tokens[start:start+n] is a dictionary entry, or 0.
// Every token carries at least one rune, so no entry can cover more
// tokens than its own rune count; the longest entry bounds the probe.
func longestCompoundSpan(res *domain.TokenizationResult, dict *dictionary.Store, start int) int {
	max := dict.LongestEntryRunes()
	if rest := len(res.Tokens) - start; rest < max {
		max = rest
	}
	for n := max; n >= 2; n-- {
		if dict.Contains(strings.Join(res.Tokens[start:start+n], "")) {
			return n
		}
	}
	return 0
}
