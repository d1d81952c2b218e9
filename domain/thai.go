package domain

import "unicode"

// Thai codepoints occupy U+0E00..U+0E7F.
const (
	thaiRangeLo = 0x0E00
	thaiRangeHi = 0x0E7F
)

// IsThaiRune reports whether r is a Thai codepoint.
func IsThaiRune(r rune) bool {
	return r >= thaiRangeLo && r <= thaiRangeHi
}

// ContainsThai reports whether text contains at least one Thai codepoint.
func ContainsThai(text string) bool {
	for _, r := range text {
		if IsThaiRune(r) {
			return true
		}
	}
	return false
}

// ThaiRatio returns the fraction of Thai codepoints among non-whitespace
// characters of text. Returns 0 for empty or all-whitespace input.
func ThaiRatio(text string) float64 {
	var thai, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if IsThaiRune(r) {
			thai++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(thai) / float64(total)
}

// HasASCIILetter reports whether text contains at least one ASCII letter.
func HasASCIILetter(text string) bool {
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
