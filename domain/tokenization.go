package domain

import "time"

// Engine identifiers for the pluggable Thai segmenters.
const (
	EngineNewMM    = "newmm"
	EngineAttaCut  = "attacut"
	EngineDeepCut  = "deepcut"
	EngineFallback = "fallback"
)

// DefaultConfidence is assumed when an engine reports no confidence.
const DefaultConfidence = 0.8

// CompoundConfidenceCap caps the confidence of a merged compound token.
const CompoundConfidenceCap = 0.95

// TokenizationResult is the output of one engine invocation.
// Concatenating Tokens in order reproduces OriginalText under the
// engine's whitespace policy.
type TokenizationResult struct {
	OriginalText string
	Tokens       []string
	// Confidences has either len(Tokens) entries or is nil when the
	// engine reports no per-token confidence.
	Confidences []float64
	// Compounds lists tokens that were merged from a dictionary compound.
	Compounds  []string
	Engine     string
	Duration   time.Duration
	Success    bool
	FailReason string
}

// Confidence returns the per-token confidence at i, applying the
// default when the engine reported none.
func (r *TokenizationResult) Confidence(i int) float64 {
	if i < 0 || i >= len(r.Tokens) {
		return 0
	}
	if r.Confidences == nil || i >= len(r.Confidences) {
		return DefaultConfidence
	}
	return r.Confidences[i]
}

// IsCompound reports whether token was produced by compound preservation.
func (r *TokenizationResult) IsCompound(token string) bool {
	for _, c := range r.Compounds {
		if c == token {
			return true
		}
	}
	return false
}
