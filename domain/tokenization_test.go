package domain

import "testing"

func TestTokenizationResult_Confidence(t *testing.T) {
	res := &TokenizationResult{
		Tokens:      []string{"ข้าว", "ผัด"},
		Confidences: []float64{0.9, 0.7},
	}
	if got := res.Confidence(0); got != 0.9 {
		t.Errorf("Confidence(0) = %v, want 0.9", got)
	}
	if got := res.Confidence(1); got != 0.7 {
		t.Errorf("Confidence(1) = %v, want 0.7", got)
	}
	if got := res.Confidence(-1); got != 0 {
		t.Errorf("Confidence(-1) = %v, want 0", got)
	}
	if got := res.Confidence(2); got != 0 {
		t.Errorf("Confidence(2) = %v, want 0", got)
	}

	// Engines that report no confidence get the default.
	noConf := &TokenizationResult{Tokens: []string{"ข้าว"}}
	if got := noConf.Confidence(0); got != DefaultConfidence {
		t.Errorf("Confidence(0) without scores = %v, want %v", got, DefaultConfidence)
	}
}

func TestTokenizationResult_IsCompound(t *testing.T) {
	res := &TokenizationResult{
		Tokens:    []string{"สาหร่าย", "วากาเมะ"},
		Compounds: []string{"วากาเมะ"},
	}
	if !res.IsCompound("วากาเมะ") {
		t.Error("expected วากาเมะ to be a compound")
	}
	if res.IsCompound("สาหร่าย") {
		t.Error("expected สาหร่าย not to be a compound")
	}
}

func TestProcessedQuery_FallbackUsed(t *testing.T) {
	ok := &ProcessedQuery{Tokenization: &TokenizationResult{Success: true}}
	if ok.FallbackUsed() {
		t.Error("successful tokenization should not report fallback")
	}
	failed := &ProcessedQuery{Tokenization: &TokenizationResult{Success: false}}
	if !failed.FallbackUsed() {
		t.Error("failed tokenization should report fallback")
	}
	none := &ProcessedQuery{}
	if none.FallbackUsed() {
		t.Error("missing tokenization should not report fallback")
	}
}
