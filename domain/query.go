package domain

// VariantType tags one reformulation of a user query.
type VariantType string

const (
	VariantOriginal      VariantType = "original"
	VariantTokenized     VariantType = "tokenized"
	VariantCompoundSplit VariantType = "compound_split"
	VariantThaiOnly      VariantType = "thai_only"
	VariantEnglishOnly   VariantType = "english_only"
	VariantPhrase        VariantType = "phrase"
	VariantFallback      VariantType = "fallback"
)

// QueryVariant is one query to send to the index engine.
type QueryVariant struct {
	Text   string
	Type   VariantType
	Weight float64
	// Engine is the tokenizer engine that produced this variant's text,
	// empty for variants derived without tokenization.
	Engine string
	Phrase bool
}

// LanguageInfo is the detected language mix of a query.
type LanguageInfo struct {
	ThaiRatio    float64
	ThaiDetected bool
	HasEnglish   bool
	MixedContent bool
}

// ProcessedQuery is the Query Processor output: the original query, its
// language mix, the primary tokenization and the weighted variants in
// descending weight order. Variants is never empty for a non-blank query.
type ProcessedQuery struct {
	Original     string
	Language     LanguageInfo
	Tokenization *TokenizationResult
	Variants     []QueryVariant
}

// FallbackUsed reports whether tokenization failed and the query fell
// back to the raw input.
func (p *ProcessedQuery) FallbackUsed() bool {
	return p.Tokenization != nil && !p.Tokenization.Success
}
