package domain

import "time"

// SearchOptions mirror the index engine's per-search knobs exposed on
// the public API.
type SearchOptions struct {
	Limit                 int
	Offset                int
	Filters               string
	Sort                  []string
	Highlight             bool
	AttributesToRetrieve  []string
	AttributesToHighlight []string
	CropLength            int
	CropMarker            string
	MatchingStrategy      string
}

// DefaultLimit and MaxLimit bound the hits returned per request.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// RawHit is one document as returned by the index engine for a variant.
type RawHit struct {
	ID         string
	Score      float64
	Document   map[string]interface{}
	Highlights map[string]interface{}
}

// EngineSearchResult is the raw hit collection one variant's search
// produced. Scores are comparable only within the same result.
type EngineSearchResult struct {
	Variant   QueryVariant
	Hits      []RawHit
	TotalHits int64
	Latency   time.Duration
	Err       error
}

// Failed reports whether the variant's search errored.
func (r *EngineSearchResult) Failed() bool {
	return r.Err != nil
}

// RankedHit is a deduplicated, re-scored result.
type RankedHit struct {
	ID            string
	Score         float64
	BestVariant   VariantType
	Contributions map[VariantType]float64
	Document      map[string]interface{}
	Highlights    map[string]interface{}
}

// StageTimings records per-stage latencies for one request.
type StageTimings struct {
	Tokenization time.Duration
	Search       time.Duration
	Ranking      time.Duration
	Total        time.Duration
}

// TokenizationInfo is the optional tokenization detail on a response.
type TokenizationInfo struct {
	PrimaryEngine string   `json:"primary_engine"`
	Tokens        []string `json:"tokens"`
	CompoundWords []string `json:"compound_words_detected"`
}

// QueryInfo summarizes how the query was processed.
type QueryInfo struct {
	OriginalQuery     string            `json:"original_query"`
	ProcessedQuery    string            `json:"processed_query"`
	ThaiDetected      bool              `json:"thai_content_detected"`
	MixedContent      bool              `json:"mixed_content"`
	VariantsUsed      int               `json:"query_variants_used"`
	FallbackUsed      bool              `json:"fallback_used"`
	TokenizationInfo  *TokenizationInfo `json:"tokenization_info,omitempty"`
}

// Pagination is the response paging metadata.
type Pagination struct {
	Offset          int   `json:"offset"`
	Limit           int   `json:"limit"`
	TotalHits       int64 `json:"total_hits"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// SearchResponse is the external search contract.
type SearchResponse struct {
	Hits             []RankedHit
	TotalHits        int64
	ProcessingTimeMs float64
	QueryInfo        QueryInfo
	Pagination       Pagination
	Timings          StageTimings
	CacheHit         bool
}
