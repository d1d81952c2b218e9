package rest

import (
	"github.com/go-playground/validator/v10"

	"thai-search-proxy/domain"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// SearchOptionsDTO mirrors the per-search knobs accepted on the API.
type SearchOptionsDTO struct {
	Limit                 *int     `json:"limit" validate:"omitempty,min=0,max=100"`
	Offset                int      `json:"offset" validate:"omitempty,min=0"`
	Filters               string   `json:"filters"`
	Sort                  []string `json:"sort"`
	Highlight             bool     `json:"highlight"`
	AttributesToRetrieve  []string `json:"attributes_to_retrieve"`
	AttributesToHighlight []string `json:"attributes_to_highlight"`
	CropLength            int      `json:"crop_length" validate:"omitempty,min=0"`
	CropMarker            string   `json:"crop_marker"`
	MatchingStrategy      string   `json:"matching_strategy" validate:"omitempty,oneof=all last frequency"`
}

// SearchRequest is the POST /api/v1/search body.
type SearchRequest struct {
	Query                   string            `json:"query"`
	IndexName               string            `json:"index_name" validate:"required"`
	Options                 *SearchOptionsDTO `json:"options"`
	IncludeTokenizationInfo bool              `json:"include_tokenization_info"`
}

// BatchSearchRequest is the POST /api/v1/batch-search body.
type BatchSearchRequest struct {
	Queries   []string          `json:"queries" validate:"required,min=1,max=50"`
	IndexName string            `json:"index_name" validate:"required"`
	Options   *SearchOptionsDTO `json:"options"`
}

// TokenizeRequest is the POST /api/v1/tokenize body.
type TokenizeRequest struct {
	Text   string `json:"text" validate:"required"`
	Engine string `json:"engine" validate:"omitempty,oneof=newmm attacut deepcut"`
}

// toDomainOptions applies API defaults onto the engine option set.
// The limit only defaults when absent: an explicit 0 means "count
// matches, return no hits" and must survive the translation.
func (o *SearchOptionsDTO) toDomainOptions() domain.SearchOptions {
	opts := domain.SearchOptions{Limit: domain.DefaultLimit}
	if o == nil {
		return opts
	}
	if o.Limit != nil {
		opts.Limit = *o.Limit
	}
	opts.Offset = o.Offset
	opts.Filters = o.Filters
	opts.Sort = o.Sort
	opts.Highlight = o.Highlight
	opts.AttributesToRetrieve = o.AttributesToRetrieve
	opts.AttributesToHighlight = o.AttributesToHighlight
	opts.CropLength = o.CropLength
	opts.CropMarker = o.CropMarker
	opts.MatchingStrategy = o.MatchingStrategy
	return opts
}

// HitDTO is the wire form of one ranked hit.
type HitDTO struct {
	ID                   string                 `json:"id"`
	Score                float64                `json:"score"`
	BestVariant          string                 `json:"best_variant"`
	VariantContributions map[string]float64     `json:"variant_contributions,omitempty"`
	Document             map[string]interface{} `json:"document"`
	Highlights           map[string]interface{} `json:"highlights,omitempty"`
}

// SearchResponseDTO is the wire form of a search response.
type SearchResponseDTO struct {
	Hits             []HitDTO          `json:"hits"`
	TotalHits        int64             `json:"total_hits"`
	ProcessingTimeMs float64           `json:"processing_time_ms"`
	QueryInfo        domain.QueryInfo  `json:"query_info"`
	Pagination       domain.Pagination `json:"pagination"`
}

// TokenizeResponseDTO is the wire form of a tokenize response.
type TokenizeResponseDTO struct {
	OriginalText     string    `json:"original_text"`
	Tokens           []string  `json:"tokens"`
	WordBoundaries   []int     `json:"word_boundaries"`
	ConfidenceScores []float64 `json:"confidence_scores,omitempty"`
	Engine           string    `json:"engine"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
}

func renderSearchResponse(resp *domain.SearchResponse) SearchResponseDTO {
	hits := make([]HitDTO, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		contrib := make(map[string]float64, len(h.Contributions))
		for vt, c := range h.Contributions {
			contrib[string(vt)] = c
		}
		hits = append(hits, HitDTO{
			ID:                   h.ID,
			Score:                h.Score,
			BestVariant:          string(h.BestVariant),
			VariantContributions: contrib,
			Document:             h.Document,
			Highlights:           h.Highlights,
		})
	}
	return SearchResponseDTO{
		Hits:             hits,
		TotalHits:        resp.TotalHits,
		ProcessingTimeMs: resp.ProcessingTimeMs,
		QueryInfo:        resp.QueryInfo,
		Pagination:       resp.Pagination,
	}
}
