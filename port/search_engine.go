package port

import (
	"context"

	"thai-search-proxy/domain"
)

// SearchEngine is the index-engine contract the executor fans out to.
// One call searches one variant text.
type SearchEngine interface {
	Search(ctx context.Context, variant domain.QueryVariant, index string, opts domain.SearchOptions) (*domain.EngineSearchResult, error)
	// BareSearch is the last-resort attempt after every variant failed:
	// one call, no retries.
	BareSearch(ctx context.Context, text string, index string, limit int) (*domain.EngineSearchResult, error)
	Healthy(ctx context.Context) error
}

// SearchEngineError is the gateway-level wrapper around driver failures.
type SearchEngineError struct {
	Op  string
	Err string
}

func (e *SearchEngineError) Error() string {
	return e.Op + ": " + e.Err
}
