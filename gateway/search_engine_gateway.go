// Package gateway is the anti-corruption layer between usecases and
// infrastructure drivers.
package gateway

import (
	"context"

	"thai-search-proxy/domain"
	"thai-search-proxy/port"
)

// SearchDriver is the driver-level search contract.
type SearchDriver interface {
	Search(ctx context.Context, variant domain.QueryVariant, index string, opts domain.SearchOptions) (*domain.EngineSearchResult, error)
	BareSearch(ctx context.Context, text string, index string, limit int) (*domain.EngineSearchResult, error)
	Healthy(ctx context.Context) error
}

// SearchEngineGateway adapts the driver to the port the usecases see.
type SearchEngineGateway struct {
	driver SearchDriver
}

func NewSearchEngineGateway(driver SearchDriver) *SearchEngineGateway {
	return &SearchEngineGateway{driver: driver}
}

func (g *SearchEngineGateway) Search(ctx context.Context, variant domain.QueryVariant, index string, opts domain.SearchOptions) (*domain.EngineSearchResult, error) {
	res, err := g.driver.Search(ctx, variant, index, opts)
	if err != nil {
		// The result still carries the variant and latency for the
		// executor's failure accounting.
		return res, &port.SearchEngineError{Op: "Search", Err: err.Error()}
	}
	return res, nil
}

func (g *SearchEngineGateway) BareSearch(ctx context.Context, text string, index string, limit int) (*domain.EngineSearchResult, error) {
	res, err := g.driver.BareSearch(ctx, text, index, limit)
	if err != nil {
		return res, &port.SearchEngineError{Op: "BareSearch", Err: err.Error()}
	}
	return res, nil
}

func (g *SearchEngineGateway) Healthy(ctx context.Context) error {
	if err := g.driver.Healthy(ctx); err != nil {
		return &port.SearchEngineError{Op: "Health", Err: err.Error()}
	}
	return nil
}
