// Package tokenize provides the pluggable Thai segmenter engines and
// the facade that selects among them, falls back on failure and merges
// dictionary compounds back into single tokens.
package tokenize

import (
	"context"
	"time"

	"thai-search-proxy/domain"
)

// maxInputRunes bounds what any engine accepts in one call.
const maxInputRunes = 10000

// Engine is the common contract of all Thai segmenters. Implementations
// must be safe for concurrent use.
type Engine interface {
	Name() string
	// Tokenize segments text within the deadline carried by ctx.
	Tokenize(ctx context.Context, text string) (*domain.TokenizationResult, error)
}

// Registry maps engine ids to constructed engines. The config snapshot
// names engines by id; the registry resolves the active ladder.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry builds a registry over the given engines.
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[string]Engine, len(engines))}
	for _, e := range engines {
		r.engines[e.Name()] = e
	}
	return r
}

// Get resolves an engine id; ok is false for unknown ids.
func (r *Registry) Get(name string) (Engine, bool) {
	e, ok := r.engines[name]
	return e, ok
}

// Names lists registered engine ids.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.engines))
	for name := range r.engines {
		out = append(out, name)
	}
	return out
}

// emptyResult is the O(1) answer for blank input.
func emptyResult(engine string) *domain.TokenizationResult {
	return &domain.TokenizationResult{
		OriginalText: "",
		Tokens:       []string{},
		Engine:       engine,
		Success:      true,
	}
}

// checkInput validates common engine preconditions.
func checkInput(engine, text string) error {
	if len([]rune(text)) > maxInputRunes {
		return &domain.TokenizationError{
			Engine: engine,
			Kind:   domain.TokenizationInputTooLarge,
			Err:    "input exceeds maximum length",
		}
	}
	return nil
}

// finish stamps duration and success on a result.
func finish(res *domain.TokenizationResult, start time.Time) *domain.TokenizationResult {
	res.Duration = time.Since(start)
	res.Success = true
	return res
}
