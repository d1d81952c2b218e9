package domain

import "errors"

// Sentinel errors shared across layers.
var (
	ErrAllEnginesFailed = errors.New("all tokenizer engines failed")
	ErrDeadlineExceeded = errors.New("request deadline exceeded")
	ErrTooBusy          = errors.New("too many concurrent requests")
	ErrEmptyQuery       = errors.New("query is empty")
)

// TokenizationErrorKind classifies per-engine tokenization failures.
type TokenizationErrorKind string

const (
	TokenizationTimeout       TokenizationErrorKind = "timeout"
	TokenizationInternal      TokenizationErrorKind = "engine_internal"
	TokenizationInputTooLarge TokenizationErrorKind = "input_too_large"
)

// TokenizationError is a typed per-engine failure.
type TokenizationError struct {
	Engine string
	Kind   TokenizationErrorKind
	Err    string
}

func (e *TokenizationError) Error() string {
	return "tokenize " + e.Engine + " (" + string(e.Kind) + "): " + e.Err
}

// IndexEngineErrorKind classifies index-engine call failures.
type IndexEngineErrorKind string

const (
	IndexEngineNetwork IndexEngineErrorKind = "network"
	IndexEngineServer  IndexEngineErrorKind = "server" // 5xx
	IndexEngineClient  IndexEngineErrorKind = "client" // 4xx, not retried
	IndexEngineTimeout IndexEngineErrorKind = "timeout"
)

// IndexEngineError represents a failure from the external index engine.
type IndexEngineError struct {
	Op         string
	Kind       IndexEngineErrorKind
	StatusCode int
	Err        string
}

func (e *IndexEngineError) Error() string {
	return e.Op + " (" + string(e.Kind) + "): " + e.Err
}

// Retryable reports whether the failure is safe to retry.
func (e *IndexEngineError) Retryable() bool {
	return e.Kind != IndexEngineClient
}

// ValidationError represents bad request input.
type ValidationError struct {
	Field string
	Err   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Err
	}
	return "validation " + e.Field + ": " + e.Err
}

// ConfigError represents a configuration parse or validation failure.
type ConfigError struct {
	Op  string
	Err string
}

func (e *ConfigError) Error() string {
	return "config " + e.Op + ": " + e.Err
}

// AuthError represents a missing or mismatched API key.
type AuthError struct {
	Reason string
	// Forbidden distinguishes a mismatched key (403) from a missing one (401).
	Forbidden bool
}

func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

// DictionaryError represents a dictionary load or parse failure.
type DictionaryError struct {
	Path string
	Err  string
}

func (e *DictionaryError) Error() string {
	return "dictionary " + e.Path + ": " + e.Err
}
