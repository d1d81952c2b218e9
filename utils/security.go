// Package utils provides query sanitization for the public search API.
// Incoming queries are user-controlled and end up inside index engine
// requests, so HTML, script fragments and zero-width characters are
// stripped before the query reaches the tokenizer.
package utils

import (
	"context"
	"net/url"
	"strings"
)

// SecurityConfig holds the sanitization policy for incoming queries.
type SecurityConfig struct {
	// MaxQueryLength defines the maximum allowed rune length for queries
	MaxQueryLength int

	// StripHTMLTags enables removal of HTML tags from queries
	StripHTMLTags bool

	// NormalizeWhitespace enables whitespace normalization
	NormalizeWhitespace bool
}

// DefaultMaxQueryLength is the default maximum query length
const DefaultMaxQueryLength = 1000

// DefaultSecurityConfig returns the default sanitization policy.
// Thai codepoints pass through untouched; only markup and control
// characters are removed.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		MaxQueryLength:      DefaultMaxQueryLength,
		StripHTMLTags:       true,
		NormalizeWhitespace: true,
	}
}

// QuerySanitizer validates and cleans search queries before processing.
type QuerySanitizer struct {
	config *SecurityConfig
}

// NewQuerySanitizer creates a new query sanitizer
func NewQuerySanitizer(config *SecurityConfig) *QuerySanitizer {
	if config == nil {
		config = DefaultSecurityConfig()
	}
	return &QuerySanitizer{config: config}
}

// SanitizeQuery cleans a search query:
// 1. URL decodes to handle encoded attack vectors
// 2. Removes zero-width characters
// 3. Strips HTML tags and script content (if configured)
// 4. Normalizes whitespace (if configured)
func (s *QuerySanitizer) SanitizeQuery(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", nil
	}

	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}

	query = s.removeZeroWidthChars(query)

	if s.config.StripHTMLTags {
		query = s.stripHTMLTags(query)
	}

	query = s.removeScriptContent(query)

	if s.config.NormalizeWhitespace {
		query = s.normalizeWhitespace(query)
	}

	return query, nil
}

// ValidateQuery rejects queries that are over-long or contain null
// bytes / control characters. Called before sanitization.
func (s *QuerySanitizer) ValidateQuery(ctx context.Context, query string) error {
	if len([]rune(query)) > s.config.MaxQueryLength {
		return &SecurityError{
			Type:    "query_too_long",
			Message: "Query exceeds maximum length",
		}
	}

	for _, r := range query {
		if r == 0 || (r < 32 && r != 9 && r != 10 && r != 13) {
			return &SecurityError{
				Type:    "dangerous_character",
				Message: "Query contains null byte or control character",
			}
		}
	}

	return nil
}

// stripHTMLTags removes HTML tags from the query
func (s *QuerySanitizer) stripHTMLTags(input string) string {
	// Remove script tags and their content first
	for {
		start := strings.Index(strings.ToLower(input), "<script")
		if start == -1 {
			break
		}
		end := strings.Index(strings.ToLower(input[start:]), "</script>")
		if end == -1 {
			input = input[:start]
			break
		}
		end += start + len("</script>")
		input = input[:start] + input[end:]
	}

	for {
		start := strings.Index(input, "<")
		if start == -1 {
			break
		}
		end := strings.Index(input[start:], ">")
		if end == -1 {
			input = input[:start]
			break
		}
		end += start + 1
		input = input[:start] + input[end:]
	}

	return input
}

// removeScriptContent removes dangerous protocol and handler fragments
func (s *QuerySanitizer) removeScriptContent(input string) string {
	patterns := []string{
		"javascript:",
		"data:",
		"vbscript:",
		"onload=",
		"onerror=",
		"onclick=",
	}

	lowered := strings.ToLower(input)
	for _, pattern := range patterns {
		for {
			idx := strings.Index(lowered, pattern)
			if idx == -1 {
				break
			}
			input = input[:idx] + input[idx+len(pattern):]
			lowered = lowered[:idx] + lowered[idx+len(pattern):]
		}
	}

	return input
}

// normalizeWhitespace collapses runs of whitespace into single spaces
func (s *QuerySanitizer) normalizeWhitespace(input string) string {
	input = strings.ReplaceAll(input, "\t", " ")
	input = strings.ReplaceAll(input, "\r", " ")
	input = strings.ReplaceAll(input, "\n", " ")
	input = strings.TrimSpace(input)
	return strings.Join(strings.Fields(input), " ")
}

// removeZeroWidthChars removes zero-width characters from the query
func (s *QuerySanitizer) removeZeroWidthChars(input string) string {
	zeroWidthChars := []rune{
		'\u200B', // Zero width space
		'\u200C', // Zero width non-joiner
		'\u200D', // Zero width joiner
		'\uFEFF', // Zero width no-break space (BOM)
		'\u200E', // Left-to-right mark
		'\u200F', // Right-to-left mark
	}

	for _, char := range zeroWidthChars {
		input = strings.ReplaceAll(input, string(char), "")
	}

	return input
}

// SecurityError represents a rejected query
type SecurityError struct {
	Type    string
	Message string
}

func (e *SecurityError) Error() string {
	return e.Message
}
