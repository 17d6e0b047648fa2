// Package oracle adapts external LLM providers into a classification
// capability for the resolution engine.
package oracle

import (
	"context"
	"time"
)

// Client is the minimal contract an LLM backend must expose: one text
// completion per request. The adapter owns prompt construction and
// response parsing, so any provider with a completion endpoint can be
// plugged in.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for an oracle provider.
type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int // Requests per minute
	CacheTTL    time.Duration
	ContextCap  int // Max historical rules included in a prompt
}

// Result is the structured classification parsed from a provider response.
type Result struct {
	Account    string
	Rationale  string
	Confidence float64
}
