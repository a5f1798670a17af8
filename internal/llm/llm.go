package llm

import (
	"context"
	"errors"
)

// Client abstracts text-generation providers for ATS analysis.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrNotConfigured is returned by the placeholder client when no provider
// credential is available.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient stands in when no provider credential is configured.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}
