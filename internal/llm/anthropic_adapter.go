package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicAdapter is the default Collaborator adapter: a thin holder around
// the Anthropic client struct. It deliberately contains no prompt templates
// or model-selection logic — wiring a real Collaborator implementation is
// left to the deployment, per spec §1's "LLM prompting and model-specific
// calls" non-goal. This exists only so the DI container in cmd/api has a
// concrete, compilable default to wire when no collaborator is configured.
type AnthropicAdapter struct {
	client anthropic.Client
}

func NewAnthropicAdapter(apiKey string) *AnthropicAdapter {
	return &AnthropicAdapter{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (a *AnthropicAdapter) ExtractClaims(ctx context.Context, chunkText string) ([]ExtractedClaim, error) {
	return nil, errNotConfigured
}

func (a *AnthropicAdapter) ExtractEntities(ctx context.Context, text string) ([]ExtractedEntity, error) {
	return nil, errNotConfigured
}

func (a *AnthropicAdapter) ClassifyIntent(ctx context.Context, message string) (string, float64, string, error) {
	return "", 0, "", errNotConfigured
}

func (a *AnthropicAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errNotConfigured
}

var errNotConfigured = &adapterError{"anthropic collaborator adapter has no prompting logic configured"}

type adapterError struct{ msg string }

func (e *adapterError) Error() string { return e.msg }
