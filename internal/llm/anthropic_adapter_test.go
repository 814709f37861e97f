package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnthropicAdapter_SatisfiesCollaboratorAndEmbedder(t *testing.T) {
	var _ Collaborator = (*AnthropicAdapter)(nil)
	var _ Embedder = (*AnthropicAdapter)(nil)
}

func TestAnthropicAdapter_MethodsReturnNotConfiguredUntilWired(t *testing.T) {
	a := NewAnthropicAdapter("test-key")
	ctx := context.Background()

	_, err := a.ExtractClaims(ctx, "text")
	require.ErrorIs(t, err, errNotConfigured)

	_, err = a.ExtractEntities(ctx, "text")
	require.ErrorIs(t, err, errNotConfigured)

	_, _, _, err = a.ClassifyIntent(ctx, "message")
	require.ErrorIs(t, err, errNotConfigured)

	_, err = a.Embed(ctx, "text")
	require.ErrorIs(t, err, errNotConfigured)
}
