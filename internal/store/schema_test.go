package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaStatements_AreIdempotent(t *testing.T) {
	for _, stmt := range schemaStatements {
		require.True(t,
			strings.Contains(stmt, "IF NOT EXISTS"),
			"schema statement must tolerate repeated process starts: %q", stmt)
	}
}

func TestLegacyDrops_AreIdempotent(t *testing.T) {
	for _, stmt := range legacyDrops {
		require.True(t, strings.HasPrefix(stmt, "DROP CONSTRAINT"))
		require.True(t, strings.Contains(stmt, "IF EXISTS"))
	}
}

func TestSchemaStatements_CoverGraphScopedUniqueness(t *testing.T) {
	joined := strings.Join(schemaStatements, "\n")
	require.Contains(t, joined, "GraphSpace")
	require.Contains(t, joined, "Concept")
	require.Contains(t, joined, "graph_id, c.name")
}
