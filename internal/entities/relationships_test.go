package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeType_AllowsUppercaseDigitsUnderscore(t *testing.T) {
	require.Equal(t, "WORKS_AT", safeType("WORKS_AT"))
	require.Equal(t, "REL_1", safeType("REL_1"))
}

func TestSafeType_RejectsLowercase(t *testing.T) {
	require.Equal(t, "INVALID_PREDICATE", safeType("works_at"))
}

func TestSafeType_RejectsPunctuation(t *testing.T) {
	require.Equal(t, "INVALID_PREDICATE", safeType("WORKS-AT"))
	require.Equal(t, "INVALID_PREDICATE", safeType("WORKS AT"))
	require.Equal(t, "INVALID_PREDICATE", safeType("DROP TABLE;"))
}

func TestSafeType_RejectsEmpty(t *testing.T) {
	require.Equal(t, "INVALID_PREDICATE", safeType(""))
}
