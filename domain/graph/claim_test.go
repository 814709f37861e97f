package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClaim_Valid(t *testing.T) {
	c, err := NewClaim("g1", "CLAIM_1", "S1", "CHUNK_1", "the sky is blue")
	require.NoError(t, err)
	require.Equal(t, ClaimAccepted, c.Status)
}

func TestNewClaim_RejectsMissingFields(t *testing.T) {
	_, err := NewClaim("", "CLAIM_1", "S1", "CHUNK_1", "text")
	require.Error(t, err)

	_, err = NewClaim("g1", "CLAIM_1", "S1", "CHUNK_1", "")
	require.Error(t, err)

	_, err = NewClaim("g1", "CLAIM_1", "", "CHUNK_1", "text")
	require.Error(t, err)

	_, err = NewClaim("g1", "CLAIM_1", "S1", "", "text")
	require.Error(t, err)
}

func TestClaim_MarkStale(t *testing.T) {
	c, err := NewClaim("g1", "CLAIM_1", "S1", "CHUNK_1", "text")
	require.NoError(t, err)

	require.NoError(t, c.MarkStale())
	require.Equal(t, ClaimStale, c.Status)
}

func TestClaim_MarkStale_RejectedCannotBecomeStale(t *testing.T) {
	c, err := NewClaim("g1", "CLAIM_1", "S1", "CHUNK_1", "text")
	require.NoError(t, err)

	c.Status = ClaimRejected
	require.Error(t, c.MarkStale())
}
