package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewArtifact_Valid(t *testing.T) {
	a, err := NewArtifact("g1", "A1", ArtifactWeb, "https://Example.com/page?utm_source=x", "hash1")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/page", a.URL)
}

func TestNewArtifact_RejectsMissingFields(t *testing.T) {
	_, err := NewArtifact("", "A1", ArtifactWeb, "https://x.com", "hash1")
	require.Error(t, err)

	_, err = NewArtifact("g1", "A1", ArtifactWeb, "https://x.com", "")
	require.Error(t, err)
}

func TestCanonicalizeURL_LowercasesSchemeAndHost(t *testing.T) {
	got, err := CanonicalizeURL("HTTPS://Example.COM/Path")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/Path", got)
}

func TestCanonicalizeURL_StripsFragmentAndTrailingSlash(t *testing.T) {
	got, err := CanonicalizeURL("https://example.com/path/#section")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/path", got)
}

func TestCanonicalizeURL_StripsTrackingParams(t *testing.T) {
	got, err := CanonicalizeURL("https://example.com/path?utm_source=a&utm_medium=b&keep=1&fbclid=x&gclid=y")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/path?keep=1", got)
}

func TestCanonicalizeURL_NonURLPassesThrough(t *testing.T) {
	got, err := CanonicalizeURL("local-file-123")
	require.NoError(t, err)
	require.Equal(t, "local-file-123", got)
}

func TestCanonicalizeURL_RejectsEmpty(t *testing.T) {
	_, err := CanonicalizeURL("")
	require.Error(t, err)
}
