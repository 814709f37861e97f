package snapshots

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsHTMLTags(t *testing.T) {
	got := Normalize(SourceWeb, "", "<p>Hello <b>World</b></p>")
	require.Equal(t, "hello world", got)
}

func TestNormalize_StripsScriptAndStyleBlocks(t *testing.T) {
	got := Normalize(SourceWeb, "", "<p>keep</p><script>drop(me)</script><style>.x{color:red}</style>")
	require.Equal(t, "keep", got)
}

func TestNormalize_StripsCookieBanner(t *testing.T) {
	got := Normalize(SourceWeb, "We use cookies to improve your experience. Actual content.", "")
	require.NotContains(t, got, "cookies")
	require.Contains(t, got, "actual content")
}

func TestNormalize_StripsISO8601Timestamps(t *testing.T) {
	got := Normalize(SourceWeb, "Published 2024-01-15T10:00:00Z by staff", "")
	require.NotContains(t, got, "2024-01-15")
}

func TestNormalize_StripsEDGARBoilerplateOnlyForEDGARSource(t *testing.T) {
	text := "United States Securities and Exchange Commission filing Form 10-K details"

	edgar := Normalize(SourceEDGAR, text, "")
	require.NotContains(t, edgar, "securities and exchange commission")

	web := Normalize(SourceWeb, text, "")
	require.Contains(t, web, "securities and exchange commission")
}

func TestNormalize_IsIdempotent(t *testing.T) {
	once := Normalize(SourceWeb, "  Hello   World  ", "")
	twice := Normalize(SourceWeb, once, "")
	require.Equal(t, once, twice)
}

func TestContentHash_IsDeterministicAndDistinct(t *testing.T) {
	a := ContentHash("hello world")
	b := ContentHash("hello world")
	c := ContentHash("goodbye world")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 64)
}
