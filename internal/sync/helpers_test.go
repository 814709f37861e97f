package sync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToJSONOrEmpty(t *testing.T) {
	require.Equal(t, "", toJSONOrEmpty(nil))
	require.JSONEq(t, `{"a":1}`, toJSONOrEmpty(map[string]any{"a": 1}))
}

func TestStringField(t *testing.T) {
	payload := map[string]any{"name": "x", "count": 3}
	require.Equal(t, "x", stringField(payload, "name"))
	require.Equal(t, "", stringField(payload, "count"), "wrong-typed value should fall back to empty string")
	require.Equal(t, "", stringField(payload, "missing"))
}

func TestMapField(t *testing.T) {
	inner := map[string]any{"b": 2}
	payload := map[string]any{"nested": inner, "flat": "x"}

	require.Equal(t, inner, mapField(payload, "nested"))
	require.Nil(t, mapField(payload, "flat"))
	require.Nil(t, mapField(payload, "missing"))
}

func TestShortID(t *testing.T) {
	require.Equal(t, "ABCDE", shortID("abcdefgh", 5))
	require.Equal(t, "AB", shortID("ab", 5), "shorter than n is kept as-is")
}
