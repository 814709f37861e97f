package offline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsString(t *testing.T) {
	require.Equal(t, "", asString(nil))
	require.Equal(t, "hello", asString("hello"))
	require.Equal(t, "", asString(42))
}

func TestAsInt64(t *testing.T) {
	require.Equal(t, int64(0), asInt64(nil))
	require.Equal(t, int64(42), asInt64(int64(42)))
	require.Equal(t, int64(42), asInt64(float64(42)))
	require.Equal(t, int64(0), asInt64("not a number"))
}
