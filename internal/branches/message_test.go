package branches

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatMessageID(t *testing.T) {
	require.Equal(t, "0", formatMessageID(0))
	require.Equal(t, "42", formatMessageID(42))
	require.Equal(t, "-7", formatMessageID(-7))
}
