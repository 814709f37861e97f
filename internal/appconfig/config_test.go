package appconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetenv_FallsBackToDefaultWhenUnset(t *testing.T) {
	require.Equal(t, "default", getenv("SUBSTRATE_TEST_UNSET_VAR", "default"))
}

func TestGetenv_UsesEnvironmentWhenSet(t *testing.T) {
	t.Setenv("SUBSTRATE_TEST_VAR", "from-env")
	require.Equal(t, "from-env", getenv("SUBSTRATE_TEST_VAR", "default"))
}

func TestGetenvInt_FallsBackOnUnsetOrInvalid(t *testing.T) {
	require.Equal(t, 42, getenvInt("SUBSTRATE_TEST_UNSET_INT", 42))

	t.Setenv("SUBSTRATE_TEST_INT", "not-a-number")
	require.Equal(t, 42, getenvInt("SUBSTRATE_TEST_INT", 42))
}

func TestGetenvInt_ParsesValidInt(t *testing.T) {
	t.Setenv("SUBSTRATE_TEST_INT_VALID", "7")
	require.Equal(t, 7, getenvInt("SUBSTRATE_TEST_INT_VALID", 42))
}

func TestSplitCSV_TrimsAndDropsEmpty(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, splitCSV("a, b ,c"))
}

func TestSplitCSV_EmptyStringYieldsNil(t *testing.T) {
	require.Nil(t, splitCSV(""))
}
