package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_IsASingletonPerProcess(t *testing.T) {
	ResetForTesting()
	defer ResetForTesting()

	a := NewCollector("substrate")
	b := NewCollector("substrate")
	require.Same(t, a, b)
}

func TestNewCollector_RegistersCountersOnItsRegistry(t *testing.T) {
	ResetForTesting()
	defer ResetForTesting()

	c := NewCollector("substrate")
	c.ConceptsCreated.Inc()
	c.ConceptsCreated.Inc()

	require.Equal(t, float64(2), testutil.ToFloat64(c.ConceptsCreated))
	require.NotNil(t, c.GetRegistry())
}
