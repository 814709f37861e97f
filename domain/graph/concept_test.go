package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConcept_Valid(t *testing.T) {
	c, err := NewConcept("g1", "N1", "  Photosynthesis  ", []string{"main"})
	require.NoError(t, err)
	require.Equal(t, "Photosynthesis", c.Name)
	require.Equal(t, "photosynthesis", c.NormalizedKey)
	require.False(t, c.CreatedAt.IsZero())
}

func TestNewConcept_RejectsMissingFields(t *testing.T) {
	_, err := NewConcept("", "N1", "x", []string{"main"})
	require.Error(t, err)

	_, err = NewConcept("g1", "", "x", []string{"main"})
	require.Error(t, err)

	_, err = NewConcept("g1", "N1", "   ", []string{"main"})
	require.Error(t, err)

	_, err = NewConcept("g1", "N1", "x", nil)
	require.Error(t, err)
}

func TestConcept_ValidateMerge(t *testing.T) {
	c := &Concept{NodeID: "N1"}
	require.NoError(t, c.ValidateMerge(), "unmerged concept has nothing to validate")

	c.IsMerged = true
	require.Error(t, c.ValidateMerge(), "merged concept requires merged_into")

	c.MergedInto = "N1"
	require.Error(t, c.ValidateMerge(), "cannot merge into itself")

	c.MergedInto = "N2"
	require.NoError(t, c.ValidateMerge())
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Photosynthesis":       "photosynthesis",
		"  Machine  Learning ": "machine learning",
		"C++ Programming!":     "c programming",
		"Multi-word_Concept":   "multi word_concept",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeName(in), "input %q", in)
	}
}

func TestNormalizeName_IdenticalInputsCollide(t *testing.T) {
	require.Equal(t, NormalizeName("Neural Network"), NormalizeName("neural   network"))
}

func TestBlockingKey(t *testing.T) {
	require.Equal(t, "pho", BlockingKey("photosynthesis"))
	require.Equal(t, "ai", BlockingKey("ai"))
	require.Equal(t, "", BlockingKey(""))
}
