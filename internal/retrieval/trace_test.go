package retrieval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrace_FullDetailNeverTruncates(t *testing.T) {
	tr := NewTrace(DetailFull)
	for i := 0; i < 15; i++ {
		tr.Append("step", nil, nil)
	}
	require.Len(t, tr.Steps(), 15)
}

func TestTrace_SummaryTruncatesAfterTenSteps(t *testing.T) {
	tr := NewTrace(DetailSummary)
	for i := 0; i < 15; i++ {
		tr.Append("step", nil, nil)
	}
	steps := tr.Steps()
	require.Len(t, steps, 11)
	require.Equal(t, "summary_truncated", steps[10].Step)
}

func TestTrace_StopsAppendingAfterTruncation(t *testing.T) {
	tr := NewTrace(DetailSummary)
	for i := 0; i < 20; i++ {
		tr.Append("step", nil, nil)
	}
	require.Len(t, tr.Steps(), 11, "no further steps should be appended once truncated")
}

func TestExtractTicker_MatchesPrefixedTicker(t *testing.T) {
	require.Equal(t, "AAPL", extractTicker("AAPL: latest guidance"))
}

func TestExtractTicker_FallsBackToBareToken(t *testing.T) {
	require.Equal(t, "TSLA", extractTicker("what about TSLA this quarter"))
}

func TestExtractTicker_NoMatchReturnsEmpty(t *testing.T) {
	require.Equal(t, "", extractTicker("no ticker mentioned here"))
}
