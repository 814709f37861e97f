package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunk_ShortTextReturnsSingleChunk(t *testing.T) {
	cfg := DefaultChunkConfig()
	chunks := Chunk("short text", cfg)
	require.Equal(t, []string{"short text"}, chunks)
}

func TestChunk_EmptyTextReturnsNil(t *testing.T) {
	require.Nil(t, Chunk("", DefaultChunkConfig()))
}

func TestChunk_SplitsOnSentenceBoundaryWithinTailWindow(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 20, Overlap: 5, TailWindow: 15}
	text := "First sentence here. Second sentence follows after that."

	chunks := Chunk(text, cfg)
	require.Greater(t, len(chunks), 1)
	require.True(t, strings.HasSuffix(chunks[0], "."), "chunk should break on a sentence terminator, got %q", chunks[0])
}

func TestChunk_OverlapsBetweenWindows(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 20, Overlap: 5, TailWindow: 15}
	text := "First sentence here. Second sentence follows after that."

	chunks := Chunk(text, cfg)
	require.Greater(t, len(chunks), 1)
	// the tail of one chunk should reappear near the head of the next since
	// the cursor steps back by cfg.Overlap chars after each cut.
	require.NotEmpty(t, chunks[1])
	tail := chunks[0][len(chunks[0])-cfg.Overlap:]
	require.True(t, strings.HasPrefix(chunks[1], tail), "next chunk should start with %q, got %q", tail, chunks[1])
}

func TestChunk_FallsBackToHardCutWithoutTerminator(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 10, Overlap: 2, TailWindow: 3}
	text := strings.Repeat("x", 30)

	chunks := Chunk(text, cfg)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), cfg.MaxChars)
	}
}

func TestFindSentenceBreak_PrefersNearestTerminatorInTailWindow(t *testing.T) {
	text := "abc.defghij"
	cut := findSentenceBreak(text, 0, len(text), len(text))
	require.Equal(t, 4, cut)
}

func TestFindSentenceBreak_FallsBackToEndWhenNoTerminator(t *testing.T) {
	text := "abcdefghij"
	cut := findSentenceBreak(text, 0, len(text), 3)
	require.Equal(t, len(text), cut)
}
