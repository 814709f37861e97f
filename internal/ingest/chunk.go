package ingest

import "strings"

// ChunkConfig controls the sliding-window chunker.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
	// TailWindow is how many trailing characters of a candidate window are
	// searched for a sentence terminator before falling back to a hard cut.
	TailWindow int
}

func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MaxChars: 1200, Overlap: 150, TailWindow: 100}
}

var sentenceTerminators = []byte{'.', '!', '?', '\n'}

// Chunk splits normalized text into overlapping windows, preferring to break
// on the nearest sentence terminator within the trailing TailWindow chars of
// each window so chunks don't sever mid-sentence.
func Chunk(text string, cfg ChunkConfig) []string {
	if text == "" {
		return nil
	}
	if len(text) <= cfg.MaxChars {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + cfg.MaxChars
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}
		cut := findSentenceBreak(text, start, end, cfg.TailWindow)
		chunks = append(chunks, strings.TrimSpace(text[start:cut]))
		next := cut - cfg.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

func findSentenceBreak(text string, start, end, tailWindow int) int {
	tailStart := end - tailWindow
	if tailStart < start {
		tailStart = start
	}
	for i := end; i > tailStart; i-- {
		if i >= len(text) {
			continue
		}
		for _, t := range sentenceTerminators {
			if text[i-1] == t {
				return i
			}
		}
	}
	return end
}
