package graph

import (
	"time"

	"substrate/domain/apperr"
)

// Quote is a verbatim excerpt lifted from a SourceChunk, anchored by offsets
// so it can be re-located if the chunk is re-normalized.
type Quote struct {
	QuoteID     string // Q<hex16>
	GraphID     string
	ChunkID     string
	Text        string
	StartOffset int
	EndOffset   int
	CreatedAt   time.Time
}

func NewQuote(graphID, quoteID, chunkID, text string, start, end int) (*Quote, error) {
	if graphID == "" || quoteID == "" || chunkID == "" {
		return nil, apperr.Invalid("quote requires graph_id, quote_id, chunk_id")
	}
	if text == "" {
		return nil, apperr.Invalid("quote requires non-empty text")
	}
	if start < 0 || end <= start {
		return nil, apperr.Invalid("quote requires 0 <= start_offset < end_offset")
	}
	return &Quote{
		QuoteID:     quoteID,
		GraphID:     graphID,
		ChunkID:     chunkID,
		Text:        text,
		StartOffset: start,
		EndOffset:   end,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
