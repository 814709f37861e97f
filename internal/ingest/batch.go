package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"substrate/internal/scope"
)

// BatchResult is the outer IngestionRun wrapping one inner Result per
// document — finance batch ingest and notion-sync create one outer run per
// batch plus one inner per document, per spec §4.4.
type BatchResult struct {
	RunID   string
	Inner   []*Result
	Errors  []error
}

// IngestBatch fans out a batch of documents (finance filings, Notion pages)
// across bounded concurrent workers, each operating on its own scoped call
// into the kernel — no shared mutable state outside the store, per spec §9.
func (p *Pipeline) IngestBatch(ctx context.Context, sc scope.Context, inputs []ArtifactInput, concurrency int) (*BatchResult, error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	runID := newID("BATCHRUN_", 12)
	results := make([]*Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			res, err := p.Ingest(gctx, sc, in)
			if err != nil {
				results[i] = &Result{Status: StatusFailed, Errors: []string{err.Error()}}
				return nil // per-item failure never aborts the batch (spec §7)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &BatchResult{RunID: runID, Inner: results}, nil
}
