// Package sync applies the offline client outbox: a closed set of event
// types, deduplicated against the graph store and dispatched to handlers
// that each re-derive graph state idempotently. Spec §4.8.
package sync

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/internal/ingest"
	"substrate/internal/scope"
	"substrate/internal/store"
)

// EventType is the closed set of recognized sync events.
type EventType string

const (
	EventArtifactIngest  EventType = "artifact.ingest"
	EventResourceCreate  EventType = "resource.create"
	EventResourceLink    EventType = "resource.link"
	EventTrailStepAppend EventType = "trail.step.append"
)

// ClientEvent is one outbox entry a client replays during reconnect.
type ClientEvent struct {
	EventID     string
	GraphID     string
	BranchID    string
	Type        EventType
	Payload     map[string]any
	CreatedAtMs int64
}

// EventResult is the per-event outcome a batch apply call returns.
type EventResult struct {
	EventID string
	Status  string // "applied" | "duplicate" | "error"
	Detail  string
	Output  map[string]any
}

// Service applies sync batches against the property graph.
type Service struct {
	store    *store.Store
	scopeRes *scope.Resolver
	ingest   *ingest.Pipeline
}

func NewService(s *store.Store, scopeRes *scope.Resolver, pipeline *ingest.Pipeline) *Service {
	return &Service{store: s, scopeRes: scopeRes, ingest: pipeline}
}

// ApplyBatch applies every event independently: one event's failure never
// aborts the batch (mirrors the original's per-event try/except), and the
// dedupe gate makes each event_id apply at most once regardless of retries.
func (s *Service) ApplyBatch(ctx context.Context, tenantID string, events []ClientEvent) []EventResult {
	results := make([]EventResult, 0, len(events))
	for _, ev := range events {
		results = append(results, s.applyOne(ctx, tenantID, ev))
	}
	return results
}

func (s *Service) applyOne(ctx context.Context, tenantID string, ev ClientEvent) EventResult {
	if err := s.scopeRes.EnsureGraph(ctx, tenantID, ev.GraphID); err != nil {
		return EventResult{EventID: ev.EventID, Status: "error", Detail: err.Error()}
	}
	if err := s.scopeRes.EnsureBranch(ctx, ev.GraphID, ev.BranchID); err != nil {
		return EventResult{EventID: ev.EventID, Status: "error", Detail: err.Error()}
	}

	shouldApply, err := s.gate(ctx, ev)
	if err != nil {
		return EventResult{EventID: ev.EventID, Status: "error", Detail: err.Error()}
	}
	if !shouldApply {
		return EventResult{EventID: ev.EventID, Status: "duplicate"}
	}

	sc := scope.Context{TenantID: tenantID, GraphID: ev.GraphID, BranchID: ev.BranchID}
	output, err := s.dispatch(ctx, sc, ev)
	if err != nil {
		if markErr := s.markErrored(ctx, ev, err.Error()); markErr != nil {
			return EventResult{EventID: ev.EventID, Status: "error", Detail: markErr.Error()}
		}
		return EventResult{EventID: ev.EventID, Status: "error", Detail: err.Error()}
	}
	if err := s.markApplied(ctx, ev, output); err != nil {
		return EventResult{EventID: ev.EventID, Status: "error", Detail: err.Error()}
	}
	return EventResult{EventID: ev.EventID, Status: "applied", Output: output}
}

// gate upserts a ClientEvent node keyed by (graph_id, event_id); it returns
// true only when this call created the node, i.e. the event has never been
// seen before (spec §4.8 "Dedupe gate" — conservative: any pre-existing row,
// applied or not, is treated as a duplicate to avoid partial-replay
// corruption).
func (s *Service) gate(ctx context.Context, ev ClientEvent) (bool, error) {
	res, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MERGE (e:ClientEvent {graph_id: $graph_id, event_id: $event_id})
			ON CREATE SET e.type = $type, e.branch_id = $branch_id, e.created_at_ms = $created_at_ms,
				e.received_at = timestamp(), e.applied = false
			RETURN e.applied AS applied, e.received_at = timestamp() AS just_created`,
			map[string]any{
				"graph_id": ev.GraphID, "event_id": ev.EventID, "type": string(ev.Type),
				"branch_id": ev.BranchID, "created_at_ms": ev.CreatedAtMs,
			})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return false, nil
		}
		justCreated, _ := record.Get("just_created")
		created, _ := justCreated.(bool)
		return created, nil
	})
	if err != nil {
		return false, apperr.Wrap(err, "sync: dedupe gate")
	}
	return res.(bool), nil
}

func (s *Service) markApplied(ctx context.Context, ev ClientEvent, output map[string]any) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (e:ClientEvent {graph_id: $graph_id, event_id: $event_id})
			SET e.applied = true, e.applied_at = timestamp(), e.output_json = $output_json`,
			map[string]any{"graph_id": ev.GraphID, "event_id": ev.EventID, "output_json": toJSONOrEmpty(output)})
	})
	return err
}

func (s *Service) markErrored(ctx context.Context, ev ClientEvent, detail string) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (e:ClientEvent {graph_id: $graph_id, event_id: $event_id})
			SET e.applied = false, e.error_detail = $detail, e.last_attempt_at = timestamp()`,
			map[string]any{"graph_id": ev.GraphID, "event_id": ev.EventID, "detail": detail})
	})
	return err
}

func (s *Service) dispatch(ctx context.Context, sc scope.Context, ev ClientEvent) (map[string]any, error) {
	switch ev.Type {
	case EventArtifactIngest:
		return s.handleArtifactIngest(ctx, sc, ev)
	case EventResourceCreate:
		return s.handleResourceCreate(ctx, sc, ev)
	case EventResourceLink:
		return s.handleResourceLink(ctx, sc, ev)
	case EventTrailStepAppend:
		return s.handleTrailStepAppend(ctx, sc, ev)
	default:
		return nil, apperr.Invalid("unknown sync event type: " + string(ev.Type))
	}
}
