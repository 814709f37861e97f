package retrieval

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/entities"
	"substrate/internal/llm"
	"substrate/internal/scope"
	"substrate/internal/store"
)

// Request is one retrieval call. Intent may be left empty to let the router
// classify Message; callers that already know the intent (e.g. a UI button)
// set it explicitly and skip classification.
type Request struct {
	Message  string
	Intent   Intent
	Filters  Filters
	ClaimID  string // required for evidence_for_claim
	ConceptID string // optional direct anchor, bypasses name resolution
}

// Result is what every plan converges on: a focus set of concepts, the
// claims backing them, the edges connecting them, and the trace of how the
// plan got there.
type Result struct {
	Intent     Intent
	Concepts   []*graph.Concept
	Claims     []ClaimView
	Edges      []entities.Neighbor
	Trace      []TraceStep
	Truncated  bool
}

// ClaimView is a claim plus enough of its evidence chain to cite it.
type ClaimView struct {
	ClaimID    string
	Text       string
	Confidence float64
	Status     graph.ClaimStatus
	ChunkID    string
	ArtifactID string
}

// Service ties intent classification, plan execution, and filtering into a
// single Retrieve entry point.
type Service struct {
	store    *store.Store
	entities *entities.Service
	router   *IntentRouter
	index    *EmbeddingIndex
	embedder llm.Embedder
}

func NewService(s *store.Store, ent *entities.Service, router *IntentRouter, index *EmbeddingIndex, embedder llm.Embedder) *Service {
	return &Service{store: s, entities: ent, router: router, index: index, embedder: embedder}
}

// Retrieve classifies (unless Intent is pre-set), dispatches to the matching
// plan, and applies Filters uniformly to the plan's output.
func (svc *Service) Retrieve(ctx context.Context, sc scope.Context, req Request) (*Result, error) {
	trace := NewTrace(req.Filters.DetailLevel)
	intent := req.Intent
	if intent == "" {
		c, err := svc.router.Classify(ctx, req.Message)
		if err != nil {
			return nil, err
		}
		intent = c.Intent
		trace.Append("classify_intent", map[string]any{"message": req.Message}, map[string]int{"confidence_pct": int(c.Confidence * 100)})
	}

	var (
		res *Result
		err error
	)
	switch intent {
	case IntentConceptLookup:
		res, err = svc.planConceptLookup(ctx, sc, req, trace)
	case IntentSemanticSearch:
		res, err = svc.planSemanticSearch(ctx, sc, req, trace)
	case IntentTickerQuery:
		res, err = svc.planTickerQuery(ctx, sc, req, trace)
	case IntentCommunitySummary:
		res, err = svc.planCommunitySummary(ctx, sc, req, trace)
	case IntentEvidenceForClaim:
		res, err = svc.planEvidenceForClaim(ctx, sc, req, trace)
	default:
		res, err = svc.planConceptLookup(ctx, sc, req, trace)
	}
	if err != nil {
		return nil, err
	}
	res.Intent = intent
	svc.applyCaps(res, req.Filters)
	res.Trace = trace.Steps()
	return res, nil
}

// applyCaps truncates a plan's output to the detail level's Caps, marking
// Truncated when anything was cut.
func (svc *Service) applyCaps(res *Result, f Filters) {
	caps := CapsFor(f.DetailLevel)
	if f.FocusEntitiesOverride > 0 {
		caps.FocusEntities = f.FocusEntitiesOverride
	}
	if f.ClaimsOverride > 0 {
		caps.Claims = f.ClaimsOverride
	}
	if f.SourcesOverride > 0 {
		caps.Sources = f.SourcesOverride
	}
	if len(res.Concepts) > caps.FocusEntities {
		res.Concepts = res.Concepts[:caps.FocusEntities]
		res.Truncated = true
	}
	if len(res.Claims) > caps.Claims {
		res.Claims = res.Claims[:caps.Claims]
		res.Truncated = true
	}
	for i := range res.Claims {
		if len(res.Claims[i].Text) > caps.ClaimCharLimit {
			res.Claims[i].Text = res.Claims[i].Text[:caps.ClaimCharLimit]
			res.Truncated = true
		}
	}
	if len(res.Edges) > caps.Edges {
		res.Edges = res.Edges[:caps.Edges]
		res.Truncated = true
	}
}

func includeProposedFrom(f Filters) scope.IncludeProposed {
	switch f.IncludeProposedEdges {
	case "true":
		return scope.IncludeProposedTrue
	case "false":
		return scope.IncludeProposedFalse
	default:
		return scope.IncludeProposedAuto
	}
}

// planConceptLookup resolves an exact concept by id or name, then pulls its
// 1-hop ACCEPTED neighborhood (spec §4.6).
func (svc *Service) planConceptLookup(ctx context.Context, sc scope.Context, req Request, trace *Trace) (*Result, error) {
	conceptID := req.ConceptID
	if conceptID == "" {
		id, found := svc.entities.ResolveConceptIDByName(ctx, sc, req.Message)
		if !found {
			trace.Append("resolve_concept_by_name", map[string]any{"name": req.Message}, map[string]int{"found": 0})
			return &Result{}, nil
		}
		conceptID = id
	}
	concept, err := svc.entities.GetConcept(ctx, sc, conceptID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return &Result{}, nil
		}
		return nil, err
	}
	trace.Append("get_concept", map[string]any{"node_id": conceptID}, map[string]int{"found": 1})

	neighbors, err := svc.entities.GetNeighbors(ctx, sc, conceptID, includeProposedFrom(req.Filters), CapsFor(req.Filters.DetailLevel).Edges)
	if err != nil {
		return nil, err
	}
	trace.Append("get_neighbors", map[string]any{"node_id": conceptID}, map[string]int{"neighbors": len(neighbors)})

	concepts := []*graph.Concept{concept}
	for _, n := range neighbors {
		concepts = append(concepts, n.Concept)
	}
	return &Result{Concepts: concepts, Edges: neighbors}, nil
}

// planSemanticSearch embeds the query, pulls the top-K nearest concepts by
// cosine distance from the pgvector index, then expands each one hop.
func (svc *Service) planSemanticSearch(ctx context.Context, sc scope.Context, req Request, trace *Trace) (*Result, error) {
	if svc.embedder == nil || svc.index == nil {
		return nil, apperr.Unavailable("semantic search requires an embedder and embedding index")
	}
	vector, err := svc.embedder.Embed(ctx, req.Message)
	if err != nil {
		return nil, apperr.Unavailable("embedding failed: " + err.Error())
	}
	k := CapsFor(req.Filters.DetailLevel).FocusEntities
	ids, err := svc.index.TopK(ctx, sc.GraphID, vector, k)
	if err != nil {
		return nil, apperr.Unavailable("embedding index query failed: " + err.Error())
	}
	trace.Append("vector_topk", map[string]any{"k": k}, map[string]int{"matches": len(ids)})

	var concepts []*graph.Concept
	var edges []entities.Neighbor
	for _, id := range ids {
		c, err := svc.entities.GetConcept(ctx, sc, id)
		if err != nil {
			continue // a stale embedding row outliving its concept is not fatal
		}
		concepts = append(concepts, c)
		nb, err := svc.entities.GetNeighbors(ctx, sc, id, includeProposedFrom(req.Filters), 10)
		if err == nil {
			edges = append(edges, nb...)
		}
	}
	trace.Append("expand_neighbors", nil, map[string]int{"edges": len(edges)})
	return &Result{Concepts: concepts, Edges: edges}, nil
}

// planTickerQuery anchors on a Company concept by ticker, walks to its
// Community, and pulls the community's claims filtered by strictness and
// recency (spec §4.6 ticker_query).
func (svc *Service) planTickerQuery(ctx context.Context, sc scope.Context, req Request, trace *Trace) (*Result, error) {
	ticker := extractTicker(req.Message)
	if ticker == "" {
		return &Result{}, nil
	}
	floor := ConfidenceFloor(req.Filters.Strictness)
	res, err := svc.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (company:Concept {graph_id: $graph_id, ticker: $ticker})
			WHERE $branch_id IN coalesce(company.on_branches, []) AND coalesce(company.is_merged, false) = false
			OPTIONAL MATCH (company)-[:MEMBER_OF]->(comm:Community)
			OPTIONAL MATCH (claim:Claim)-[:MENTIONS]->(company)
			WHERE claim.confidence >= $floor AND coalesce(claim.status, 'ACCEPTED') = 'ACCEPTED'
			RETURN company, comm, collect(DISTINCT claim) AS claims
			LIMIT 1`,
			map[string]any{"graph_id": sc.GraphID, "branch_id": sc.BranchID, "ticker": ticker, "floor": floor})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, nil
		}
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	trace.Append("ticker_anchor", map[string]any{"ticker": ticker}, map[string]int{"floor_pct": int(floor * 100)})
	if res == nil {
		return &Result{}, nil
	}
	record := res.(*neo4j.Record)
	companyNode, _ := record.Get("company")
	concepts := []*graph.Concept{conceptFromEntities(companyNode.(neo4j.Node))}
	claimsRaw, _ := record.Get("claims")
	var claims []ClaimView
	for _, c := range claimsRaw.([]any) {
		if node, ok := c.(neo4j.Node); ok {
			claims = append(claims, claimViewFromNode(node))
		}
	}
	trace.Append("collect_community_claims", nil, map[string]int{"claims": len(claims)})
	return &Result{Concepts: concepts, Claims: claims}, nil
}

// planCommunitySummary fetches a Community node by id or best-effort name
// match and returns its member concepts as the focus set.
func (svc *Service) planCommunitySummary(ctx context.Context, sc scope.Context, req Request, trace *Trace) (*Result, error) {
	res, err := svc.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (comm:Community {graph_id: $graph_id})
			WHERE toLower(comm.label) CONTAINS toLower($query) OR comm.community_id = $query
			OPTIONAL MATCH (member:Concept)-[:MEMBER_OF]->(comm)
			RETURN comm, collect(member) AS members
			LIMIT 1`,
			map[string]any{"graph_id": sc.GraphID, "query": req.Message})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, nil
		}
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		trace.Append("find_community", map[string]any{"query": req.Message}, map[string]int{"found": 0})
		return &Result{}, nil
	}
	record := res.(*neo4j.Record)
	membersRaw, _ := record.Get("members")
	var concepts []*graph.Concept
	for _, m := range membersRaw.([]any) {
		if node, ok := m.(neo4j.Node); ok {
			concepts = append(concepts, conceptFromEntities(node))
		}
	}
	trace.Append("find_community", map[string]any{"query": req.Message}, map[string]int{"members": len(concepts)})
	return &Result{Concepts: concepts}, nil
}

// planEvidenceForClaim walks from a claim back to its chunk, artifact, and
// the concepts it mentions, for "what's the source for X" queries.
func (svc *Service) planEvidenceForClaim(ctx context.Context, sc scope.Context, req Request, trace *Trace) (*Result, error) {
	if req.ClaimID == "" {
		return nil, apperr.Invalid("evidence_for_claim requires a claim id")
	}
	res, err := svc.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (claim:Claim {graph_id: $graph_id, claim_id: $claim_id})
			OPTIONAL MATCH (claim)-[:SUPPORTED_BY]->(chunk:SourceChunk)
			OPTIONAL MATCH (chunk)-[:CHUNK_OF]->(artifact:SourceDocument)
			OPTIONAL MATCH (claim)-[:MENTIONS]->(concept:Concept)
			RETURN claim, chunk, artifact, collect(concept) AS concepts`,
			map[string]any{"graph_id": sc.GraphID, "claim_id": req.ClaimID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, nil
		}
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.NotFound("claim not found: " + req.ClaimID)
	}
	record := res.(*neo4j.Record)
	claimNode, _ := record.Get("claim")
	claim := claimViewFromNode(claimNode.(neo4j.Node))
	if chunkNode, ok := record.Get("chunk"); ok && chunkNode != nil {
		if n, ok := chunkNode.(neo4j.Node); ok {
			claim.ChunkID, _ = n.Props["chunk_id"].(string)
		}
	}
	if artifactNode, ok := record.Get("artifact"); ok && artifactNode != nil {
		if n, ok := artifactNode.(neo4j.Node); ok {
			claim.ArtifactID, _ = n.Props["artifact_id"].(string)
		}
	}
	conceptsRaw, _ := record.Get("concepts")
	var concepts []*graph.Concept
	for _, c := range conceptsRaw.([]any) {
		if node, ok := c.(neo4j.Node); ok {
			concepts = append(concepts, conceptFromEntities(node))
		}
	}
	trace.Append("evidence_chain", map[string]any{"claim_id": req.ClaimID}, map[string]int{"concepts": len(concepts)})
	return &Result{Claims: []ClaimView{claim}, Concepts: concepts}, nil
}
