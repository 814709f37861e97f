package entities

import (
	"context"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/graph"
	"substrate/internal/scope"
)

// ScoreThreshold is the minimum hybrid score a pair must reach to become a
// MergeCandidate.
const ScoreThreshold = 0.82

// TopKPerNode caps how many of its own highest-scoring pairs each concept
// keeps; a concept can still appear in pairs kept by other concepts.
const TopKPerNode = 3

// PairsSafetyCap bounds total pairwise comparisons per generation run.
const PairsSafetyCap = 3000

// Embedder is the narrow port generateMergeCandidates uses for the
// embedding half of the hybrid score; nil means embeddings are unavailable
// and scoring falls back to string similarity alone.
type Embedder interface {
	CosineSimilarity(ctx context.Context, textA, textB string) (float64, bool)
}

type blockedConcept struct {
	NodeID      string
	Name        string
	Description string
	Tags        []string
	Normalized  string
}

// GenerateMergeCandidates blocks live concepts by a 3-char normalized-name
// prefix, scores all pairs within a block with a hybrid string+embedding
// score, and upserts the top-K candidates per node above ScoreThreshold.
// Ported from the original entity-resolution service's
// generate_merge_candidates, including its deterministic candidate_id and
// pairs safety cap.
func (s *Service) GenerateMergeCandidates(ctx context.Context, sc scope.Context, embedder Embedder) (int, error) {
	concepts, err := s.fetchAllLiveConcepts(ctx, sc)
	if err != nil {
		return 0, err
	}

	blocks := make(map[string][]blockedConcept)
	for _, c := range concepts {
		key := graph.BlockingKey(c.Normalized)
		blocks[key] = append(blocks[key], c)
	}

	type scoredPair struct {
		a, b   blockedConcept
		score  float64
		method graph.MergeCandidateMethod
	}
	bestPerNode := make(map[string][]scoredPair)
	pairsEvaluated := 0

blockLoop:
	for _, block := range blocks {
		for i := 0; i < len(block); i++ {
			for j := i + 1; j < len(block); j++ {
				if pairsEvaluated >= PairsSafetyCap {
					break blockLoop
				}
				pairsEvaluated++
				score, method := hybridScore(ctx, block[i], block[j], embedder)
				if score < ScoreThreshold {
					continue
				}
				pair := scoredPair{a: block[i], b: block[j], score: score, method: method}
				bestPerNode[block[i].NodeID] = append(bestPerNode[block[i].NodeID], pair)
				bestPerNode[block[j].NodeID] = append(bestPerNode[block[j].NodeID], pair)
			}
		}
	}

	created := 0
	seen := make(map[string]bool)
	for _, pairs := range bestPerNode {
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
		if len(pairs) > TopKPerNode {
			pairs = pairs[:TopKPerNode]
		}
		for _, p := range pairs {
			candidateID, srcID, dstID := graph.NewMergeCandidateID(sc.GraphID, p.a.NodeID, p.b.NodeID)
			if seen[candidateID] {
				continue
			}
			seen[candidateID] = true
			rationale := rationaleFor(p.method, p.score)
			if err := s.upsertMergeCandidate(ctx, sc, candidateID, srcID, dstID, p.score, p.method, rationale); err != nil {
				continue // best-effort, matching original's per-candidate try/except
			}
			created++
		}
	}
	return created, nil
}

func hybridScore(ctx context.Context, a, b blockedConcept, embedder Embedder) (float64, graph.MergeCandidateMethod) {
	strScore := stringSimilarity(a, b)
	if embedder != nil {
		textA := a.Name + " " + a.Description + " " + strings.Join(a.Tags, " ")
		textB := b.Name + " " + b.Description + " " + strings.Join(b.Tags, " ")
		if embScore, ok := embedder.CosineSimilarity(ctx, textA, textB); ok {
			return 0.4*strScore + 0.6*embScore, graph.MergeMethodHybrid
		}
	}
	return strScore, graph.MergeMethodString
}

// stringSimilarity uses Jaro-Winkler over the normalized names as the
// token-set-ratio analogue (matchr has no direct token-set-ratio; Jaro-Winkler
// is the corpus's closest distance metric for near-duplicate short strings).
func stringSimilarity(a, b blockedConcept) float64 {
	return matchr.JaroWinkler(a.Normalized, b.Normalized, true)
}

func rationaleFor(method graph.MergeCandidateMethod, score float64) string {
	if method == graph.MergeMethodHybrid {
		return "hybrid string+embedding similarity"
	}
	return "string similarity only (embeddings unavailable)"
}

func (s *Service) fetchAllLiveConcepts(ctx context.Context, sc scope.Context) ([]blockedConcept, error) {
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (c:Concept {graph_id: $graph_id})
			WHERE coalesce(c.is_merged, false) = false
			RETURN c.node_id AS node_id, c.name AS name, coalesce(c.description, '') AS description,
				coalesce(c.tags, []) AS tags, c.normalized_key AS normalized_key`,
			map[string]any{"graph_id": sc.GraphID})
		if err != nil {
			return nil, err
		}
		var out []blockedConcept
		for result.Next(ctx) {
			record := result.Record()
			nodeID, _ := record.Get("node_id")
			name, _ := record.Get("name")
			desc, _ := record.Get("description")
			tagsRaw, _ := record.Get("tags")
			normalized, _ := record.Get("normalized_key")
			var tags []string
			if arr, ok := tagsRaw.([]any); ok {
				for _, t := range arr {
					if ts, ok := t.(string); ok {
						tags = append(tags, ts)
					}
				}
			}
			out = append(out, blockedConcept{
				NodeID: nodeID.(string), Name: name.(string), Description: desc.(string),
				Tags: tags, Normalized: normalized.(string),
			})
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]blockedConcept), nil
}

func (s *Service) upsertMergeCandidate(ctx context.Context, sc scope.Context, candidateID, srcID, dstID string, score float64, method graph.MergeCandidateMethod, rationale string) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			MATCH (a:Concept {graph_id: $graph_id, node_id: $src_id})
			MATCH (b:Concept {graph_id: $graph_id, node_id: $dst_id})
			MERGE (m:MergeCandidate {graph_id: $graph_id, candidate_id: $candidate_id})
			ON CREATE SET m.src_node_id = $src_id, m.dst_node_id = $dst_id, m.score = $score,
				m.method = $method, m.rationale = $rationale, m.status = 'PROPOSED', m.created_at = timestamp()
			ON MATCH SET m.score = $score, m.method = $method, m.rationale = $rationale
			MERGE (m)-[:BELONGS_TO]->(g)
			MERGE (m)-[:MERGE_SRC]->(a)
			MERGE (m)-[:MERGE_DST]->(b)`,
			map[string]any{
				"graph_id": sc.GraphID, "candidate_id": candidateID, "src_id": srcID, "dst_id": dstID,
				"score": score, "method": string(method), "rationale": rationale,
			})
	})
	return err
}
