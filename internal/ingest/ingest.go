// Package ingest implements the single entry point through which any
// artifact kind (web, PDF, Notion, finance, image, selection) enters the
// graph: normalize → hash → dedupe → chunk → extract claims → link mentions
// → emit change events. One pipeline for every artifact kind; routing per
// kind lives at the connector edges that fill ArtifactInput, never here.
package ingest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/entities"
	"substrate/internal/llm"
	"substrate/internal/scope"
	"substrate/internal/snapshots"
)

// ArtifactInput is the tagged-variant payload every connector fills before
// calling Ingest. Fields unused by a given artifact_type are left zero.
type ArtifactInput struct {
	ArtifactType  graph.ArtifactKind
	SourceURL     string
	SourceID      string // connector-specific external id (e.g. EDGAR accession)
	Title         string
	Domain        string
	Text          string
	RawHTML       string
	SelectionText string
	Metadata      map[string]any
	Actions       Actions
	Policy        Policy
}

// Actions toggles which pipeline steps run for this input.
type Actions struct {
	RunLectureExtraction bool
	RunChunkAndClaims    bool
	EmbedClaims          bool
	CreateArtifactNode   bool
	CreateLectureNode    bool
}

// Policy gates pre-flight acceptance of the input.
type Policy struct {
	LocalOnly       bool
	MaxChars        int
	MinChars        int
	StripURLQuery   bool
	DenylistDomains []string
}

// Status is the terminal state of one Ingest call.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusPartial   Status = "PARTIAL"
	StatusSkipped   Status = "SKIPPED"
	StatusFailed    Status = "FAILED"
)

// Result is the structured outcome every Ingest call returns — never an
// exception, per spec §9's "Result<IngestionResult, IngestionError>" design
// note.
type Result struct {
	RunID          string
	Status         Status
	Reason         string
	SummaryCounts  map[string]int
	Errors         []string
	ArtifactID     string
	NodesCreated   int
	LinksCreated   int
}

// Pipeline is the ingestion kernel.
type Pipeline struct {
	entities  *entities.Service
	snapshots *snapshots.Service
	collab    llm.Collaborator
	log       *zap.Logger
}

func NewPipeline(e *entities.Service, s *snapshots.Service, collab llm.Collaborator, log *zap.Logger) *Pipeline {
	return &Pipeline{entities: e, snapshots: s, collab: collab, log: log}
}

func newID(prefix string, n int) string {
	buf := make([]byte, n/2)
	_, _ = rand.Read(buf)
	return prefix + hex.EncodeToString(buf)
}

// Ingest runs one artifact through the kernel. It never panics or returns a
// bare error for an expected skip/partial outcome — those are encoded in
// Result.Status.
func (p *Pipeline) Ingest(ctx context.Context, sc scope.Context, in ArtifactInput) (*Result, error) {
	runID := newID("RUN_", 12)
	result := &Result{RunID: runID, SummaryCounts: map[string]int{}}

	if err := ctx.Err(); err != nil {
		return nil, apperr.Canceled("ingest canceled before start")
	}

	// 2. Canonicalize identity + compute content hash.
	canonicalURL := in.SourceURL
	if canonicalURL != "" {
		canon, err := graph.CanonicalizeURL(canonicalURL)
		if err == nil {
			canonicalURL = canon
		}
		if in.Policy.StripURLQuery {
			if idx := strings.Index(canonicalURL, "?"); idx >= 0 {
				canonicalURL = canonicalURL[:idx]
			}
		}
	}
	normalized := snapshots.Normalize(sourceTypeFor(in.ArtifactType), in.Text, in.RawHTML)
	contentHash := snapshots.ContentHash(normalized)

	// 3. Policy gates.
	if host := hostOf(canonicalURL); host != "" && contains(in.Policy.DenylistDomains, host) {
		result.Status = StatusSkipped
		result.Reason = "denylisted_domain"
		return result, nil
	}
	textLen := len(in.Text)
	if in.Policy.MinChars > 0 && textLen < in.Policy.MinChars {
		result.Status = StatusSkipped
		result.Reason = "below_min_chars"
		return result, nil
	}
	if in.Policy.MaxChars > 0 && textLen > in.Policy.MaxChars {
		result.Status = StatusSkipped
		result.Reason = "above_max_chars"
		return result, nil
	}

	// 4. SourceDocument upsert.
	sourceID := in.SourceID
	if sourceID == "" {
		sourceID = newID("SRC_", 12)
	}

	// 5. Snapshot + ChangeEvent.
	snapRes, err := p.snapshots.CreateOrGetSnapshot(ctx, sc, sourceID, canonicalURL, sourceTypeFor(in.ArtifactType), in.Text, in.RawHTML, snapshots.Metadata{
		IsAmendment:     boolMeta(in.Metadata, "is_amendment"),
		AmendsAccession: stringMeta(in.Metadata, "amends_accession"),
	})
	if err != nil {
		return nil, err
	}
	if snapRes.ChangeEvent == nil {
		result.Status = StatusSkipped
		result.Reason = "already_ingested"
		return result, nil
	}

	var errs []string
	nodesCreated, linksCreated := 0, 0

	// 6. Artifact upsert.
	if in.Actions.CreateArtifactNode {
		artifactID := newID("ART_", 12)
		artifact, err := graph.NewArtifact(sc.GraphID, artifactID, in.ArtifactType, canonicalURL, contentHash)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			artifact.Title = in.Title
			if err := p.entities.CreateArtifact(ctx, sc, artifact); err != nil {
				errs = append(errs, err.Error())
			} else {
				result.ArtifactID = artifactID
				nodesCreated++
			}
			if in.SelectionText != "" {
				quoteID := "Q" + deriveQuoteSuffix(artifactID, 0, "", in.SelectionText)
				if quote, err := graph.NewQuote(sc.GraphID, quoteID, sourceID, in.SelectionText, 0, len(in.SelectionText)); err != nil {
					errs = append(errs, err.Error())
				} else if err := p.entities.CreateQuote(ctx, sc, quote); err != nil {
					errs = append(errs, err.Error())
				} else {
					nodesCreated++
				}
			}
		}
	}

	chunksCreated, claimsCreated := 0, 0
	if in.Actions.RunChunkAndClaims {
		if doc, err := graph.NewSourceDocument(sc.GraphID, sourceID, result.ArtifactID, in.Title); err != nil {
			errs = append(errs, err.Error())
		} else if err := p.entities.CreateSourceDocument(ctx, sc, doc); err != nil {
			errs = append(errs, err.Error())
		}

		chunks := Chunk(normalized, DefaultChunkConfig())
		for idx, chunkText := range chunks {
			chunkID := newID("CHUNK_", 12)
			chunk, err := graph.NewSourceChunk(sc.GraphID, chunkID, sourceID, idx, chunkText, snapshots.ContentHash(chunkText))
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			if err := p.entities.CreateSourceChunk(ctx, sc, chunk); err != nil {
				errs = append(errs, err.Error())
				continue
			}
			chunksCreated++
			claims, err := p.extractClaims(ctx, chunk)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			for _, claim := range claims {
				var conceptIDs []string
				for _, name := range claim.MentionedConceptNames {
					mentionName := strings.ToLower(strings.TrimSpace(name))
					if id, ok := p.entities.ResolveConceptIDByName(ctx, sc, mentionName); ok {
						conceptIDs = append(conceptIDs, id)
					}
				}
				claimID := newID("CLAIM_", 8)
				if err := p.entities.CreateClaim(ctx, sc, claimID, chunk.ChunkID, claim.Text, claim.Confidence, conceptIDs); err != nil {
					errs = append(errs, err.Error())
					continue
				}
				claimsCreated++
				linksCreated += len(conceptIDs)
			}
		}
	}

	result.SummaryCounts["chunks_created"] = chunksCreated
	result.SummaryCounts["claims_created"] = claimsCreated
	result.NodesCreated = nodesCreated
	result.LinksCreated = linksCreated
	result.Errors = errs

	switch {
	case len(errs) > 0:
		result.Status = StatusPartial
	default:
		result.Status = StatusCompleted
	}
	return result, nil
}

func (p *Pipeline) extractClaims(ctx context.Context, chunk *graph.SourceChunk) ([]llm.ExtractedClaim, error) {
	if p.collab == nil {
		return nil, nil
	}
	claims, err := p.collab.ExtractClaims(ctx, chunk.Text)
	if err != nil {
		p.log.Warn("claim extraction failed", zap.String("chunk_id", chunk.ChunkID), zap.Error(err))
		return nil, err // non-fatal: PARTIAL, not FAILED
	}
	return claims, nil
}

func sourceTypeFor(kind graph.ArtifactKind) snapshots.SourceType {
	switch kind {
	case graph.ArtifactFinance:
		return snapshots.SourceEDGAR
	default:
		return snapshots.SourceWeb
	}
}

func hostOf(rawURL string) string {
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return ""
	}
	rest := rawURL[idx+3:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return strings.ToLower(rest)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func boolMeta(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func stringMeta(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func deriveQuoteSuffix(artifactID string, index int, anchor, text string) string {
	h := snapshots.ContentHash(artifactID + string(rune(index)) + anchor + text)
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
