package graph

import (
	"strings"
	"time"

	"substrate/domain/apperr"
)

// Concept is a node in the knowledge graph: a durable idea, entity, or topic
// scoped to exactly one GraphSpace and visible on one or more Branches.
type Concept struct {
	NodeID        string // N<hex8>, globally unique
	GraphID       string
	Name          string
	NormalizedKey string // normalize_name(Name), used for (graph_id, name) node key + blocking
	Description   string
	Tags          []string
	AliasNames    []string
	OnBranches    []string
	IsMerged      bool
	MergedInto    string // NodeID of the surviving concept, set iff IsMerged
	MergedNodeIDs []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewConcept validates and constructs a Concept for insertion. NodeID is
// taken as given — callers generate the ID before persisting.
func NewConcept(graphID, nodeID, name string, branches []string) (*Concept, error) {
	if graphID == "" {
		return nil, apperr.Invalid("concept requires a graph_id")
	}
	if nodeID == "" {
		return nil, apperr.Invalid("concept requires a node_id")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("concept requires a non-empty name")
	}
	if len(branches) == 0 {
		return nil, apperr.Invalid("concept requires at least one branch in on_branches")
	}
	now := time.Now().UTC()
	return &Concept{
		NodeID:        nodeID,
		GraphID:       graphID,
		Name:          name,
		NormalizedKey: NormalizeName(name),
		OnBranches:    branches,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ValidateMerge checks the invariant that IsMerged implies MergedInto names a
// different, live concept.
func (c *Concept) ValidateMerge() error {
	if !c.IsMerged {
		return nil
	}
	if c.MergedInto == "" {
		return apperr.Invalid("merged concept must set merged_into")
	}
	if c.MergedInto == c.NodeID {
		return apperr.Invalid("concept cannot be merged into itself")
	}
	return nil
}

// NormalizeName lowercases, strips punctuation, and collapses whitespace —
// the same normalization used for the (graph_id, name) node key and for
// merge-candidate blocking keys, ported from the original entity-resolution
// normalizer so identical inputs always land on the same key.
func NormalizeName(name string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			if !lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		case isWordRune(r):
			b.WriteRune(r)
			lastWasSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}

// BlockingKey returns the first 3 runes of the normalized name, or the whole
// thing if shorter — the bucket merge-candidate generation groups concepts by
// before computing pairwise similarity.
func BlockingKey(normalizedName string) string {
	r := []rune(normalizedName)
	if len(r) <= 3 {
		return string(r)
	}
	return string(r[:3])
}
