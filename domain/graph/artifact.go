package graph

import (
	"net/url"
	"strings"
	"time"

	"substrate/domain/apperr"
)

// ArtifactKind distinguishes the ingestion surfaces a raw source can arrive
// through; IngestionActions below gate what each kind is permitted to do
// rather than branching on kind throughout the ingest pipeline.
type ArtifactKind string

const (
	ArtifactWeb    ArtifactKind = "WEB"
	ArtifactPDF    ArtifactKind = "PDF"
	ArtifactNotion ArtifactKind = "NOTION"
	ArtifactFinance ArtifactKind = "FINANCE"
	ArtifactImage  ArtifactKind = "IMAGE"
)

// IngestionActions are capability flags an ArtifactInput advertises to the
// ingestion kernel, replacing a type-switch over ArtifactKind inside the
// pipeline itself.
type IngestionActions struct {
	ExtractClaims   bool
	ExtractQuotes   bool
	RequiresOCR     bool
	AllowsAmendment bool // e.g. SEC filing amendments supersede a prior snapshot
}

// Artifact is a source document (or page, or file) ingested into a graph,
// keyed by (graph_id, url, content_hash) so re-ingesting identical content is
// a no-op at the artifact level.
type Artifact struct {
	ArtifactID  string
	GraphID     string
	Kind        ArtifactKind
	URL         string
	ContentHash string
	Title       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewArtifact(graphID, artifactID string, kind ArtifactKind, rawURL, contentHash string) (*Artifact, error) {
	if graphID == "" || artifactID == "" {
		return nil, apperr.Invalid("artifact requires graph_id and artifact_id")
	}
	if contentHash == "" {
		return nil, apperr.Invalid("artifact requires a content_hash")
	}
	canonical, err := CanonicalizeURL(rawURL)
	if err != nil {
		return nil, apperr.Invalid("artifact url could not be canonicalized: " + err.Error())
	}
	now := time.Now().UTC()
	return &Artifact{
		ArtifactID:  artifactID,
		GraphID:     graphID,
		Kind:        kind,
		URL:         canonical,
		ContentHash: contentHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanonicalizeURL lowercases scheme/host, strips default ports, drops
// fragment identifiers, and removes common tracking query params — so the
// same page fetched with different UTM tags still dedupes to one artifact.
// Non-URL inputs (e.g. a local file identifier) pass through unchanged.
func CanonicalizeURL(raw string) (string, error) {
	if raw == "" {
		return "", apperr.Invalid("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw, nil
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && u.Port() == "80") || (u.Scheme == "https" && u.Port() == "443") {
		u.Host = strings.TrimSuffix(u.Host, ":"+u.Port())
	}
	u.Fragment = ""
	q := u.Query()
	for key := range q {
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	if strings.HasSuffix(u.Path, "/") && u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), nil
}
