// Package snapshots implements content-hash deduplication and change
// detection across repeated observations of the same source: normalization,
// SHA-256 hashing, snapshot upsert, change-event creation, and claim
// staleness propagation.
package snapshots

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	htmlTagRE      = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>`)
	anyTagRE       = regexp.MustCompile(`<[^>]+>`)
	iso8601RE      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(T[\d:.]+)?Z?`)
	whitespaceRE   = regexp.MustCompile(`\s+`)
	cookieBannerRE = regexp.MustCompile(`(?i)(cookie policy|accept cookies|we use cookies|manage cookie preferences)`)
	edgarBoilerRE  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)united states securities and exchange commission`),
		regexp.MustCompile(`(?i)form\s+\d+-?[A-Z]?\b`),
		regexp.MustCompile(`(?i)sec file number[^\n]*`),
	}
)

// SourceType mirrors the connector kind supplied to normalize, used to
// select source-specific boilerplate stripping.
type SourceType string

const (
	SourceWeb   SourceType = "WEB"
	SourceEDGAR SourceType = "EDGAR"
	SourceIR    SourceType = "IR"
	SourceNews  SourceType = "NEWS"
)

// Normalize strips time-varying and source-specific boilerplate so that
// semantically equal documents hash equally. It accepts either raw HTML or
// already-extracted text; HTML is stripped to inner text first.
func Normalize(sourceType SourceType, rawText, rawHTML string) string {
	text := rawText
	if rawHTML != "" {
		text = extractText(rawHTML)
	}
	text = htmlTagRE.ReplaceAllString(text, "")
	text = cookieBannerRE.ReplaceAllString(text, "")
	text = iso8601RE.ReplaceAllString(text, "")

	if sourceType == SourceEDGAR {
		for _, re := range edgarBoilerRE {
			text = re.ReplaceAllString(text, "")
		}
	}

	text = whitespaceRE.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}

func extractText(html string) string {
	stripped := htmlTagRE.ReplaceAllString(html, "")
	return anyTagRE.ReplaceAllString(stripped, " ")
}

// ContentHash returns the lowercase hex SHA-256 of normalized text. Re-
// normalizing already-normalized text is idempotent, so ContentHash of a
// normalized string equals ContentHash of normalizing it again.
func ContentHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
