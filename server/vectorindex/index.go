// Package vectorindex maintains the semantically-searchable projection of
// the posting store. The index is derived data: the posting table stays the
// source of truth, and entries here are replicated one way by the sync
// runner.
package vectorindex

import (
	"context"
	"strings"
	"time"

	"github.com/jobpulse/jobpulse/store"
)

// metadataMaxChars bounds stored metadata fields to protect downstream
// prompt size. The raw description is never stored as metadata, only as the
// embedded text.
const metadataMaxChars = 100

// Document is the lossy projection of a posting surfaced by similarity
// search.
type Document struct {
	PostingID string  `json:"posting_id"`
	Title     string  `json:"title"`
	Company   string  `json:"company"`
	Location  string  `json:"location"`
	URL       string  `json:"url"`
	Content   string  `json:"content"` // the text that was embedded
	Score     float32 `json:"score"`
}

// Index is the vector index over postings, keyed by posting id.
type Index interface {
	// Upsert embeds the posting's text representation and stores it.
	// Errors from the embedding provider are returned for the caller to
	// count and retry; they never panic past this boundary.
	Upsert(ctx context.Context, posting *store.Posting) error

	// Search returns up to k nearest documents by embedding similarity.
	Search(ctx context.Context, query string, k int) ([]*Document, error)

	// Count returns the total number of indexed entries, used for
	// reconciliation against the record store's embedded count.
	Count(ctx context.Context) (int, error)
}

// BuildText produces the text representation that gets embedded: title,
// company, description, location and posted date, one per line.
func BuildText(p *store.Posting) string {
	parts := []string{p.Title, p.Company, p.Description, p.Location}
	if p.PostedTs != nil {
		parts = append(parts, time.Unix(*p.PostedTs, 0).UTC().Format("2006-01-02"))
	}
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n")
}

// truncateMeta bounds a metadata field to metadataMaxChars.
func truncateMeta(s string) string {
	if len(s) <= metadataMaxChars {
		return s
	}
	return s[:metadataMaxChars]
}

// documentFromPosting builds the metadata projection for a posting.
func documentFromPosting(p *store.Posting, content string, score float32) *Document {
	return &Document{
		PostingID: p.ID,
		Title:     truncateMeta(p.Title),
		Company:   truncateMeta(p.Company),
		Location:  truncateMeta(p.Location),
		URL:       p.URL,
		Content:   content,
		Score:     score,
	}
}
