package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// Posting represents a normalized job posting.
//
// The ID is derived from the description text, so re-ingesting overlapping
// scrape results is idempotent: two raw items with identical descriptions
// collapse to one record even when their URLs differ. Description text is
// the dedup key, not URL.
type Posting struct {
	ID          string
	Title       string
	Company     string
	Description string
	URL         string
	Location    string

	// PostedTs is the source-reported posting time, if any.
	PostedTs *int64
	// ScrapedTs is the ingestion time. Always set.
	ScrapedTs int64

	// HasEmbedding is true once the posting has a live entry in the vector
	// index. Only the sync runner writes it.
	HasEmbedding bool
	EmbeddedTs   *int64
}

// PostingID derives the stable content-addressed identifier for a posting.
// Identical description text yields an identical id.
func PostingID(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])
}

// FindPosting is the find condition for postings.
type FindPosting struct {
	ID *string
	// PendingEmbedding filters on the has_embedding flag.
	PendingEmbedding *bool
	Limit            *int
}

// PostingStats are counts by embedding status.
// Total == Embedded + Pending always holds.
type PostingStats struct {
	Total    int
	Embedded int
	Pending  int
}

// PostingEmbedding is the derived, lossy projection of a posting held by the
// pgvector-backed index: the embedded text plus its vector, keyed by the
// posting id.
type PostingEmbedding struct {
	PostingID string
	Embedding []float32
	Content   string
	CreatedTs int64
	UpdatedTs int64
}

// VectorSearchOptions represents the options for vector search.
type VectorSearchOptions struct {
	Vector []float32 // query vector
	Limit  int       // number of results to return, default 10
}

// PostingSearchResult is a vector search result with similarity score.
type PostingSearchResult struct {
	Posting *Posting
	Content string  // the text that was embedded
	Score   float32 // cosine similarity, higher is more similar
}
