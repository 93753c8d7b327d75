package retrieval

import (
	"context"

	"github.com/jobpulse/jobpulse/server/vectorindex"
)

// Retriever is the similarity-search capability strategies build on.
// vectorindex.Index satisfies it.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]*vectorindex.Document, error)
}

// Strategy decides which documents are surfaced for a query. Strategies
// are interchangeable at call time; the owning service swaps them
// without being reconstructed.
type Strategy interface {
	// Retrieve returns up to k documents ordered by relevance.
	Retrieve(ctx context.Context, query string, retriever Retriever, k int) ([]*vectorindex.Document, error)

	// Name identifies the strategy in logs and API responses.
	Name() string
}
