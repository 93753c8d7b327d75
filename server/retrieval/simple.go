package retrieval

import (
	"context"

	"github.com/jobpulse/jobpulse/server/vectorindex"
)

// SimpleStrategy delegates to the retriever's top-k similarity search
// with no re-ranking. It is the baseline strategy.
type SimpleStrategy struct{}

func NewSimpleStrategy() *SimpleStrategy {
	return &SimpleStrategy{}
}

func (s *SimpleStrategy) Name() string {
	return "simple"
}

func (s *SimpleStrategy) Retrieve(ctx context.Context, query string, retriever Retriever, k int) ([]*vectorindex.Document, error) {
	return retriever.Search(ctx, query, k)
}
