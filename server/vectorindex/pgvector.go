package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobpulse/jobpulse/plugin/ai"
	"github.com/jobpulse/jobpulse/store"
)

// PGVectorIndex keeps embeddings in the posting_embedding table next to the
// postings themselves, searched with pgvector cosine distance.
type PGVectorIndex struct {
	store            *store.Store
	embeddingService ai.EmbeddingService
}

var _ Index = (*PGVectorIndex)(nil)

// NewPGVectorIndex creates a pgvector-backed index. Requires the postgres
// driver; the sqlite driver rejects embedding writes.
func NewPGVectorIndex(st *store.Store, embeddingService ai.EmbeddingService) *PGVectorIndex {
	return &PGVectorIndex{
		store:            st,
		embeddingService: embeddingService,
	}
}

func (idx *PGVectorIndex) Upsert(ctx context.Context, posting *store.Posting) error {
	content := BuildText(posting)

	vector, err := idx.embeddingService.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed posting %s: %w", posting.ID, err)
	}

	now := time.Now().Unix()
	return idx.store.UpsertPostingEmbedding(ctx, &store.PostingEmbedding{
		PostingID: posting.ID,
		Embedding: vector,
		Content:   content,
		CreatedTs: now,
		UpdatedTs: now,
	})
}

func (idx *PGVectorIndex) Search(ctx context.Context, query string, k int) ([]*Document, error) {
	// Provider failure on the query path yields no results rather than
	// an error; the store query itself still reports failures.
	vector, err := idx.embeddingService.Embed(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed, returning no results", "error", err)
		return nil, nil
	}

	results, err := idx.store.VectorSearchPostings(ctx, &store.VectorSearchOptions{
		Vector: vector,
		Limit:  k,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, documentFromPosting(r.Posting, r.Content, r.Score))
	}
	return docs, nil
}

func (idx *PGVectorIndex) Count(ctx context.Context) (int, error) {
	return idx.store.CountPostingEmbeddings(ctx)
}
