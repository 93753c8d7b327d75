package sqlite

import (
	"context"
	"errors"

	"github.com/jobpulse/jobpulse/store"
)

// SQLite has no vector type. Deployments on the sqlite driver keep their
// embeddings in the local file index; these methods exist only to satisfy
// the Driver interface.

// ErrSQLiteVectorNotSupported is returned when vector features are requested
// on SQLite.
var ErrSQLiteVectorNotSupported = errors.New("vector storage requires PostgreSQL with the pgvector extension; use the local file index with sqlite")

func (d *DB) UpsertPostingEmbedding(ctx context.Context, embedding *store.PostingEmbedding) error {
	return ErrSQLiteVectorNotSupported
}

func (d *DB) VectorSearchPostings(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.PostingSearchResult, error) {
	return nil, ErrSQLiteVectorNotSupported
}

func (d *DB) CountPostingEmbeddings(ctx context.Context) (int, error) {
	return 0, ErrSQLiteVectorNotSupported
}
