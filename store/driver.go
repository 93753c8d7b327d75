package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// Posting model related methods.
	CreatePosting(ctx context.Context, create *Posting) (bool, error)
	ListPostings(ctx context.Context, find *FindPosting) ([]*Posting, error)
	MarkPostingEmbedded(ctx context.Context, id string, embeddedTs int64) (bool, error)
	GetPostingStats(ctx context.Context) (*PostingStats, error)

	// PostingEmbedding model related methods. Only the postgres driver
	// supports these; sqlite deployments use the local file index instead.
	UpsertPostingEmbedding(ctx context.Context, embedding *PostingEmbedding) error
	VectorSearchPostings(ctx context.Context, opts *VectorSearchOptions) ([]*PostingSearchResult, error)
	CountPostingEmbeddings(ctx context.Context) (int, error)
}
