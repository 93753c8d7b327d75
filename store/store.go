package store

import (
	"context"
	"time"

	"github.com/jobpulse/jobpulse/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// CreatePosting inserts a posting, deriving its content-addressed id when
// unset. Returns true when a new row was created; an existing id is a
// silent no-op, which makes re-running ingestion safe.
func (s *Store) CreatePosting(ctx context.Context, create *Posting) (bool, error) {
	if create.ID == "" {
		create.ID = PostingID(create.Description)
	}
	if create.ScrapedTs == 0 {
		create.ScrapedTs = time.Now().Unix()
	}
	return s.driver.CreatePosting(ctx, create)
}

func (s *Store) ListPostings(ctx context.Context, find *FindPosting) ([]*Posting, error) {
	return s.driver.ListPostings(ctx, find)
}

// GetPosting returns the posting with the given id, or nil when unknown.
func (s *Store) GetPosting(ctx context.Context, id string) (*Posting, error) {
	list, err := s.driver.ListPostings(ctx, &FindPosting{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// PostingsPendingEmbedding returns up to limit postings that have no
// embedding yet, in insertion order.
func (s *Store) PostingsPendingEmbedding(ctx context.Context, limit int) ([]*Posting, error) {
	pending := true
	return s.driver.ListPostings(ctx, &FindPosting{
		PendingEmbedding: &pending,
		Limit:            &limit,
	})
}

// MarkPostingEmbedded flips the embedding flag and records the time.
// Returns false when the id is unknown; callers treat that as a recoverable
// data-integrity warning, not a fatal error.
func (s *Store) MarkPostingEmbedded(ctx context.Context, id string) (bool, error) {
	return s.driver.MarkPostingEmbedded(ctx, id, time.Now().Unix())
}

func (s *Store) GetPostingStats(ctx context.Context) (*PostingStats, error) {
	return s.driver.GetPostingStats(ctx)
}

func (s *Store) UpsertPostingEmbedding(ctx context.Context, embedding *PostingEmbedding) error {
	return s.driver.UpsertPostingEmbedding(ctx, embedding)
}

func (s *Store) VectorSearchPostings(ctx context.Context, opts *VectorSearchOptions) ([]*PostingSearchResult, error) {
	return s.driver.VectorSearchPostings(ctx, opts)
}

func (s *Store) CountPostingEmbeddings(ctx context.Context) (int, error) {
	return s.driver.CountPostingEmbeddings(ctx)
}
