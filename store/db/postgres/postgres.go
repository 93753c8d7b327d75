package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/jobpulse/jobpulse/internal/profile"
	"github.com/jobpulse/jobpulse/store"
)

// ============================================================================
// POSTGRESQL SUPPORT (Production - Full Support)
// ============================================================================
// PostgreSQL is the primary database for production use. Posting storage and
// the pgvector-backed similarity index live in the same database, so the
// sync runner's upsert/mark pair touches a single server (but is still not
// transactional across the two tables; counts should be monitored for drift).
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Modest pool: the pipeline is a single scraper plus a query path.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return errors.Wrap(err, "failed to create vector extension")
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posting (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			company TEXT NOT NULL,
			description TEXT NOT NULL,
			url TEXT NOT NULL,
			location TEXT NOT NULL,
			posted_ts BIGINT,
			scraped_ts BIGINT NOT NULL,
			has_embedding BOOLEAN NOT NULL DEFAULT FALSE,
			embedded_ts BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posting_has_embedding ON posting (has_embedding)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS posting_embedding (
			posting_id TEXT PRIMARY KEY REFERENCES posting (id),
			embedding vector(%d) NOT NULL,
			content TEXT NOT NULL,
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL
		)`, d.profile.EmbeddingDimensions),
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}
	return nil
}
