package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/jobpulse/jobpulse/internal/profile"
	"github.com/jobpulse/jobpulse/store"
)

// ============================================================================
// SQLITE SUPPORT (Development / single-node default)
// ============================================================================
// SQLite stores postings only. It has no vector type, so similarity search
// is served by the local file index instead of this driver; the embedding
// methods below return ErrSQLiteVectorNotSupported.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// busy_timeout keeps concurrent CLI invocations from failing on the
	// write lock; writes commit synchronously by default.
	db, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

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
	stmt := `
		CREATE TABLE IF NOT EXISTS posting (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			company TEXT NOT NULL,
			description TEXT NOT NULL,
			url TEXT NOT NULL,
			location TEXT NOT NULL,
			posted_ts INTEGER,
			scraped_ts INTEGER NOT NULL,
			has_embedding BOOLEAN NOT NULL DEFAULT FALSE,
			embedded_ts INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_posting_has_embedding ON posting (has_embedding);
	`
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to create posting table")
	}
	return nil
}
