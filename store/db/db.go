package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jobpulse/jobpulse/internal/profile"
	"github.com/jobpulse/jobpulse/store"
	"github.com/jobpulse/jobpulse/store/db/postgres"
	"github.com/jobpulse/jobpulse/store/db/sqlite"
)

// ============================================================================
// DATABASE SUPPORT POLICY
// ============================================================================
// PostgreSQL: full support including pgvector-backed similarity search.
// SQLite: posting storage only; vector search uses the local file index.
// ============================================================================

// NewDBDriver creates a new db driver based on profile and runs migrations.
func NewDBDriver(ctx context.Context, profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	if err := driver.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return driver, nil
}
