package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/internal/profile"
	"github.com/jobpulse/jobpulse/store"
	"github.com/jobpulse/jobpulse/store/db"
)

// NewTestingStore creates a store backed by a fresh sqlite database in a
// temporary directory.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:            "dev",
		Driver:          "sqlite",
		Data:            t.TempDir(),
		EmbeddingAPIKey: "test-key",
		LLMAPIKey:       "test-key",
	}
	require.NoError(t, p.Validate())

	driver, err := db.NewDBDriver(ctx, p)
	require.NoError(t, err)

	s := store.New(driver, p)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
