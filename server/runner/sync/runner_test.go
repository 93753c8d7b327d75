package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/server/vectorindex"
	"github.com/jobpulse/jobpulse/store"
	storetest "github.com/jobpulse/jobpulse/store/test"
)

// mockIndex records upserts in memory and can fail selected postings.
type mockIndex struct {
	entries  map[string]*store.Posting
	failIDs  map[string]bool
	upserted []string
}

func newMockIndex() *mockIndex {
	return &mockIndex{
		entries: map[string]*store.Posting{},
		failIDs: map[string]bool{},
	}
}

func (m *mockIndex) Upsert(ctx context.Context, posting *store.Posting) error {
	if m.failIDs[posting.ID] {
		return errors.New("embedding provider error")
	}
	m.entries[posting.ID] = posting
	m.upserted = append(m.upserted, posting.ID)
	return nil
}

func (m *mockIndex) Search(ctx context.Context, query string, k int) ([]*vectorindex.Document, error) {
	return nil, nil
}

func (m *mockIndex) Count(ctx context.Context) (int, error) {
	return len(m.entries), nil
}

func createPosting(t *testing.T, st *store.Store, description string) *store.Posting {
	t.Helper()
	p := &store.Posting{
		Title:       "Engineer",
		Company:     "Acme",
		Description: description,
		URL:         "https://example.com/jobs",
	}
	created, err := st.CreatePosting(context.Background(), p)
	require.NoError(t, err)
	require.True(t, created)
	return p
}

func TestRunOnceConverges(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	index := newMockIndex()
	runner := NewRunner(st, index, 10)

	for i := 0; i < 3; i++ {
		createPosting(t, st, "description "+string(rune('a'+i)))
	}

	result, err := runner.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 3, result.Succeeded)
	assert.Zero(t, result.Failed)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 3, result.Stats.Embedded)
	assert.Zero(t, result.Stats.Pending)
	assert.Equal(t, result.Stats.Embedded, result.IndexCount)
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	index := newMockIndex()
	runner := NewRunner(st, index, 10)

	good := createPosting(t, st, "good posting")
	bad := createPosting(t, st, "bad posting")
	index.failIDs[bad.ID] = true

	result, err := runner.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, index.entries, good.ID)
	assert.NotContains(t, index.entries, bad.ID)

	// The failed posting stays pending and retries on the next pass.
	index.failIDs[bad.ID] = false
	result, err = runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Stats.Pending)
}

func TestRunOnceEmptyBacklog(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	runner := NewRunner(st, newMockIndex(), 10)

	result, err := runner.RunOnce(ctx)
	require.NoError(t, err)

	assert.Zero(t, result.Attempted)
	assert.Zero(t, result.Succeeded)
	assert.Zero(t, result.Failed)
}

func TestRunOnceMarksAtMostOnce(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	index := newMockIndex()
	runner := NewRunner(st, index, 10)

	p := createPosting(t, st, "some posting")

	_, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	_, err = runner.RunOnce(ctx)
	require.NoError(t, err)

	// Second pass sees nothing pending, so the posting is embedded
	// exactly once.
	assert.Equal(t, []string{p.ID}, index.upserted)
}

func TestDrainBacklogLargerThanBatch(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	index := newMockIndex()
	runner := NewRunner(st, index, 2)

	for i := 0; i < 5; i++ {
		createPosting(t, st, "posting number "+string(rune('0'+i)))
	}

	result, err := runner.Drain(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Succeeded)
	assert.Zero(t, result.Stats.Pending)
	assert.Equal(t, 5, result.IndexCount)
}

func TestDrainStopsWithoutProgress(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	index := newMockIndex()
	runner := NewRunner(st, index, 10)

	p := createPosting(t, st, "always failing posting")
	index.failIDs[p.ID] = true

	result, err := runner.Drain(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Succeeded)
	assert.Equal(t, 1, result.Stats.Pending)
}
