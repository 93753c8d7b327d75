package vectorindex

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/store"
)

func newTestPosting(id, description string) *store.Posting {
	return &store.Posting{
		ID:          id,
		Title:       "Engineer",
		Company:     "Acme",
		Description: description,
		URL:         "https://example.com/jobs/" + id,
		Location:    "Remote",
	}
}

// mockEmbeddingService maps texts to fixed vectors for deterministic search.
type mockEmbeddingService struct {
	embedFunc  func(text string) ([]float32, error)
	shouldFail bool
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.shouldFail {
		return nil, errors.New("embedding service error")
	}
	if m.embedFunc != nil {
		return m.embedFunc(text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 3 }

// keywordEmbedder gives "go" and "python" texts orthogonal directions so
// similarity ranking is predictable.
func keywordEmbedder(text string) ([]float32, error) {
	lower := strings.ToLower(text)
	v := []float32{0.01, 0.01, 0.01}
	if strings.Contains(lower, "go") {
		v[0] = 1
	}
	if strings.Contains(lower, "python") {
		v[1] = 1
	}
	return v, nil
}

func TestLocalIndexUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")

	idx, err := NewLocalIndex(path, &mockEmbeddingService{embedFunc: keywordEmbedder})
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, newTestPosting("a1", "Go developer wanted")))
	require.NoError(t, idx.Upsert(ctx, newTestPosting("b2", "Python developer wanted")))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	docs, err := idx.Search(ctx, "go services", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a1", docs[0].PostingID)

	docs, err = idx.Search(ctx, "python scripting", 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b2", docs[0].PostingID)
}

func TestLocalIndexUpsertIsIdempotentPerID(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")

	idx, err := NewLocalIndex(path, &mockEmbeddingService{})
	require.NoError(t, err)

	p := newTestPosting("a1", "first description")
	require.NoError(t, idx.Upsert(ctx, p))
	require.NoError(t, idx.Upsert(ctx, p))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLocalIndexPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")

	idx, err := NewLocalIndex(path, &mockEmbeddingService{embedFunc: keywordEmbedder})
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, newTestPosting("a1", "Go developer wanted")))

	reopened, err := NewLocalIndex(path, &mockEmbeddingService{embedFunc: keywordEmbedder})
	require.NoError(t, err)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	docs, err := reopened.Search(ctx, "go", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a1", docs[0].PostingID)
}

func TestLocalIndexEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")

	idx, err := NewLocalIndex(path, &mockEmbeddingService{shouldFail: true})
	require.NoError(t, err)

	// Upsert failures propagate so the sync runner can count and retry.
	err = idx.Upsert(ctx, newTestPosting("a1", "anything"))
	assert.Error(t, err)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Search favors availability: provider failure means no results,
	// not an error.
	docs, err := idx.Search(ctx, "anything", 5)
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Equal(t, float32(0), cosineSimilarity(nil, nil))
}
