package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/plugin/ai"
	"github.com/jobpulse/jobpulse/server/vectorindex"
)

type mockLLMService struct {
	response string
	err      error
}

func (m *mockLLMService) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockRetriever returns canned lists per query and records which
// queries were searched.
type mockRetriever struct {
	mu      sync.Mutex
	results map[string][]*vectorindex.Document
	errs    map[string]error
	queries []string
}

func (m *mockRetriever) Search(ctx context.Context, query string, k int) ([]*vectorindex.Document, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if err, ok := m.errs[query]; ok {
		return nil, err
	}
	docs := m.results[query]
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}

func TestSimpleStrategyDelegates(t *testing.T) {
	retriever := &mockRetriever{
		results: map[string][]*vectorindex.Document{
			"go jobs": {doc("A"), doc("B")},
		},
	}
	strategy := NewSimpleStrategy()

	docs, err := strategy.Retrieve(context.Background(), "go jobs", retriever, 5)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids(docs))
	assert.Equal(t, "simple", strategy.Name())
}

func TestFusionStrategyFusesExpandedQueries(t *testing.T) {
	retriever := &mockRetriever{
		results: map[string][]*vectorindex.Document{
			"q1": {doc("A"), doc("B"), doc("C")},
			"q2": {doc("B"), doc("C"), doc("D")},
		},
	}
	strategy := NewFusionStrategy(&mockLLMService{response: "q1\nq2\n"})

	docs, err := strategy.Retrieve(context.Background(), "original", retriever, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A", "D"}, ids(docs))
	assert.ElementsMatch(t, []string{"q1", "q2"}, retriever.queries)
	assert.Equal(t, "fusion", strategy.Name())
}

func TestFusionStrategyFallsBackOnExpansionError(t *testing.T) {
	retriever := &mockRetriever{
		results: map[string][]*vectorindex.Document{
			"original": {doc("A")},
		},
	}
	strategy := NewFusionStrategy(&mockLLMService{err: errors.New("provider down")})

	docs, err := strategy.Retrieve(context.Background(), "original", retriever, 5)

	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(docs))
	assert.Equal(t, []string{"original"}, retriever.queries)
}

func TestFusionStrategyFallsBackOnBlankExpansion(t *testing.T) {
	retriever := &mockRetriever{
		results: map[string][]*vectorindex.Document{
			"original": {doc("A")},
		},
	}
	strategy := NewFusionStrategy(&mockLLMService{response: "\n  \n\n"})

	docs, err := strategy.Retrieve(context.Background(), "original", retriever, 5)

	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(docs))
}

func TestFusionStrategyToleratesPartialSearchFailure(t *testing.T) {
	retriever := &mockRetriever{
		results: map[string][]*vectorindex.Document{
			"q1": {doc("A")},
		},
		errs: map[string]error{
			"q2": errors.New("search failed"),
		},
	}
	strategy := NewFusionStrategy(&mockLLMService{response: "q1\nq2"})

	docs, err := strategy.Retrieve(context.Background(), "original", retriever, 5)

	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(docs))
}

func TestFusionStrategyAllQueriesFail(t *testing.T) {
	retriever := &mockRetriever{
		errs: map[string]error{
			"q1": errors.New("search failed"),
			"q2": errors.New("search failed"),
		},
	}
	strategy := NewFusionStrategy(&mockLLMService{response: "q1\nq2"})

	docs, err := strategy.Retrieve(context.Background(), "original", retriever, 5)

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestParseQueryLines(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected []string
	}{
		{
			name:     "plain lines",
			response: "remote golang developer\nbackend engineer go\n",
			expected: []string{"remote golang developer", "backend engineer go"},
		},
		{
			name:     "blank lines and padding stripped",
			response: "  first query  \n\n\tsecond query\n   \n",
			expected: []string{"first query", "second query"},
		},
		{
			name:     "empty response",
			response: "",
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseQueryLines(tt.response))
		})
	}
}
