package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/plugin/ai"
	"github.com/jobpulse/jobpulse/server/retrieval"
	"github.com/jobpulse/jobpulse/server/vectorindex"
)

type mockLLMService struct {
	response string
	err      error
	calls    int
	lastMsgs []ai.Message
}

func (m *mockLLMService) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	m.calls++
	m.lastMsgs = messages
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type stubStrategy struct {
	docs []*vectorindex.Document
	err  error
}

func (s *stubStrategy) Retrieve(ctx context.Context, query string, retriever retrieval.Retriever, k int) ([]*vectorindex.Document, error) {
	return s.docs, s.err
}

func (s *stubStrategy) Name() string { return "stub" }

type nopRetriever struct{}

func (nopRetriever) Search(ctx context.Context, query string, k int) ([]*vectorindex.Document, error) {
	return nil, nil
}

func testDoc() *vectorindex.Document {
	return &vectorindex.Document{
		PostingID: "abc",
		Title:     "Go Developer",
		Company:   "Acme",
		Location:  "Remote",
		URL:       "https://example.com/jobs/abc",
		Content:   "Build distributed systems in Go.",
	}
}

func TestAskReturnsAnswer(t *testing.T) {
	llm := &mockLLMService{response: "Acme is hiring a Go Developer."}
	svc := NewService(nopRetriever{}, llm, &stubStrategy{docs: []*vectorindex.Document{testDoc()}})

	got := svc.Ask(context.Background(), "who is hiring go developers?")

	assert.Equal(t, "Acme is hiring a Go Developer.", got)
	require.Equal(t, 1, llm.calls)
	require.Len(t, llm.lastMsgs, 2)
	assert.Contains(t, llm.lastMsgs[1].Content, "Go Developer at Acme, Remote:")
	assert.Contains(t, llm.lastMsgs[1].Content, "who is hiring go developers?")
}

func TestAskNoResultsSkipsGenerator(t *testing.T) {
	llm := &mockLLMService{response: "should not be used"}
	svc := NewService(nopRetriever{}, llm, &stubStrategy{})

	got := svc.Ask(context.Background(), "anything?")

	assert.Equal(t, NoResultsMessage, got)
	assert.Zero(t, llm.calls, "generator must not run without context")
}

func TestAskRetrievalErrorReturnsString(t *testing.T) {
	svc := NewService(nopRetriever{}, &mockLLMService{}, &stubStrategy{err: errors.New("index offline")})

	got := svc.Ask(context.Background(), "anything?")

	assert.Contains(t, got, "Error processing query")
	assert.Contains(t, got, "index offline")
}

func TestAskGenerationErrorReturnsString(t *testing.T) {
	llm := &mockLLMService{err: errors.New("model overloaded")}
	svc := NewService(nopRetriever{}, llm, &stubStrategy{docs: []*vectorindex.Document{testDoc()}})

	got := svc.Ask(context.Background(), "anything?")

	assert.Contains(t, got, "Error processing query")
	assert.Contains(t, got, "model overloaded")
}

func TestSetStrategySwapsAtRuntime(t *testing.T) {
	first := &stubStrategy{}
	svc := NewService(nopRetriever{}, &mockLLMService{}, first)
	assert.Equal(t, "stub", svc.StrategyName())

	svc.SetStrategy(retrieval.NewSimpleStrategy())
	assert.Equal(t, "simple", svc.StrategyName())
}

func TestFormatDocuments(t *testing.T) {
	docs := []*vectorindex.Document{
		testDoc(),
		{Title: "Data Engineer", Company: "Globex", Location: "Berlin", Content: "Pipelines."},
	}

	got := formatDocuments(docs, DefaultMaxDescriptionChars)

	blocks := strings.Split(got, "\n\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, "Go Developer at Acme, Remote: Build distributed systems in Go.. Source: https://example.com/jobs/abc", blocks[0])
	assert.Equal(t, "Data Engineer at Globex, Berlin: Pipelines.", blocks[1])
}

func TestTruncateDescription(t *testing.T) {
	long := strings.Repeat("x", 3500)

	got := truncateDescription(long, 3000)

	assert.Len(t, got, 3003)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, long[:3000], got[:3000])

	short := "short description"
	assert.Equal(t, short, truncateDescription(short, 3000))
	assert.Equal(t, long, truncateDescription(long, 0), "zero limit disables truncation")
}
