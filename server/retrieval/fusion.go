package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jobpulse/jobpulse/plugin/ai"
	"github.com/jobpulse/jobpulse/server/vectorindex"
)

const expansionSystemPrompt = `You are an AI assistant that generates search queries. Given a user question about job postings, generate exactly 5 alternative search queries that cover different phrasings and perspectives of the same intent. Return one query per line with no numbering, bullets, or commentary.`

// FusionStrategy expands the query into multiple phrasings via the LLM,
// runs top-k similarity search for each, and merges the ranked lists
// with reciprocal rank fusion.
type FusionStrategy struct {
	llmService ai.LLMService
	smoothing  int
}

func NewFusionStrategy(llmService ai.LLMService) *FusionStrategy {
	return &FusionStrategy{
		llmService: llmService,
		smoothing:  DefaultRRFSmoothing,
	}
}

func (s *FusionStrategy) Name() string {
	return "fusion"
}

func (s *FusionStrategy) Retrieve(ctx context.Context, query string, retriever Retriever, k int) ([]*vectorindex.Document, error) {
	queries := s.expandQuery(ctx, query)

	// Per-query searches are independent; fusion is commutative over
	// the set of lists, so fan-out order does not affect the result.
	// A failed query contributes an empty list rather than failing
	// the whole retrieval.
	lists := make([][]*vectorindex.Document, len(queries))
	var g errgroup.Group
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			docs, err := retriever.Search(ctx, q, k)
			if err != nil {
				slog.Warn("fusion sub-query failed", slog.String("query", q), slog.Any("err", err))
				return nil
			}
			lists[i] = docs
			return nil
		})
	}
	_ = g.Wait()

	return fuseRanked(lists, k, s.smoothing), nil
}

// expandQuery asks the LLM for alternative phrasings. Expansion is best
// effort: on call failure or unparseable output it falls back to the
// original query alone.
func (s *FusionStrategy) expandQuery(ctx context.Context, query string) []string {
	response, err := s.llmService.Chat(ctx, []ai.Message{
		ai.SystemPrompt(expansionSystemPrompt),
		ai.UserMessage(query),
	})
	if err != nil {
		slog.Warn("query expansion failed, using original query", slog.Any("err", err))
		return []string{query}
	}

	queries := parseQueryLines(response)
	if len(queries) == 0 {
		slog.Warn("query expansion returned no usable queries, using original query")
		return []string{query}
	}
	return queries
}

// parseQueryLines splits an expansion response into queries, one per
// line, dropping blank lines and surrounding whitespace.
func parseQueryLines(response string) []string {
	var queries []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
	}
	return queries
}
