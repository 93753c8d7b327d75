package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jobpulse/jobpulse/internal/observability"
	"github.com/jobpulse/jobpulse/plugin/ai"
	"github.com/jobpulse/jobpulse/server/retrieval"
	"github.com/jobpulse/jobpulse/server/vectorindex"
)

const (
	// DefaultTopK is how many documents ground an answer.
	DefaultTopK = 5

	// DefaultMaxDescriptionChars bounds each document's description in
	// the prompt. Truncation is lossy; it exists only to keep the total
	// prompt within the model's context window.
	DefaultMaxDescriptionChars = 3000

	// NoResultsMessage is returned verbatim when retrieval produces no
	// context. The generator is not invoked in that case, so it cannot
	// invent postings that do not exist.
	NoResultsMessage = "No matching job postings were found for your question."
)

const answerSystemPrompt = `You are a job search assistant.

Use the provided job postings to answer the user's question.
Answer only from the given context. If the answer is not in the context, say you don't know.`

// Service turns a question into a grounded answer: retrieve documents
// with the active strategy, assemble them into a context block, and ask
// the LLM. The strategy is swappable at runtime.
type Service struct {
	retriever  retrieval.Retriever
	llmService ai.LLMService
	logger     *slog.Logger

	mu       sync.RWMutex
	strategy retrieval.Strategy

	topK                int
	maxDescriptionChars int
}

func NewService(retriever retrieval.Retriever, llmService ai.LLMService, strategy retrieval.Strategy) *Service {
	return &Service{
		retriever:           retriever,
		llmService:          llmService,
		logger:              slog.Default(),
		strategy:            strategy,
		topK:                DefaultTopK,
		maxDescriptionChars: DefaultMaxDescriptionChars,
	}
}

// SetStrategy swaps the retrieval strategy without reconstructing the
// service.
func (s *Service) SetStrategy(strategy retrieval.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy = strategy
}

// StrategyName reports the active strategy for logs and API responses.
func (s *Service) StrategyName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy.Name()
}

// Ask answers the question from retrieved postings. It always returns a
// displayable string: retrieval or generation failures come back as a
// descriptive error string, never as an error value.
func (s *Service) Ask(ctx context.Context, question string) string {
	s.mu.RLock()
	strategy := s.strategy
	s.mu.RUnlock()

	rc := observability.NewRequestContext(s.logger, strategy.Name())
	rc.Info("answering question", slog.Int(observability.LogFieldQuestionLen, len(question)))

	docs, err := strategy.Retrieve(ctx, question, s.retriever, s.topK)
	if err != nil {
		rc.Error("retrieval failed", err)
		return fmt.Sprintf("Error processing query: %v", err)
	}
	if len(docs) == 0 {
		rc.Warn("no documents retrieved")
		return NoResultsMessage
	}

	answer, err := s.llmService.Chat(ctx, []ai.Message{
		ai.SystemPrompt(answerSystemPrompt),
		ai.UserMessage(s.buildPrompt(question, docs)),
	})
	if err != nil {
		rc.Error("generation failed", err)
		return fmt.Sprintf("Error processing query: %v", err)
	}

	rc.Info("answered question",
		slog.Int(observability.LogFieldDocCount, len(docs)),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return answer
}

func (s *Service) buildPrompt(question string, docs []*vectorindex.Document) string {
	var sb strings.Builder
	sb.WriteString(formatDocuments(docs, s.maxDescriptionChars))
	sb.WriteString("\n\n---\n\nAnswer the question based on the above context: ")
	sb.WriteString(question)
	return sb.String()
}

// formatDocuments renders each document as a single context line,
// documents separated by blank lines.
func formatDocuments(docs []*vectorindex.Document, maxDescriptionChars int) string {
	lines := make([]string, 0, len(docs))
	for _, doc := range docs {
		line := fmt.Sprintf("%s at %s, %s: %s",
			doc.Title, doc.Company, doc.Location,
			truncateDescription(doc.Content, maxDescriptionChars))
		if doc.URL != "" {
			line += fmt.Sprintf(". Source: %s", doc.URL)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n\n")
}

func truncateDescription(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "..."
}
