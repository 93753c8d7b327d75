package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jobpulse/jobpulse/internal/profile"
	"github.com/jobpulse/jobpulse/server/answer"
	"github.com/jobpulse/jobpulse/server/retrieval"
	syncrunner "github.com/jobpulse/jobpulse/server/runner/sync"
	"github.com/jobpulse/jobpulse/server/vectorindex"
	"github.com/jobpulse/jobpulse/store"
)

// Server exposes the pipeline over a small JSON API.
type Server struct {
	echoServer    *echo.Echo
	profile       *profile.Profile
	store         *store.Store
	index         vectorindex.Index
	answerService *answer.Service
	syncRunner    *syncrunner.Runner

	// strategies available for runtime selection via the ask endpoint.
	strategies map[string]retrieval.Strategy
}

func NewServer(p *profile.Profile, st *store.Store, index vectorindex.Index, answerService *answer.Service, syncRunner *syncrunner.Runner, strategies ...retrieval.Strategy) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				slog.String("uri", v.URI),
				slog.Int("status", v.Status))
			return nil
		},
	}))

	s := &Server{
		echoServer:    e,
		profile:       p,
		store:         st,
		index:         index,
		answerService: answerService,
		syncRunner:    syncRunner,
		strategies:    map[string]retrieval.Strategy{},
	}
	for _, strategy := range strategies {
		s.strategies[strategy.Name()] = strategy
	}

	g := e.Group("/api/v1")
	g.POST("/ask", s.Ask)
	g.GET("/stats", s.Stats)
	g.POST("/sync", s.Sync)
	e.GET("/healthz", s.Health)

	return s
}

// Start blocks until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echoServer.Start(fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echoServer.Shutdown(shutdownCtx)
	}
}

type AskRequest struct {
	Question string `json:"question"`
	Strategy string `json:"strategy,omitempty"`
}

type AskResponse struct {
	Answer   string `json:"answer"`
	Strategy string `json:"strategy"`
}

// Ask answers a question over the indexed postings.
// POST /api/v1/ask
func (s *Server) Ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if req.Question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}
	if req.Strategy != "" {
		strategy, ok := s.strategies[req.Strategy]
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown strategy %q", req.Strategy)})
		}
		s.answerService.SetStrategy(strategy)
	}

	return c.JSON(http.StatusOK, AskResponse{
		Answer:   s.answerService.Ask(c.Request().Context(), req.Question),
		Strategy: s.answerService.StrategyName(),
	})
}

type StatsResponse struct {
	Total      int `json:"total"`
	Embedded   int `json:"embedded"`
	Pending    int `json:"pending"`
	IndexCount int `json:"index_count"`
}

// Stats reports record-store counts and the index size for drift
// monitoring.
// GET /api/v1/stats
func (s *Server) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := s.store.GetPostingStats(ctx)
	if err != nil {
		slog.Error("failed to fetch posting stats", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch stats"})
	}

	resp := StatsResponse{
		Total:    stats.Total,
		Embedded: stats.Embedded,
		Pending:  stats.Pending,
	}
	if count, err := s.index.Count(ctx); err == nil {
		resp.IndexCount = count
	} else {
		slog.Warn("failed to count index entries", "error", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Sync triggers one manual sync pass.
// POST /api/v1/sync
func (s *Server) Sync(c echo.Context) error {
	result, err := s.syncRunner.RunOnce(c.Request().Context())
	if err != nil {
		slog.Error("manual sync failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "sync failed"})
	}
	return c.JSON(http.StatusOK, result)
}

// Health is a liveness probe.
// GET /healthz
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": s.profile.Version})
}
