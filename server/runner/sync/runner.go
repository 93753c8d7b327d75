package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobpulse/jobpulse/server/vectorindex"
	"github.com/jobpulse/jobpulse/store"
)

// Result reports the outcome of one sync pass plus the post-run state
// of both sides for drift monitoring.
type Result struct {
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	Attempted  int                 `json:"attempted"`
	Stats      *store.PostingStats `json:"stats,omitempty"`
	IndexCount int                 `json:"index_count"`
}

// Runner drives convergence of the record store into the vector index
// in bounded batches. Upsert and mark-embedded are not transactional
// across the two stores; a crash between them leaves the posting
// pending and it is re-upserted on the next pass, which is safe because
// index upserts are idempotent per posting id.
type Runner struct {
	store     *store.Store
	index     vectorindex.Index
	interval  time.Duration
	batchSize int
}

func NewRunner(st *store.Store, index vectorindex.Index, batchSize int) *Runner {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Runner{
		store:     st,
		index:     index,
		interval:  2 * time.Minute,
		batchSize: batchSize,
	}
}

// Run starts the background sync loop.
func (r *Runner) Run(ctx context.Context) {
	// Process once on startup
	if _, err := r.RunOnce(ctx); err != nil {
		slog.Error("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				slog.Error("sync pass failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("sync runner stopped")
			return
		}
	}
}

// RunOnce processes a single batch of pending postings. Individual
// posting failures are counted and skipped; the posting stays pending
// and is retried on the next invocation.
func (r *Runner) RunOnce(ctx context.Context) (*Result, error) {
	pending, err := r.store.PostingsPendingEmbedding(ctx, r.batchSize)
	if err != nil {
		return nil, err
	}

	result := &Result{Attempted: len(pending)}
	for _, posting := range pending {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := r.index.Upsert(ctx, posting); err != nil {
			slog.Error("failed to index posting", "postingID", posting.ID, "error", err)
			result.Failed++
			continue
		}
		marked, err := r.store.MarkPostingEmbedded(ctx, posting.ID)
		if err != nil {
			slog.Error("failed to mark posting embedded", "postingID", posting.ID, "error", err)
			result.Failed++
			continue
		}
		if !marked {
			// Already marked by a concurrent pass; the index upsert
			// above was a no-op overwrite.
			slog.Warn("posting was already marked embedded", "postingID", posting.ID)
		}
		result.Succeeded++
	}

	stats, err := r.store.GetPostingStats(ctx)
	if err != nil {
		slog.Error("failed to fetch posting stats", "error", err)
	} else {
		result.Stats = stats
	}
	count, err := r.index.Count(ctx)
	if err != nil {
		slog.Error("failed to count index entries", "error", err)
	} else {
		result.IndexCount = count
	}

	if result.Attempted > 0 {
		slog.Info("sync pass finished",
			"attempted", result.Attempted,
			"succeeded", result.Succeeded,
			"failed", result.Failed)
	}
	return result, nil
}

// Drain loops RunOnce until no pending postings remain. It stops early
// when a pass makes no progress so a permanently failing posting cannot
// spin the loop forever.
func (r *Runner) Drain(ctx context.Context) (*Result, error) {
	total := &Result{}
	for {
		res, err := r.RunOnce(ctx)
		if res != nil {
			total.Attempted += res.Attempted
			total.Succeeded += res.Succeeded
			total.Failed += res.Failed
			total.Stats = res.Stats
			total.IndexCount = res.IndexCount
		}
		if err != nil {
			return total, err
		}
		if res.Attempted == 0 || res.Stats == nil || res.Stats.Pending == 0 {
			return total, nil
		}
		if res.Succeeded == 0 {
			slog.Warn("sync drain made no progress, stopping", "pending", res.Stats.Pending)
			return total, nil
		}
	}
}
