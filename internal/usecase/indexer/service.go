// Package indexer embeds the content snapshot and upserts it into the
// vector index, one item at a time.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seportal/searchd/internal/domain"
	"github.com/seportal/searchd/internal/domain/batch"
)

// Service runs full indexing passes. Re-running is always safe: upserts
// are idempotent and each run starts from a fresh snapshot.
type Service struct {
	agg     Snapshotter
	index   Index
	embed   domain.Embedder
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an indexing service. timeout bounds each embed/upsert call.
func New(agg Snapshotter, index Index, embed domain.Embedder, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{agg: agg, index: index, embed: embed, timeout: timeout, logger: logger}
}

// Report summarizes one indexing run.
type Report struct {
	Snapshot domain.Snapshot
	Purged   int
	Results  []batch.Result
}

// Indexed returns the number of successfully indexed items.
func (r Report) Indexed() int {
	ok, _ := batch.Summary(r.Results)
	return ok
}

// Failed returns the number of items whose embedding or upsert failed.
func (r Report) Failed() int {
	_, failed := batch.Summary(r.Results)
	return failed
}

// Reindex rebuilds the whole index from a fresh snapshot: purge every
// existing item key, then embed and upsert the new items sequentially.
// A failed item is recorded and skipped; it never aborts the run.
// Sequential upserts bound concurrent model invocations and keep failure
// attribution simple.
func (s *Service) Reindex(ctx context.Context) (Report, error) {
	snap, err := s.agg.Snapshot(ctx)
	if err != nil {
		return Report{Snapshot: snap}, fmt.Errorf("aggregate content: %w", err)
	}
	if len(snap.Items) == 0 {
		return Report{Snapshot: snap}, domain.ErrEmptySnapshot
	}

	if err := s.index.EnsureIndex(ctx); err != nil {
		return Report{Snapshot: snap}, fmt.Errorf("ensure index: %w", err)
	}

	purged, err := s.index.Purge(ctx)
	if err != nil {
		return Report{Snapshot: snap}, fmt.Errorf("purge stale entries: %w", err)
	}

	report := Report{
		Snapshot: snap,
		Purged:   purged,
		Results:  make([]batch.Result, 0, len(snap.Items)),
	}

	for _, item := range snap.Items {
		if err := s.indexOne(ctx, item); err != nil {
			s.logger.Warn("item indexing failed",
				zap.String("item_id", item.ID),
				zap.Error(err),
			)
			report.Results = append(report.Results, batch.NewError(item.ID, err))
			continue
		}
		report.Results = append(report.Results, batch.NewOK(item.ID))
	}

	s.logger.Info("indexing run finished",
		zap.Int("indexed", report.Indexed()),
		zap.Int("failed", report.Failed()),
		zap.Int("purged", purged),
		zap.Bool("snapshot_complete", snap.Complete),
	)
	return report, nil
}

// indexOne embeds and upserts a single item under the per-call timeout.
func (s *Service) indexOne(ctx context.Context, item domain.SearchableItem) error {
	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.embed.Embed(embedCtx, item.EmbeddingText())
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	upsertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.index.Upsert(upsertCtx, item, res.Embedding); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}
