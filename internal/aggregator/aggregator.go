// Package aggregator builds the searchable content snapshot from the
// portal's heterogeneous source collections.
package aggregator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/seportal/searchd/internal/domain"
	"github.com/seportal/searchd/internal/portal"
)

// Source fetches one raw content collection by name.
type Source interface {
	Collection(ctx context.Context, name string) ([]portal.Record, error)
}

// Aggregator normalizes portal records into SearchableItems.
type Aggregator struct {
	src    Source
	logger *zap.Logger
}

// New creates an aggregator over the given content source.
func New(src Source, logger *zap.Logger) *Aggregator {
	return &Aggregator{src: src, logger: logger}
}

// Snapshot fetches all five collections concurrently and regenerates the
// full item set. Collections fail independently: the snapshot carries
// whatever succeeded plus a completeness flag and the per-collection
// failures. Only when every collection fails does Snapshot return an
// error. Item order is deterministic: url-assets, file-assets, scripts,
// events, shoutouts, each in source order.
func (a *Aggregator) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	records := make([][]portal.Record, len(portal.Collections))
	errs := make([]error, len(portal.Collections))

	var wg sync.WaitGroup
	for i, name := range portal.Collections {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			records[i], errs[i] = a.src.Collection(ctx, name)
		}(i, name)
	}
	wg.Wait()

	snap := domain.Snapshot{Complete: true}
	for i, name := range portal.Collections {
		if errs[i] != nil {
			a.logger.Warn("source collection unreachable",
				zap.String("collection", name),
				zap.Error(errs[i]),
			)
			snap.Complete = false
			snap.Failures = append(snap.Failures, domain.SourceFailure{
				Source: name,
				Err:    fmt.Errorf("%w: %s: %w", domain.ErrSourceFetch, name, errs[i]),
			})
			continue
		}
		snap.Items = append(snap.Items, a.adaptAll(name, records[i])...)
	}

	if len(snap.Failures) == len(portal.Collections) {
		return snap, fmt.Errorf("%w: all %d collections failed", domain.ErrSourceFetch, len(portal.Collections))
	}

	a.logger.Info("content snapshot built",
		zap.Int("items", len(snap.Items)),
		zap.Bool("complete", snap.Complete),
	)
	return snap, nil
}

// adaptAll maps one collection's records, dropping malformed ones with a
// diagnostic instead of aborting the snapshot.
func (a *Aggregator) adaptAll(name string, recs []portal.Record) []domain.SearchableItem {
	adapt := adapters[name]
	items := make([]domain.SearchableItem, 0, len(recs))
	for _, rec := range recs {
		item, err := adapt(rec)
		if err != nil {
			a.logger.Warn("skipping malformed record",
				zap.String("collection", name),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}
	return items
}
