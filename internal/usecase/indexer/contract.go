package indexer

import (
	"context"

	"github.com/seportal/searchd/internal/domain"
)

// Snapshotter produces a full content snapshot from the portal sources.
type Snapshotter interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// Index is the write side of the vector index. Owned exclusively by the
// indexer; the query service never writes.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, item domain.SearchableItem, vec []float32) error
	Purge(ctx context.Context) (int, error)
}
