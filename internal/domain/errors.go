package domain

import "errors"

var (
	// ErrSourceFetch signals that a portal content collection was unreachable
	// during aggregation. Surfaced to the operator, never to end users.
	ErrSourceFetch = errors.New("source fetch failed")
	// ErrMalformedRecord signals a source record missing required fields.
	ErrMalformedRecord = errors.New("malformed source record")
	// ErrEmbeddingProvider signals an embedding model call failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrIndex signals a vector index upsert or query failure.
	ErrIndex = errors.New("vector index error")
	// ErrEmptySnapshot signals that aggregation produced no items at all.
	ErrEmptySnapshot = errors.New("empty content snapshot")
)
