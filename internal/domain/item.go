package domain

import (
	"fmt"
	"strings"
)

// Kind discriminates the heterogeneous portal sources a searchable item
// can come from. The set is closed: the client uses it to pick rendering
// and routing.
type Kind string

// Item kinds.
const (
	KindAsset    Kind = "asset"
	KindScript   Kind = "script"
	KindEvent    Kind = "event"
	KindShoutout Kind = "shoutout"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAsset, KindScript, KindEvent, KindShoutout:
		return true
	}
	return false
}

// SearchableItem is the uniform shape every portal record is normalized
// into. Items are immutable once constructed; staleness is resolved by
// re-fetching the full snapshot, never by patching individual items.
type SearchableItem struct {
	// ID is globally unique within one snapshot, namespaced by source
	// kind ("url-42", "script-7") so ids from different portal tables
	// cannot collide.
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
	// TargetPath is the client route to navigate to on selection.
	TargetPath string `json:"targetPath"`
	Icon       string `json:"icon"`
	// Metadata concatenates kind-specific secondary fields (tags, owner,
	// author, language, location, category). Scoring input only, never
	// displayed as a blob.
	Metadata string `json:"metadata"`
}

// Validate checks the invariants every adapter must uphold.
func (it SearchableItem) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedRecord)
	}
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("%w: item %s has empty title", ErrMalformedRecord, it.ID)
	}
	if !it.Kind.Valid() {
		return fmt.Errorf("%w: item %s has unknown kind %q", ErrMalformedRecord, it.ID, it.Kind)
	}
	return nil
}

// EmbeddingText builds the canonical text the indexer and the query path
// both embed. Indexer and query service must agree on this format and on
// the model, otherwise similarity scores are meaningless.
func (it SearchableItem) EmbeddingText() string {
	return fmt.Sprintf("%s %s %s %s", it.Title, it.Description, it.Metadata, it.Kind)
}

// ScoredResult is a per-query hit. Transient, never persisted.
type ScoredResult struct {
	SearchableItem
	Score float64 `json:"score"`
}

// Snapshot is one full aggregation pass over the portal sources.
// ID uniqueness holds only within a single snapshot.
type Snapshot struct {
	Items []SearchableItem
	// Complete is false when one or more source collections failed to
	// fetch and the snapshot carries partial results.
	Complete bool
	// Failures lists the collections that could not be fetched.
	Failures []SourceFailure
}

// SourceFailure records one unreachable source collection.
type SourceFailure struct {
	Source string
	Err    error
}
