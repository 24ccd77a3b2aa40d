// Package search serves the semantic query path: embed the query with
// the same model the indexer used, then top-K KNN against the index.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seportal/searchd/internal/domain"
)

// Service handles search queries.
type Service struct {
	index   Index
	embed   domain.Embedder
	model   string
	topK    int
	timeout time.Duration
}

// New creates a search service. model is reported to clients so they can
// tell which embedding model ranked their results; it must match the
// model the indexer was wired with.
func New(index Index, embed domain.Embedder, model string, topK int, timeout time.Duration) *Service {
	return &Service{index: index, embed: embed, model: model, topK: topK, timeout: timeout}
}

// Model returns the embedding model identifier.
func (s *Service) Model() string { return s.model }

// Search embeds the query and returns the top-K nearest items in the
// index's relevance order. Empty or whitespace-only queries short-circuit
// to an empty result list without calling the model. Any embedding or
// index failure is returned as an explicit error, never as partial
// results, so the caller can fall back to its local ranker.
func (s *Service) Search(ctx context.Context, query string) ([]domain.ScoredResult, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.ScoredResult{}, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.embed.Embed(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.index.Query(queryCtx, res.Embedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("knn query: %w", err)
	}
	if results == nil {
		results = []domain.ScoredResult{}
	}
	return results, nil
}
