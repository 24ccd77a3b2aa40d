package search

import (
	"context"

	"github.com/seportal/searchd/internal/domain"
)

// Index is the read side of the vector index.
type Index interface {
	Query(ctx context.Context, vec []float32, topK int) ([]domain.ScoredResult, error)
}
