// Package vector persists item embeddings in the FT.SEARCH index and
// serves KNN lookups over them.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/seportal/searchd/internal/db"
	"github.com/seportal/searchd/internal/domain"
)

// Hash field names of an indexed item document.
const (
	fieldVector      = "__vector"
	fieldVectorScore = "__vector_score"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldKind        = "kind"
	fieldTargetPath  = "target_path"
	fieldIcon        = "icon"
	fieldMetadata    = "metadata"
)

// store is the consumer interface for vector index operations.
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements the vector index contract for the indexer and the
// query service. The indexer owns writes; the query service only reads.
type Repo struct {
	store     store
	keyPrefix string
	dim       int
}

// New creates a vector repository. keyPrefix namespaces all keys
// ("seportal:"), dim is the embedding dimensionality.
func New(s store, keyPrefix string, dim int) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, dim: dim}
}

func (r *Repo) indexName() string  { return r.keyPrefix + "items:idx" }
func (r *Repo) itemPrefix() string { return r.keyPrefix + "item:" }

// EnsureIndex creates the FT index if it does not exist yet.
// Cosine distance over FLOAT32 vectors; the catalog is small enough for
// a FLAT (exact) index.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("%w: index check: %w", domain.ErrIndex, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.itemPrefix()},
		Fields: []db.IndexField{
			{Name: fieldTitle, Type: db.IndexFieldText},
			{Name: fieldKind, Type: db.IndexFieldTag},
			{
				Name:           fieldVector,
				Alias:          "vector",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorFlat,
				VectorDim:      r.dim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("%w: create index: %w", domain.ErrIndex, err)
	}
	return nil
}

// DropIndex removes the FT index definition. Required when the embedding
// dimensionality changes: the vector field cannot be resized in place.
// Dropping a missing index is a no-op.
func (r *Repo) DropIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil && err != db.ErrIndexNotFound {
		return fmt.Errorf("%w: drop index: %w", domain.ErrIndex, err)
	}
	return nil
}

// Upsert writes one item's vector and display metadata. Idempotent: the
// same id overwrites its previous entry.
func (r *Repo) Upsert(ctx context.Context, item domain.SearchableItem, vec []float32) error {
	if len(vec) != r.dim {
		return fmt.Errorf("%w: item %s: vector dim %d, index dim %d",
			domain.ErrIndex, item.ID, len(vec), r.dim)
	}

	fields := map[string]string{
		fieldVector:      vectorToBytes(vec),
		fieldTitle:       item.Title,
		fieldDescription: item.Description,
		fieldKind:        string(item.Kind),
		fieldTargetPath:  item.TargetPath,
		fieldIcon:        item.Icon,
		fieldMetadata:    item.Metadata,
	}

	if err := r.store.HSet(ctx, r.itemPrefix()+item.ID, fields); err != nil {
		return fmt.Errorf("%w: upsert %s: %w", domain.ErrIndex, item.ID, err)
	}
	return nil
}

// Query runs a top-K KNN lookup and maps hits to ScoredResults in the
// index's own relevance order (descending cosine similarity).
func (r *Repo) Query(ctx context.Context, vec []float32, topK int) ([]domain.ScoredResult, error) {
	q := &db.KNNQuery{
		IndexName: r.indexName(),
		Vector:    vec,
		K:         topK,
		ReturnFields: []string{
			fieldTitle, fieldDescription, fieldKind,
			fieldTargetPath, fieldIcon, fieldMetadata, fieldVectorScore,
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: knn query: %w", domain.ErrIndex, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	results := make([]domain.ScoredResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		results = append(results, domain.ScoredResult{
			SearchableItem: domain.SearchableItem{
				ID:          strings.TrimPrefix(entry.Key, r.itemPrefix()),
				Title:       entry.Fields[fieldTitle],
				Description: entry.Fields[fieldDescription],
				Kind:        domain.Kind(entry.Fields[fieldKind]),
				TargetPath:  entry.Fields[fieldTargetPath],
				Icon:        entry.Fields[fieldIcon],
				Metadata:    entry.Fields[fieldMetadata],
			},
			Score: entry.Score,
		})
	}
	return results, nil
}

// Purge deletes every indexed item key. Used for the full rebuild at the
// start of an indexing run so entries for removed source items do not
// outlive them.
func (r *Repo) Purge(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.itemPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("%w: purge scan: %w", domain.ErrIndex, err)
	}

	for i, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return i, fmt.Errorf("%w: purge %s: %w", domain.ErrIndex, key, err)
		}
	}
	return len(keys), nil
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
