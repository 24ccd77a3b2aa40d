package vector

import (
	"context"
	"encoding/binary"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seportal/searchd/internal/db"
	"github.com/seportal/searchd/internal/domain"
	indexeruc "github.com/seportal/searchd/internal/usecase/indexer"
	searchuc "github.com/seportal/searchd/internal/usecase/search"
)

// memoryStore keeps hashes in a map and answers KNN queries with real
// cosine similarity over the stored vector blobs, mimicking the FT
// backend closely enough for end-to-end round trips.
type memoryStore struct {
	hashes map[string]map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{hashes: make(map[string]map[string]string)}
}

func (m *memoryStore) HSet(_ context.Context, key string, fields map[string]string) error {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.hashes[key] = cp
	return nil
}

func (m *memoryStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	return nil
}

func (m *memoryStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memoryStore) CreateIndex(_ context.Context, _ *db.IndexDefinition) error { return nil }

func (m *memoryStore) DropIndex(_ context.Context, _ string) error { return nil }

func (m *memoryStore) IndexExists(_ context.Context, _ string) (bool, error) { return false, nil }

func (m *memoryStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	type hit struct {
		key    string
		score  float64
		fields map[string]string
	}

	var hits []hit
	for key, fields := range m.hashes {
		vec := bytesToVector(fields[fieldVector])
		fieldCopy := make(map[string]string, len(q.ReturnFields))
		for _, f := range q.ReturnFields {
			if f == fieldVector || f == fieldVectorScore {
				continue
			}
			if v, ok := fields[f]; ok {
				fieldCopy[f] = v
			}
		}
		hits = append(hits, hit{
			key:    key,
			score:  math.Max(0, 1.0-cosineDistance(q.Vector, vec)),
			fields: fieldCopy,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].key < hits[j].key
	})
	if len(hits) > q.K {
		hits = hits[:q.K]
	}

	res := &db.SearchResult{Total: len(hits)}
	for _, h := range hits {
		res.Entries = append(res.Entries, db.SearchEntry{Key: h.key, Score: h.score, Fields: h.fields})
	}
	return res, nil
}

func bytesToVector(s string) []float32 {
	b := []byte(s)
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// hashEmbedder folds characters into a fixed-dimension vector, so
// identical text always embeds identically and different texts almost
// never do.
type hashEmbedder struct {
	dim int
}

func (e *hashEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float32, e.dim)
	for i, r := range text {
		vec[(i+int(r))%e.dim] += float32(r%31) + 1
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

type staticSnapshotter struct {
	snap domain.Snapshot
}

func (s *staticSnapshotter) Snapshot(_ context.Context) (domain.Snapshot, error) {
	return s.snap, nil
}

// Indexing an item and then querying with its embedding text verbatim
// must surface that item among the top-K hits: identical text embeds
// identically, so its cosine similarity is maximal.
func TestIndexThenQueryRoundTrip(t *testing.T) {
	const dim = 8
	store := newMemoryStore()
	repo := New(store, "seportal:", dim)
	embed := &hashEmbedder{dim: dim}

	items := []domain.SearchableItem{
		{
			ID: "url-1", Title: "Design System", Description: "component library",
			Kind: domain.KindAsset, TargetPath: "/library", Icon: "🔗", Metadata: "ui frontend",
		},
		{
			ID: "script-2", Title: "cleanup.sh", Description: "nightly retention job",
			Kind: domain.KindScript, TargetPath: "/scripts", Icon: "📜", Metadata: "bash ops",
		},
		{
			ID: "event-3", Title: "Summit", Description: "annual meetup",
			Kind: domain.KindEvent, TargetPath: "/events", Icon: "📅", Metadata: "dubai offsite",
		},
	}

	idx := indexeruc.New(
		&staticSnapshotter{snap: domain.Snapshot{Items: items, Complete: true}},
		repo, embed, time.Second, zap.NewNop(),
	)
	report, err := idx.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex() error: %v", err)
	}
	if report.Indexed() != len(items) || report.Failed() != 0 {
		t.Fatalf("indexed/failed = %d/%d, want %d/0", report.Indexed(), report.Failed(), len(items))
	}

	svc := searchuc.New(repo, embed, "stub", 8, time.Second)
	for _, it := range items {
		results, err := svc.Search(context.Background(), it.EmbeddingText())
		if err != nil {
			t.Fatalf("Search(%s) error: %v", it.ID, err)
		}

		found := false
		for _, r := range results {
			if r.ID == it.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("Search(%s): id missing from results %v", it.ID, results)
			continue
		}
		if results[0].ID != it.ID {
			t.Errorf("Search(%s): top hit = %s (score %.3f), want the item itself",
				it.ID, results[0].ID, results[0].Score)
		}
		if results[0].Score < 0.999 {
			t.Errorf("Search(%s): self-similarity = %.3f, want ~1.0", it.ID, results[0].Score)
		}
	}
}
