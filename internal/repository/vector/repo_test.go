package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/seportal/searchd/internal/db"
	"github.com/seportal/searchd/internal/domain"
)

// --- Mock store ---

type mockStore struct {
	hashes map[string]map[string]string
	keys   []string

	exists    bool
	existsErr error
	createdIx *db.IndexDefinition
	createErr error
	dropped   []string
	dropErr   error

	searchRes *db.SearchResult
	searchErr error
	lastQuery *db.KNNQuery

	delErr  error
	deleted []string
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	return m.keys, nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdIx = def
	return m.createErr
}

func (m *mockStore) DropIndex(_ context.Context, name string) error {
	if m.dropErr != nil {
		return m.dropErr
	}
	m.dropped = append(m.dropped, name)
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQuery = q
	return m.searchRes, m.searchErr
}

func testItem() domain.SearchableItem {
	return domain.SearchableItem{
		ID:          "url-42",
		Title:       "Design System",
		Description: "component library",
		Kind:        domain.KindAsset,
		TargetPath:  "/library",
		Icon:        "🔗",
		Metadata:    "ui frontend",
	}
}

func TestEnsureIndexCreatesWhenMissing(t *testing.T) {
	store := newMockStore()
	repo := New(store, "seportal:", 4)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex() error: %v", err)
	}

	def := store.createdIx
	if def == nil {
		t.Fatal("index not created")
	}
	if def.Name != "seportal:items:idx" {
		t.Errorf("index name = %q", def.Name)
	}
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "seportal:item:" {
		t.Errorf("prefixes = %v", def.Prefixes)
	}

	var vec *db.IndexField
	for i := range def.Fields {
		if def.Fields[i].Type == db.IndexFieldVector {
			vec = &def.Fields[i]
		}
	}
	if vec == nil {
		t.Fatal("no vector field in definition")
	}
	if vec.VectorDim != 4 || vec.VectorDistance != db.DistanceCosine || vec.VectorAlgo != db.VectorFlat {
		t.Errorf("vector field = %+v", vec)
	}
}

func TestEnsureIndexSkipsExisting(t *testing.T) {
	store := newMockStore()
	store.exists = true
	repo := New(store, "seportal:", 4)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex() error: %v", err)
	}
	if store.createdIx != nil {
		t.Error("index recreated although it exists")
	}
}

func TestDropIndexMissingIsNoop(t *testing.T) {
	store := newMockStore()
	store.dropErr = db.ErrIndexNotFound
	repo := New(store, "seportal:", 4)

	if err := repo.DropIndex(context.Background()); err != nil {
		t.Fatalf("DropIndex() error: %v", err)
	}
}

func TestDropIndexByName(t *testing.T) {
	store := newMockStore()
	repo := New(store, "seportal:", 4)

	if err := repo.DropIndex(context.Background()); err != nil {
		t.Fatalf("DropIndex() error: %v", err)
	}
	if len(store.dropped) != 1 || store.dropped[0] != "seportal:items:idx" {
		t.Errorf("dropped = %v", store.dropped)
	}
}

func TestUpsertWritesHashFields(t *testing.T) {
	store := newMockStore()
	repo := New(store, "seportal:", 2)

	if err := repo.Upsert(context.Background(), testItem(), []float32{0.5, 0.25}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	fields, ok := store.hashes["seportal:item:url-42"]
	if !ok {
		t.Fatalf("key not written; hashes = %v", store.hashes)
	}
	if fields[fieldTitle] != "Design System" || fields[fieldKind] != "asset" {
		t.Errorf("fields = %v", fields)
	}
	if len(fields[fieldVector]) != 8 {
		t.Errorf("vector blob = %d bytes, want 8 (2 x float32)", len(fields[fieldVector]))
	}
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	repo := New(newMockStore(), "seportal:", 4)

	err := repo.Upsert(context.Background(), testItem(), []float32{0.5})
	if !errors.Is(err, domain.ErrIndex) {
		t.Fatalf("err = %v, want ErrIndex", err)
	}
}

func TestQueryMapsEntries(t *testing.T) {
	store := newMockStore()
	store.searchRes = &db.SearchResult{
		Total: 2,
		Entries: []db.SearchEntry{
			{
				Key:   "seportal:item:url-42",
				Score: 0.93,
				Fields: map[string]string{
					fieldTitle:      "Design System",
					fieldKind:       "asset",
					fieldTargetPath: "/library",
					fieldIcon:       "🔗",
				},
			},
			{
				Key:    "seportal:item:script-7",
				Score:  0.71,
				Fields: map[string]string{fieldTitle: "cleanup.sh", fieldKind: "script"},
			},
		},
	}
	repo := New(store, "seportal:", 2)

	results, err := repo.Query(context.Background(), []float32{0.1, 0.2}, 8)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}

	if store.lastQuery.K != 8 || store.lastQuery.IndexName != "seportal:items:idx" {
		t.Errorf("query = %+v", store.lastQuery)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].ID != "url-42" || results[0].Score != 0.93 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[0].Kind != domain.KindAsset || results[0].TargetPath != "/library" {
		t.Errorf("results[0] fields = %+v", results[0])
	}
	if results[1].ID != "script-7" {
		t.Errorf("results[1].ID = %q, want script-7 (prefix stripped)", results[1].ID)
	}
}

func TestQueryErrorWrapped(t *testing.T) {
	store := newMockStore()
	store.searchErr = errors.New("no such index")
	repo := New(store, "seportal:", 2)

	_, err := repo.Query(context.Background(), []float32{0.1, 0.2}, 8)
	if !errors.Is(err, domain.ErrIndex) {
		t.Fatalf("err = %v, want ErrIndex", err)
	}
}

func TestPurgeDeletesAllItemKeys(t *testing.T) {
	store := newMockStore()
	store.keys = []string{"seportal:item:url-1", "seportal:item:script-2"}
	repo := New(store, "seportal:", 2)

	n, err := repo.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Purge() = %d, want 2", n)
	}
	if len(store.deleted) != 2 {
		t.Errorf("deleted = %v", store.deleted)
	}
}

func TestPurgeEmptyIndex(t *testing.T) {
	repo := New(newMockStore(), "seportal:", 2)

	n, err := repo.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	if n != 0 {
		t.Errorf("Purge() = %d, want 0", n)
	}
}
