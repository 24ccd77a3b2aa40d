package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCollectionFetch(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]Record{
			{"id": "1", "title": "Docs Portal"},
			{"id": "2", "name": "Brand Kit"},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	recs, err := c.Collection(context.Background(), CollectionURLAssets)
	if err != nil {
		t.Fatalf("Collection() error: %v", err)
	}

	if gotPath != "/url-assets" {
		t.Errorf("path = %q, want /url-assets", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q, want bearer token", gotAuth)
	}
	if len(recs) != 2 || recs[0]["title"] != "Docs Portal" {
		t.Errorf("records = %v", recs)
	}
}

func TestCollectionNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Collection(context.Background(), CollectionEvents); err == nil {
		t.Fatal("want error on non-200 status")
	}
}

func TestCollectionMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Collection(context.Background(), CollectionScripts); err == nil {
		t.Fatal("want error on malformed body")
	}
}

func TestCollectionsOrder(t *testing.T) {
	want := []string{"url-assets", "file-assets", "scripts", "events", "shoutouts"}
	if len(Collections) != len(want) {
		t.Fatalf("len(Collections) = %d, want %d", len(Collections), len(want))
	}
	for i, name := range want {
		if Collections[i] != name {
			t.Errorf("Collections[%d] = %q, want %q", i, Collections[i], name)
		}
	}
}
