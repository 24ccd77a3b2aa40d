package domain

import (
	"errors"
	"testing"
)

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindAsset, KindScript, KindEvent, KindShoutout} {
		if !k.Valid() {
			t.Errorf("Kind(%q).Valid() = false", k)
		}
	}
	if Kind("page").Valid() {
		t.Error(`Kind("page").Valid() = true`)
	}
	if Kind("").Valid() {
		t.Error(`Kind("").Valid() = true`)
	}
}

func TestSearchableItemValidate(t *testing.T) {
	valid := SearchableItem{ID: "url-1", Title: "Docs", Kind: KindAsset, TargetPath: "/library"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name string
		item SearchableItem
	}{
		{"empty id", SearchableItem{Title: "Docs", Kind: KindAsset}},
		{"empty title", SearchableItem{ID: "url-1", Kind: KindAsset}},
		{"whitespace title", SearchableItem{ID: "url-1", Title: " \t", Kind: KindAsset}},
		{"unknown kind", SearchableItem{ID: "url-1", Title: "Docs", Kind: "page"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.item.Validate(); !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("Validate() = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestEmbeddingText(t *testing.T) {
	it := SearchableItem{
		Title:       "Summit",
		Description: "annual meetup",
		Kind:        KindEvent,
		Metadata:    "dubai offsite",
	}
	want := "Summit annual meetup dubai offsite event"
	if got := it.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}
}
