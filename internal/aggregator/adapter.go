package aggregator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/seportal/searchd/internal/domain"
	"github.com/seportal/searchd/internal/portal"
)

// Per-kind fallback glyphs, used when a source record carries no icon.
const (
	iconURLAsset  = "🔗"
	iconFileAsset = "📄"
	iconScript    = "📜"
	iconEvent     = "📅"
	iconShoutout  = "🎉"
)

// adapter maps one raw record of a known collection into a SearchableItem.
// A returned error marks the record malformed; the aggregator logs and
// skips it instead of propagating half-empty items.
type adapter func(rec portal.Record) (domain.SearchableItem, error)

// adapters is keyed by collection name, in snapshot insertion order via
// portal.Collections.
var adapters = map[string]adapter{
	portal.CollectionURLAssets:  adaptURLAsset,
	portal.CollectionFileAssets: adaptFileAsset,
	portal.CollectionScripts:    adaptScript,
	portal.CollectionEvents:     adaptEvent,
	portal.CollectionShoutouts:  adaptShoutout,
}

func adaptURLAsset(rec portal.Record) (domain.SearchableItem, error) {
	return buildItem(rec, "url", domain.KindAsset, "/library", iconURLAsset,
		metaFields(rec, "tags", "owner", "category"))
}

func adaptFileAsset(rec portal.Record) (domain.SearchableItem, error) {
	return buildItem(rec, "file", domain.KindAsset, "/library", iconFileAsset,
		metaFields(rec, "tags", "owner", "category"))
}

func adaptScript(rec portal.Record) (domain.SearchableItem, error) {
	return buildItem(rec, "script", domain.KindScript, "/scripts", iconScript,
		metaFields(rec, "author", "language", "tags"))
}

func adaptEvent(rec portal.Record) (domain.SearchableItem, error) {
	return buildItem(rec, "event", domain.KindEvent, "/events", iconEvent,
		metaFields(rec, "location", "category"))
}

func adaptShoutout(rec portal.Record) (domain.SearchableItem, error) {
	return buildItem(rec, "shoutout", domain.KindShoutout, "/shoutouts", iconShoutout,
		metaFields(rec, "author", "category"))
}

// buildItem applies the shared mapping rules: namespaced id, title with
// name/title fallback, kind defaults for icon and description.
func buildItem(
	rec portal.Record, ns string, kind domain.Kind, targetPath, fallbackIcon, metadata string,
) (domain.SearchableItem, error) {
	rawID, ok := recordID(rec)
	if !ok {
		return domain.SearchableItem{}, fmt.Errorf("%w: %s record has no id", domain.ErrMalformedRecord, ns)
	}

	item := domain.SearchableItem{
		ID:          fmt.Sprintf("%s-%s", ns, rawID),
		Title:       firstString(rec, "title", "name"),
		Description: firstString(rec, "description"),
		Kind:        kind,
		TargetPath:  targetPath,
		Icon:        firstString(rec, "icon"),
		Metadata:    metadata,
	}
	if item.Icon == "" {
		item.Icon = fallbackIcon
	}

	if err := item.Validate(); err != nil {
		return domain.SearchableItem{}, err
	}
	return item, nil
}

// recordID extracts the source id, tolerating string and JSON-number ids.
func recordID(rec portal.Record) (string, bool) {
	for _, key := range []string{"id", "ID"} {
		switch v := rec[key].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatInt(int64(v), 10), true
		}
	}
	return "", false
}

// firstString returns the first non-empty string value among the keys.
func firstString(rec portal.Record, keys ...string) string {
	for _, key := range keys {
		if v, ok := rec[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// metaFields concatenates the kind-specific secondary fields into the
// free-text metadata blob used for scoring. List-valued fields (tags)
// are flattened with spaces.
func metaFields(rec portal.Record, keys ...string) string {
	var parts []string
	for _, key := range keys {
		switch v := rec[key].(type) {
		case string:
			if v != "" {
				parts = append(parts, v)
			}
		case []any:
			for _, e := range v {
				if s, ok := e.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}
