// Package ranker is the client-side fallback for the Cmd+K search box:
// a deterministic, dependency-free keyword scorer used when the remote
// semantic search path is unreachable. It is a pure function of
// (query, items) — no state, no network — so remote and fallback
// rankings may disagree for the same query, which is accepted: the two
// paths are never mixed within one search session.
package ranker

import (
	"sort"
	"strings"
)

// MaxResults caps the number of hits returned, matching the remote
// search path's top-K.
const MaxResults = 8

// Item is the locally cached searchable item the scorer runs against.
// Field tags mirror the /snapshot wire shape.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	TargetPath  string `json:"targetPath"`
	Icon        string `json:"icon"`
	Metadata    string `json:"metadata"`
}

// Result is one scored hit.
type Result struct {
	Item
	Score int `json:"score"`
}

// Score computes the keyword relevance of one item. All comparisons are
// case-insensitive substring checks against the lowercased query:
//
//	title equals query          +100
//	else title starts with it    +50
//	else title contains it       +30
//	description contains it      +20
//	metadata contains it         +10
//
// Each whitespace token longer than two characters additionally scores
// +5 for a title hit and +2 for a description hit, except the token that
// is the whole query itself (already covered above). Tokens are not
// deduplicated, so repeated tokens compound.
func Score(query string, it Item) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	title := strings.ToLower(it.Title)
	desc := strings.ToLower(it.Description)
	meta := strings.ToLower(it.Metadata)

	score := 0
	switch {
	case title == q:
		score += 100
	case strings.HasPrefix(title, q):
		score += 50
	case strings.Contains(title, q):
		score += 30
	}

	if desc != "" && strings.Contains(desc, q) {
		score += 20
	}
	if meta != "" && strings.Contains(meta, q) {
		score += 10
	}

	for _, tok := range strings.Fields(q) {
		if len(tok) <= 2 || tok == q {
			continue
		}
		if strings.Contains(title, tok) {
			score += 5
		}
		if strings.Contains(desc, tok) {
			score += 2
		}
	}

	return score
}

// Rank scores every item, drops zero scores, sorts descending (stable:
// ties preserve snapshot order) and returns at most MaxResults hits.
func Rank(query string, items []Item) []Result {
	results := make([]Result, 0, len(items))
	for _, it := range items {
		if s := Score(query, it); s > 0 {
			results = append(results, Result{Item: it, Score: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}
