package app

import (
	"github.com/sahilm/fuzzy"

	"github.com/jtallard/dockside/internal/entry"
)

const (
	quickOpenMaxResults  = 12
	quickOpenMinCoverage = 0.5
	quickOpenMaxSpread   = 40
)

// quickOpenEntry is one candidate in the quick-open overlay.
type quickOpenEntry struct {
	Entry   entry.Entry
	Matched []int // matched rune offsets into Entry.Path
}

// flattenTree lists every entry in the snapshot, depth first.
func flattenTree(root []entry.Entry) []entry.Entry {
	var out []entry.Entry
	var walk func([]entry.Entry)
	walk = func(items []entry.Entry) {
		for _, e := range items {
			out = append(out, e)
			if len(e.Children) > 0 {
				walk(e.Children)
			}
		}
	}
	walk(root)
	return out
}

// rankQuickOpen fuzzy-ranks candidates by path. Weak matches (low query
// coverage or widely scattered hits) are pruned, but pruning never empties a
// non-empty result set.
func rankQuickOpen(query string, candidates []entry.Entry) []quickOpenEntry {
	if query == "" {
		n := min(quickOpenMaxResults, len(candidates))
		out := make([]quickOpenEntry, 0, n)
		for _, e := range candidates[:n] {
			out = append(out, quickOpenEntry{Entry: e})
		}
		return out
	}

	paths := make([]string, len(candidates))
	for i, e := range candidates {
		paths[i] = e.Path
	}
	matches := fuzzy.Find(query, paths)

	out := make([]quickOpenEntry, 0, quickOpenMaxResults)
	for _, m := range matches {
		if matchCoverage(query, m) < quickOpenMinCoverage {
			continue
		}
		if matchSpread(m) > quickOpenMaxSpread {
			continue
		}
		out = append(out, quickOpenEntry{Entry: candidates[m.Index], Matched: m.MatchedIndexes})
		if len(out) >= quickOpenMaxResults {
			break
		}
	}
	if len(out) == 0 {
		for i := 0; i < len(matches) && i < quickOpenMaxResults; i++ {
			m := matches[i]
			out = append(out, quickOpenEntry{Entry: candidates[m.Index], Matched: m.MatchedIndexes})
		}
	}
	return out
}

func matchCoverage(query string, m fuzzy.Match) float64 {
	if len(query) == 0 {
		return 1
	}
	return float64(len(m.MatchedIndexes)) / float64(len(query))
}

func matchSpread(m fuzzy.Match) int {
	if len(m.MatchedIndexes) == 0 {
		return 0
	}
	return m.MatchedIndexes[len(m.MatchedIndexes)-1] - m.MatchedIndexes[0]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
