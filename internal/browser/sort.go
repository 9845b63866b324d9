package browser

import (
	"sort"
	"strings"

	"github.com/jtallard/dockside/internal/entry"
)

// SortField selects the column a listing is ordered by.
type SortField int

const (
	SortByName SortField = iota
	SortBySize
	SortByModified
	SortByType
)

// SortDirection is ascending or descending.
type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

// SortConfig pairs a field with a direction.
type SortConfig struct {
	Field     SortField
	Direction SortDirection
}

// sortEntries orders items in place. Folders sort before files regardless of
// field or direction; within each group the configured field applies, with a
// case-insensitive name tie-break to keep the order deterministic.
func sortEntries(items []entry.Entry, cfg SortConfig) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]

		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}

		cmp := compareByField(a, b, cfg.Field)
		if cmp == 0 {
			cmp = compareNames(a.Name, b.Name)
		}
		if cfg.Direction == SortDesc {
			cmp = -cmp
		}
		return cmp < 0
	})
}

func compareByField(a, b *entry.Entry, field SortField) int {
	switch field {
	case SortBySize:
		// Missing sizes compare as 0.
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		}
		return 0
	case SortByModified:
		// Zero timestamps compare as the epoch.
		switch {
		case a.ModifiedAt.Before(b.ModifiedAt):
			return -1
		case a.ModifiedAt.After(b.ModifiedAt):
			return 1
		}
		return 0
	case SortByType:
		return strings.Compare(extensionFor(a), extensionFor(b))
	default:
		return compareNames(a.Name, b.Name)
	}
}

func extensionFor(e *entry.Entry) string {
	if e.Extension != "" {
		return strings.ToLower(e.Extension)
	}
	return entry.ExtensionOf(e.Name)
}

func compareNames(a, b string) int {
	cmp := strings.Compare(strings.ToLower(a), strings.ToLower(b))
	if cmp == 0 {
		// Stable fallback so "A" and "a" order consistently.
		cmp = strings.Compare(a, b)
	}
	return cmp
}
