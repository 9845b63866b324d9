// Package match implements the subsequence matcher behind the browser's name
// filter and its highlight rendering.
package match

import "unicode"

// Match reports whether pattern is a case-insensitive subsequence of text.
// Each pattern rune is matched greedily against the next occurrence in text
// after the previous match. On success the returned indices are the rune
// positions of the matched characters, in strictly increasing order; they feed
// highlight rendering. An empty pattern matches everything with an empty
// (non-nil) index list. A miss returns (nil, false).
func Match(text, pattern string) ([]int, bool) {
	if pattern == "" {
		return []int{}, true
	}

	runes := []rune(text)
	indices := make([]int, 0, len(pattern))
	pos := 0

	for _, pr := range pattern {
		pr = unicode.ToLower(pr)
		found := -1
		for i := pos; i < len(runes); i++ {
			if unicode.ToLower(runes[i]) == pr {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		indices = append(indices, found)
		pos = found + 1
	}

	return indices, true
}
