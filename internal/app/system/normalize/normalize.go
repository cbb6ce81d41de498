// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls so stored values and lookups agree.
package normalize

import "strings"

// Name normalizes a dashboard name or description by trimming whitespace.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// TagKey returns the comparison key for a tag. Tags keep their display
// casing when stored; filters and de-duplication compare on this key.
func TagKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tags trims every tag, drops empty ones and removes case-insensitive
// duplicates, keeping the first spelling seen.
func Tags(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		key := TagKey(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// HasTag reports whether tags contains want, ignoring case.
func HasTag(tags []string, want string) bool {
	key := TagKey(want)
	for _, t := range tags {
		if TagKey(t) == key {
			return true
		}
	}
	return false
}

// SortKey returns the key used when ordering dashboards by name.
func SortKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
