// Package filter implements the case-insensitive substring search used by list views.
package filter

import (
	"strings"

	"github.com/samber/lo"
)

// Fields extracts the searchable string fields of an item.
type Fields[T any] func(item T) []string

// Apply returns the items where any field contains query, ignoring case.
// A blank query returns items unchanged. Input order is preserved.
func Apply[T any](items []T, query string, fields Fields[T]) []T {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return items
	}

	return lo.Filter(items, func(item T, _ int) bool {
		return Match(needle, fields(item)...)
	})
}

// Match reports whether any value contains needle, ignoring case.
func Match(needle string, values ...string) bool {
	needle = strings.ToLower(needle)
	return lo.SomeBy(values, func(v string) bool {
		return strings.Contains(strings.ToLower(v), needle)
	})
}
