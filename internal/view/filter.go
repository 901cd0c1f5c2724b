package view

import (
	"strings"

	"github.com/propgrid/propgrid/pkg/types"
)

// Matches reports whether any search field of row contains query,
// case-insensitively. Absent fields never match. An empty query matches
// every row.
func Matches(row types.Row, searchFields []string, query string) bool {
	if query == "" {
		return true
	}
	return matchesFolded(row, searchFields, strings.ToLower(query))
}

func matchesFolded(row types.Row, searchFields []string, folded string) bool {
	for _, field := range searchFields {
		v, ok := types.ResolvePath(row, field)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(Stringify(v)), folded) {
			return true
		}
	}
	return false
}

// filterRows returns the rows matching query in their original order.
// The result never aliases the input slice.
func filterRows(rows []types.Row, searchFields []string, query string) []types.Row {
	if query == "" {
		out := make([]types.Row, len(rows))
		copy(out, rows)
		return out
	}

	folded := strings.ToLower(query)
	out := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		if matchesFolded(row, searchFields, folded) {
			out = append(out, row)
		}
	}
	return out
}
