package types

import (
	"fmt"
	"strings"
)

// SortDirection specifies the direction of sorting.
type SortDirection string

const (
	// SortAscending orders lowest values first.
	SortAscending SortDirection = "asc"
	// SortDescending orders highest values first.
	SortDescending SortDirection = "desc"
)

// ParseSortDirection parses "asc" or "desc". An empty string is ascending.
func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortAscending:
		return SortAscending, nil
	case SortDescending:
		return SortDescending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortDirection, s)
	}
}

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortDescending {
		return SortAscending
	}
	return SortDescending
}

// ViewState is the search, sort and pagination configuration of one view.
type ViewState struct {
	// SearchQuery is matched case-insensitively against searchable fields.
	SearchQuery string `json:"search_query"`

	// SortField is the path of the sort column; empty means unsorted.
	SortField string `json:"sort_field,omitempty"`

	// SortDirection applies when SortField is set.
	SortDirection SortDirection `json:"sort_direction,omitempty"`

	// PageSize is the number of rows per page. Must be positive.
	PageSize int `json:"page_size"`

	// CurrentPage is 1-based and clamped on read.
	CurrentPage int `json:"current_page"`
}

// NewViewState returns the state a view starts with.
func NewViewState(pageSize int) ViewState {
	return ViewState{
		SortDirection: SortAscending,
		PageSize:      pageSize,
		CurrentPage:   1,
	}
}

// IsSorted reports whether a sort field is set.
func (s ViewState) IsSorted() bool {
	return s.SortField != ""
}
