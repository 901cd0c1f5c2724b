package view

import (
	"github.com/propgrid/propgrid/pkg/types"
)

// Result is the visible page of a view plus pagination metadata.
type Result struct {
	// Rows are the visible rows of the current page. Never nil.
	Rows []types.Row `json:"rows"`

	// TotalFiltered counts rows that passed the search filter.
	TotalFiltered int `json:"total_filtered"`

	// TotalPages is max(1, ceil(TotalFiltered / PageSize)).
	TotalPages int `json:"total_pages"`

	// CurrentPage is the requested page clamped to [1, TotalPages].
	CurrentPage int `json:"current_page"`

	PageSize int `json:"page_size"`

	// FirstItem and LastItem are the 1-based positions of the visible rows
	// within the filtered set, or 0 when the page is empty.
	FirstItem int `json:"first_item"`
	LastItem  int `json:"last_item"`

	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

// ResolveView filters, sorts and paginates rows according to state.
//
// It never modifies rows or the records they hold, and returns an
// InvalidConfiguration error before doing any work when def or state are
// inconsistent.
func ResolveView(rows []types.Row, def Definition, state types.ViewState) (*Result, error) {
	if err := def.Validate(state); err != nil {
		return nil, err
	}
	return resolve(rows, def, state), nil
}

// resolve runs the pipeline on a validated definition and state.
func resolve(rows []types.Row, def Definition, state types.ViewState) *Result {
	filtered := filterRows(rows, def.SearchFields, state.SearchQuery)

	if state.SortField != "" {
		col, _ := types.FindColumn(def.Columns, state.SortField)
		direction := state.SortDirection
		if direction == "" {
			direction = types.SortAscending
		}
		NewSorter(col, direction).Sort(filtered)
	}

	res := &Result{}
	paginate(filtered, state.PageSize, state.CurrentPage, res)
	return res
}
