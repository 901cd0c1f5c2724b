// Package view derives the visible page of a tabular view from a row
// collection, its column descriptors and the current view state.
//
// The pipeline is filter, then stable sort, then paginate. ResolveView is a
// pure function; Controller owns one mutable ViewState and applies user
// events to it.
package view

import (
	"github.com/propgrid/propgrid/pkg/types"
)

// Definition is the static configuration of a view.
type Definition struct {
	// Columns describe every field the view can display or sort by.
	Columns []types.ColumnDescriptor `json:"columns"`

	// SearchFields are the column fields matched by the search query.
	// Every entry must name a column.
	SearchFields []string `json:"search_fields"`
}

// Validate checks the definition and the state against each other.
func (d Definition) Validate(state types.ViewState) error {
	if err := d.ValidateColumns(); err != nil {
		return err
	}
	return d.validateState(state)
}

// ValidateColumns checks the columns and search fields on their own.
func (d Definition) ValidateColumns() error {
	seen := make(map[string]struct{}, len(d.Columns))
	for i, c := range d.Columns {
		if c.Field == "" {
			return invalidConfig("column %d has no field", i)
		}
		if _, dup := seen[c.Field]; dup {
			return invalidConfig("duplicate column %q", c.Field)
		}
		seen[c.Field] = struct{}{}

		switch c.Type {
		case "", types.ColumnString, types.ColumnNumber, types.ColumnDate:
		default:
			return invalidConfig("column %q has unknown type %q", c.Field, c.Type)
		}
	}

	for _, f := range d.SearchFields {
		if _, ok := seen[f]; !ok {
			return invalidConfig("search field %q is not a column", f)
		}
	}
	return nil
}

func (d Definition) validateState(state types.ViewState) error {
	if state.PageSize <= 0 {
		return invalidConfig("page size must be positive, got %d", state.PageSize)
	}

	switch state.SortDirection {
	case "", types.SortAscending, types.SortDescending:
	default:
		return invalidConfig("unknown sort direction %q", state.SortDirection)
	}

	if state.SortField == "" {
		return nil
	}
	col, ok := types.FindColumn(d.Columns, state.SortField)
	if !ok {
		return invalidConfig("sort field %q is not a column", state.SortField)
	}
	if !col.Sortable {
		return invalidConfig("column %q is not sortable", state.SortField)
	}
	return nil
}
