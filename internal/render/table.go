// Package render draws resolved views as terminal tables.
package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
)

// Sort indicators appended to the sorted column's header.
const (
	ascIndicator  = " ^"
	descIndicator = " v"
)

// MaxColWidth caps the width of a rendered cell.
var MaxColWidth uint = 32

// Table writes one page of a view to w: a title, the header row, the
// visible rows and a pagination footer.
func Table(w io.Writer, title string, def view.Definition, state types.ViewState, res *view.Result) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	if title != "" {
		_, _ = fmt.Fprintln(w, bold.Sprint(color.New(color.Underline).Sprint(title)))
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = MaxColWidth

	headers := make([]interface{}, len(def.Columns))
	for i, col := range def.Columns {
		h := col.Header()
		if state.SortField == col.Field {
			if state.SortDirection == types.SortDescending {
				h += descIndicator
			} else {
				h += ascIndicator
			}
		}
		headers[i] = bold.Sprint(h)
	}
	tbl.AddRow(headers...)

	for _, cells := range view.Display(res.Rows, def.Columns) {
		row := make([]interface{}, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		tbl.AddRow(row...)
	}

	for i, col := range def.Columns {
		if col.Type == types.ColumnNumber {
			tbl.RightAlign(i)
		}
	}

	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w, faint.Sprint(Footer(state, res)))
}

// Footer summarises the page window, e.g.
// "Showing 1-10 of 12 (page 1 of 2)".
func Footer(state types.ViewState, res *view.Result) string {
	var s string
	if res.TotalFiltered == 0 {
		s = "No matching rows"
	} else {
		s = fmt.Sprintf("Showing %d-%d of %d (page %d of %d)",
			res.FirstItem, res.LastItem, res.TotalFiltered, res.CurrentPage, res.TotalPages)
	}
	if state.SearchQuery != "" {
		s += fmt.Sprintf(", search %q", state.SearchQuery)
	}
	return s
}
