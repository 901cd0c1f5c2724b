package view

import (
	"github.com/propgrid/propgrid/pkg/types"
)

// DefaultPageSize is the page size a controller starts with.
const DefaultPageSize = 10

// DefaultPageSizeOptions are the sizes offered by the page size selector.
var DefaultPageSizeOptions = []int{10, 25, 50}

// Controller owns the ViewState of one view instance and applies user
// events to it. A Controller is not safe for concurrent use; callers that
// share one must serialise access.
type Controller struct {
	def       Definition
	rows      []types.Row
	version   string
	state     types.ViewState
	pageSizes []int
	memo      *Memo
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		c.state.PageSize = n
	}
}

// WithPageSizeOptions restricts OnPageSizeChange to the given sizes.
// An empty list allows any positive size.
func WithPageSizeOptions(sizes []int) Option {
	return func(c *Controller) {
		c.pageSizes = append([]int(nil), sizes...)
	}
}

// WithState replaces the initial state entirely.
func WithState(state types.ViewState) Option {
	return func(c *Controller) {
		c.state = state
	}
}

// WithMemo resolves through m. version identifies the row collection and
// must change whenever the rows do.
func WithMemo(m *Memo, version string) Option {
	return func(c *Controller) {
		c.memo = m
		c.version = version
	}
}

// NewController creates a controller over rows with the default state.
func NewController(rows []types.Row, def Definition, opts ...Option) (*Controller, error) {
	c := &Controller{
		def:   def,
		rows:  rows,
		state: types.NewViewState(DefaultPageSize),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := def.Validate(c.state); err != nil {
		return nil, err
	}
	if len(c.pageSizes) > 0 && !containsInt(c.pageSizes, c.state.PageSize) {
		return nil, invalidConfig("page size %d is not one of %v", c.state.PageSize, c.pageSizes)
	}
	return c, nil
}

// State returns a copy of the current view state.
func (c *Controller) State() types.ViewState {
	return c.state
}

// Definition returns the view definition.
func (c *Controller) Definition() Definition {
	return c.def
}

// PageSizeOptions returns the allowed page sizes, or nil if any is allowed.
func (c *Controller) PageSizeOptions() []int {
	return append([]int(nil), c.pageSizes...)
}

// SetRows replaces the row collection, e.g. after a refetch. The state is
// kept; the current page is clamped on the next Resolve.
func (c *Controller) SetRows(rows []types.Row, version string) {
	c.rows = rows
	c.version = version
}

// OnSearch sets the search query. The current page is deliberately left
// unchanged and clamped on the next Resolve.
func (c *Controller) OnSearch(query string) {
	c.state.SearchQuery = query
}

// OnSort handles a click on the header of field. Clicking the sorted column
// toggles the direction; clicking another column sorts it ascending.
func (c *Controller) OnSort(field string) error {
	col, ok := types.FindColumn(c.def.Columns, field)
	if !ok {
		return invalidConfig("sort field %q is not a column", field)
	}
	if !col.Sortable {
		return invalidConfig("column %q is not sortable", field)
	}

	if c.state.SortField == field {
		c.state.SortDirection = c.state.SortDirection.Toggle()
		return nil
	}
	c.state.SortField = field
	c.state.SortDirection = types.SortAscending
	return nil
}

// ClearSort removes any sort, restoring source order.
func (c *Controller) ClearSort() {
	c.state.SortField = ""
	c.state.SortDirection = types.SortAscending
}

// OnPageChange navigates to page n. Out-of-range pages are clamped on read.
func (c *Controller) OnPageChange(n int) {
	c.state.CurrentPage = n
}

// OnPageSizeChange sets the page size and always returns to the first page.
func (c *Controller) OnPageSizeChange(n int) error {
	if n <= 0 {
		return invalidConfig("page size must be positive, got %d", n)
	}
	if len(c.pageSizes) > 0 && !containsInt(c.pageSizes, n) {
		return invalidConfig("page size %d is not one of %v", n, c.pageSizes)
	}
	c.state.PageSize = n
	c.state.CurrentPage = 1
	return nil
}

// Resolve computes the visible page and stores the clamped page back into
// the state so later navigation starts from a valid page.
func (c *Controller) Resolve() (*Result, error) {
	var (
		res *Result
		err error
	)
	if c.memo != nil {
		res, err = c.memo.Resolve(c.version, c.rows, c.def, c.state)
	} else {
		res, err = ResolveView(c.rows, c.def, c.state)
	}
	if err != nil {
		return nil, err
	}
	c.state.CurrentPage = res.CurrentPage
	return res, nil
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}
