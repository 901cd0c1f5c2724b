package view_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/propgrid/propgrid/internal/dataset"
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
)

func newPropertiesController(t *testing.T, opts ...view.Option) *view.Controller {
	t.Helper()
	ds := dataset.Properties()
	c, err := view.NewController(ds.Rows, ds.Definition, opts...)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return c
}

func TestController_Defaults(t *testing.T) {
	c := newPropertiesController(t)
	state := c.State()
	want := types.ViewState{
		SortDirection: types.SortAscending,
		PageSize:      view.DefaultPageSize,
		CurrentPage:   1,
	}
	if diff := cmp.Diff(want, state); diff != "" {
		t.Errorf("unexpected default state (-want +got):\n%s", diff)
	}
	if c.PageSizeOptions() != nil {
		t.Errorf("expected no page size options, got %v", c.PageSizeOptions())
	}
}

func TestController_InvalidOptions(t *testing.T) {
	ds := dataset.Properties()

	if _, err := view.NewController(ds.Rows, ds.Definition, view.WithPageSize(0)); !errors.Is(err, view.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for page size 0, got %v", err)
	}
	if _, err := view.NewController(ds.Rows, ds.Definition,
		view.WithPageSize(30), view.WithPageSizeOptions(view.DefaultPageSizeOptions)); !errors.Is(err, view.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for page size outside options, got %v", err)
	}
}

func TestController_OnSort(t *testing.T) {
	c := newPropertiesController(t)

	if err := c.OnSort("leaseCount"); err != nil {
		t.Fatalf("OnSort failed: %v", err)
	}
	if s := c.State(); s.SortField != "leaseCount" || s.SortDirection != types.SortAscending {
		t.Errorf("expected leaseCount asc, got %s %s", s.SortField, s.SortDirection)
	}

	if err := c.OnSort("leaseCount"); err != nil {
		t.Fatalf("OnSort failed: %v", err)
	}
	if s := c.State(); s.SortDirection != types.SortDescending {
		t.Errorf("expected second click to sort descending, got %s", s.SortDirection)
	}

	res, err := c.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]interface{}{14, 11, 9, 7, 5, 3, 2, 1, 1, 1}, fieldValues(res.Rows, "leaseCount")); diff != "" {
		t.Errorf("unexpected descending page (-want +got):\n%s", diff)
	}

	if err := c.OnSort("name"); err != nil {
		t.Fatalf("OnSort failed: %v", err)
	}
	if s := c.State(); s.SortField != "name" || s.SortDirection != types.SortAscending {
		t.Errorf("expected a new column to sort ascending, got %s %s", s.SortField, s.SortDirection)
	}

	c.ClearSort()
	if c.State().IsSorted() {
		t.Error("expected ClearSort to remove the sort")
	}
}

func TestController_OnSortRejected(t *testing.T) {
	c := newPropertiesController(t)
	for _, field := range []string{"address.street", "rent"} {
		if err := c.OnSort(field); !errors.Is(err, view.ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", field, err)
		}
	}
	if c.State().IsSorted() {
		t.Error("rejected sort changed the state")
	}
}

func TestController_SearchKeepsPage(t *testing.T) {
	c := newPropertiesController(t)
	c.OnPageChange(2)
	c.OnSearch("Portland")

	if c.State().CurrentPage != 2 {
		t.Fatalf("search reset the page to %d", c.State().CurrentPage)
	}

	res, err := c.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.CurrentPage != 1 || len(res.Rows) != 7 {
		t.Errorf("expected page 1 with 7 rows, got page %d with %d rows", res.CurrentPage, len(res.Rows))
	}
	if c.State().CurrentPage != 1 {
		t.Errorf("expected clamped page to be written back, got %d", c.State().CurrentPage)
	}
}

func TestController_OnPageChangeClamped(t *testing.T) {
	c := newPropertiesController(t)
	c.OnPageChange(5)

	res, err := c.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.CurrentPage != 2 || c.State().CurrentPage != 2 {
		t.Errorf("expected page 2, got result %d state %d", res.CurrentPage, c.State().CurrentPage)
	}
}

func TestController_OnPageSizeChange(t *testing.T) {
	c := newPropertiesController(t, view.WithPageSizeOptions(view.DefaultPageSizeOptions))
	c.OnPageChange(2)

	if err := c.OnPageSizeChange(25); err != nil {
		t.Fatalf("OnPageSizeChange failed: %v", err)
	}
	if s := c.State(); s.PageSize != 25 || s.CurrentPage != 1 {
		t.Errorf("expected size 25 on page 1, got size %d page %d", s.PageSize, s.CurrentPage)
	}

	for _, n := range []int{0, -1, 30} {
		if err := c.OnPageSizeChange(n); !errors.Is(err, view.ErrInvalidConfiguration) {
			t.Errorf("size %d: expected ErrInvalidConfiguration, got %v", n, err)
		}
	}
	if c.State().PageSize != 25 {
		t.Errorf("rejected size changed the state to %d", c.State().PageSize)
	}
}

func TestController_SetRows(t *testing.T) {
	c := newPropertiesController(t)
	c.OnPageChange(2)

	c.SetRows(dataset.PropertyRows()[:4], "v2")
	res, err := c.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.TotalFiltered != 4 || res.CurrentPage != 1 {
		t.Errorf("expected 4 rows on page 1, got %d on page %d", res.TotalFiltered, res.CurrentPage)
	}
}

func TestController_WithMemo(t *testing.T) {
	ds := dataset.Properties()
	memo := view.NewMemo(8)
	c, err := view.NewController(ds.Rows, ds.Definition, view.WithMemo(memo, ds.Version))
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	first, err := c.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := c.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first != second {
		t.Error("expected the second resolve to be served from the memo")
	}
	if stats := memo.Stats(); stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("unexpected memo stats %+v", stats)
	}
}
