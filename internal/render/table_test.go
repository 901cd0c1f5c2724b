package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/propgrid/propgrid/internal/dataset"
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestTable(t *testing.T) {
	ds := dataset.Properties()
	state := types.NewViewState(5)
	state.SortField = "leaseCount"
	state.SortDirection = types.SortDescending

	res, err := view.ResolveView(ds.Rows, ds.Definition, state)
	if err != nil {
		t.Fatalf("ResolveView failed: %v", err)
	}

	var buf bytes.Buffer
	Table(&buf, "Properties", ds.Definition, state, res)
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// title, header, 5 rows, footer
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d:\n%s", len(lines), out)
	}
	if lines[0] != "Properties" {
		t.Errorf("unexpected title %q", lines[0])
	}
	if !strings.Contains(lines[1], "Leases v") {
		t.Errorf("expected descending indicator in header %q", lines[1])
	}
	if !strings.Contains(lines[2], "Alder Court") || !strings.Contains(lines[2], "$38,400.00") {
		t.Errorf("expected the 14-lease property first, got %q", lines[2])
	}
	if lines[7] != "Showing 1-5 of 12 (page 1 of 3)" {
		t.Errorf("unexpected footer %q", lines[7])
	}
}

func TestFooter(t *testing.T) {
	state := types.NewViewState(10)
	state.SearchQuery = "Tacoma"
	res := &view.Result{Rows: []types.Row{}, TotalPages: 1, CurrentPage: 1, PageSize: 10}

	if got := Footer(state, res); got != `No matching rows, search "Tacoma"` {
		t.Errorf("unexpected footer %q", got)
	}
}
