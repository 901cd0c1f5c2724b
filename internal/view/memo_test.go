package view_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/propgrid/propgrid/internal/dataset"
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
)

func TestMemo_MatchesResolveView(t *testing.T) {
	ds := dataset.Properties()
	memo := view.NewMemo(4)

	state := types.NewViewState(5)
	state.SortField = "units"
	state.CurrentPage = 2

	want, err := view.ResolveView(ds.Rows, ds.Definition, state)
	if err != nil {
		t.Fatalf("ResolveView failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		got, err := memo.Resolve(ds.Version, ds.Rows, ds.Definition, state)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("memoised result differs (-want +got):\n%s", diff)
		}
	}

	stats := memo.Stats()
	if stats.Entries != 1 || stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestMemo_KeyCoversInputs(t *testing.T) {
	ds := dataset.Properties()
	memo := view.NewMemo(16)
	base := types.NewViewState(10)

	variants := []func(s *types.ViewState){
		func(s *types.ViewState) {},
		func(s *types.ViewState) { s.SearchQuery = "Portland" },
		func(s *types.ViewState) { s.SortField = "name" },
		func(s *types.ViewState) { s.SortField = "name"; s.SortDirection = types.SortDescending },
		func(s *types.ViewState) { s.PageSize = 25 },
		func(s *types.ViewState) { s.CurrentPage = 2 },
	}
	for _, mutate := range variants {
		state := base
		mutate(&state)
		if _, err := memo.Resolve(ds.Version, ds.Rows, ds.Definition, state); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if memo.Len() != len(variants) {
		t.Errorf("expected %d distinct entries, got %d", len(variants), memo.Len())
	}

	// A new version must miss even with an identical state.
	rows := dataset.PropertyRows()[:3]
	res, err := memo.Resolve(dataset.Version(rows), rows, ds.Definition, base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.TotalFiltered != 3 {
		t.Errorf("stale result served for new version: %d rows", res.TotalFiltered)
	}
}

func TestMemo_Eviction(t *testing.T) {
	ds := dataset.Properties()
	memo := view.NewMemo(2)

	for page := 1; page <= 5; page++ {
		state := types.NewViewState(2)
		state.CurrentPage = page
		if _, err := memo.Resolve(ds.Version, ds.Rows, ds.Definition, state); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if memo.Len() != 2 {
		t.Errorf("expected capacity 2 to hold, got %d entries", memo.Len())
	}

	if view.NewMemo(0) == nil {
		t.Error("expected a memo with default capacity")
	}
}

func TestMemo_ErrorsNotCached(t *testing.T) {
	ds := dataset.Properties()
	memo := view.NewMemo(4)

	_, err := memo.Resolve(ds.Version, ds.Rows, ds.Definition, types.NewViewState(0))
	if !errors.Is(err, view.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
	if memo.Len() != 0 {
		t.Errorf("error result was cached")
	}
}
