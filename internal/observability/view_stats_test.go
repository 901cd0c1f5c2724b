package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/propgrid/propgrid/pkg/types"
)

func sortedState(field string, dir types.SortDirection) types.ViewState {
	s := types.NewViewState(10)
	s.SortField = field
	s.SortDirection = dir
	return s
}

// TestRecordResolveConcurrent tests concurrent RecordResolve calls for race conditions.
func TestRecordResolveConcurrent(t *testing.T) {
	vs := NewViewStats(time.Hour)
	var wg sync.WaitGroup
	numGoroutines := 10
	recordsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerGoroutine; j++ {
				vs.RecordResolve("properties", sortedState("name", types.SortAscending))
				vs.RecordResolve("properties", sortedState("units", types.SortDescending))
			}
		}()
	}
	wg.Wait()

	expected := int64(numGoroutines * recordsPerGoroutine)
	top := vs.GetTopSortFields(10)
	if len(top) != 2 {
		t.Fatalf("expected 2 sort fields, got %d", len(top))
	}
	for _, fs := range top {
		if fs.Frequency != expected {
			t.Errorf("expected frequency %d for %s, got %d", expected, fs.Field, fs.Frequency)
		}
	}

	ds, ok := vs.Dataset("properties")
	if !ok || ds.Resolves != 2*expected || ds.Sorted != 2*expected {
		t.Errorf("unexpected dataset stats %+v", ds)
	}
}

func TestGetTopSortFieldsOrdering(t *testing.T) {
	vs := NewViewStats(time.Hour)
	for i := 0; i < 3; i++ {
		vs.RecordResolve("properties", sortedState("units", types.SortAscending))
	}
	for i := 0; i < 7; i++ {
		vs.RecordResolve("properties", sortedState("leaseCount", types.SortDescending))
	}
	vs.RecordResolve("properties", sortedState("leaseCount", ""))
	vs.RecordResolve("properties", types.NewViewState(25))

	top := vs.GetTopSortFields(1)
	if len(top) != 1 || top[0].Field != "leaseCount" || top[0].Frequency != 8 {
		t.Fatalf("unexpected top sort field %+v", top)
	}
	if top[0].Directions["desc"] != 7 || top[0].Directions["asc"] != 1 {
		t.Errorf("unexpected directions %v", top[0].Directions)
	}

	// Returned stats are copies.
	top[0].Directions["desc"] = 0
	if vs.GetTopSortFields(1)[0].Directions["desc"] != 7 {
		t.Error("GetTopSortFields exposed internal state")
	}

	if got := vs.GetTopSortFields(0); len(got) != 0 {
		t.Errorf("expected empty result for n=0, got %v", got)
	}
}

func TestSnapshot(t *testing.T) {
	vs := NewViewStats(time.Hour)

	search := types.NewViewState(10)
	search.SearchQuery = "Portland"
	vs.RecordResolve("properties", search)
	vs.RecordResolve("leases", types.NewViewState(25))
	vs.RecordError("leases")

	snap := vs.Snapshot(5)
	if len(snap.Datasets) != 2 || snap.Datasets[0].Dataset != "leases" {
		t.Fatalf("unexpected datasets %+v", snap.Datasets)
	}
	if snap.Datasets[0].Errors != 1 || snap.Datasets[1].Searches != 1 {
		t.Errorf("unexpected counters %+v", snap.Datasets)
	}
	if snap.PageSizes[10] != 1 || snap.PageSizes[25] != 1 {
		t.Errorf("unexpected page sizes %v", snap.PageSizes)
	}
	if len(snap.TopSorts) != 0 {
		t.Errorf("expected no sorts, got %v", snap.TopSorts)
	}
}

func TestPrune(t *testing.T) {
	vs := NewViewStats(50 * time.Millisecond)
	vs.RecordResolve("old", sortedState("name", types.SortAscending))

	time.Sleep(100 * time.Millisecond)
	vs.RecordResolve("fresh", sortedState("name", types.SortAscending))
	vs.Prune()

	if _, ok := vs.Dataset("old"); ok {
		t.Error("expected stale dataset to be pruned")
	}
	if _, ok := vs.Dataset("fresh"); !ok {
		t.Error("expected fresh dataset to survive")
	}
	if top := vs.GetTopSortFields(10); len(top) != 1 || top[0].Dataset != "fresh" {
		t.Errorf("unexpected sort fields after prune %+v", top)
	}
}
