package view

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/propgrid/propgrid/pkg/types"
)

var collisionDef = Definition{
	Columns: []types.ColumnDescriptor{
		{Field: "name", Type: types.ColumnString, Sortable: true},
	},
	SearchFields: []string{"name"},
}

func collisionRows() []types.Row {
	return []types.Row{
		{"name": "Alder"},
		{"name": "Birch"},
		{"name": "Cedar"},
	}
}

func TestMemo_HashCollision(t *testing.T) {
	memo := NewMemo(4)
	memo.hash = func([]byte) uint64 { return 1 }

	rows := collisionRows()
	first := types.NewViewState(2)
	second := types.NewViewState(2)
	second.CurrentPage = 2

	for _, state := range []types.ViewState{first, second, first} {
		want, err := ResolveView(rows, collisionDef, state)
		if err != nil {
			t.Fatalf("ResolveView failed: %v", err)
		}
		got, err := memo.Resolve("v1", rows, collisionDef, state)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("page %d served from a colliding entry (-want +got):\n%s", state.CurrentPage, diff)
		}
	}

	stats := memo.Stats()
	if stats.Hits != 0 || stats.Misses != 3 || stats.Entries != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	// The surviving entry still hits for its own key.
	if _, err := memo.Resolve("v1", rows, collisionDef, first); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if memo.Stats().Hits != 1 {
		t.Errorf("expected a hit for the stored key, got %+v", memo.Stats())
	}
}

func TestCanonicalKey_Distinct(t *testing.T) {
	base := types.NewViewState(10)
	shifted := base
	shifted.SearchQuery = "a"
	shifted.SortField = "b"
	joined := base
	joined.SearchQuery = "ab"

	keys := map[string]bool{}
	for _, state := range []types.ViewState{base, shifted, joined} {
		keys[string(canonicalKey("v", collisionDef, state))] = true
	}
	if len(keys) != 3 {
		t.Errorf("expected 3 distinct keys, got %d", len(keys))
	}
	if string(canonicalKey("v", collisionDef, base)) != string(canonicalKey("v", collisionDef, base)) {
		t.Error("key is not deterministic")
	}
}
