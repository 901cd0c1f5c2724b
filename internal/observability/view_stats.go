// Package observability tracks how views are used: which datasets are
// resolved, how often users search, and which columns they sort by.
package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/propgrid/propgrid/pkg/types"
)

// ViewStats counts view resolutions per dataset and column.
type ViewStats struct {
	mu        sync.RWMutex
	datasets  map[string]*DatasetStats
	sortFreq  map[string]*FieldStats // "dataset/field" → stats
	pageSizes map[int]int64
	window    time.Duration
	started   time.Time
}

// DatasetStats holds resolution counters for one dataset.
type DatasetStats struct {
	Dataset  string    `json:"dataset"`
	Resolves int64     `json:"resolves"`
	Searches int64     `json:"searches"`
	Sorted   int64     `json:"sorted"`
	Errors   int64     `json:"errors"`
	LastSeen time.Time `json:"last_seen"`
}

// FieldStats holds sort usage for one column of one dataset.
type FieldStats struct {
	Dataset    string           `json:"dataset"`
	Field      string           `json:"field"`
	Frequency  int64            `json:"frequency"`
	LastSeen   time.Time        `json:"last_seen"`
	Directions map[string]int64 `json:"directions"` // direction → count (e.g., "asc" → 5)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Since     time.Time      `json:"since"`
	Datasets  []DatasetStats `json:"datasets"`
	TopSorts  []FieldStats   `json:"top_sorts"`
	PageSizes map[int]int64  `json:"page_sizes"`
}

// NewViewStats creates a tracker. window is the age after which Prune drops
// entries that have not been seen.
func NewViewStats(window time.Duration) *ViewStats {
	return &ViewStats{
		datasets:  make(map[string]*DatasetStats),
		sortFreq:  make(map[string]*FieldStats),
		pageSizes: make(map[int]int64),
		window:    window,
		started:   time.Now(),
	}
}

// RecordResolve records one resolution of dataset with state.
// This method is O(1) and thread-safe.
func (v *ViewStats) RecordResolve(dataset string, state types.ViewState) {
	now := time.Now()

	v.mu.Lock()
	defer v.mu.Unlock()

	ds := v.dataset(dataset)
	ds.Resolves++
	ds.LastSeen = now
	if state.SearchQuery != "" {
		ds.Searches++
	}
	v.pageSizes[state.PageSize]++

	if !state.IsSorted() {
		return
	}
	ds.Sorted++

	key := dataset + "/" + state.SortField
	fs, exists := v.sortFreq[key]
	if !exists {
		fs = &FieldStats{
			Dataset:    dataset,
			Field:      state.SortField,
			Directions: make(map[string]int64),
		}
		v.sortFreq[key] = fs
	}
	fs.Frequency++
	fs.LastSeen = now
	direction := state.SortDirection
	if direction == "" {
		direction = types.SortAscending
	}
	fs.Directions[string(direction)]++
}

// RecordError records a failed resolution of dataset.
func (v *ViewStats) RecordError(dataset string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ds := v.dataset(dataset)
	ds.Errors++
	ds.LastSeen = time.Now()
}

func (v *ViewStats) dataset(name string) *DatasetStats {
	ds, exists := v.datasets[name]
	if !exists {
		ds = &DatasetStats{Dataset: name}
		v.datasets[name] = ds
	}
	return ds
}

// GetTopSortFields returns the n most sorted-by columns.
// Returns copies sorted by frequency (descending), ties by dataset and field.
func (v *ViewStats) GetTopSortFields(n int) []FieldStats {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if n <= 0 || len(v.sortFreq) == 0 {
		return []FieldStats{}
	}

	stats := make([]FieldStats, 0, len(v.sortFreq))
	for _, s := range v.sortFreq {
		c := *s
		c.Directions = make(map[string]int64, len(s.Directions))
		for d, count := range s.Directions {
			c.Directions[d] = count
		}
		stats = append(stats, c)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Frequency != stats[j].Frequency {
			return stats[i].Frequency > stats[j].Frequency
		}
		if stats[i].Dataset != stats[j].Dataset {
			return stats[i].Dataset < stats[j].Dataset
		}
		return stats[i].Field < stats[j].Field
	})

	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// Dataset returns the counters of one dataset.
func (v *ViewStats) Dataset(name string) (DatasetStats, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ds, ok := v.datasets[name]
	if !ok {
		return DatasetStats{}, false
	}
	return *ds, true
}

// Snapshot copies all counters, with the top sorts limited to topN.
func (v *ViewStats) Snapshot(topN int) Snapshot {
	top := v.GetTopSortFields(topN)

	v.mu.RLock()
	defer v.mu.RUnlock()

	snap := Snapshot{
		Since:     v.started,
		Datasets:  make([]DatasetStats, 0, len(v.datasets)),
		TopSorts:  top,
		PageSizes: make(map[int]int64, len(v.pageSizes)),
	}
	for _, ds := range v.datasets {
		snap.Datasets = append(snap.Datasets, *ds)
	}
	sort.Slice(snap.Datasets, func(i, j int) bool {
		return snap.Datasets[i].Dataset < snap.Datasets[j].Dataset
	})
	for size, count := range v.pageSizes {
		snap.PageSizes[size] = count
	}
	return snap
}

// Prune removes entries not seen within the window.
// This should be called periodically (e.g., every 5 minutes).
func (v *ViewStats) Prune() {
	v.mu.Lock()
	defer v.mu.Unlock()

	threshold := time.Now().Add(-v.window)

	for name, ds := range v.datasets {
		if ds.LastSeen.Before(threshold) {
			delete(v.datasets, name)
		}
	}
	for key, fs := range v.sortFreq {
		if fs.LastSeen.Before(threshold) {
			delete(v.sortFreq, key)
		}
	}
}
