package view

import (
	"sort"
	"strings"
	"time"

	"github.com/propgrid/propgrid/pkg/types"
)

// sortKey is the pre-resolved comparison key of one row.
type sortKey struct {
	present bool
	text    string
	number  float64
	when    time.Time
}

type keyedRow struct {
	row types.Row
	key sortKey
}

// Sorter orders rows by a single column.
type Sorter struct {
	column    types.ColumnDescriptor
	direction types.SortDirection
}

// NewSorter creates a sorter for column in the given direction.
func NewSorter(column types.ColumnDescriptor, direction types.SortDirection) *Sorter {
	return &Sorter{column: column, direction: direction}
}

// Sort stably sorts rows in place. Rows whose value is absent rank lowest:
// first when ascending, last when descending. Equal keys keep their
// relative order in both directions.
func (s *Sorter) Sort(rows []types.Row) {
	if len(rows) <= 1 {
		return
	}

	// Resolve every key once rather than on each comparison.
	keyed := make([]keyedRow, len(rows))
	for i, row := range rows {
		keyed[i] = keyedRow{row: row, key: s.keyOf(row)}
	}

	desc := s.direction == types.SortDescending
	sort.SliceStable(keyed, func(i, j int) bool {
		cmp := s.compare(keyed[i].key, keyed[j].key)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	for i := range keyed {
		rows[i] = keyed[i].row
	}
}

func (s *Sorter) keyOf(row types.Row) sortKey {
	v, ok := types.ResolvePath(row, s.column.Field)
	if !ok {
		return sortKey{}
	}

	switch s.column.Type {
	case types.ColumnNumber:
		f, ok := toFloat(v)
		return sortKey{present: ok, number: f}
	case types.ColumnDate:
		t, ok := toTime(v)
		return sortKey{present: ok, when: t}
	default:
		return sortKey{present: true, text: strings.ToLower(Stringify(v))}
	}
}

func (s *Sorter) compare(a, b sortKey) int {
	if !a.present && !b.present {
		return 0
	}
	if !a.present {
		return -1
	}
	if !b.present {
		return 1
	}

	switch s.column.Type {
	case types.ColumnNumber:
		switch {
		case a.number < b.number:
			return -1
		case a.number > b.number:
			return 1
		}
		return 0
	case types.ColumnDate:
		return a.when.Compare(b.when)
	default:
		return strings.Compare(a.text, b.text)
	}
}
