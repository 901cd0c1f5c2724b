package view

import (
	"strconv"
	"strings"

	"github.com/propgrid/propgrid/pkg/types"
)

// Cell returns the display form of one column of row, using the column's
// formatter when present.
func Cell(row types.Row, col types.ColumnDescriptor) string {
	v, ok := types.ResolvePath(row, col.Field)
	if !ok {
		v = nil
	}
	if col.Formatter != nil {
		return col.Formatter(v, row)
	}
	return Stringify(v)
}

// Display renders rows into display cells, one slice per row in column order.
func Display(rows []types.Row, columns []types.ColumnDescriptor) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = Cell(row, col)
		}
		out[i] = cells
	}
	return out
}

// Headers returns the header labels of columns.
func Headers(columns []types.ColumnDescriptor) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Header()
	}
	return out
}

// Number formats numeric values with a fixed number of decimals and
// thousands separators. Non-numeric values fall back to Stringify.
func Number(decimals int) types.Formatter {
	return func(v interface{}, _ types.Row) string {
		f, ok := toFloat(v)
		if !ok {
			return Stringify(v)
		}
		return groupThousands(strconv.FormatFloat(f, 'f', decimals, 64))
	}
}

// Currency formats numeric values as money, e.g. "$1,250.00".
func Currency(symbol string, decimals int) types.Formatter {
	num := Number(decimals)
	return func(v interface{}, row types.Row) string {
		f, ok := toFloat(v)
		if !ok {
			return Stringify(v)
		}
		s := num(f, row)
		if strings.HasPrefix(s, "-") {
			return "-" + symbol + s[1:]
		}
		return symbol + s
	}
}

// Date formats date values with layout. Unparseable values fall back to
// Stringify.
func Date(layout string) types.Formatter {
	return func(v interface{}, _ types.Row) string {
		t, ok := toTime(v)
		if !ok {
			return Stringify(v)
		}
		return t.Format(layout)
	}
}

// Join formats list values with sep.
func Join(sep string) types.Formatter {
	return func(v interface{}, _ types.Row) string {
		switch x := v.(type) {
		case []interface{}:
			parts := make([]string, len(x))
			for i, e := range x {
				parts[i] = Stringify(e)
			}
			return strings.Join(parts, sep)
		case []string:
			return strings.Join(x, sep)
		default:
			return Stringify(v)
		}
	}
}

// Fallback shows placeholder for absent values and otherwise defers to f,
// or to Stringify when f is nil.
func Fallback(placeholder string, f types.Formatter) types.Formatter {
	return func(v interface{}, row types.Row) string {
		if v == nil {
			return placeholder
		}
		if f == nil {
			return Stringify(v)
		}
		return f(v, row)
	}
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
