// Package types provides the core data types shared by propgrid components.
package types

import "strings"

// Row is a single opaque record in a viewed collection.
// Values may themselves be nested records (Row or map[string]interface{}),
// addressed with dot-separated paths such as "address.city".
type Row map[string]interface{}

// ID returns the optional rendering key of the row.
func (r Row) ID() (interface{}, bool) {
	return ResolvePath(r, "id")
}

// Get resolves a dot-separated path against the row.
func (r Row) Get(path string) (interface{}, bool) {
	return ResolvePath(r, path)
}

// ResolvePath walks a dot-separated path through nested records.
// The second return value is false when the value is absent: a segment is
// missing, an intermediate value is not a record, or the leaf is nil.
func ResolvePath(record map[string]interface{}, path string) (interface{}, bool) {
	if record == nil || path == "" {
		return nil, false
	}

	var current interface{} = record
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return nil, false
		}
		next, ok := asRecord(current)
		if !ok {
			return nil, false
		}
		current, ok = next[segment]
		if !ok {
			return nil, false
		}
	}

	if current == nil {
		return nil, false
	}
	return current, true
}

func asRecord(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, m != nil
	case Row:
		return m, m != nil
	default:
		return nil, false
	}
}
