package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ColumnType selects how a column's values are compared when sorting.
type ColumnType string

const (
	// ColumnString compares values case-insensitively as text.
	ColumnString ColumnType = "string"
	// ColumnNumber compares values numerically.
	ColumnNumber ColumnType = "number"
	// ColumnDate compares values chronologically.
	ColumnDate ColumnType = "date"
)

// ParseColumnType parses a column type name. An empty name is a string column.
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(strings.ToLower(strings.TrimSpace(s))) {
	case "", ColumnString:
		return ColumnString, nil
	case ColumnNumber:
		return ColumnNumber, nil
	case ColumnDate:
		return ColumnDate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownColumnType, s)
	}
}

// UnmarshalJSON accepts any casing of the type name.
func (t *ColumnType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseColumnType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Formatter maps a resolved cell value to its display form.
// value is nil when the field is absent from the row.
type Formatter func(value interface{}, row Row) string

// ColumnDescriptor describes how a field is displayed and sorted.
type ColumnDescriptor struct {
	// Field is the dot-separated path of the value within a row.
	Field string `json:"field" yaml:"field"`

	// Label is the header text. Defaults to Field when empty.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Type controls sort comparison.
	Type ColumnType `json:"type" yaml:"type"`

	// Sortable reports whether clicking the header sorts by this column.
	Sortable bool `json:"sortable" yaml:"sortable"`

	// Formatter is an optional display mapping. It is never consulted when
	// filtering or sorting.
	Formatter Formatter `json:"-" yaml:"-"`
}

// Header returns the display label of the column.
func (c ColumnDescriptor) Header() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Field
}

// FindColumn returns the descriptor for field, if present.
func FindColumn(columns []ColumnDescriptor, field string) (ColumnDescriptor, bool) {
	for _, c := range columns {
		if c.Field == field {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}
