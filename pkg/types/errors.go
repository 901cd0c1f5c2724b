package types

import "errors"

// Column and state parsing errors.
var (
	// ErrUnknownColumnType is returned when a column type name is not string, number or date.
	ErrUnknownColumnType = errors.New("unknown column type")

	// ErrUnknownSortDirection is returned when a sort direction is not asc or desc.
	ErrUnknownSortDirection = errors.New("unknown sort direction")
)
