package dataset

import (
	"context"
	"fmt"

	gerrors "github.com/propgrid/propgrid/internal/errors"
	"github.com/propgrid/propgrid/pkg/types"
)

// FixtureSource serves the built-in fixtures.
type FixtureSource struct{}

// Rows implements Source.
func (FixtureSource) Rows(ctx context.Context, name string) ([]types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch name {
	case PropertiesName:
		return PropertyRows(), nil
	default:
		return nil, gerrors.NewDatasetError(gerrors.CodeDatasetNotFound, fmt.Sprintf("no fixture named %q", name), nil)
	}
}

// Definitions returns the view definitions of the built-in datasets.
func Definitions() map[string]Definition {
	return map[string]Definition{
		PropertiesName: {Title: "Properties", View: PropertiesDefinition()},
	}
}
