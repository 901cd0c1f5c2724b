package view

import (
	"fmt"

	gerrors "github.com/propgrid/propgrid/internal/errors"
)

// ErrInvalidConfiguration matches every configuration error returned by this
// package via errors.Is.
var ErrInvalidConfiguration = gerrors.NewValidationError(gerrors.CodeInvalidConfiguration, "invalid configuration")

func invalidConfig(format string, args ...interface{}) error {
	return gerrors.NewValidationError(gerrors.CodeInvalidConfiguration, fmt.Sprintf(format, args...))
}
