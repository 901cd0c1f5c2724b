// Package errors provides structured error types for propgrid.
// Every error carries a category, code, message, and retryable flag so the
// HTTP and gRPC layers can map failures to status codes consistently.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryDataset    ErrorCategory = "DATASET"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategorySession    ErrorCategory = "SESSION"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"

	// Dataset codes
	CodeDatasetNotFound  = "DATASET_NOT_FOUND"
	CodeDecodeFailed     = "DECODE_FAILED"
	CodeDuplicateDataset = "DUPLICATE_DATASET"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Session codes
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeUnknownEvent    = "UNKNOWN_EVENT"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// GridError is the structured error type used throughout propgrid.
type GridError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *GridError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *GridError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *GridError) Is(target error) bool {
	var t *GridError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new GridError.
func New(category ErrorCategory, code, message string) *GridError {
	return &GridError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new GridError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *GridError {
	return &GridError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *GridError) WithDetails(details map[string]interface{}) *GridError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var ge *GridError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a GridError.
func GetCategory(err error) ErrorCategory {
	var ge *GridError
	if errors.As(err, &ge) {
		return ge.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a GridError.
func GetCode(err error) string {
	var ge *GridError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// IsNotFound reports whether err names a missing dataset, session or object.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case CodeDatasetNotFound, CodeSessionNotFound, CodeObjectNotFound:
		return true
	}
	return false
}

// IsInvalidInput reports whether err was caused by caller input.
func IsInvalidInput(err error) bool {
	return GetCategory(err) == ErrCategoryValidation || GetCode(err) == CodeUnknownEvent
}

// Only transient storage transfers are worth retrying; nothing in the view
// pipeline is fallible in a transient sense.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *GridError {
	return New(ErrCategoryValidation, code, message)
}

func NewDatasetError(code, message string, cause error) *GridError {
	return Wrap(ErrCategoryDataset, code, message, cause)
}

func NewStorageError(code, message string, cause error) *GridError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewSessionError(code, message string) *GridError {
	return New(ErrCategorySession, code, message)
}

func NewInternalError(message string, cause error) *GridError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
