package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGridError_Error(t *testing.T) {
	err := New(ErrCategoryValidation, CodeInvalidConfiguration, "page size must be positive")
	expected := "[VALIDATION:INVALID_CONFIGURATION] page size must be positive"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestGridError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryStorage, CodeDownloadFailed, "snapshot download failed", cause)
	expected := "[STORAGE:DOWNLOAD_FAILED] snapshot download failed: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestGridError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryDataset, CodeDecodeFailed, "bad document", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestGridError_Is(t *testing.T) {
	err1 := New(ErrCategoryValidation, CodeInvalidConfiguration, "first")
	err2 := New(ErrCategoryValidation, CodeInvalidConfiguration, "second")
	err3 := New(ErrCategorySession, CodeSessionNotFound, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}

	wrapped := fmt.Errorf("resolve: %w", err1)
	if !errors.Is(wrapped, err2) {
		t.Error("Is should see through fmt wrapping")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryStorage, CodeUploadFailed, true},
		{ErrCategoryStorage, CodeDownloadFailed, true},
		{ErrCategoryStorage, CodeObjectNotFound, false},
		{ErrCategoryValidation, CodeInvalidConfiguration, false},
		{ErrCategoryDataset, CodeDatasetNotFound, false},
		{ErrCategoryDataset, CodeDecodeFailed, false},
		{ErrCategorySession, CodeSessionNotFound, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategoryAndCode(t *testing.T) {
	err := NewDatasetError(CodeDatasetNotFound, "no such dataset", nil)
	if GetCategory(err) != ErrCategoryDataset {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryDataset)
	}
	if GetCode(err) != CodeDatasetNotFound {
		t.Errorf("got %q, want %q", GetCode(err), CodeDatasetNotFound)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" || GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-GridError should return empty category and code")
	}
}

func TestClassification(t *testing.T) {
	if !IsNotFound(NewSessionError(CodeSessionNotFound, "gone")) {
		t.Error("session not found should be a not-found error")
	}
	if !IsNotFound(NewStorageError(CodeObjectNotFound, "missing", nil)) {
		t.Error("object not found should be a not-found error")
	}
	if IsNotFound(NewValidationError(CodeInvalidConfiguration, "bad")) {
		t.Error("validation error is not a not-found error")
	}
	if !IsInvalidInput(NewValidationError(CodeInvalidConfiguration, "bad")) {
		t.Error("validation error should be invalid input")
	}
	if !IsInvalidInput(NewSessionError(CodeUnknownEvent, "bogus")) {
		t.Error("unknown event should be invalid input")
	}
	if IsInvalidInput(NewInternalError("boom", nil)) {
		t.Error("internal error is not invalid input")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryValidation, CodeInvalidConfiguration, "unknown sort field")
	detailed := err.WithDetails(map[string]interface{}{"field": "rent"})

	if detailed.Details["field"] != "rent" {
		t.Error("WithDetails should set details")
	}
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	v := NewValidationError(CodeInvalidConfiguration, "page size 0")
	if v.Category != ErrCategoryValidation || v.Code != CodeInvalidConfiguration {
		t.Error("NewValidationError mismatch")
	}

	d := NewDatasetError(CodeDecodeFailed, "bad json", cause)
	if d.Category != ErrCategoryDataset || !errors.Is(d, cause) {
		t.Error("NewDatasetError mismatch")
	}

	s := NewStorageError(CodeDownloadFailed, "s3 down", cause)
	if s.Category != ErrCategoryStorage || !s.Retryable {
		t.Error("NewStorageError mismatch")
	}

	ss := NewSessionError(CodeSessionNotFound, "expired")
	if ss.Category != ErrCategorySession {
		t.Error("NewSessionError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
