package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrPermission   ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Scan errors
	ErrScanRoot ErrorCode = "SCAN_ROOT"
	ErrScanRead ErrorCode = "SCAN_READ"

	// Manifest errors
	ErrManifestRead    ErrorCode = "MANIFEST_READ"
	ErrManifestWrite   ErrorCode = "MANIFEST_WRITE"
	ErrManifestCorrupt ErrorCode = "MANIFEST_CORRUPT"

	// Diff errors
	ErrWeakCompareRefused ErrorCode = "WEAK_COMPARE_REFUSED"

	// Executor errors
	ErrDestCreate   ErrorCode = "DEST_CREATE"
	ErrCopy         ErrorCode = "COPY"
	ErrVerify       ErrorCode = "VERIFY"
	ErrRetryExhaust ErrorCode = "RETRY_EXHAUSTED"
	ErrFailureLog   ErrorCode = "FAILURE_LOG"

	// Collaborator errors
	ErrArchive ErrorCode = "ARCHIVE"
	ErrSync    ErrorCode = "SYNC"
)

// HazbakError represents a structured error with code and details
type HazbakError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *HazbakError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *HazbakError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *HazbakError) Is(target error) bool {
	var targetErr *HazbakError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new HazbakError with the given code and message
func New(code ErrorCode, message string) *HazbakError {
	return &HazbakError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new HazbakError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *HazbakError {
	return &HazbakError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a HazbakError
func Wrap(err error, code ErrorCode, message string) *HazbakError {
	if err == nil {
		return nil
	}
	return &HazbakError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *HazbakError {
	if err == nil {
		return nil
	}
	return &HazbakError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *HazbakError) WithDetail(key string, value interface{}) *HazbakError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var hazErr *HazbakError
	if errors.As(err, &hazErr) {
		return hazErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a HazbakError
func GetErrorCode(err error) ErrorCode {
	var hazErr *HazbakError
	if errors.As(err, &hazErr) {
		return hazErr.Code
	}
	return ErrUnknown
}
