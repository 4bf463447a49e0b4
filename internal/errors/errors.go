package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

const (
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Filesystem errors
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrPermission ErrorCode = "PERMISSION"
	ErrIO         ErrorCode = "IO"

	// Deletion policy
	ErrPolicyViolation ErrorCode = "POLICY_VIOLATION"

	// Configuration errors
	ErrConfig ErrorCode = "CONFIG"

	ErrCancelled ErrorCode = "CANCELLED"
)

// VacError represents a structured error with code and details
type VacError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *VacError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *VacError) Unwrap() error {
	return e.Wrapped
}

// Is matches another VacError by code.
func (e *VacError) Is(target error) bool {
	var targetErr *VacError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new VacError with the given code and message
func New(code ErrorCode, message string) *VacError {
	return &VacError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new VacError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *VacError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a VacError
func Wrap(err error, code ErrorCode, message string) *VacError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *VacError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *VacError) WithDetail(key string, value interface{}) *VacError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// FromIO classifies a filesystem error. Errors that are already coded keep
// their code.
func FromIO(err error, path string) error {
	if err == nil {
		return nil
	}
	var vacErr *VacError
	if errors.As(err, &vacErr) {
		return err
	}

	code := ErrIO
	message := "i/o error"
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code, message = ErrNotFound, "not found"
	case errors.Is(err, fs.ErrPermission):
		code, message = ErrPermission, "permission denied"
	}
	return Wrapf(err, code, "%s: %s", message, path).WithDetail("path", path)
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var vacErr *VacError
	if errors.As(err, &vacErr) {
		return vacErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a VacError
func GetErrorCode(err error) ErrorCode {
	var vacErr *VacError
	if errors.As(err, &vacErr) {
		return vacErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details map of a VacError, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var vacErr *VacError
	if errors.As(err, &vacErr) {
		return vacErr.Details
	}
	return nil
}

// Reason returns the human readable part of an error without the code prefix.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var vacErr *VacError
	if errors.As(err, &vacErr) {
		if vacErr.Wrapped != nil && vacErr.Code != ErrPolicyViolation {
			return fmt.Sprintf("%s (%v)", vacErr.Message, rootCause(vacErr.Wrapped))
		}
		return vacErr.Message
	}
	return err.Error()
}

func rootCause(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
