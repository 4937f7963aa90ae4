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
	ErrUsage        ErrorCode = "USAGE"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Topology errors, one per verifier check
	ErrPrefixMissing     ErrorCode = "PREFIX_MISSING"
	ErrLib64NotDir       ErrorCode = "LIB64_NOT_DIR"
	ErrLib32IsSymlink    ErrorCode = "LIB32_IS_SYMLINK"
	ErrLibIsDir          ErrorCode = "LIB_IS_DIR"
	ErrLibPointsToNew    ErrorCode = "LIB_POINTS_TO_NEW"
	ErrLibPointsToLib64  ErrorCode = "LIB_POINTS_TO_LIB64"
	ErrLibNotLinkToLib64 ErrorCode = "LIB_NOT_LINK_TO_LIB64"
	ErrLibNotLinkToNew   ErrorCode = "LIB_NOT_LINK_TO_NEW"
	ErrLibNewExists      ErrorCode = "LIB_NEW_EXISTS"
	ErrLibNewMissing     ErrorCode = "LIB_NEW_MISSING"

	// Analysis errors
	ErrConflict     ErrorCode = "CONFLICT"
	ErrPackageDB    ErrorCode = "PACKAGE_DB"
	ErrStateMissing ErrorCode = "STATE_MISSING"
	ErrStateCorrupt ErrorCode = "STATE_CORRUPT"
	ErrStateWrite   ErrorCode = "STATE_WRITE"

	// Execution errors
	ErrExecFailed  ErrorCode = "EXEC_FAILED"
	ErrFileAccess  ErrorCode = "FILE_ACCESS"
	ErrFileRemove  ErrorCode = "FILE_REMOVE"
	ErrDirCreate   ErrorCode = "DIR_CREATE"
	ErrSymlinkSwap ErrorCode = "SYMLINK_SWAP"
	ErrRename      ErrorCode = "RENAME"
)

// Severity tells the reporter whether an error ends the run.
type Severity int

const (
	// Fatal errors abort the current phase.
	Fatal Severity = iota
	// Recoverable errors are reported and the phase continues.
	Recoverable
)

func (s Severity) String() string {
	if s == Recoverable {
		return "recoverable"
	}
	return "fatal"
}

// Error represents a structured error with code, severity and details
type Error struct {
	Code     ErrorCode
	Severity Severity
	Message  string
	// Hint is the corrective action shown to the operator.
	Hint    string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new fatal Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new fatal Error with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithHint sets the corrective hint
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// AsRecoverable downgrades the error to recoverable severity
func (e *Error) AsRecoverable() *Error {
	e.Severity = Recoverable
	return e
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an *Error
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not an *Error
func GetErrorDetails(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// GetHint returns the corrective hint of an error, if any
func GetHint(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}

// SeverityOf returns the severity of an error. Errors that did not come
// from this package are fatal.
func SeverityOf(err error) Severity {
	var e *Error
	if errors.As(err, &e) {
		return e.Severity
	}
	return Fatal
}

// Describe renders an error chain for the operator, without error codes
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Wrapped == nil {
		return e.Message
	}
	return e.Message + ": " + Describe(e.Wrapped)
}
