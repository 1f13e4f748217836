// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99)
//   - Configuration errors (100-199): missing or out-of-range strategy settings. Fatal before a run starts.
//   - Data errors (200-299): bar loading, ordering and causality violations
//   - Indicator errors (300-399): estimator lookup and insufficient history
//   - Signal errors (400-499): entry/exit predicate failures. Recovered per bar.
//   - Backtest errors (600-699): engine failures and result output
//   - Callback errors (800-899): lifecycle callback failures
//
// Usage:
//
//	err := errors.NewMissingParameterError("indicators.rsi_period")
//	if errors.HasCode(err, errors.ErrCodeMissingParameter) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// NewMissingParameterError reports a required configuration field that is absent.
// field is the dotted path used in the configuration file, e.g. "transaction_costs.contract_size".
func NewMissingParameterError(field string) *Error {
	return &Error{
		Code:    ErrCodeMissingParameter,
		Message: fmt.Sprintf("missing required configuration field %q", field),
		Cause:   nil,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeInsufficientData for an *InsufficientDataError and ErrCodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	if IsInsufficientDataError(err) {
		return ErrCodeInsufficientData
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsConfigurationError reports whether err belongs to the configuration range (100-199).
func IsConfigurationError(err error) bool {
	code := GetCode(err)

	return code >= 100 && code < 200
}

// InsufficientDataError is returned by an indicator that does not yet have
// enough valid observations to produce a value.
type InsufficientDataError struct {
	Required  int    // Minimum valid observations required
	Actual    int    // Valid observations available
	Indicator string // Indicator that raised the error
	Message   string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, indicator, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required:  required,
		Actual:    actual,
		Indicator: indicator,
		Message:   message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, indicator, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required:  required,
		Actual:    actual,
		Indicator: indicator,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
