// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, timeframes, configuration
//   - Data/Resource errors (200-299): Missing data, query failures, absent columns
//   - Signal errors (300-399): Condition evaluation and combination errors
//   - Strategy errors (400-499): Strategy document loading and runtime errors
//   - Alignment errors (500-599): Multi-timeframe alignment errors
//   - Backtest errors (600-699): Sweep engine and statistics errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeNoConditions, "no conditions to combine")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeMissingColumn, "signal %q not found", column)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to read parquet", originalErr)
//
//	// Check error code anywhere in the chain
//	if errors.HasCode(err, errors.ErrCodeMissingColumn) { ... }
package errors

import (
	"errors"
	"fmt"
	"time"
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
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode of the outermost *Error in the chain.
// Returns ErrCodeUnknown if the chain holds no *Error.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	if IsLookaheadViolation(err) {
		return ErrCodeLookaheadViolation
	}

	return ErrCodeUnknown
}

// HasCode reports whether any *Error in the chain carries the given code.
// The sweep runner wraps core errors with the strategy name, so the
// original code is usually not the outermost one.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return code == ErrCodeLookaheadViolation && IsLookaheadViolation(err)
		}

		if e.Code == code {
			return true
		}

		err = e.Cause
	}

	return false
}

// LookaheadViolationError is raised when an as-of join attached a higher
// timeframe value whose bar had not closed at the base row's timestamp.
// It is never recoverable: the aligned frame is corrupt.
type LookaheadViolationError struct {
	Timeframe int       // Higher timeframe in minutes
	Row       int       // Index of the attached higher timeframe bar
	BaseTime  time.Time // Base row timestamp
	CloseTime time.Time // Close time of the attached bar
}

// NewLookaheadViolationError creates a new LookaheadViolationError.
func NewLookaheadViolationError(timeframe int, row int, baseTime, closeTime time.Time) *LookaheadViolationError {
	return &LookaheadViolationError{
		Timeframe: timeframe,
		Row:       row,
		BaseTime:  baseTime,
		CloseTime: closeTime,
	}
}

// Error implements the error interface.
func (e *LookaheadViolationError) Error() string {
	return fmt.Sprintf("[%d] lookahead violation: timeframe %d bar %d closes at %s after base row %s",
		ErrCodeLookaheadViolation, e.Timeframe, e.Row,
		e.CloseTime.Format(time.RFC3339), e.BaseTime.Format(time.RFC3339))
}

// IsLookaheadViolation checks if an error is a LookaheadViolationError.
// It uses errors.As to check the error chain.
func IsLookaheadViolation(err error) bool {
	var lookaheadErr *LookaheadViolationError

	return errors.As(err, &lookaheadErr)
}
