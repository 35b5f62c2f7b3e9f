package query

import (
	"errors"
	"fmt"
)

// Error represents a query that cannot be built, compiled or executed.
//
// Query errors include:
//   - Invalid argument: caller mistakes (blank type, bad order, negative limit)
//   - Unsupported query: the schema has no index able to answer a type/direction
//   - Query too large: an unsorted result exceeds the in-memory sort cap
//
// None of these are retried.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Type names the relation type involved, if any.
	Type string
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a malformed query.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeUnsupported indicates the schema cannot answer the query.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_QUERY"

	// ErrCodeTooLarge indicates a result too large to sort in memory.
	ErrCodeTooLarge ErrorCode = "QUERY_TOO_LARGE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Type)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidArgument returns true if err is an invalid-argument error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// IsUnsupported returns true if err is an unsupported-query error.
func IsUnsupported(err error) bool {
	return hasCode(err, ErrCodeUnsupported)
}

// IsTooLarge returns true if err is a query-too-large error.
func IsTooLarge(err error) bool {
	return hasCode(err, ErrCodeTooLarge)
}

func hasCode(err error, code ErrorCode) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

func invalidf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupportedError creates an Error for a type no index can answer.
func NewUnsupportedError(typeName string) *Error {
	return &Error{
		Code:    ErrCodeUnsupported,
		Message: "current graph schema does not support the specified query constraints",
		Type:    typeName,
	}
}

// NewTooLargeError creates an Error for an unsorted result above the sort cap.
func NewTooLargeError(limit int) *Error {
	return &Error{
		Code:    ErrCodeTooLarge,
		Message: fmt.Sprintf("more than %d results need to be sorted in memory; add an index or a limit", limit),
	}
}
