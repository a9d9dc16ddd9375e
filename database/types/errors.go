//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for builder misuse and adapter failures.
// These can be used with errors.Is() for programmatic error checking.
var (
	// ErrEmptyTableName is returned when a query is created for an empty table name.
	ErrEmptyTableName = errors.New("table name cannot be empty")

	// ErrEmptyColumn is raised when a condition, join, or order term has no column.
	ErrEmptyColumn = errors.New("column cannot be empty")

	// ErrEmptyOperator is raised when an explicit comparison operator is empty.
	ErrEmptyOperator = errors.New("comparison operator cannot be empty")

	// ErrEmptyRaw is raised when Raw() is called with empty SQL.
	ErrEmptyRaw = errors.New("raw expression cannot be empty")

	// ErrUnsupportedValue is raised when a Go value cannot be bound as a parameter.
	ErrUnsupportedValue = errors.New("unsupported parameter value")

	// ErrTooManyOffsets is raised when Limit() receives more than one offset.
	ErrTooManyOffsets = errors.New("limit accepts at most one offset")

	// ErrInvalidJoinKind is raised when Join() receives an unknown join kind.
	ErrInvalidJoinKind = errors.New("invalid join kind")

	// ErrUnorderedLast is returned by Last() when the query has no ORDER BY and
	// unordered Last() has not been enabled.
	ErrUnorderedLast = errors.New("last requires an order by clause")

	// ErrNoExecutor is returned by fetch operations on a query without an executor.
	ErrNoExecutor = errors.New("query has no executor")
)

// ValidationError reports builder misuse. Field names the argument or clause that
// introduced the bad value.
type ValidationError struct {
	Field string
	Err   error
}

// NewValidationError creates a ValidationError for field wrapping err.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %v", e.Err)
	}
	return fmt.Sprintf("validation: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConnectionError reports a failure to reach the database.
type ConnectionError struct {
	Vendor string
	Err    error
}

// NewConnectionError creates a ConnectionError for vendor wrapping err.
func NewConnectionError(vendor string, err error) *ConnectionError {
	return &ConnectionError{Vendor: vendor, Err: err}
}

func (e *ConnectionError) Error() string {
	if e.Vendor == "" {
		return fmt.Sprintf("connection: %v", e.Err)
	}
	return fmt.Sprintf("connection: %s: %v", e.Vendor, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a statement that failed to execute or decode.
// It carries the SQL text and the underlying driver diagnostic.
type ExecutionError struct {
	SQL string
	Err error
}

// NewExecutionError creates an ExecutionError for query wrapping err.
func NewExecutionError(query string, err error) *ExecutionError {
	return &ExecutionError{SQL: query, Err: err}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConnectionError reports whether err is or wraps a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsExecutionError reports whether err is or wraps an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}
