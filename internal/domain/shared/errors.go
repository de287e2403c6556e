package shared

import (
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// ConnectionError indicates the underlying store cannot be established or
// used. It is fatal to the calling operation and never retried internally.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("connection: %s", e.Op)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NewConnectionError wraps err with the failing operation name
func NewConnectionError(op string, err error) *ConnectionError {
	return &ConnectionError{Op: op, Err: err}
}

// ShapeMismatchError indicates a row or DTO does not satisfy the expected
// schema. During bulk operations it is recovered locally as a per-row
// failure; single-row operations surface it directly.
type ShapeMismatchError struct {
	Row    int
	Field  string
	Reason string
}

func (e *ShapeMismatchError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("shape mismatch: field '%s': %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("shape mismatch: %s", e.Reason)
}

// ConflictError indicates a RAISE-policy key collision. The whole batch is
// aborted and the transaction rolled back before this is surfaced.
type ConflictError struct {
	Table string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on table '%s': %v", e.Table, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// ReferentialIntegrityError indicates a hard delete was blocked because
// referencing rows still exist and no cascade rule covers them.
type ReferentialIntegrityError struct {
	Table     string
	RefTable  string
	RefColumn string
	Count     int64
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf(
		"cannot hard-delete from '%s': %d row(s) in '%s' still reference it via '%s'",
		e.Table, e.Count, e.RefTable, e.RefColumn,
	)
}

// TimeoutError indicates the operation exceeded the caller-imposed deadline.
// The transaction has been rolled back; no partial writes remain.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// RowError carries the failure detail of a single row in a bulk operation.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Row error codes used across bulk operations
const (
	ErrCodeRowShape     = "ERR_ROW_SHAPE"
	ErrCodeRowConflict  = "ERR_ROW_CONFLICT"
	ErrCodeRowReference = "ERR_ROW_REFERENCE"
	ErrCodeRowPersist   = "ERR_ROW_PERSIST"
)

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// UpsertReport summarizes the outcome of a tolerance-bounded bulk upsert.
// Succeeded counts rows persisted or overwritten, Skipped counts rows left
// untouched by a NOTHING-policy collision, Failed counts rows rejected by
// shape validation or by the store.
type UpsertReport struct {
	Total        int        `json:"total"`
	Succeeded    int        `json:"succeeded"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
	FailureRatio float64    `json:"failure_ratio"`
	RowErrors    []RowError `json:"row_errors,omitempty"`
}

// ToleranceExceededError indicates the aggregate per-row failures of a bulk
// upsert exceeded the configured tolerance. Writes that already committed are
// not rolled back; only the report is an error.
type ToleranceExceededError struct {
	Tolerance float64
	Report    UpsertReport
}

func (e *ToleranceExceededError) Error() string {
	details := make([]string, 0, len(e.Report.RowErrors))
	for _, re := range e.Report.RowErrors {
		details = append(details, re.Error())
	}
	msg := fmt.Sprintf(
		"%d of %d row(s) failed (ratio %.4f, tolerance %.4f)",
		e.Report.Failed, e.Report.Total, e.Report.FailureRatio, e.Tolerance,
	)
	if len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}
	return msg
}
