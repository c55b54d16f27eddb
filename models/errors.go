package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientStockError is raised by the FIFO selector when the total
// available quantity across all matching batches is less than what the
// caller asked for. Callers must leave the snapshot unmodified.
type InsufficientStockError struct {
	ProductName  string
	VariantLabel string
	Available    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	if e.VariantLabel != "" {
		return fmt.Sprintf("insufficient stock for product=%s variant=%s available=%s requested=%s",
			e.ProductName, e.VariantLabel, e.Available.String(), e.Requested.String())
	}
	return fmt.Sprintf("insufficient stock for product=%s available=%s requested=%s",
		e.ProductName, e.Available.String(), e.Requested.String())
}

// ConflictError reports a structural edit or deletion that would break a
// referential invariant (batch already consumed, loan already repaid, ...).
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func NewConflictError(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed input, caught before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an operation against an id that is absent from the
// snapshot.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: id=%s", e.Entity, e.ID)
}
