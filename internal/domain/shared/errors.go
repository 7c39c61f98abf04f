package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInvalidPayment      = NewDomainError("INVALID_PAYMENT", "Invalid payment amount")
)

// Validation error codes
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeEmptyLines         = "EMPTY_LINES"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeInvalidDiscount    = "INVALID_DISCOUNT"
	CodeAmbiguousTradeName = "AMBIGUOUS_TRADE_NAME"
	CodeUnknownItem        = "UNKNOWN_ITEM"
	CodeItemReferenced     = "ITEM_REFERENCED"
)

// ValidationError reports a missing or malformed input. Nothing is mutated
// when it is returned.
type ValidationError struct {
	Code    string
	Field   string
	Message string
	// Candidates lists matching item ids for AMBIGUOUS_TRADE_NAME.
	Candidates []uuid.UUID
}

// NewValidationError creates a validation error for a field
func NewValidationError(code, field, message string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// InsufficientStockError is returned when a sale would take more than is available.
type InsufficientStockError struct {
	ItemID    uuid.UUID
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InvalidPaymentError is returned for a non-positive payment or one exceeding the due.
type InvalidPaymentError struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Due       decimal.Decimal
	Reason    string
}

func (e *InvalidPaymentError) Error() string {
	var b strings.Builder
	b.WriteString("invalid payment of ")
	b.WriteString(e.Amount.StringFixed(2))
	if e.InvoiceID != uuid.Nil {
		b.WriteString(" for invoice ")
		b.WriteString(e.InvoiceID.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *InvalidPaymentError) Unwrap() error {
	return ErrInvalidPayment
}

// DanglingReferenceWarning records a reversal whose target item no longer
// exists in the catalog. It is reported to the caller, never returned as an error.
type DanglingReferenceWarning struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int64     `json:"quantity"`
}

func (w DanglingReferenceWarning) String() string {
	return fmt.Sprintf("item %s missing from catalog, reversal of %d skipped", w.ItemID, w.Quantity)
}

// ErrorCode returns the stable code carried by err, or INTERNAL_ERROR for
// errors the domain does not know about
func ErrorCode(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	var derr *DomainError
	if errors.As(err, &derr) {
		return derr.Code
	}
	return "INTERNAL_ERROR"
}
