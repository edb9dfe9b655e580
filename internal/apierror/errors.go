package apierror

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind values reported in the "type" field of the error envelope.
const (
	KindValidation        = "ValidationError"
	KindAccessDenied      = "AccessDeniedError"
	KindNotFound          = "NotFoundError"
	KindDuplicate         = "DuplicateError"
	KindPriceMismatch     = "PriceMismatchError"
	KindInsufficientStock = "InsufficientStockError"
	KindExpired           = "ExpiredError"
	KindReference         = "ReferenceError"
	KindSellerResolution  = "SellerResolutionError"
	KindNoEligibleTickets = "NoEligibleTicketsError"
	KindConflict          = "ConflictError"
	KindInternal          = "InternalError"
)

// domainError is implemented by every error in the taxonomy.
type domainError interface {
	error
	status() int
	kind() string
	field() string
}

// ── Validation ───────────────────────────────────────────────────────────────

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) status() int   { return http.StatusBadRequest }
func (e *ValidationError) kind() string  { return KindValidation }
func (e *ValidationError) field() string { return e.Field }

// ── Access / lookup ──────────────────────────────────────────────────────────

// AccessDeniedError is returned when a resource belongs to another business.
type AccessDeniedError struct {
	Message string
}

func NewAccessDenied(msg string) *AccessDeniedError { return &AccessDeniedError{Message: msg} }

func (e *AccessDeniedError) Error() string { return e.Message }
func (e *AccessDeniedError) status() int   { return http.StatusForbidden }
func (e *AccessDeniedError) kind() string  { return KindAccessDenied }
func (e *AccessDeniedError) field() string { return "" }

// NotFoundError reports a missing (or soft-deleted) entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFound(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
func (e *NotFoundError) status() int   { return http.StatusNotFound }
func (e *NotFoundError) kind() string  { return KindNotFound }
func (e *NotFoundError) field() string { return "" }

// DuplicateError maps unique-constraint violations.
type DuplicateError struct {
	Field   string
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }
func (e *DuplicateError) status() int   { return http.StatusConflict }
func (e *DuplicateError) kind() string  { return KindDuplicate }
func (e *DuplicateError) field() string { return e.Field }

// ReferenceError maps foreign-key violations.
type ReferenceError struct {
	Message string
}

func (e *ReferenceError) Error() string { return e.Message }
func (e *ReferenceError) status() int   { return http.StatusBadRequest }
func (e *ReferenceError) kind() string  { return KindReference }
func (e *ReferenceError) field() string { return "" }

// ── Checkout ─────────────────────────────────────────────────────────────────

// PriceMismatchError is raised when the client-submitted total disagrees with
// the server-computed one beyond the tolerance.
type PriceMismatchError struct {
	Submitted  decimal.Decimal
	Calculated decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("submitted total %s does not match calculated total %s",
		e.Submitted.StringFixed(2), e.Calculated.StringFixed(2))
}
func (e *PriceMismatchError) status() int   { return http.StatusBadRequest }
func (e *PriceMismatchError) kind() string  { return KindPriceMismatch }
func (e *PriceMismatchError) field() string { return "total" }

// InsufficientStockError aborts the checkout transaction.
type InsufficientStockError struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.VariantID != nil {
		return fmt.Sprintf("insufficient stock for product %s variant %s: requested %d, available %d",
			e.ProductID, *e.VariantID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
func (e *InsufficientStockError) status() int   { return http.StatusConflict }
func (e *InsufficientStockError) kind() string  { return KindInsufficientStock }
func (e *InsufficientStockError) field() string { return "items" }

// SellerResolutionError means the caller is not an active member of the business.
type SellerResolutionError struct {
	UserID     uuid.UUID
	BusinessID uuid.UUID
}

func (e *SellerResolutionError) Error() string {
	return fmt.Sprintf("user %s is not an active member of business %s", e.UserID, e.BusinessID)
}
func (e *SellerResolutionError) status() int   { return http.StatusForbidden }
func (e *SellerResolutionError) kind() string  { return KindSellerResolution }
func (e *SellerResolutionError) field() string { return "" }

// ConflictError wraps lock timeouts, deadlocks and serialization failures.
// The whole operation may be retried by the caller with fresh data.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
func (e *ConflictError) status() int   { return http.StatusConflict }
func (e *ConflictError) kind() string  { return KindConflict }
func (e *ConflictError) field() string { return "" }

// ── Receipts / raffles ───────────────────────────────────────────────────────

// ExpiredError is returned for receipt tokens past their expiry.
type ExpiredError struct {
	Message string
}

func (e *ExpiredError) Error() string { return e.Message }
func (e *ExpiredError) status() int   { return http.StatusGone }
func (e *ExpiredError) kind() string  { return KindExpired }
func (e *ExpiredError) field() string { return "" }

// NoEligibleTicketsError is returned by a draw over a raffle with no un-won tickets.
type NoEligibleTicketsError struct {
	RaffleID uuid.UUID
}

func (e *NoEligibleTicketsError) Error() string {
	return fmt.Sprintf("raffle %s has no eligible tickets", e.RaffleID)
}
func (e *NoEligibleTicketsError) status() int   { return http.StatusBadRequest }
func (e *NoEligibleTicketsError) kind() string  { return KindNoEligibleTickets }
func (e *NoEligibleTicketsError) field() string { return "" }
