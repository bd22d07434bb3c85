package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrValidationFailed is matched by every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidReference     = errors.New("invalid reference")

	// ErrReferenceNotFound is matched by every *ReferenceError.
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrProductNotFound is returned by a Catalog when the product is missing or inactive.
	ErrProductNotFound = errors.New("product not found")

	// ErrCustomerNotFound is returned by a CustomerDirectory when the customer is missing.
	ErrCustomerNotFound = errors.New("customer not found")

	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateIdentifier is returned by a SaleRepository when the folio is taken.
	ErrDuplicateIdentifier = errors.New("duplicate sale identifier")

	ErrPersistenceConflict = errors.New("persistence conflict")

	ErrCompensationFailed = errors.New("stock compensation failed")

	ErrAlreadyCanceled = errors.New("sale already canceled")

	// ErrNotFound is returned when a sale with the given folio is not found.
	ErrNotFound = errors.New("sale not found")

	// ErrEmptyID is returned when trying to store a sale with an empty folio.
	ErrEmptyID = errors.New("empty sale ID")

	// ErrVersionConflict is returned by Save when the stored sale changed underneath.
	ErrVersionConflict = errors.New("sale version conflict")
)

// Violation is one field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Kind    error  `json:"-"`
}

// ValidationError lists every violation found in a request.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

// Is matches ErrValidationFailed and the kind of any contained violation.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidationFailed {
		return true
	}
	for _, v := range e.Violations {
		if v.Kind == target {
			return true
		}
	}
	return false
}

// ReferenceError reports a product or customer that does not exist (or is inactive).
type ReferenceError struct {
	Entity string
	ID     uuid.UUID
	Err    error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrReferenceNotFound }

func (e *ReferenceError) Unwrap() error { return e.Err }

// InsufficientStockError names the cart line that could not be reserved.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s for product %s (%s): requested %d, available %d",
		ErrInsufficientStock, e.ProductID, e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// CompensationError wraps the failure that triggered a rollback when the
// rollback itself could not restore every reservation.
type CompensationError struct {
	Cause      error
	Unrestored []Reservation
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("%s for %d reservation(s) after: %v", ErrCompensationFailed, len(e.Unrestored), e.Cause)
}

func (e *CompensationError) Is(target error) bool { return target == ErrCompensationFailed }

func (e *CompensationError) Unwrap() error { return e.Cause }

// AlreadyCanceledError carries the original cancellation so callers can
// render it without another lookup.
type AlreadyCanceledError struct {
	SaleID       string
	CanceledAt   time.Time
	CancelReason string
}

func (e *AlreadyCanceledError) Error() string {
	return fmt.Sprintf("%s: %s at %s", ErrAlreadyCanceled, e.SaleID, e.CanceledAt.Format(time.RFC3339))
}

func (e *AlreadyCanceledError) Is(target error) bool { return target == ErrAlreadyCanceled }
