package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrAlreadyPaid          = errors.New("order already paid")
	ErrBaseCurrencyDeletion = errors.New("base currency cannot be deleted")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// Invalid wraps ErrValidation with a field-level message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// PaymentProviderError is returned when a provider call fails. StatusCode is the
// provider's HTTP status when one was received, 0 otherwise.
type PaymentProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *PaymentProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *PaymentProviderError) Unwrap() error { return e.Err }

// HTTPStatus falls back to 500 when the provider never answered.
func (e *PaymentProviderError) HTTPStatus() int {
	if e.StatusCode >= 400 {
		return e.StatusCode
	}
	return 500
}
