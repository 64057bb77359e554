package core

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected field. Requests failing validation are
// never partially written.
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

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Invalidf builds a ValidationError for ad-hoc checks.
func Invalidf(field, format string, args ...any) error {
	return newValidationError(field, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrInvalidDay              = newValidationError("day", "must be between 1 and 31")
	ErrInvalidMonth            = newValidationError("month", "must be between 1 and 12")
	ErrInvalidYear             = newValidationError("year", "must be a 4-digit year")
	ErrMissingPeriod           = newValidationError("period", "month and year are required")
	ErrInvalidAmount           = newValidationError("amount", "must be greater than zero")
	ErrNegativeAmount          = newValidationError("amount", "must not be negative")
	ErrInvalidDate             = newValidationError("date", "must be a valid YYYY-MM-DD date")
	ErrEmptyDescription        = newValidationError("description", "must not be empty")
	ErrDescriptionTooLong      = newValidationError("description", "too long (max 200 characters)")
	ErrEmptyCategory           = newValidationError("category", "must not be empty")
	ErrEmptyName               = newValidationError("name", "must not be empty")
	ErrInvalidStatus           = newValidationError("status", "unknown status")
	ErrInvalidBuyerType        = newValidationError("buyer_type", "must be user or third_party")
	ErrInvalidInstallments     = newValidationError("installments_total", "must be at least 1")
	ErrInvalidCurrentInstall   = newValidationError("installment_current", "must be between 1 and installments_total")
	ErrThirdPartyNameRequired  = newValidationError("third_party_name", "required when buyer_type is third_party")
	ErrThirdPartyNameForbidden = newValidationError("third_party_name", "only allowed when buyer_type is third_party")
	ErrInvalidCard             = newValidationError("card_id", "must reference a credit card")
	ErrMissingUpdate           = newValidationError("mode", "update command is required")
)

var (
	// ErrNotFound is returned when the target record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrReferential is returned when a card transaction points at a card
	// that does not exist.
	ErrReferential = errors.New("referenced credit card does not exist")
	// ErrCardInUse is returned when deleting a card that still has transactions.
	ErrCardInUse = errors.New("credit card has transactions")
)
