package domain

import "errors"

// Sentinel errors for the explicit not-found and degradation cases. Callers
// branch on these instead of string matching driver errors.
var (
	// ErrPositionNotFound signals a close/cancel against a symbol the user
	// does not hold open.
	ErrPositionNotFound = errors.New("position not found")

	// ErrUserNotFound signals a ledger lookup for an unknown username.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken signals a registration conflict.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrNoQuote signals the quote source has no usable price for a symbol.
	// The valuation engine degrades to the stored price, never fails on it.
	ErrNoQuote = errors.New("no quote available")

	// ErrCatalogUnavailable signals the instrument catalog file is missing
	// or unreadable. Exports degrade to a placeholder sheet.
	ErrCatalogUnavailable = errors.New("instrument catalog unavailable")
)

// ValidationError rejects a whole import batch: missing required columns or
// zero rows surviving per-row filtering. Nothing is inserted when one is
// returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a ValidationError with the given reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
