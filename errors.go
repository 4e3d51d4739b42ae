package bookkeeper

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("bookkeeper: not found")
	ErrAlreadyExists = errors.New("bookkeeper: already exists")
	ErrInvalidInput  = errors.New("bookkeeper: invalid input")
	ErrConflict      = errors.New("bookkeeper: conflicting concurrent update")

	// Entity errors
	ErrCustomerNotFound = errors.New("bookkeeper: customer not found")
	ErrInvoiceNotFound  = errors.New("bookkeeper: invoice not found")
	ErrExpenseNotFound  = errors.New("bookkeeper: expense not found")
	ErrPaymentNotFound  = errors.New("bookkeeper: payment not found")

	// Rule errors
	ErrCustomerInUse    = errors.New("bookkeeper: customer has invoices")
	ErrCurrencyMismatch = errors.New("bookkeeper: currency mismatch")

	// Store errors
	ErrStoreNotReady   = errors.New("bookkeeper: store not ready")
	ErrStoreClosed     = errors.New("bookkeeper: store is closed")
	ErrMigrationFailed = errors.New("bookkeeper: migration failed")
)

// ValidationError represents malformed or out-of-range input. Nothing has
// been written when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("bookkeeper: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// ConflictError reports an operation refused because of the current state
// of a resource, or lost to a concurrent writer.
type ConflictError struct {
	Resource string
	ID       string
	Reason   string
	Err      error
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("bookkeeper: conflict on %s %s: %s", e.Resource, e.ID, e.Reason)
}

// Unwrap returns the underlying cause, ErrConflict when none was given.
func (e ConflictError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConflict
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "bookkeeper: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("bookkeeper: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns e when it holds errors and nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrExpenseNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsValidation returns true if the error is a validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidInput)
}

// IsConflict returns true if the error is a state or concurrency conflict.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrCustomerInUse) ||
		errors.Is(err, ErrAlreadyExists)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStoreNotReady)
}
