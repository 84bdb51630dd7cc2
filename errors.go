package vesting

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("vesting: not found")
	ErrAlreadyExists = errors.New("vesting: already exists")
	ErrUnauthorized  = errors.New("vesting: unauthorized")
	ErrNotStarted    = errors.New("vesting: ledger not started")

	// Schedule errors
	ErrScheduleNotFound         = errors.New("vesting: schedule not found")
	ErrInvalidParameters        = errors.New("vesting: invalid parameters")
	ErrInsufficientVestedAmount = errors.New("vesting: not enough vested tokens")
	ErrInvariantViolation       = errors.New("vesting: released exceeds vested")

	// Custody errors
	ErrTransferFailed    = errors.New("vesting: transfer failed")
	ErrInsufficientFunds = errors.New("vesting: insufficient funds")

	// Store errors
	ErrConflict        = errors.New("vesting: concurrent modification")
	ErrStoreNotReady   = errors.New("vesting: store not ready")
	ErrStoreClosed     = errors.New("vesting: store is closed")
	ErrMigrationFailed = errors.New("vesting: migration failed")
)

// ValidationError represents a validation failure with details. It matches
// ErrInvalidParameters under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("vesting: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap ties every validation failure to ErrInvalidParameters.
func (e ValidationError) Unwrap() error { return ErrInvalidParameters }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "vesting: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("vesting: %d errors occurred: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

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

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns nil when nothing was collected, the single error when
// exactly one was, and the MultiError otherwise.
func (e MultiError) ErrOrNil() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrScheduleNotFound)
}

// IsAuthError returns true if the caller lacked permission for the operation.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransferFailed)
}
