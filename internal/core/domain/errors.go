package domain

import (
	"errors"
	"fmt"
)

// Base error kinds. Entity-specific errors wrap one of these so callers can
// branch on the kind with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("access forbidden")
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrCustomerNotFound = fmt.Errorf("%w: customer", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("%w: order", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)

	// ErrAuthenticationFailed is returned when no user matches a
	// username/password pair. It is a NotFound kind.
	ErrAuthenticationFailed = fmt.Errorf("%w: authentication failed", ErrNotFound)

	// ErrCustomerReference is returned when an order points at a customer
	// that does not exist.
	ErrCustomerReference = fmt.Errorf("%w: referenced customer does not exist", ErrInvalidInput)

	ErrCustomerHasOrders = fmt.Errorf("%w: customer still has orders", ErrConflict)
	ErrUsernameTaken     = fmt.Errorf("%w: username already taken", ErrConflict)

	// ErrConcurrentModification is returned when a transaction lost a race
	// with another writer on the same record. Retrying may succeed.
	ErrConcurrentModification = fmt.Errorf("%w: concurrent modification", ErrConflict)

	// ErrRequestInProgress is returned while an earlier request with the same
	// Idempotency-Key has not finished.
	ErrRequestInProgress = fmt.Errorf("%w: a request with this Idempotency-Key is in progress", ErrConflict)

	// ErrIdempotencyKeyReused is returned when an Idempotency-Key is sent
	// again with a different payload.
	ErrIdempotencyKeyReused = fmt.Errorf("%w: Idempotency-Key reused with a different payload", ErrInvalidInput)
)

// IsNotFound reports whether err is any kind of not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
