package interfaces

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a unique index,
	// e.g. a second referral edge for the same referred user or a
	// referral code collision.
	ErrDuplicate = errors.New("duplicate key")
)
