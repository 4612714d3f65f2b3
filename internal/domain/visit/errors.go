package visit

import "errors"

var (
	ErrVisitNotFound           = errors.New("visit not found")
	ErrInvalidStatus           = errors.New("invalid visit status")
	ErrInvalidStatusTransition = errors.New("invalid visit status transition")
	// ErrDuplicateVisitNumber surfaces the store's unique-constraint violation
	// on visit_number; the lifecycle manager retries on it.
	ErrDuplicateVisitNumber = errors.New("visit number already exists")
	// ErrVisitNumberExhausted is returned after the bounded retry gives up.
	// It is fatal: the engine never falls back to a possibly non-unique number.
	ErrVisitNumberExhausted = errors.New("failed to generate a unique visit identifier")
)
