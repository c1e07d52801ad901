package domain

import "errors"

var (
	// ErrNotFound covers missing resources and resources owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a transition is not allowed in the current state.
	ErrConflict = errors.New("conflict")
	// ErrValidation marks malformed input.
	ErrValidation = errors.New("validation failed")
)
