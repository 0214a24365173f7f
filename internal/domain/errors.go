package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidOutcome is returned when a promotion outcome is not one of
	// the recognized values.
	ErrInvalidOutcome = errors.New("invalid promotion outcome")

	// ErrInvalidRole is returned when an account role is not one of the
	// recognized values.
	ErrInvalidRole = errors.New("invalid account role")
)
