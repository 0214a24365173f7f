package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine operations. The CRUD layer maps
// these onto user-facing responses; the engine never retries silently
// and never substitutes a default value for a missing input.
var (
	// ErrUnknownAccount is returned when the acting account of a request
	// does not exist.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrTenancyCycle is returned when walking an account's parent chain
	// exceeds the configured depth cap. It indicates corrupted hierarchy
	// data rather than a normal user error and is logged at high severity.
	ErrTenancyCycle = errors.New("account hierarchy cycle detected")

	// ErrInvalidScheduleConfig is returned when an academic year's
	// configuration is outside the supported range. Rejected before any
	// write.
	ErrInvalidScheduleConfig = errors.New("invalid schedule configuration")

	// ErrScheduleShrink is returned when a configuration change would
	// reduce term or exam counts below the number already populated with
	// recorded results.
	ErrScheduleShrink = errors.New("schedule cannot shrink below recorded results")

	// ErrInsufficientData is returned when a ranking or promotion
	// operation is requested with no underlying scores to decide from.
	ErrInsufficientData = errors.New("insufficient data")
)

// EngineError wraps errors from the engine services with context.
type EngineError struct {
	// Operation is the operation that failed (e.g., "generate_schedule")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for EngineError.
func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("engine %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
// It returns engine sentinel errors directly without wrapping.
func NewEngineError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrUnknownAccount,
		ErrTenancyCycle,
		ErrInvalidScheduleConfig,
		ErrScheduleShrink,
		ErrInsufficientData,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	return &EngineError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
