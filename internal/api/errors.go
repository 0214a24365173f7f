package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kmuhangi/elimu-api/internal/service"
	"github.com/kmuhangi/elimu-api/internal/service/auth"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrUnknownAccount):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrAcademicYearNotFound),
		errors.Is(err, store.ErrTermNotFound),
		errors.Is(err, store.ErrExamNotFound),
		errors.Is(err, store.ErrTermResultNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, service.ErrScheduleShrink):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrInvalidScheduleConfig):
		return http.StatusBadRequest

	// Missing inputs the engine refuses to default
	case errors.Is(err, service.ErrInsufficientData):
		return http.StatusUnprocessableEntity

	// Broken hierarchy data is an operational fault, not a user error
	case errors.Is(err, service.ErrTenancyCycle):
		return http.StatusInternalServerError

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, service.ErrUnknownAccount):
		return "Unknown account"

	// Not found errors
	case errors.Is(err, store.ErrAccountNotFound):
		return "Account not found"

	case errors.Is(err, store.ErrAcademicYearNotFound):
		return "Academic year not found"

	case errors.Is(err, store.ErrTermNotFound):
		return "Term not found"

	case errors.Is(err, store.ErrExamNotFound):
		return "Exam not found"

	case errors.Is(err, store.ErrTermResultNotFound), errors.Is(err, store.ErrNotFound):
		return "Record not found"

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return "Record already exists"

	case errors.Is(err, service.ErrScheduleShrink):
		return "Schedule cannot shrink below terms or exams with recorded results"

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, service.ErrInvalidScheduleConfig):
		return "Invalid schedule configuration"

	case errors.Is(err, service.ErrInsufficientData):
		return "Not enough recorded data to complete the operation"

	case errors.Is(err, service.ErrTenancyCycle):
		return "Account hierarchy error"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format:
		// "Key: 'CreateYearRequest.TermCount' Error:Field validation for 'TermCount' failed on the 'max' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "invalid identifier"
	case "min":
		return "too small"
	case "max":
		return "too large"
	case "gte":
		return "below the allowed range"
	case "lte":
		return "above the allowed range"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
