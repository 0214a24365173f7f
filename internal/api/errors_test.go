package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kmuhangi/elimu-api/internal/service"
	"github.com/kmuhangi/elimu-api/internal/service/auth"
	"github.com/kmuhangi/elimu-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid token", err: auth.ErrInvalidToken, want: http.StatusUnauthorized},
		{name: "expired token", err: auth.ErrExpiredToken, want: http.StatusUnauthorized},
		{name: "unknown account", err: service.ErrUnknownAccount, want: http.StatusUnauthorized},
		{name: "account not found", err: store.ErrAccountNotFound, want: http.StatusNotFound},
		{name: "academic year not found", err: store.ErrAcademicYearNotFound, want: http.StatusNotFound},
		{name: "term result not found", err: store.ErrTermResultNotFound, want: http.StatusNotFound},
		{name: "generic not found", err: store.ErrNotFound, want: http.StatusNotFound},
		{name: "duplicate", err: store.ErrDuplicate, want: http.StatusConflict},
		{name: "schedule shrink", err: service.ErrScheduleShrink, want: http.StatusConflict},
		{name: "invalid entity", err: store.ErrInvalidEntity, want: http.StatusBadRequest},
		{name: "invalid schedule config", err: service.ErrInvalidScheduleConfig, want: http.StatusBadRequest},
		{name: "insufficient data", err: service.ErrInsufficientData, want: http.StatusUnprocessableEntity},
		{name: "tenancy cycle", err: service.ErrTenancyCycle, want: http.StatusInternalServerError},
		{name: "unknown error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}

	t.Run("wrapped sentinels map the same as bare ones", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("recompute failed: %w", service.ErrScheduleShrink)
		assert.Equal(t, http.StatusConflict, MapErrorToStatusCode(wrapped))

		engineErr := service.NewEngineError("decide_promotion", "failed to load academic year",
			store.ErrAcademicYearNotFound)
		assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(engineErr))
	})
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("internal detail never leaks", func(t *testing.T) {
		t.Parallel()

		err := errors.New(`pq: connection refused host=db.internal user=admin`)
		msg := GetSafeErrorMessage(err)
		assert.Equal(t, "An unexpected error occurred", msg)
	})

	t.Run("nil error gets the generic message", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	})

	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "expired token", err: auth.ErrExpiredToken, want: "Invalid token"},
		{name: "unknown account", err: service.ErrUnknownAccount, want: "Unknown account"},
		{name: "academic year not found", err: store.ErrAcademicYearNotFound, want: "Academic year not found"},
		{name: "duplicate", err: store.ErrDuplicate, want: "Record already exists"},
		{
			name: "schedule shrink",
			err:  service.ErrScheduleShrink,
			want: "Schedule cannot shrink below terms or exams with recorded results",
		},
		{name: "invalid schedule config", err: service.ErrInvalidScheduleConfig, want: "Invalid schedule configuration"},
		{
			name: "insufficient data",
			err:  service.ErrInsufficientData,
			want: "Not enough recorded data to complete the operation",
		},
		{name: "tenancy cycle", err: service.ErrTenancyCycle, want: "Account hierarchy error"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	t.Run("field and tag are extracted", func(t *testing.T) {
		t.Parallel()

		err := errors.New(
			"Key: 'CreateYearRequest.TermCount' Error:Field validation for 'TermCount' failed on the 'max' tag")
		assert.Equal(t, "Invalid TermCount: too large", SanitizeValidationError(err))
	})

	t.Run("required tag", func(t *testing.T) {
		t.Parallel()

		err := errors.New(
			"Key: 'RecordScoreRequest.StudentID' Error:Field validation for 'StudentID' failed on the 'required' tag")
		assert.Equal(t, "Invalid StudentID: required field", SanitizeValidationError(err))
	})

	t.Run("unrecognized format falls back to a generic message", func(t *testing.T) {
		t.Parallel()

		err := errors.New("something else entirely")
		assert.Equal(t, "Validation error", SanitizeValidationError(err))
	})
}
