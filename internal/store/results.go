package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
)

// SubjectStanding is one student's recomputed derived values for a
// (class, subject, term) scope: the rolling average across the exams
// graded so far and the standard-competition position within the class.
type SubjectStanding struct {
	StudentID       uuid.UUID
	ComputedAverage float64
	Position        int
}

// ResultStore defines the interface for raw score and derived result
// persistence. Recompute operations replace whole scopes at a time; the
// ranking service wraps them in a transaction so partial states are
// never observable.
type ResultStore interface {
	// CreateSubjectResult saves a raw score row for one
	// (student, subject, exam). Returns ErrDuplicate when a row for that
	// triple already exists.
	CreateSubjectResult(ctx context.Context, result *domain.SubjectResult) error

	// ListSubjectResults retrieves all subject result rows for one
	// (class, subject, term) scope within the tenant, every exam included.
	// Returns an empty slice when the scope has no scores.
	ListSubjectResults(
		ctx context.Context,
		tenantID, classID, subjectID, termID uuid.UUID,
	) ([]*domain.SubjectResult, error)

	// ListTermSubjectResults retrieves all subject result rows for one
	// (class, term) scope within the tenant, across every subject.
	// Returns an empty slice when the scope has no scores.
	ListTermSubjectResults(
		ctx context.Context,
		tenantID, classID, termID uuid.UUID,
	) ([]*domain.SubjectResult, error)

	// ApplySubjectStandings replaces the derived standings of the
	// (class, subject, term) scope: positions of every row in the scope
	// are cleared first, then the recomputed average and position are
	// written onto the rows of each listed student. A student not listed
	// keeps no position from an earlier pass. Intended to run inside the
	// ranking transaction.
	ApplySubjectStandings(
		ctx context.Context,
		tenantID, classID, subjectID, termID uuid.UUID,
		standings []SubjectStanding,
	) error

	// ReplaceTermResults deletes all term result rows for the
	// (class, term) scope within the tenant and inserts the given rows in
	// their place. Intended to run inside the ranking transaction so the
	// replacement is atomic.
	ReplaceTermResults(
		ctx context.Context,
		tenantID, classID, termID uuid.UUID,
		results []*domain.TermResult,
	) error

	// GetLatestTermResult retrieves the student's term result for the
	// highest-numbered term of the academic year that has one.
	// Returns ErrTermResultNotFound when the student has no term result
	// in the year.
	GetLatestTermResult(
		ctx context.Context,
		tenantID, studentID, academicYearID uuid.UUID,
	) (*domain.TermResult, error)

	// WithTx returns a new ResultStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ResultStore
}
