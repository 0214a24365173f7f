package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
)

// ScheduleStore defines the interface for academic year, term and exam
// persistence. The cycle scheduler drives it inside one transaction per
// generation pass; see AcquireYearLock for the concurrency guard.
type ScheduleStore interface {
	// CreateAcademicYear saves a new academic year configuration.
	// Returns validation errors if the year data is invalid.
	CreateAcademicYear(ctx context.Context, year *domain.AcademicYear) error

	// GetAcademicYear retrieves an academic year by its unique ID.
	// Returns ErrAcademicYearNotFound if the year does not exist.
	GetAcademicYear(ctx context.Context, id uuid.UUID) (*domain.AcademicYear, error)

	// ListTerms retrieves all terms of the given academic year ordered by
	// term number. Returns an empty slice when no terms exist yet.
	ListTerms(ctx context.Context, academicYearID uuid.UUID) ([]*domain.Term, error)

	// CreateTerm saves a new term. Returns ErrDuplicate if a term with
	// the same (academic year, term number) already exists.
	CreateTerm(ctx context.Context, term *domain.Term) error

	// ListExams retrieves all exams of the given term ordered by exam
	// number. Returns an empty slice when no exams exist yet.
	ListExams(ctx context.Context, termID uuid.UUID) ([]*domain.Exam, error)

	// CreateExam saves a new exam slot. Returns ErrDuplicate if an exam
	// with the same (term, exam number) already exists.
	CreateExam(ctx context.Context, exam *domain.Exam) error

	// CountTermsWithResults returns how many terms of the year already
	// carry recorded subject results. The scheduler refuses to shrink the
	// configured term count below this number.
	CountTermsWithResults(ctx context.Context, academicYearID uuid.UUID) (int, error)

	// CountExamsWithResults returns how many exams of the term already
	// carry recorded subject results. The scheduler refuses to shrink the
	// configured exams-per-term count below this number.
	CountExamsWithResults(ctx context.Context, termID uuid.UUID) (int, error)

	// AcquireYearLock takes an exclusive advisory lock keyed on the
	// academic year for the duration of the current transaction. It MUST
	// be called on a store bound to a transaction (WithTx); concurrent
	// generation passes for the same year serialize on this lock, which
	// makes the scheduler's check-then-insert sequence safe.
	AcquireYearLock(ctx context.Context, academicYearID uuid.UUID) error

	// WithTx returns a new ScheduleStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ScheduleStore
}
