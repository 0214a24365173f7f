package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Result-specific validation errors
var (
	// ErrResultIDEmpty is returned when a result ID is empty or nil.
	ErrResultIDEmpty = errors.New("result ID cannot be empty")

	// ErrResultStudentEmpty is returned when a result's student ID is empty.
	ErrResultStudentEmpty = errors.New("result student ID cannot be empty")

	// ErrResultScopeEmpty is returned when a result is missing its class,
	// subject, term or exam reference.
	ErrResultScopeEmpty = errors.New("result scope IDs cannot be empty")

	// ErrResultScoreRange is returned when a raw score falls outside the
	// 0..100 percentage range.
	ErrResultScoreRange = errors.New("raw score must be between 0 and 100")

	// ErrPromotionIDEmpty is returned when a promotion record ID is empty.
	ErrPromotionIDEmpty = errors.New("promotion record ID cannot be empty")

	// ErrPromotionYearEmpty is returned when a promotion record's academic
	// year ID is empty.
	ErrPromotionYearEmpty = errors.New("promotion record academic year ID cannot be empty")
)

// PromotionOutcome is the year-end classification of a student.
type PromotionOutcome string

const (
	OutcomePromoted PromotionOutcome = "promoted"
	OutcomeRepeat   PromotionOutcome = "repeat"
	OutcomeDropped  PromotionOutcome = "dropped"
)

// IsValid reports whether the outcome is one of the recognized values.
func (o PromotionOutcome) IsValid() bool {
	switch o {
	case OutcomePromoted, OutcomeRepeat, OutcomeDropped:
		return true
	default:
		return false
	}
}

// SubjectResult is one student's score for one subject in one exam,
// together with the derived rolling average and class position. The
// position is nil until the ranking engine has computed it.
//
// Every result row carries the owning tenant ID so scoped queries never
// need to join back through the academic year.
type SubjectResult struct {
	ID              uuid.UUID `json:"id"`
	OwnerTenantID   uuid.UUID `json:"owner_tenant_id"`
	StudentID       uuid.UUID `json:"student_id"`
	ClassID         uuid.UUID `json:"class_id"`
	SubjectID       uuid.UUID `json:"subject_id"`
	TermID          uuid.UUID `json:"term_id"`
	ExamID          uuid.UUID `json:"exam_id"`
	RawScore        float64   `json:"raw_score"`
	ComputedAverage float64   `json:"computed_average"`
	SubjectPosition *int      `json:"subject_position,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSubjectResult creates a new SubjectResult for the given scope. The
// computed average starts at the raw score; the ranking engine replaces
// it when it recomputes the scope. Returns an error if validation fails.
func NewSubjectResult(
	ownerTenantID, studentID, classID, subjectID, termID, examID uuid.UUID,
	rawScore float64,
) (*SubjectResult, error) {
	result := &SubjectResult{
		ID:              uuid.New(),
		OwnerTenantID:   ownerTenantID,
		StudentID:       studentID,
		ClassID:         classID,
		SubjectID:       subjectID,
		TermID:          termID,
		ExamID:          examID,
		RawScore:        rawScore,
		ComputedAverage: rawScore,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// Validate checks if the SubjectResult has valid data.
func (r *SubjectResult) Validate() error {
	if r.ID == uuid.Nil {
		return ErrResultIDEmpty
	}

	if r.StudentID == uuid.Nil {
		return ErrResultStudentEmpty
	}

	if r.OwnerTenantID == uuid.Nil ||
		r.ClassID == uuid.Nil ||
		r.SubjectID == uuid.Nil ||
		r.TermID == uuid.Nil ||
		r.ExamID == uuid.Nil {
		return ErrResultScopeEmpty
	}

	if r.RawScore < 0 || r.RawScore > 100 {
		return ErrResultScoreRange
	}

	return nil
}

// TermResult is one student's aggregated standing for one term: the mean
// of their per-subject averages across all subjects attempted, the count
// of subjects averaged, and the class position. ClassTotalStudents is the
// denominator frozen at computation time.
type TermResult struct {
	ID                 uuid.UUID `json:"id"`
	OwnerTenantID      uuid.UUID `json:"owner_tenant_id"`
	StudentID          uuid.UUID `json:"student_id"`
	ClassID            uuid.UUID `json:"class_id"`
	TermID             uuid.UUID `json:"term_id"`
	AverageScore       float64   `json:"average_score"`
	SubjectCount       int       `json:"subject_count"`
	ClassPosition      int       `json:"class_position"`
	ClassTotalStudents int       `json:"class_total_students"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validate checks if the TermResult has valid data.
func (r *TermResult) Validate() error {
	if r.ID == uuid.Nil {
		return ErrResultIDEmpty
	}

	if r.StudentID == uuid.Nil {
		return ErrResultStudentEmpty
	}

	if r.OwnerTenantID == uuid.Nil || r.ClassID == uuid.Nil || r.TermID == uuid.Nil {
		return ErrResultScopeEmpty
	}

	return nil
}

// PromotionRecord is the year-end decision for one student. One row per
// (student, academic year); rerunning the promotion engine overwrites
// the row and refreshes DecidedAt rather than appending history.
type PromotionRecord struct {
	ID             uuid.UUID        `json:"id"`
	OwnerTenantID  uuid.UUID        `json:"owner_tenant_id"`
	StudentID      uuid.UUID        `json:"student_id"`
	AcademicYearID uuid.UUID        `json:"academic_year_id"`
	FinalAverage   float64          `json:"final_average"`
	Outcome        PromotionOutcome `json:"outcome"`
	DecidedAt      time.Time        `json:"decided_at"`
}

// NewPromotionRecord creates a promotion record for the given student and
// year. Returns an error if validation fails.
func NewPromotionRecord(
	ownerTenantID, studentID, academicYearID uuid.UUID,
	finalAverage float64,
	outcome PromotionOutcome,
) (*PromotionRecord, error) {
	record := &PromotionRecord{
		ID:             uuid.New(),
		OwnerTenantID:  ownerTenantID,
		StudentID:      studentID,
		AcademicYearID: academicYearID,
		FinalAverage:   finalAverage,
		Outcome:        outcome,
		DecidedAt:      time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the PromotionRecord has valid data.
func (r *PromotionRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrPromotionIDEmpty
	}

	if r.StudentID == uuid.Nil {
		return ErrResultStudentEmpty
	}

	if r.OwnerTenantID == uuid.Nil {
		return ErrResultScopeEmpty
	}

	if r.AcademicYearID == uuid.Nil {
		return ErrPromotionYearEmpty
	}

	if !r.Outcome.IsValid() {
		return ErrInvalidOutcome
	}

	return nil
}
