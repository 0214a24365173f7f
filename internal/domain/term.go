package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Term- and exam-specific validation errors
var (
	// ErrTermIDEmpty is returned when a term ID is empty or nil.
	ErrTermIDEmpty = errors.New("term ID cannot be empty")

	// ErrTermYearEmpty is returned when a term's academic year ID is empty.
	ErrTermYearEmpty = errors.New("term academic year ID cannot be empty")

	// ErrTermNumberInvalid is returned when a term number is not positive.
	ErrTermNumberInvalid = errors.New("term number must be positive")

	// ErrTermDatesInvalid is returned when a term's start date is after its
	// end date.
	ErrTermDatesInvalid = errors.New("term start date must not be after end date")

	// ErrExamIDEmpty is returned when an exam ID is empty or nil.
	ErrExamIDEmpty = errors.New("exam ID cannot be empty")

	// ErrExamTermEmpty is returned when an exam's term ID is empty.
	ErrExamTermEmpty = errors.New("exam term ID cannot be empty")

	// ErrExamNumberInvalid is returned when an exam number is not positive.
	ErrExamNumberInvalid = errors.New("exam number must be positive")

	// ErrExamKindInvalid is returned when an exam kind is not recognized.
	ErrExamKindInvalid = errors.New("invalid exam kind")

	// ErrExamDateOutsideTerm is returned when an exam is dated outside its
	// owning term's span.
	ErrExamDateOutsideTerm = errors.New("exam date falls outside the term span")
)

// ExamKind tags an exam slot by its position in the term. The scheduler
// derives the kind from the configured exams-per-term count.
type ExamKind string

const (
	ExamKindTest    ExamKind = "test"
	ExamKindMidterm ExamKind = "midterm"
	ExamKindFinal   ExamKind = "final"
)

// IsValid reports whether the kind is one of the recognized values.
func (k ExamKind) IsValid() bool {
	switch k {
	case ExamKindTest, ExamKindMidterm, ExamKindFinal:
		return true
	default:
		return false
	}
}

// Term represents one contiguous span of an academic year. For a given
// year, term numbers form a dense 1..termCount sequence, spans are
// contiguous and non-overlapping, term 1 starts at the year's start date
// and the last term ends at the year's end date.
type Term struct {
	ID             uuid.UUID `json:"id"`
	AcademicYearID uuid.UUID `json:"academic_year_id"`
	TermNumber     int       `json:"term_number"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	IsCurrent      bool      `json:"is_current"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewTerm creates a new Term for the given academic year.
// Returns an error if validation fails.
func NewTerm(academicYearID uuid.UUID, termNumber int, startDate, endDate time.Time) (*Term, error) {
	term := &Term{
		ID:             uuid.New(),
		AcademicYearID: academicYearID,
		TermNumber:     termNumber,
		StartDate:      DateOnly(startDate),
		EndDate:        DateOnly(endDate),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := term.Validate(); err != nil {
		return nil, err
	}

	return term, nil
}

// Validate checks if the Term has valid data.
func (t *Term) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTermIDEmpty
	}

	if t.AcademicYearID == uuid.Nil {
		return ErrTermYearEmpty
	}

	if t.TermNumber < 1 {
		return ErrTermNumberInvalid
	}

	if t.StartDate.After(t.EndDate) {
		return ErrTermDatesInvalid
	}

	return nil
}

// Contains reports whether the given date falls within the term's span,
// endpoints included.
func (t *Term) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(t.StartDate) && !d.After(t.EndDate)
}

// SpanDays returns the number of calendar days in the term, inclusive.
func (t *Term) SpanDays() int {
	return int(t.EndDate.Sub(t.StartDate).Hours()/24) + 1
}

// Exam represents one scheduled exam slot within a term. Exam numbers
// are dense within the term; the exam date always falls inside the
// owning term's span.
type Exam struct {
	ID          uuid.UUID `json:"id"`
	TermID      uuid.UUID `json:"term_id"`
	ExamNumber  int       `json:"exam_number"`
	ExamKind    ExamKind  `json:"exam_kind"`
	ExamDate    time.Time `json:"exam_date"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewExam creates a new Exam slot within the given term. The exam date
// must fall inside the term's span. Returns an error if validation fails.
func NewExam(term *Term, examNumber int, kind ExamKind, examDate time.Time) (*Exam, error) {
	exam := &Exam{
		ID:         uuid.New(),
		TermID:     term.ID,
		ExamNumber: examNumber,
		ExamKind:   kind,
		ExamDate:   DateOnly(examDate),
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := exam.Validate(); err != nil {
		return nil, err
	}

	if !term.Contains(exam.ExamDate) {
		return nil, ErrExamDateOutsideTerm
	}

	return exam, nil
}

// Validate checks if the Exam has valid data.
func (e *Exam) Validate() error {
	if e.ID == uuid.Nil {
		return ErrExamIDEmpty
	}

	if e.TermID == uuid.Nil {
		return ErrExamTermEmpty
	}

	if e.ExamNumber < 1 {
		return ErrExamNumberInvalid
	}

	if !e.ExamKind.IsValid() {
		return ErrExamKindInvalid
	}

	return nil
}
