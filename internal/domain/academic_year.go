package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Supported schedule shapes. The scheduler refuses configurations
// outside these ranges before any write.
const (
	MinTermCount = 2
	MaxTermCount = 3

	MinExamsPerTerm = 1
	MaxExamsPerTerm = 3
)

// AcademicYear-specific validation errors
var (
	// ErrYearIDEmpty is returned when an academic year ID is empty or nil.
	ErrYearIDEmpty = errors.New("academic year ID cannot be empty")

	// ErrYearOwnerEmpty is returned when an academic year's owner tenant ID
	// is empty or nil.
	ErrYearOwnerEmpty = errors.New("academic year owner tenant ID cannot be empty")

	// ErrYearDatesInvalid is returned when the start date is not strictly
	// before the end date.
	ErrYearDatesInvalid = errors.New("academic year start date must be before end date")

	// ErrYearTermCountInvalid is returned when the term count is outside
	// the supported range.
	ErrYearTermCountInvalid = errors.New("term count must be 2 or 3")

	// ErrYearExamsPerTermInvalid is returned when the exams-per-term count
	// is outside the supported range.
	ErrYearExamsPerTermInvalid = errors.New("exams per term must be between 1 and 3")

	// ErrYearThresholdsInvalid is returned when the promotion thresholds
	// are not strictly ordered promotion > repeat > drop.
	ErrYearThresholdsInvalid = errors.New(
		"thresholds must satisfy promotion > repeat > drop")

	// ErrYearThresholdRange is returned when a threshold falls outside the
	// 0..100 percentage range.
	ErrYearThresholdRange = errors.New("thresholds must be percentages between 0 and 100")
)

// AcademicYear represents one tenant's school year and the configuration
// the scheduler and promotion engine operate on. The three thresholds are
// percentages with the strict ordering promotion > repeat > drop.
//
// IsCurrent is carried as data for the CRUD layer; the engine never reads
// it. Every engine operation takes an explicit academic year ID so that
// concurrent tenants with different current years cannot interfere.
type AcademicYear struct {
	ID                 uuid.UUID `json:"id"`
	OwnerTenantID      uuid.UUID `json:"owner_tenant_id"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	TermCount          int       `json:"term_count"`
	ExamsPerTerm       int       `json:"exams_per_term"`
	PromotionThreshold float64   `json:"promotion_threshold"`
	RepeatThreshold    float64   `json:"repeat_threshold"`
	DropThreshold      float64   `json:"drop_threshold"`
	IsCurrent          bool      `json:"is_current"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewAcademicYear creates a new AcademicYear owned by the given tenant.
// Dates are truncated to whole days in UTC. Returns an error if
// validation fails.
func NewAcademicYear(
	ownerTenantID uuid.UUID,
	startDate, endDate time.Time,
	termCount, examsPerTerm int,
	promotionThreshold, repeatThreshold, dropThreshold float64,
) (*AcademicYear, error) {
	year := &AcademicYear{
		ID:                 uuid.New(),
		OwnerTenantID:      ownerTenantID,
		StartDate:          DateOnly(startDate),
		EndDate:            DateOnly(endDate),
		TermCount:          termCount,
		ExamsPerTerm:       examsPerTerm,
		PromotionThreshold: promotionThreshold,
		RepeatThreshold:    repeatThreshold,
		DropThreshold:      dropThreshold,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}

	if err := year.Validate(); err != nil {
		return nil, err
	}

	return year, nil
}

// Validate checks if the AcademicYear has valid data.
// Returns an error if any field fails validation.
func (y *AcademicYear) Validate() error {
	if y.ID == uuid.Nil {
		return ErrYearIDEmpty
	}

	if y.OwnerTenantID == uuid.Nil {
		return ErrYearOwnerEmpty
	}

	if !y.StartDate.Before(y.EndDate) {
		return ErrYearDatesInvalid
	}

	if y.TermCount < MinTermCount || y.TermCount > MaxTermCount {
		return ErrYearTermCountInvalid
	}

	if y.ExamsPerTerm < MinExamsPerTerm || y.ExamsPerTerm > MaxExamsPerTerm {
		return ErrYearExamsPerTermInvalid
	}

	for _, t := range []float64{y.PromotionThreshold, y.RepeatThreshold, y.DropThreshold} {
		if t < 0 || t > 100 {
			return ErrYearThresholdRange
		}
	}

	if !(y.PromotionThreshold > y.RepeatThreshold && y.RepeatThreshold > y.DropThreshold) {
		return ErrYearThresholdsInvalid
	}

	return nil
}

// TotalDays returns the number of calendar days covered by the year,
// inclusive of both endpoints.
func (y *AcademicYear) TotalDays() int {
	return int(y.EndDate.Sub(y.StartDate).Hours()/24) + 1
}

// DateOnly truncates a timestamp to midnight UTC. Terms and exams are
// dated to whole days; time-of-day is never significant.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
