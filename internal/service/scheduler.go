package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/platform/logger"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// Schedule is the materialized term and exam calendar of one academic
// year, returned by a generation pass.
type Schedule struct {
	Year  *domain.AcademicYear `json:"year"`
	Terms []*domain.Term       `json:"terms"`
	Exams []*domain.Exam       `json:"exams"`
}

// CycleScheduler generates a school year's term and exam calendar from
// the academic year configuration, idempotently: rerunning for the same
// year creates nothing new, and a configuration change only appends the
// newly required slots. It never deletes or renumbers terms or exams.
type CycleScheduler struct {
	schedule store.ScheduleStore
	tx       store.TxRunner
	logger   *slog.Logger
}

// NewCycleScheduler creates a new CycleScheduler.
func NewCycleScheduler(schedule store.ScheduleStore, tx store.TxRunner, logger *slog.Logger) *CycleScheduler {
	if schedule == nil {
		panic("schedule store cannot be nil")
	}

	if tx == nil {
		panic("transaction runner cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &CycleScheduler{
		schedule: schedule,
		tx:       tx,
		logger:   logger.With(slog.String("component", "cycle_scheduler")),
	}
}

// GenerateSchedule materializes the term and exam calendar for the given
// academic year. The whole pass runs inside one transaction holding an
// advisory lock keyed on the year, so concurrent calls for the same year
// serialize instead of double-inserting.
//
// Returns ErrInvalidScheduleConfig when the year's configuration is out
// of range, and ErrScheduleShrink when the configuration was reduced
// below term/exam counts that already carry recorded results.
func (s *CycleScheduler) GenerateSchedule(ctx context.Context, academicYearID uuid.UUID) (*Schedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var schedule *Schedule
	err := s.tx.RunTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		ss := s.schedule.WithTx(tx)

		// Serialize concurrent generation passes for this year; the lock
		// releases with the transaction.
		if err := ss.AcquireYearLock(ctx, academicYearID); err != nil {
			return NewEngineError("generate_schedule", "failed to lock academic year", err)
		}

		year, err := ss.GetAcademicYear(ctx, academicYearID)
		if err != nil {
			return NewEngineError("generate_schedule", "failed to load academic year", err)
		}

		if err := validateScheduleConfig(year); err != nil {
			log.Warn("rejected invalid schedule configuration",
				slog.String("academic_year_id", academicYearID.String()),
				slog.String("error", err.Error()))
			return err
		}

		terms, err := s.ensureTerms(ctx, ss, year)
		if err != nil {
			return err
		}

		allExams := []*domain.Exam{}
		for _, term := range terms {
			exams, err := s.ensureExams(ctx, ss, year, term)
			if err != nil {
				return err
			}
			allExams = append(allExams, exams...)
		}

		schedule = &Schedule{Year: year, Terms: terms, Exams: allExams}
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Info("schedule generated",
		slog.String("academic_year_id", academicYearID.String()),
		slog.Int("terms", len(schedule.Terms)),
		slog.Int("exams", len(schedule.Exams)))
	return schedule, nil
}

// validateScheduleConfig rejects configurations outside the supported
// range before any write happens.
func validateScheduleConfig(year *domain.AcademicYear) error {
	if year.TermCount < domain.MinTermCount || year.TermCount > domain.MaxTermCount {
		return fmt.Errorf("%w: term count %d", ErrInvalidScheduleConfig, year.TermCount)
	}

	if year.ExamsPerTerm < domain.MinExamsPerTerm || year.ExamsPerTerm > domain.MaxExamsPerTerm {
		return fmt.Errorf("%w: exams per term %d", ErrInvalidScheduleConfig, year.ExamsPerTerm)
	}

	if !year.StartDate.Before(year.EndDate) {
		return fmt.Errorf("%w: start date must be before end date", ErrInvalidScheduleConfig)
	}

	return nil
}

// ensureTerms creates the term rows the configuration requires and are
// not present yet, keyed by (academic year, term number). Existing terms
// are never altered. Returns all terms of the year ordered by number.
func (s *CycleScheduler) ensureTerms(
	ctx context.Context,
	ss store.ScheduleStore,
	year *domain.AcademicYear,
) ([]*domain.Term, error) {
	existing, err := ss.ListTerms(ctx, year.ID)
	if err != nil {
		return nil, NewEngineError("generate_schedule", "failed to list terms", err)
	}

	populated, err := ss.CountTermsWithResults(ctx, year.ID)
	if err != nil {
		return nil, NewEngineError("generate_schedule", "failed to count populated terms", err)
	}
	if year.TermCount < populated {
		return nil, fmt.Errorf(
			"%w: term count %d is below %d terms with recorded results",
			ErrScheduleShrink, year.TermCount, populated)
	}

	byNumber := make(map[int]*domain.Term, len(existing))
	for _, term := range existing {
		byNumber[term.TermNumber] = term
	}

	spans := planTermSpans(year)
	for number, span := range spans {
		if _, ok := byNumber[number]; ok {
			continue
		}

		term, err := domain.NewTerm(year.ID, number, span.start, span.end)
		if err != nil {
			return nil, NewEngineError("generate_schedule", "failed to build term", err)
		}
		if err := ss.CreateTerm(ctx, term); err != nil {
			return nil, NewEngineError("generate_schedule", "failed to create term", err)
		}
		byNumber[number] = term
	}

	terms, err := ss.ListTerms(ctx, year.ID)
	if err != nil {
		return nil, NewEngineError("generate_schedule", "failed to reload terms", err)
	}
	return terms, nil
}

// ensureExams creates the exam slots the configuration requires for one
// term, keyed by (term, exam number). Existing exams are never altered.
func (s *CycleScheduler) ensureExams(
	ctx context.Context,
	ss store.ScheduleStore,
	year *domain.AcademicYear,
	term *domain.Term,
) ([]*domain.Exam, error) {
	existing, err := ss.ListExams(ctx, term.ID)
	if err != nil {
		return nil, NewEngineError("generate_schedule", "failed to list exams", err)
	}

	populated, err := ss.CountExamsWithResults(ctx, term.ID)
	if err != nil {
		return nil, NewEngineError("generate_schedule", "failed to count populated exams", err)
	}
	if year.ExamsPerTerm < populated {
		return nil, fmt.Errorf(
			"%w: exams per term %d is below %d exams with recorded results in term %d",
			ErrScheduleShrink, year.ExamsPerTerm, populated, term.TermNumber)
	}

	byNumber := make(map[int]*domain.Exam, len(existing))
	for _, exam := range existing {
		byNumber[exam.ExamNumber] = exam
	}

	for _, slot := range planExamSlots(term, year.ExamsPerTerm) {
		if _, ok := byNumber[slot.number]; ok {
			continue
		}

		exam, err := domain.NewExam(term, slot.number, slot.kind, slot.date)
		if err != nil {
			return nil, NewEngineError("generate_schedule", "failed to build exam", err)
		}
		if err := ss.CreateExam(ctx, exam); err != nil {
			return nil, NewEngineError("generate_schedule", "failed to create exam", err)
		}
	}

	exams, err := ss.ListExams(ctx, term.ID)
	if err != nil {
		return nil, NewEngineError("generate_schedule", "failed to reload exams", err)
	}
	return exams, nil
}

// dateSpan is one term's inclusive date range.
type dateSpan struct {
	start time.Time
	end   time.Time
}

// planTermSpans partitions the year into termCount contiguous spans of
// nearly equal length: spanDays = floor(totalDays / termCount), each
// term but the last covering exactly spanDays days, and the last term's
// end forced to the year's end date so any remainder days are absorbed.
// The spans cover [startDate, endDate] exactly, with no gaps or overlap.
func planTermSpans(year *domain.AcademicYear) map[int]dateSpan {
	totalDays := year.TotalDays()
	spanDays := totalDays / year.TermCount

	spans := make(map[int]dateSpan, year.TermCount)
	for k := 1; k <= year.TermCount; k++ {
		start := year.StartDate.AddDate(0, 0, (k-1)*spanDays)
		var end time.Time
		if k == year.TermCount {
			end = year.EndDate
		} else {
			end = year.StartDate.AddDate(0, 0, k*spanDays-1)
		}
		spans[k] = dateSpan{start: start, end: end}
	}

	return spans
}

// examSlot is one planned exam: its dense number within the term, the
// derived kind tag and the date.
type examSlot struct {
	number int
	kind   domain.ExamKind
	date   time.Time
}

// planExamSlots lays out the exam slots for one term from the configured
// exams-per-term count. One exam sits at the term's end ("final"); two
// add a midpoint "test"; three add an early "test" at roughly a third of
// the span and tag the midpoint "midterm". Numbers follow chronological
// order.
func planExamSlots(term *domain.Term, examsPerTerm int) []examSlot {
	span := term.SpanDays()
	mid := term.StartDate.AddDate(0, 0, span/2)
	early := term.StartDate.AddDate(0, 0, span/3)

	switch examsPerTerm {
	case 1:
		return []examSlot{
			{number: 1, kind: domain.ExamKindFinal, date: term.EndDate},
		}
	case 2:
		return []examSlot{
			{number: 1, kind: domain.ExamKindTest, date: mid},
			{number: 2, kind: domain.ExamKindFinal, date: term.EndDate},
		}
	case 3:
		return []examSlot{
			{number: 1, kind: domain.ExamKindTest, date: early},
			{number: 2, kind: domain.ExamKindMidterm, date: mid},
			{number: 3, kind: domain.ExamKindFinal, date: term.EndDate},
		}
	default:
		// validateScheduleConfig rejects anything else before this runs.
		return nil
	}
}
