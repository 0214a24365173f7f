package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/platform/logger"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// PostgresScheduleStore implements the store.ScheduleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleStore creates a new PostgreSQL implementation of the ScheduleStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresScheduleStore(db *sql.DB, logger *slog.Logger) *PostgresScheduleStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresScheduleStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_store")),
	}
}

// Ensure PostgresScheduleStore implements store.ScheduleStore interface
var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)

// CreateAcademicYear implements store.ScheduleStore.CreateAcademicYear
func (s *PostgresScheduleStore) CreateAcademicYear(ctx context.Context, year *domain.AcademicYear) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := year.Validate(); err != nil {
		log.Warn("academic year validation failed during create",
			slog.String("error", err.Error()),
			slog.String("academic_year_id", year.ID.String()))
		return err
	}

	query := `
		INSERT INTO academic_years (
			id, owner_tenant_id, start_date, end_date, term_count, exams_per_term,
			promotion_threshold, repeat_threshold, drop_threshold, is_current,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		year.ID,
		year.OwnerTenantID,
		year.StartDate,
		year.EndDate,
		year.TermCount,
		year.ExamsPerTerm,
		year.PromotionThreshold,
		year.RepeatThreshold,
		year.DropThreshold,
		year.IsCurrent,
		year.CreatedAt,
		year.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create academic year",
			slog.String("error", err.Error()),
			slog.String("academic_year_id", year.ID.String()))
		return MapError(err)
	}

	log.Info("academic year created successfully",
		slog.String("academic_year_id", year.ID.String()),
		slog.String("owner_tenant_id", year.OwnerTenantID.String()))
	return nil
}

// GetAcademicYear implements store.ScheduleStore.GetAcademicYear
// Returns store.ErrAcademicYearNotFound if the year does not exist.
func (s *PostgresScheduleStore) GetAcademicYear(ctx context.Context, id uuid.UUID) (*domain.AcademicYear, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_tenant_id, start_date, end_date, term_count, exams_per_term,
		       promotion_threshold, repeat_threshold, drop_threshold, is_current,
		       created_at, updated_at
		FROM academic_years
		WHERE id = $1
	`

	var year domain.AcademicYear
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&year.ID,
		&year.OwnerTenantID,
		&year.StartDate,
		&year.EndDate,
		&year.TermCount,
		&year.ExamsPerTerm,
		&year.PromotionThreshold,
		&year.RepeatThreshold,
		&year.DropThreshold,
		&year.IsCurrent,
		&year.CreatedAt,
		&year.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("academic year not found", slog.String("academic_year_id", id.String()))
			return nil, store.ErrAcademicYearNotFound
		}
		log.Error("failed to get academic year",
			slog.String("error", err.Error()),
			slog.String("academic_year_id", id.String()))
		return nil, MapError(err)
	}

	return &year, nil
}

// ListTerms implements store.ScheduleStore.ListTerms
// Terms are returned ordered by term number.
func (s *PostgresScheduleStore) ListTerms(ctx context.Context, academicYearID uuid.UUID) ([]*domain.Term, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, academic_year_id, term_number, start_date, end_date, is_current,
		       created_at, updated_at
		FROM terms
		WHERE academic_year_id = $1
		ORDER BY term_number
	`

	rows, err := s.db.QueryContext(ctx, query, academicYearID)
	if err != nil {
		log.Error("failed to query terms",
			slog.String("error", err.Error()),
			slog.String("academic_year_id", academicYearID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	terms := []*domain.Term{}
	for rows.Next() {
		var term domain.Term
		err := rows.Scan(
			&term.ID,
			&term.AcademicYearID,
			&term.TermNumber,
			&term.StartDate,
			&term.EndDate,
			&term.IsCurrent,
			&term.CreatedAt,
			&term.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan term row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		terms = append(terms, &term)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning term rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return terms, nil
}

// CreateTerm implements store.ScheduleStore.CreateTerm
// Returns store.ErrDuplicate if a term with the same
// (academic year, term number) already exists.
func (s *PostgresScheduleStore) CreateTerm(ctx context.Context, term *domain.Term) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := term.Validate(); err != nil {
		log.Warn("term validation failed during create",
			slog.String("error", err.Error()),
			slog.String("term_id", term.ID.String()))
		return err
	}

	query := `
		INSERT INTO terms (id, academic_year_id, term_number, start_date, end_date, is_current, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		term.ID,
		term.AcademicYearID,
		term.TermNumber,
		term.StartDate,
		term.EndDate,
		term.IsCurrent,
		term.CreatedAt,
		term.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create term",
			slog.String("error", err.Error()),
			slog.String("term_id", term.ID.String()),
			slog.Int("term_number", term.TermNumber))
		return MapError(err)
	}

	log.Info("term created successfully",
		slog.String("term_id", term.ID.String()),
		slog.String("academic_year_id", term.AcademicYearID.String()),
		slog.Int("term_number", term.TermNumber))
	return nil
}

// ListExams implements store.ScheduleStore.ListExams
// Exams are returned ordered by exam number.
func (s *PostgresScheduleStore) ListExams(ctx context.Context, termID uuid.UUID) ([]*domain.Exam, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, term_id, exam_number, exam_kind, exam_date, is_published, created_at, updated_at
		FROM exams
		WHERE term_id = $1
		ORDER BY exam_number
	`

	rows, err := s.db.QueryContext(ctx, query, termID)
	if err != nil {
		log.Error("failed to query exams",
			slog.String("error", err.Error()),
			slog.String("term_id", termID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	exams := []*domain.Exam{}
	for rows.Next() {
		var exam domain.Exam
		var kind string
		err := rows.Scan(
			&exam.ID,
			&exam.TermID,
			&exam.ExamNumber,
			&kind,
			&exam.ExamDate,
			&exam.IsPublished,
			&exam.CreatedAt,
			&exam.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan exam row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		exam.ExamKind = domain.ExamKind(kind)
		exams = append(exams, &exam)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning exam rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return exams, nil
}

// CreateExam implements store.ScheduleStore.CreateExam
// Returns store.ErrDuplicate if an exam with the same (term, exam number)
// already exists.
func (s *PostgresScheduleStore) CreateExam(ctx context.Context, exam *domain.Exam) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := exam.Validate(); err != nil {
		log.Warn("exam validation failed during create",
			slog.String("error", err.Error()),
			slog.String("exam_id", exam.ID.String()))
		return err
	}

	query := `
		INSERT INTO exams (id, term_id, exam_number, exam_kind, exam_date, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		exam.ID,
		exam.TermID,
		exam.ExamNumber,
		exam.ExamKind,
		exam.ExamDate,
		exam.IsPublished,
		exam.CreatedAt,
		exam.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create exam",
			slog.String("error", err.Error()),
			slog.String("exam_id", exam.ID.String()),
			slog.Int("exam_number", exam.ExamNumber))
		return MapError(err)
	}

	log.Info("exam created successfully",
		slog.String("exam_id", exam.ID.String()),
		slog.String("term_id", exam.TermID.String()),
		slog.Int("exam_number", exam.ExamNumber),
		slog.String("exam_kind", string(exam.ExamKind)))
	return nil
}

// CountTermsWithResults implements store.ScheduleStore.CountTermsWithResults
func (s *PostgresScheduleStore) CountTermsWithResults(ctx context.Context, academicYearID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(DISTINCT t.id)
		FROM terms t
		JOIN subject_results sr ON sr.term_id = t.id
		WHERE t.academic_year_id = $1
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, academicYearID).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// CountExamsWithResults implements store.ScheduleStore.CountExamsWithResults
func (s *PostgresScheduleStore) CountExamsWithResults(ctx context.Context, termID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(DISTINCT e.id)
		FROM exams e
		JOIN subject_results sr ON sr.exam_id = e.id
		WHERE e.term_id = $1
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, termID).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// AcquireYearLock implements store.ScheduleStore.AcquireYearLock
// It takes a transaction-scoped advisory lock keyed on a 64-bit hash of
// the academic year ID. The lock is released automatically when the
// surrounding transaction commits or rolls back.
func (s *PostgresScheduleStore) AcquireYearLock(ctx context.Context, academicYearID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(
		ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		academicYearID.String(),
	)
	if err != nil {
		log.Error("failed to acquire advisory lock for academic year",
			slog.String("error", err.Error()),
			slog.String("academic_year_id", academicYearID.String()))
		return MapError(err)
	}

	log.Debug("acquired advisory lock for academic year",
		slog.String("academic_year_id", academicYearID.String()))
	return nil
}

// WithTx implements store.ScheduleStore.WithTx
// It returns a new ScheduleStore instance that uses the provided transaction.
func (s *PostgresScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &PostgresScheduleStore{
		db:     tx,
		logger: s.logger,
	}
}

// closeRows closes a result set, logging a failure rather than masking
// the caller's error with it.
func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
