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

// PostgresResultStore implements the store.ResultStore interface
// using a PostgreSQL database as the storage backend.
type PostgresResultStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresResultStore creates a new PostgreSQL implementation of the ResultStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresResultStore(db *sql.DB, logger *slog.Logger) *PostgresResultStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresResultStore{
		db:     db,
		logger: logger.With(slog.String("component", "result_store")),
	}
}

// Ensure PostgresResultStore implements store.ResultStore interface
var _ store.ResultStore = (*PostgresResultStore)(nil)

const subjectResultColumns = `
	id, owner_tenant_id, student_id, class_id, subject_id, term_id, exam_id,
	raw_score, computed_average, subject_position, created_at, updated_at
`

// CreateSubjectResult implements store.ResultStore.CreateSubjectResult
// Returns store.ErrDuplicate when a row for the same
// (student, subject, exam) already exists.
func (s *PostgresResultStore) CreateSubjectResult(ctx context.Context, result *domain.SubjectResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := result.Validate(); err != nil {
		log.Warn("subject result validation failed during create",
			slog.String("error", err.Error()),
			slog.String("result_id", result.ID.String()))
		return err
	}

	query := `
		INSERT INTO subject_results (` + subjectResultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		result.ID,
		result.OwnerTenantID,
		result.StudentID,
		result.ClassID,
		result.SubjectID,
		result.TermID,
		result.ExamID,
		result.RawScore,
		result.ComputedAverage,
		result.SubjectPosition,
		result.CreatedAt,
		result.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create subject result",
			slog.String("error", err.Error()),
			slog.String("result_id", result.ID.String()),
			slog.String("student_id", result.StudentID.String()))
		return MapError(err)
	}

	log.Debug("subject result created",
		slog.String("result_id", result.ID.String()),
		slog.String("student_id", result.StudentID.String()),
		slog.String("exam_id", result.ExamID.String()))
	return nil
}

// ListSubjectResults implements store.ResultStore.ListSubjectResults
func (s *PostgresResultStore) ListSubjectResults(
	ctx context.Context,
	tenantID, classID, subjectID, termID uuid.UUID,
) ([]*domain.SubjectResult, error) {
	query := `
		SELECT ` + subjectResultColumns + `
		FROM subject_results
		WHERE owner_tenant_id = $1 AND class_id = $2 AND subject_id = $3 AND term_id = $4
		ORDER BY student_id, exam_id
	`
	return s.querySubjectResults(ctx, query, tenantID, classID, subjectID, termID)
}

// ListTermSubjectResults implements store.ResultStore.ListTermSubjectResults
func (s *PostgresResultStore) ListTermSubjectResults(
	ctx context.Context,
	tenantID, classID, termID uuid.UUID,
) ([]*domain.SubjectResult, error) {
	query := `
		SELECT ` + subjectResultColumns + `
		FROM subject_results
		WHERE owner_tenant_id = $1 AND class_id = $2 AND term_id = $3
		ORDER BY student_id, subject_id, exam_id
	`
	return s.querySubjectResults(ctx, query, tenantID, classID, termID)
}

// querySubjectResults runs a subject result query and scans all rows.
func (s *PostgresResultStore) querySubjectResults(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.SubjectResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query subject results", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	results := []*domain.SubjectResult{}
	for rows.Next() {
		var result domain.SubjectResult
		err := rows.Scan(
			&result.ID,
			&result.OwnerTenantID,
			&result.StudentID,
			&result.ClassID,
			&result.SubjectID,
			&result.TermID,
			&result.ExamID,
			&result.RawScore,
			&result.ComputedAverage,
			&result.SubjectPosition,
			&result.CreatedAt,
			&result.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan subject result row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning subject result rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return results, nil
}

// ApplySubjectStandings implements store.ResultStore.ApplySubjectStandings
// It first clears the positions of every row in the scope, then writes
// the recomputed average and position onto the rows of each listed
// student. Students not listed (skipped on this pass) end up with no
// position rather than a stale one. Intended to run inside the ranking
// transaction.
func (s *PostgresResultStore) ApplySubjectStandings(
	ctx context.Context,
	tenantID, classID, subjectID, termID uuid.UUID,
	standings []store.SubjectStanding,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	clearQuery := `
		UPDATE subject_results
		SET subject_position = NULL, updated_at = now()
		WHERE owner_tenant_id = $1 AND class_id = $2 AND subject_id = $3 AND term_id = $4
	`
	if _, err := s.db.ExecContext(ctx, clearQuery, tenantID, classID, subjectID, termID); err != nil {
		log.Error("failed to clear subject positions for scope",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()),
			slog.String("term_id", termID.String()))
		return MapError(err)
	}

	query := `
		UPDATE subject_results
		SET computed_average = $1, subject_position = $2, updated_at = now()
		WHERE owner_tenant_id = $3 AND class_id = $4 AND subject_id = $5 AND term_id = $6
		  AND student_id = $7
	`

	for _, standing := range standings {
		_, err := s.db.ExecContext(
			ctx,
			query,
			standing.ComputedAverage,
			standing.Position,
			tenantID,
			classID,
			subjectID,
			termID,
			standing.StudentID,
		)
		if err != nil {
			log.Error("failed to apply subject standing",
				slog.String("error", err.Error()),
				slog.String("student_id", standing.StudentID.String()),
				slog.String("subject_id", subjectID.String()))
			return MapError(err)
		}
	}

	log.Debug("subject standings applied",
		slog.String("subject_id", subjectID.String()),
		slog.String("term_id", termID.String()),
		slog.Int("students", len(standings)))
	return nil
}

// ReplaceTermResults implements store.ResultStore.ReplaceTermResults
// It deletes the scope's term result rows and inserts the given rows in
// their place. Intended to run inside the ranking transaction so the
// replacement is atomic.
func (s *PostgresResultStore) ReplaceTermResults(
	ctx context.Context,
	tenantID, classID, termID uuid.UUID,
	results []*domain.TermResult,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deleteQuery := `
		DELETE FROM term_results
		WHERE owner_tenant_id = $1 AND class_id = $2 AND term_id = $3
	`
	if _, err := s.db.ExecContext(ctx, deleteQuery, tenantID, classID, termID); err != nil {
		log.Error("failed to clear term results scope",
			slog.String("error", err.Error()),
			slog.String("term_id", termID.String()))
		return MapError(err)
	}

	insertQuery := `
		INSERT INTO term_results (
			id, owner_tenant_id, student_id, class_id, term_id,
			average_score, subject_count, class_position, class_total_students,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, result := range results {
		if err := result.Validate(); err != nil {
			log.Warn("term result validation failed during replace",
				slog.String("error", err.Error()),
				slog.String("student_id", result.StudentID.String()))
			return err
		}

		_, err := s.db.ExecContext(
			ctx,
			insertQuery,
			result.ID,
			result.OwnerTenantID,
			result.StudentID,
			result.ClassID,
			result.TermID,
			result.AverageScore,
			result.SubjectCount,
			result.ClassPosition,
			result.ClassTotalStudents,
			result.CreatedAt,
			result.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to insert term result",
				slog.String("error", err.Error()),
				slog.String("student_id", result.StudentID.String()),
				slog.String("term_id", termID.String()))
			return MapError(err)
		}
	}

	log.Debug("term results replaced",
		slog.String("term_id", termID.String()),
		slog.String("class_id", classID.String()),
		slog.Int("students", len(results)))
	return nil
}

// GetLatestTermResult implements store.ResultStore.GetLatestTermResult
// Returns store.ErrTermResultNotFound when the student has no term result
// in the year.
func (s *PostgresResultStore) GetLatestTermResult(
	ctx context.Context,
	tenantID, studentID, academicYearID uuid.UUID,
) (*domain.TermResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT tr.id, tr.owner_tenant_id, tr.student_id, tr.class_id, tr.term_id,
		       tr.average_score, tr.subject_count, tr.class_position, tr.class_total_students,
		       tr.created_at, tr.updated_at
		FROM term_results tr
		JOIN terms t ON t.id = tr.term_id
		WHERE tr.owner_tenant_id = $1 AND tr.student_id = $2 AND t.academic_year_id = $3
		ORDER BY t.term_number DESC
		LIMIT 1
	`

	var result domain.TermResult
	err := s.db.QueryRowContext(ctx, query, tenantID, studentID, academicYearID).Scan(
		&result.ID,
		&result.OwnerTenantID,
		&result.StudentID,
		&result.ClassID,
		&result.TermID,
		&result.AverageScore,
		&result.SubjectCount,
		&result.ClassPosition,
		&result.ClassTotalStudents,
		&result.CreatedAt,
		&result.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no term result found for student",
				slog.String("student_id", studentID.String()),
				slog.String("academic_year_id", academicYearID.String()))
			return nil, store.ErrTermResultNotFound
		}
		log.Error("failed to get latest term result",
			slog.String("error", err.Error()),
			slog.String("student_id", studentID.String()))
		return nil, MapError(err)
	}

	return &result, nil
}

// WithTx implements store.ResultStore.WithTx
// It returns a new ResultStore instance that uses the provided transaction.
func (s *PostgresResultStore) WithTx(tx *sql.Tx) store.ResultStore {
	return &PostgresResultStore{
		db:     tx,
		logger: s.logger,
	}
}
