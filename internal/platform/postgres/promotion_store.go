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

// PostgresPromotionStore implements the store.PromotionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPromotionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPromotionStore creates a new PostgreSQL implementation of the PromotionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresPromotionStore(db store.DBTX, logger *slog.Logger) *PostgresPromotionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPromotionStore{
		db:     db,
		logger: logger.With(slog.String("component", "promotion_store")),
	}
}

// Ensure PostgresPromotionStore implements store.PromotionStore interface
var _ store.PromotionStore = (*PostgresPromotionStore)(nil)

// Upsert implements store.PromotionStore.Upsert
// One row per (student, academic year); rerunning overwrites the row and
// refreshes DecidedAt.
func (s *PostgresPromotionStore) Upsert(ctx context.Context, record *domain.PromotionRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("promotion record validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("student_id", record.StudentID.String()))
		return err
	}

	query := `
		INSERT INTO promotion_records (
			id, owner_tenant_id, student_id, academic_year_id,
			final_average, outcome, decided_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, academic_year_id) DO UPDATE
		SET final_average = EXCLUDED.final_average,
		    outcome = EXCLUDED.outcome,
		    decided_at = EXCLUDED.decided_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.OwnerTenantID,
		record.StudentID,
		record.AcademicYearID,
		record.FinalAverage,
		record.Outcome,
		record.DecidedAt,
	)

	if err != nil {
		log.Error("failed to upsert promotion record",
			slog.String("error", err.Error()),
			slog.String("student_id", record.StudentID.String()),
			slog.String("academic_year_id", record.AcademicYearID.String()))
		return MapError(err)
	}

	log.Info("promotion record written",
		slog.String("student_id", record.StudentID.String()),
		slog.String("academic_year_id", record.AcademicYearID.String()),
		slog.String("outcome", string(record.Outcome)))
	return nil
}

// Get implements store.PromotionStore.Get
// Returns store.ErrNotFound if no decision has been recorded.
func (s *PostgresPromotionStore) Get(
	ctx context.Context,
	tenantID, studentID, academicYearID uuid.UUID,
) (*domain.PromotionRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_tenant_id, student_id, academic_year_id,
		       final_average, outcome, decided_at
		FROM promotion_records
		WHERE owner_tenant_id = $1 AND student_id = $2 AND academic_year_id = $3
	`

	var record domain.PromotionRecord
	var outcome string

	err := s.db.QueryRowContext(ctx, query, tenantID, studentID, academicYearID).Scan(
		&record.ID,
		&record.OwnerTenantID,
		&record.StudentID,
		&record.AcademicYearID,
		&record.FinalAverage,
		&outcome,
		&record.DecidedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("promotion record not found",
				slog.String("student_id", studentID.String()),
				slog.String("academic_year_id", academicYearID.String()))
			return nil, store.ErrNotFound
		}
		log.Error("failed to get promotion record",
			slog.String("error", err.Error()),
			slog.String("student_id", studentID.String()))
		return nil, MapError(err)
	}

	record.Outcome = domain.PromotionOutcome(outcome)
	return &record, nil
}

// WithTx implements store.PromotionStore.WithTx
// It returns a new PromotionStore instance that uses the provided transaction.
func (s *PostgresPromotionStore) WithTx(tx *sql.Tx) store.PromotionStore {
	return &PostgresPromotionStore{
		db:     tx,
		logger: s.logger,
	}
}
