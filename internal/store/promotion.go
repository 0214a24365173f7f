package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
)

// PromotionStore defines the interface for promotion record persistence.
type PromotionStore interface {
	// Upsert writes the promotion record for its (student, academic year)
	// pair, overwriting any existing row and refreshing DecidedAt. Safe
	// to retry; concurrent upserts for the same pair are last-writer-wins.
	Upsert(ctx context.Context, record *domain.PromotionRecord) error

	// Get retrieves the promotion record for the given student and
	// academic year within the tenant.
	// Returns ErrNotFound if no decision has been recorded.
	Get(
		ctx context.Context,
		tenantID, studentID, academicYearID uuid.UUID,
	) (*domain.PromotionRecord, error)

	// WithTx returns a new PromotionStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) PromotionStore
}
