package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
)

// AccountStore defines the interface for tenant account persistence.
// The tenancy resolver only ever reads accounts; creation and disabling
// are used by the surrounding CRUD layer and by tests.
type AccountStore interface {
	// Create saves a new tenant account to the store.
	// Returns validation errors if the account data is invalid, or
	// ErrDuplicate if the ID already exists.
	Create(ctx context.Context, account *domain.TenantAccount) error

	// GetByID retrieves an account by its unique ID.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantAccount, error)

	// SetDisabled soft-disables or re-enables an account. Accounts that
	// own records are never physically deleted.
	// Returns ErrAccountNotFound if the account does not exist.
	SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error

	// WithTx returns a new AccountStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) AccountStore
}
