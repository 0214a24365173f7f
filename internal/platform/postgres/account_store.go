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

// PostgresAccountStore implements the store.AccountStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAccountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAccountStore creates a new PostgreSQL implementation of the AccountStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAccountStore(db store.DBTX, logger *slog.Logger) *PostgresAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAccountStore{
		db:     db,
		logger: logger.With(slog.String("component", "account_store")),
	}
}

// Ensure PostgresAccountStore implements store.AccountStore interface
var _ store.AccountStore = (*PostgresAccountStore)(nil)

// Create implements store.AccountStore.Create
// It saves a new tenant account to the database, handling domain validation.
func (s *PostgresAccountStore) Create(ctx context.Context, account *domain.TenantAccount) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := account.Validate(); err != nil {
		log.Warn("account validation failed during create",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return err
	}

	query := `
		INSERT INTO tenant_accounts (id, role, parent_account_id, is_root, disabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Role,
		account.ParentAccountID,
		account.IsRoot,
		account.Disabled,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create account",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return MapError(err)
	}

	log.Info("account created successfully",
		slog.String("account_id", account.ID.String()),
		slog.String("role", string(account.Role)),
		slog.Bool("is_root", account.IsRoot))
	return nil
}

// GetByID implements store.AccountStore.GetByID
// It retrieves an account by its unique ID.
// Returns store.ErrAccountNotFound if the account does not exist.
func (s *PostgresAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantAccount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, role, parent_account_id, is_root, disabled, created_at, updated_at
		FROM tenant_accounts
		WHERE id = $1
	`

	var account domain.TenantAccount
	var role string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&role,
		&account.ParentAccountID,
		&account.IsRoot,
		&account.Disabled,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("account not found", slog.String("account_id", id.String()))
			return nil, store.ErrAccountNotFound
		}
		log.Error("failed to get account by ID",
			slog.String("error", err.Error()),
			slog.String("account_id", id.String()))
		return nil, MapError(err)
	}

	account.Role = domain.AccountRole(role)
	return &account, nil
}

// SetDisabled implements store.AccountStore.SetDisabled
// It soft-disables or re-enables an account.
// Returns store.ErrAccountNotFound if the account does not exist.
func (s *PostgresAccountStore) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tenant_accounts
		SET disabled = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, disabled, id)
	if err != nil {
		log.Error("failed to update account disabled flag",
			slog.String("error", err.Error()),
			slog.String("account_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "account"); err != nil {
		return err
	}

	log.Info("account disabled flag updated",
		slog.String("account_id", id.String()),
		slog.Bool("disabled", disabled))
	return nil
}

// WithTx implements store.AccountStore.WithTx
// It returns a new AccountStore instance that uses the provided transaction.
func (s *PostgresAccountStore) WithTx(tx *sql.Tx) store.AccountStore {
	return &PostgresAccountStore{
		db:     tx,
		logger: s.logger,
	}
}
