package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Account-specific validation errors
var (
	// ErrAccountIDEmpty is returned when an account ID is empty or nil.
	ErrAccountIDEmpty = errors.New("account ID cannot be empty")

	// ErrAccountParentMissing is returned when a non-root account has no
	// parent account set.
	ErrAccountParentMissing = errors.New("non-root account must have a parent account")

	// ErrAccountRootHasParent is returned when a root account carries a
	// parent account ID.
	ErrAccountRootHasParent = errors.New("root account cannot have a parent account")

	// ErrAccountSelfParent is returned when an account lists itself as its
	// own parent.
	ErrAccountSelfParent = errors.New("account cannot be its own parent")
)

// AccountRole identifies the position of a tenant account within its
// tenant tree.
type AccountRole string

const (
	// RoleRoot is the single account at the top of a tenant tree. It owns
	// every record in the tenant.
	RoleRoot AccountRole = "root"

	// RoleDelegate is an account created by the root (or another delegate)
	// that operates on the root's data.
	RoleDelegate AccountRole = "delegate"

	// RoleSupervised is a restricted account created by a delegate.
	RoleSupervised AccountRole = "supervised"
)

// IsValid reports whether the role is one of the recognized values.
func (r AccountRole) IsValid() bool {
	switch r {
	case RoleRoot, RoleDelegate, RoleSupervised:
		return true
	default:
		return false
	}
}

// TenantAccount represents one school-administration account. Exactly one
// account per tenant tree is the root (IsRoot true, no parent); every
// other account's parent chain terminates at that root. Accounts are
// soft-disabled rather than deleted while they own records.
type TenantAccount struct {
	ID              uuid.UUID   `json:"id"`
	Role            AccountRole `json:"role"`
	ParentAccountID *uuid.UUID  `json:"parent_account_id,omitempty"`
	IsRoot          bool        `json:"is_root"`
	Disabled        bool        `json:"disabled"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewRootAccount creates the root account of a new tenant tree.
func NewRootAccount() (*TenantAccount, error) {
	account := &TenantAccount{
		ID:        uuid.New(),
		Role:      RoleRoot,
		IsRoot:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// NewDelegateAccount creates an account under the given parent with the
// given role. Returns an error if validation fails.
func NewDelegateAccount(parentID uuid.UUID, role AccountRole) (*TenantAccount, error) {
	account := &TenantAccount{
		ID:              uuid.New(),
		Role:            role,
		ParentAccountID: &parentID,
		IsRoot:          false,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// Validate checks if the TenantAccount has valid data.
// Returns an error if any field fails validation.
func (a *TenantAccount) Validate() error {
	if a.ID == uuid.Nil {
		return ErrAccountIDEmpty
	}

	if !a.Role.IsValid() {
		return ErrInvalidRole
	}

	if a.IsRoot {
		if a.ParentAccountID != nil {
			return ErrAccountRootHasParent
		}
		return nil
	}

	if a.ParentAccountID == nil {
		return ErrAccountParentMissing
	}

	if *a.ParentAccountID == a.ID {
		return ErrAccountSelfParent
	}

	return nil
}
