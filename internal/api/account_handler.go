package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/api/middleware"
	"github.com/kmuhangi/elimu-api/internal/api/shared"
	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/platform/metrics"
	"github.com/kmuhangi/elimu-api/internal/service"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// CreateAccountRequest represents the request body for creating an account.
// Root accounts omit parent_account_id; every other role requires it.
type CreateAccountRequest struct {
	Role            string `json:"role"                        validate:"required,oneof=root delegate supervised"`
	ParentAccountID string `json:"parent_account_id,omitempty" validate:"omitempty,uuid"`
}

// AccountResponse represents the response data for an account
type AccountResponse struct {
	ID              string    `json:"id"`
	Role            string    `json:"role"`
	ParentAccountID *string   `json:"parent_account_id,omitempty"`
	IsRoot          bool      `json:"is_root"`
	Disabled        bool      `json:"disabled"`
	CreatedAt       time.Time `json:"created_at"`
}

// SetDisabledRequest represents the request body for soft-disabling or
// re-enabling an account.
type SetDisabledRequest struct {
	Disabled *bool `json:"disabled" validate:"required"`
}

// OwnerResponse is the resolved owning tenant for an acting account.
type OwnerResponse struct {
	AccountID     string `json:"account_id"`
	OwnerTenantID string `json:"owner_tenant_id"`
}

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accounts  store.AccountStore
	tenancy   *service.TenancyResolver
	validator *validator.Validate
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts store.AccountStore, tenancy *service.TenancyResolver) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		tenancy:   tenancy,
		validator: validator.New(),
	}
}

// CreateAccount handles POST /api/accounts requests
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	var account *domain.TenantAccount
	var err error

	if req.Role == string(domain.RoleRoot) {
		if req.ParentAccountID != "" {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Root accounts cannot have a parent")
			return
		}
		account, err = domain.NewRootAccount()
	} else {
		if req.ParentAccountID == "" {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Non-root accounts require a parent")
			return
		}
		parentID, parseErr := uuid.Parse(req.ParentAccountID)
		if parseErr != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid parent account ID")
			return
		}
		account, err = domain.NewDelegateAccount(parentID, domain.AccountRole(req.Role))
	}

	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid account data", err)
		return
	}

	if err := h.accounts.Create(r.Context(), account); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, accountToResponse(account))
}

// ResolveOwner handles GET /api/accounts/owner requests: it resolves the
// owning tenant of the acting account taken from the auth context.
func (h *AccountHandler) ResolveOwner(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r)
	if !ok || accountID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	ownerID, err := h.tenancy.ResolveOwner(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownAccount):
			metrics.ObserveTenancyResolution("unknown_account")
		case errors.Is(err, service.ErrTenancyCycle):
			metrics.ObserveTenancyResolution("cycle")
		default:
			metrics.ObserveTenancyResolution("error")
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	metrics.ObserveTenancyResolution("ok")
	shared.RespondWithJSON(w, r, http.StatusOK, OwnerResponse{
		AccountID:     accountID.String(),
		OwnerTenantID: ownerID.String(),
	})
}

// SetDisabled handles PATCH /api/accounts/{id}/disabled requests.
// Accounts that own records are soft-disabled rather than deleted; the
// target must belong to the acting account's tenant, and a foreign
// account is reported as not found.
func (h *AccountHandler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	actingID, ok := middleware.GetAccountID(r)
	if !ok || actingID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid account ID")
		return
	}

	var req SetDisabledRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	owner, err := h.tenancy.ResolveOwner(r.Context(), actingID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	// An account outside the acting tenant's tree is indistinguishable
	// from a missing one.
	targetOwner, err := h.tenancy.ResolveOwner(r.Context(), targetID)
	if err != nil || targetOwner != owner {
		shared.RespondWithError(w, r, http.StatusNotFound, "Account not found")
		return
	}

	if err := h.accounts.SetDisabled(r.Context(), targetID, *req.Disabled); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	account, err := h.accounts.GetByID(r.Context(), targetID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, accountToResponse(account))
}

// accountToResponse converts a domain.TenantAccount to an AccountResponse
func accountToResponse(account *domain.TenantAccount) AccountResponse {
	resp := AccountResponse{
		ID:        account.ID.String(),
		Role:      string(account.Role),
		IsRoot:    account.IsRoot,
		Disabled:  account.Disabled,
		CreatedAt: account.CreatedAt,
	}
	if account.ParentAccountID != nil {
		parent := account.ParentAccountID.String()
		resp.ParentAccountID = &parent
	}
	return resp
}
