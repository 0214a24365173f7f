package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/platform/logger"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// DefaultTenancyMaxDepth caps the parent-chain walk when no explicit
// configuration is supplied.
const DefaultTenancyMaxDepth = 10

// TenancyResolver determines which tenant's records a request may see:
// given any acting account, it walks the parent chain upward and returns
// the single owning tenant (the root account's ID). Every other engine
// component consults it before reading or writing.
//
// The resolver itself is stateless and safe for unlimited concurrency;
// per-request memoization is provided by ForRequest.
type TenancyResolver struct {
	accounts store.AccountStore
	maxDepth int
	logger   *slog.Logger
}

// NewTenancyResolver creates a new TenancyResolver. maxDepth caps the
// parent-chain walk; values below 1 fall back to DefaultTenancyMaxDepth.
func NewTenancyResolver(accounts store.AccountStore, maxDepth int, logger *slog.Logger) *TenancyResolver {
	if accounts == nil {
		panic("accounts cannot be nil")
	}

	if maxDepth < 1 {
		maxDepth = DefaultTenancyMaxDepth
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TenancyResolver{
		accounts: accounts,
		maxDepth: maxDepth,
		logger:   logger.With(slog.String("component", "tenancy_resolver")),
	}
}

// ResolveOwner walks the parent chain upward from the acting account and
// returns the ID of the first account that is a root (or has no parent).
// The walk is iterative with a hard depth cap: exceeding the cap means
// the hierarchy data contains a cycle and yields ErrTenancyCycle.
// Returns ErrUnknownAccount when the acting account does not exist.
func (r *TenancyResolver) ResolveOwner(ctx context.Context, actingAccountID uuid.UUID) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	current := actingAccountID
	for hop := 0; hop <= r.maxDepth; hop++ {
		account, err := r.accounts.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				// Only the acting account maps to ErrUnknownAccount; a
				// dangling parent reference mid-chain is broken hierarchy
				// data, same as a cycle.
				if hop == 0 {
					log.Debug("acting account not found",
						slog.String("acting_account_id", actingAccountID.String()))
					return uuid.Nil, ErrUnknownAccount
				}
				log.Error("parent chain references missing account",
					slog.String("acting_account_id", actingAccountID.String()),
					slog.String("missing_account_id", current.String()),
					slog.Int("hop", hop))
				return uuid.Nil, fmt.Errorf("%w: parent %s missing", ErrTenancyCycle, current)
			}
			return uuid.Nil, NewEngineError("resolve_owner", "failed to load account", err)
		}

		if account.IsRoot || account.ParentAccountID == nil {
			return account.ID, nil
		}

		current = *account.ParentAccountID
	}

	log.Error("account hierarchy depth cap exceeded, cycle suspected",
		slog.String("acting_account_id", actingAccountID.String()),
		slog.Int("max_depth", r.maxDepth))
	return uuid.Nil, ErrTenancyCycle
}

// ForRequest returns a request-scoped view of the resolver that caches
// resolutions for the lifetime of one request. The cache is never shared
// across requests, since the account hierarchy can change between calls.
// The returned value is not safe for concurrent use.
func (r *TenancyResolver) ForRequest() *RequestTenancy {
	return &RequestTenancy{
		resolver: r,
		resolved: make(map[uuid.UUID]uuid.UUID),
	}
}

// RequestTenancy memoizes owner resolution within a single request.
type RequestTenancy struct {
	resolver *TenancyResolver
	resolved map[uuid.UUID]uuid.UUID
}

// ResolveOwner resolves the owning tenant for the acting account,
// consulting the request-local cache first.
func (rt *RequestTenancy) ResolveOwner(ctx context.Context, actingAccountID uuid.UUID) (uuid.UUID, error) {
	if owner, ok := rt.resolved[actingAccountID]; ok {
		return owner, nil
	}

	owner, err := rt.resolver.ResolveOwner(ctx, actingAccountID)
	if err != nil {
		return uuid.Nil, err
	}

	rt.resolved[actingAccountID] = owner
	return owner, nil
}
