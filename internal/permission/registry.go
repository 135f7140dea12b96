// Package permission tracks which accounts hold officer status and which
// privileged actions are currently enabled. Authorization is two-layered:
// the owner can disable an action category globally without revoking the
// individual officers that would otherwise perform it.
package permission

import (
	"context"
	"log/slog"
	"sync"

	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Registry is the single holder of the deployment's owner identity and the
// officer grants. All mutations are owner-gated; reads are safe for
// concurrent use with in-flight transfer evaluations.
type Registry struct {
	mu       sync.RWMutex
	owner    domain.Account
	officers map[domain.Account]struct{}
	enabled  map[Action]bool
	logger   *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets a logger for grant/revoke visibility.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry constructs a Registry owned by the given account. A zero owner
// is a construction-time invariant violation: the registry would be
// permanently immutable.
func NewRegistry(owner domain.Account, opts ...Option) (*Registry, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "permission registry requires a non-zero owner")
	}
	r := &Registry{
		owner:    owner,
		officers: make(map[domain.Account]struct{}),
		enabled:  make(map[Action]bool),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Owner returns the current owner identity.
func (r *Registry) Owner() domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

// TransferOwnership reassigns the owner identity. Owner-only.
func (r *Registry) TransferOwnership(ctx context.Context, actor, newOwner domain.Account) error {
	if newOwner.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner must not be zero")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if actor != r.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may transfer ownership")
	}
	previous := r.owner
	r.owner = newOwner
	r.logger.InfoContext(ctx, "ownership transferred",
		"previous_owner", previous,
		"new_owner", newOwner,
	)
	return nil
}

// GrantOfficer marks an account as an officer. Owner-only; granting an
// existing officer is a no-op.
func (r *Registry) GrantOfficer(ctx context.Context, actor, account domain.Account) error {
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "officer account must not be zero")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if actor != r.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may grant officer status")
	}
	if _, ok := r.officers[account]; ok {
		return nil
	}
	r.officers[account] = struct{}{}
	r.logger.InfoContext(ctx, "officer granted", "account", account)
	return nil
}

// RevokeOfficer removes officer status. Owner-only; revoking a non-officer
// is a no-op.
func (r *Registry) RevokeOfficer(ctx context.Context, actor, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if actor != r.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may revoke officer status")
	}
	if _, ok := r.officers[account]; !ok {
		return nil
	}
	delete(r.officers, account)
	r.logger.InfoContext(ctx, "officer revoked", "account", account)
	return nil
}

// SetPermission toggles whether officers may perform the action at all.
// Owner-only. This is the master switch; it does not touch per-account
// officer status.
func (r *Registry) SetPermission(ctx context.Context, actor domain.Account, action Action, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if actor != r.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may set permissions")
	}
	r.enabled[action] = enabled
	r.logger.InfoContext(ctx, "permission toggled", "action", action, "enabled", enabled)
	return nil
}

// IsOfficer reports whether the account holds officer status.
func (r *Registry) IsOfficer(account domain.Account) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.officers[account]
	return ok
}

// IsAuthorized reports whether the account may perform the action right now:
// the account must be an officer and the action must be enabled.
func (r *Registry) IsAuthorized(account domain.Account, action Action) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.enabled[action] {
		return false
	}
	_, ok := r.officers[account]
	return ok
}
