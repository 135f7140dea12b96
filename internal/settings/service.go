// Package settings holds the per-deployment compliance configuration: the
// global trading lock, new-shareholder admission, the restricted-class
// release date, and the ordered set of whitelists consulted on every
// decision. Every mutation routes through the permission registry.
package settings

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"custos/internal/permission"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// ListChecker answers whether a whitelist name is registered with the
// whitelist registry. Settings only reference lists that exist.
type ListChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// View is a consistent read of the settings, taken under one lock
// acquisition. Transfer evaluations judge against a View, never against the
// live fields, so a concurrent officer mutation cannot tear a decision.
type View struct {
	Owner                domain.Account
	Locked               bool
	AllowNewShareholders bool
	// ReleaseTime is the restricted-class release date. Zero means it was
	// never set, which leaves the lockup rule inert.
	ReleaseTime time.Time
	// Whitelists preserves registration order.
	Whitelists []string
}

// ReleaseTimeSet reports whether the one-shot release date has been set.
func (v View) ReleaseTimeSet() bool {
	return !v.ReleaseTime.IsZero()
}

// Service is the compliance settings for one ledger deployment.
type Service struct {
	mu                   sync.RWMutex
	permissions          *permission.Registry
	lists                ListChecker
	locked               bool
	allowNewShareholders bool
	releaseTime          time.Time
	whitelists           []string
	logger               *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for mutation visibility.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAllowNewShareholders sets the boot-time admission default. New
// deployments typically start open and close admission after the offering.
func WithAllowNewShareholders(allow bool) Option {
	return func(s *Service) {
		s.allowNewShareholders = allow
	}
}

// New constructs the settings. A nil permission registry or list checker is
// a construction-time invariant violation: the settings would either be
// immutable or reference lists nobody can resolve.
func New(permissions *permission.Registry, lists ListChecker, opts ...Option) (*Service, error) {
	if permissions == nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "compliance settings require a permission registry")
	}
	if lists == nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "compliance settings require a whitelist registry")
	}
	s := &Service{
		permissions:          permissions,
		lists:                lists,
		allowNewShareholders: true,
		logger:               slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Owner returns the current deployment owner. The permission registry is the
// single holder of the owner identity so settings and permissions can never
// disagree about it.
func (s *Service) Owner() domain.Account {
	return s.permissions.Owner()
}

// SetLocked toggles the global trading lock.
func (s *Service) SetLocked(ctx context.Context, actor domain.Account, locked bool) error {
	if !s.permissions.IsAuthorized(actor, permission.ActionSetLocked) {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is not authorized to set the trading lock")
	}
	s.mu.Lock()
	s.locked = locked
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "trading lock set", "locked", locked, "actor", actor)
	return nil
}

// SetAllowNewShareholders toggles whether transfers may create new holders.
func (s *Service) SetAllowNewShareholders(ctx context.Context, actor domain.Account, allow bool) error {
	if !s.permissions.IsAuthorized(actor, permission.ActionAllowNewShareholders) {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is not authorized to change shareholder admission")
	}
	s.mu.Lock()
	s.allowNewShareholders = allow
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "new shareholder admission set", "allowed", allow, "actor", actor)
	return nil
}

// SetInitialOfferEndDate sets the restricted-class release date. One-shot:
// once set it is immutable, regardless of the caller's privileges.
func (s *Service) SetInitialOfferEndDate(ctx context.Context, actor domain.Account, releaseTime time.Time) error {
	if !s.permissions.IsAuthorized(actor, permission.ActionSetOfferEndDate) {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is not authorized to set the offer end date")
	}
	if releaseTime.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "release time must not be zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.releaseTime.IsZero() {
		return dErrors.New(dErrors.CodeInvalidState, "offer end date is already set")
	}
	s.releaseTime = releaseTime
	s.logger.InfoContext(ctx, "offer end date set", "release_time", releaseTime, "actor", actor)
	return nil
}

// AddWhitelist appends a registered list to the consulted sequence.
// Re-adding a list already in the sequence is a no-op.
func (s *Service) AddWhitelist(ctx context.Context, actor domain.Account, name string) error {
	if !s.permissions.IsAuthorized(actor, permission.ActionAddWhitelist) {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is not authorized to add whitelists")
	}
	exists, err := s.lists.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return dErrors.Newf(dErrors.CodeNotFound, "whitelist %q not found", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.whitelists, name) {
		return nil
	}
	s.whitelists = append(s.whitelists, name)
	s.logger.InfoContext(ctx, "whitelist added to settings", "name", name, "actor", actor)
	return nil
}

// View snapshots the settings for one decision.
func (s *Service) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Owner:                s.permissions.Owner(),
		Locked:               s.locked,
		AllowNewShareholders: s.allowNewShareholders,
		ReleaseTime:          s.releaseTime,
		Whitelists:           slices.Clone(s.whitelists),
	}
}
