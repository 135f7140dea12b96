// Package whitelist tracks named membership lists and, for secure lists, the
// ledger deployments entitled to rely on them. Mutations are officer-gated
// through the permission registry; reads are open.
package whitelist

import (
	"context"
	"errors"
	"log/slog"

	"custos/internal/permission"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
)

// Store persists lists, members, and secure-list ledger registrations.
// Implementations live under store/ (memory, postgres, redis).
type Store interface {
	Create(ctx context.Context, list List) error
	Find(ctx context.Context, name string) (List, error)
	AddMember(ctx context.Context, name string, account domain.Account) error
	RemoveMember(ctx context.Context, name string, account domain.Account) error
	IsMember(ctx context.Context, name string, account domain.Account) (bool, error)
	Members(ctx context.Context, name string) ([]domain.Account, error)
	RegisterLedger(ctx context.Context, name string, ledgerID domain.LedgerID) error
	AppliesTo(ctx context.Context, name string, ledgerID domain.LedgerID) (bool, error)
}

// Authorizer answers whether an account may perform a privileged action.
type Authorizer interface {
	IsAuthorized(account domain.Account, action permission.Action) bool
}

// Service is the whitelist registry.
type Service struct {
	store  Store
	authz  Authorizer
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for mutation visibility.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs the whitelist registry. Nil dependencies are construction
// invariant violations.
func New(store Store, authz Authorizer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "whitelist registry requires a store")
	}
	if authz == nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "whitelist registry requires an authorizer")
	}
	s := &Service{store: store, authz: authz, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateList registers a new named list. Officer-gated.
func (s *Service) CreateList(ctx context.Context, actor domain.Account, list List) (List, error) {
	if !s.authz.IsAuthorized(actor, permission.ActionAddWhitelist) {
		return List{}, dErrors.New(dErrors.CodeUnauthorized, "actor is not authorized to create whitelists")
	}
	name, err := ParseListName(list.Name)
	if err != nil {
		return List{}, err
	}
	list.Name = name
	if _, err := ParseKind(string(list.Kind)); err != nil {
		return List{}, err
	}

	if err := s.store.Create(ctx, list); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return List{}, dErrors.Newf(dErrors.CodeConflict, "whitelist %q already exists", name)
		}
		return List{}, dErrors.Wrap(err, dErrors.CodeInternal, "create whitelist")
	}
	s.logger.InfoContext(ctx, "whitelist created", "name", list.Name, "kind", list.Kind, "actor", actor)
	return list, nil
}

// Get returns list metadata.
func (s *Service) Get(ctx context.Context, name string) (List, error) {
	list, err := s.store.Find(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return List{}, dErrors.Newf(dErrors.CodeNotFound, "whitelist %q not found", name)
		}
		return List{}, dErrors.Wrap(err, dErrors.CodeInternal, "find whitelist")
	}
	return list, nil
}

// Exists reports whether a list with the given name is registered.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.store.Find(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "find whitelist")
	}
	return true, nil
}

// AddMember adds an account to a list. Officer-gated; adding an existing
// member is a no-op.
func (s *Service) AddMember(ctx context.Context, actor domain.Account, name string, account domain.Account) error {
	if !s.authz.IsAuthorized(actor, permission.ActionEditWhitelist) {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is not authorized to edit whitelists")
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "member account must not be zero")
	}
	if err := s.store.AddMember(ctx, name, account); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "whitelist %q not found", name)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "add whitelist member")
	}
	s.logger.InfoContext(ctx, "whitelist member added", "name", name, "account", account, "actor", actor)
	return nil
}

// RemoveMember removes an account from a list. Officer-gated; removing a
// non-member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, actor domain.Account, name string, account domain.Account) error {
	if !s.authz.IsAuthorized(actor, permission.ActionEditWhitelist) {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is not authorized to edit whitelists")
	}
	if err := s.store.RemoveMember(ctx, name, account); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "whitelist %q not found", name)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "remove whitelist member")
	}
	s.logger.InfoContext(ctx, "whitelist member removed", "name", name, "account", account, "actor", actor)
	return nil
}

// IsMember reports current membership.
func (s *Service) IsMember(ctx context.Context, name string, account domain.Account) (bool, error) {
	member, err := s.store.IsMember(ctx, name, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.Newf(dErrors.CodeNotFound, "whitelist %q not found", name)
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "check whitelist membership")
	}
	return member, nil
}

// RegisterLedger entitles a ledger deployment to rely on a secure list.
// Officer-gated; only secure lists accept registrations.
func (s *Service) RegisterLedger(ctx context.Context, actor domain.Account, name string, ledgerID domain.LedgerID) error {
	if !s.authz.IsAuthorized(actor, permission.ActionEditWhitelist) {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is not authorized to edit whitelists")
	}
	if ledgerID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "ledger id must not be nil")
	}
	list, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if list.Kind != KindSecure {
		return dErrors.Newf(dErrors.CodeInvalidState, "whitelist %q is not a secure list", name)
	}
	if err := s.store.RegisterLedger(ctx, name, ledgerID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "register ledger")
	}
	s.logger.InfoContext(ctx, "ledger registered with secure whitelist",
		"name", name, "ledger_id", ledgerID, "actor", actor)
	return nil
}

// Probe reads, in one shot, everything the compliance engine needs to know
// about one list for one proposed transfer.
func (s *Service) Probe(ctx context.Context, name string, ledgerID domain.LedgerID, from, to domain.Account) (Probe, error) {
	list, err := s.Get(ctx, name)
	if err != nil {
		return Probe{}, err
	}

	probe := Probe{Name: list.Name, Kind: list.Kind, Applies: true}
	if list.Kind == KindSecure {
		applies, err := s.store.AppliesTo(ctx, name, ledgerID)
		if err != nil {
			return Probe{}, dErrors.Wrap(err, dErrors.CodeInternal, "check secure list registration")
		}
		probe.Applies = applies
	}

	if probe.FromMember, err = s.store.IsMember(ctx, name, from); err != nil {
		return Probe{}, dErrors.Wrap(err, dErrors.CodeInternal, "check whitelist membership")
	}
	if probe.ToMember, err = s.store.IsMember(ctx, name, to); err != nil {
		return Probe{}, dErrors.Wrap(err, dErrors.CodeInternal, "check whitelist membership")
	}
	return probe, nil
}
