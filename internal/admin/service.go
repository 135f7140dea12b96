// Package admin exposes the officer- and owner-gated compliance mutations:
// officer grants, action permissions, settings, whitelists, and ownership.
// Authorization itself lives in the registries; this layer adds the audit
// trail and the HTTP surface.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"custos/internal/permission"
	"custos/internal/settings"
	"custos/internal/whitelist"
	"custos/pkg/domain"
	audit "custos/pkg/platform/audit"
	"custos/pkg/requestcontext"
)

// Auditor records administrative events. Admin events are fail-open: a
// failed emit is logged but does not undo the mutation, which has already
// been applied by the authoritative registry.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the administrative mutations.
type Service struct {
	ledgerID    domain.LedgerID
	permissions *permission.Registry
	settings    *settings.Service
	whitelists  *whitelist.Service
	auditor     Auditor
	logger      *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs the admin service.
func New(
	ledgerID domain.LedgerID,
	permissions *permission.Registry,
	settingsService *settings.Service,
	whitelists *whitelist.Service,
	auditor Auditor,
	opts ...Option,
) *Service {
	s := &Service{
		ledgerID:    ledgerID,
		permissions: permissions,
		settings:    settingsService,
		whitelists:  whitelists,
		auditor:     auditor,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GrantOfficer(ctx context.Context, account domain.Account) error {
	actor := requestcontext.Actor(ctx)
	if err := s.permissions.GrantOfficer(ctx, actor, account); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionOfficerGranted, fmt.Sprintf("officer %s granted", account))
	return nil
}

func (s *Service) RevokeOfficer(ctx context.Context, account domain.Account) error {
	actor := requestcontext.Actor(ctx)
	if err := s.permissions.RevokeOfficer(ctx, actor, account); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionOfficerRevoked, fmt.Sprintf("officer %s revoked", account))
	return nil
}

func (s *Service) SetPermission(ctx context.Context, action permission.Action, enabled bool) error {
	actor := requestcontext.Actor(ctx)
	if err := s.permissions.SetPermission(ctx, actor, action, enabled); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionPermissionSet, fmt.Sprintf("action %s enabled=%t", action, enabled))
	return nil
}

func (s *Service) TransferOwnership(ctx context.Context, newOwner domain.Account) error {
	actor := requestcontext.Actor(ctx)
	if err := s.permissions.TransferOwnership(ctx, actor, newOwner); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionOwnershipChanged, fmt.Sprintf("ownership transferred to %s", newOwner))
	return nil
}

func (s *Service) SetLocked(ctx context.Context, locked bool) error {
	actor := requestcontext.Actor(ctx)
	if err := s.settings.SetLocked(ctx, actor, locked); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionTradingLockSet, fmt.Sprintf("locked=%t", locked))
	return nil
}

func (s *Service) SetAllowNewShareholders(ctx context.Context, allow bool) error {
	actor := requestcontext.Actor(ctx)
	if err := s.settings.SetAllowNewShareholders(ctx, actor, allow); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionAdmissionSet, fmt.Sprintf("allow_new_shareholders=%t", allow))
	return nil
}

func (s *Service) SetInitialOfferEndDate(ctx context.Context, releaseTime time.Time) error {
	actor := requestcontext.Actor(ctx)
	if err := s.settings.SetInitialOfferEndDate(ctx, actor, releaseTime); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionOfferEndDateSet, fmt.Sprintf("release_time=%s", releaseTime.UTC().Format(time.RFC3339)))
	return nil
}

func (s *Service) CreateWhitelist(ctx context.Context, list whitelist.List) (whitelist.List, error) {
	actor := requestcontext.Actor(ctx)
	created, err := s.whitelists.CreateList(ctx, actor, list)
	if err != nil {
		return whitelist.List{}, err
	}
	s.logAudit(ctx, audit.ActionWhitelistCreated, fmt.Sprintf("whitelist %s kind=%s", created.Name, created.Kind))
	return created, nil
}

func (s *Service) AddWhitelistToSettings(ctx context.Context, name string) error {
	actor := requestcontext.Actor(ctx)
	if err := s.settings.AddWhitelist(ctx, actor, name); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionWhitelistAdded, fmt.Sprintf("whitelist %s added to settings", name))
	return nil
}

func (s *Service) AddMember(ctx context.Context, name string, account domain.Account) error {
	actor := requestcontext.Actor(ctx)
	if err := s.whitelists.AddMember(ctx, actor, name, account); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionMemberAdded, fmt.Sprintf("%s added to %s", account, name))
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, name string, account domain.Account) error {
	actor := requestcontext.Actor(ctx)
	if err := s.whitelists.RemoveMember(ctx, actor, name, account); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionMemberRemoved, fmt.Sprintf("%s removed from %s", account, name))
	return nil
}

func (s *Service) RegisterLedger(ctx context.Context, name string, ledgerID domain.LedgerID) error {
	actor := requestcontext.Actor(ctx)
	if err := s.whitelists.RegisterLedger(ctx, actor, name, ledgerID); err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionLedgerRegistered, fmt.Sprintf("ledger %s registered with %s", ledgerID, name))
	return nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, detail string) {
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		LedgerID:  s.ledgerID,
		Action:    action,
		Actor:     requestcontext.Actor(ctx),
		Detail:    detail,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "admin audit emit failed",
			"action", action,
			"error", err,
		)
	}
}
