// Package ledger performs the balance bookkeeping around the compliance
// engine. It owns the evaluate-then-mutate sequence: every transfer is
// judged against a consistent state snapshot, the decision is recorded
// exactly once, and balances move only when the decision allows it.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"custos/internal/compliance"
	"custos/internal/compliance/metrics"
	"custos/internal/settings"
	"custos/internal/whitelist"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	audit "custos/pkg/platform/audit"
	"custos/pkg/requestcontext"
)

// SettingsSource supplies the compliance settings snapshot.
type SettingsSource interface {
	View() settings.View
	Owner() domain.Account
}

// WhitelistProber reads membership state for one transfer.
type WhitelistProber interface {
	Probe(ctx context.Context, name string, ledgerID domain.LedgerID, from, to domain.Account) (whitelist.Probe, error)
}

// Auditor records events fail-closed: a failed emit aborts the operation.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the ledger collaborator around the compliance engine.
type Service struct {
	// mu serializes the evaluate-then-mutate sequence. The single-writer
	// model satisfies the per-account-pair serializability contract without
	// per-account lock bookkeeping.
	mu sync.Mutex

	ledgerID   domain.LedgerID
	engine     *compliance.Engine
	settings   SettingsSource
	whitelists WhitelistProber
	balances   BalanceStore
	auditor    Auditor

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the compliance metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs the ledger service. Nil collaborators are construction
// invariant violations.
func New(
	ledgerID domain.LedgerID,
	engine *compliance.Engine,
	settingsSource SettingsSource,
	whitelists WhitelistProber,
	balances BalanceStore,
	auditor Auditor,
	opts ...Option,
) (*Service, error) {
	if ledgerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "ledger requires a ledger id")
	}
	if engine == nil || settingsSource == nil || whitelists == nil || balances == nil || auditor == nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "ledger requires engine, settings, whitelists, balances, and auditor")
	}
	s := &Service{
		ledgerID:   ledgerID,
		engine:     engine,
		settings:   settingsSource,
		whitelists: whitelists,
		balances:   balances,
		auditor:    auditor,
		logger:     slog.Default(),
		tracer:     otel.Tracer("custos/internal/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Transfer evaluates and, if allowed, executes one transfer. The decision is
// emitted as an audit event exactly once, for denials as well as approvals;
// a denial is a successful call. The returned error is reserved for contract
// violations and infrastructure failures.
func (s *Service) Transfer(ctx context.Context, spender, from, to domain.Account, amount uint64) (compliance.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer",
		trace.WithAttributes(
			attribute.String("ledger.from", from.String()),
			attribute.String("ledger.to", to.String()),
			attribute.Int64("ledger.amount", int64(amount)),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	decision, err := s.decide(ctx, spender, from, to, amount)
	if err != nil {
		return compliance.Decision{}, err
	}

	// Funds are a precondition, checked before the decision event is
	// emitted: an "allowed" event whose mutation then failed would corrupt
	// the trail.
	if decision.Allowed {
		balance, err := s.balances.Balance(ctx, from)
		if err != nil {
			return compliance.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "read source balance")
		}
		if balance < amount {
			return compliance.Decision{}, dErrors.New(dErrors.CodeInvalidState, "insufficient funds")
		}
	}

	if err := s.emitDecision(ctx, audit.ActionTransferDecision, decision); err != nil {
		return compliance.Decision{}, err
	}

	if decision.Allowed {
		if err := s.balances.Apply(ctx, from, to, amount); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return compliance.Decision{}, dErrors.New(dErrors.CodeInvalidState, "insufficient funds")
			}
			return compliance.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "apply balance mutation")
		}
	}

	s.logger.InfoContext(ctx, "transfer decided",
		"allowed", decision.Allowed,
		"reason", decision.Reason.String(),
		"from", from,
		"to", to,
		"amount", amount,
	)
	return decision, nil
}

// Evaluate is the dry-run form of Transfer: same decision, no event, no
// balance mutation.
func (s *Service) Evaluate(ctx context.Context, spender, from, to domain.Account, amount uint64) (compliance.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decide(ctx, spender, from, to, amount)
}

// Mint issues new supply to an account. Owner-only, and the issuance is
// still judged by the engine so a frozen or unlisted destination cannot be
// issued to; the owner exception keeps the restricted-class lockup from
// blocking issuance.
func (s *Service) Mint(ctx context.Context, actor, to domain.Account, amount uint64) (compliance.Decision, error) {
	owner := s.settings.Owner()
	if actor != owner {
		return compliance.Decision{}, dErrors.New(dErrors.CodeUnauthorized, "only the owner may mint")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	decision, err := s.decide(ctx, actor, owner, to, amount)
	if err != nil {
		return compliance.Decision{}, err
	}

	if err := s.emitDecision(ctx, audit.ActionSupplyMinted, decision); err != nil {
		return compliance.Decision{}, err
	}

	if decision.Allowed {
		if err := s.balances.Credit(ctx, to, amount); err != nil {
			return compliance.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "credit minted balance")
		}
	}
	return decision, nil
}

// Balance returns the current balance of an account.
func (s *Service) Balance(ctx context.Context, account domain.Account) (uint64, error) {
	balance, err := s.balances.Balance(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "read balance")
	}
	return balance, nil
}

// decide assembles the state snapshot and runs the engine. Callers hold the
// service mutex so the snapshot and any following mutation are one atomic
// unit.
func (s *Service) decide(ctx context.Context, spender, from, to domain.Account, amount uint64) (compliance.Decision, error) {
	start := time.Now()

	view := s.settings.View()

	toBalance, err := s.balances.Balance(ctx, to)
	if err != nil {
		return compliance.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "read destination balance")
	}

	lists := make([]compliance.ListStatus, 0, len(view.Whitelists))
	for _, name := range view.Whitelists {
		probe, err := s.whitelists.Probe(ctx, name, s.ledgerID, from, to)
		if err != nil {
			return compliance.Decision{}, err
		}
		lists = append(lists, compliance.ListStatus{
			Name:       probe.Name,
			Kind:       probe.Kind,
			Applies:    probe.Applies,
			FromMember: probe.FromMember,
			ToMember:   probe.ToMember,
		})
	}

	decision, err := s.engine.Evaluate(
		compliance.TransferRequest{
			Spender: spender,
			From:    from,
			To:      to,
			Amount:  amount,
			Now:     requestcontext.Now(ctx),
		},
		compliance.Snapshot{
			Owner:                view.Owner,
			Locked:               view.Locked,
			AllowNewShareholders: view.AllowNewShareholders,
			ReleaseTime:          view.ReleaseTime,
			ToBalance:            toBalance,
			Lists:                lists,
		},
	)
	if err != nil {
		return compliance.Decision{}, err
	}

	s.metrics.IncrementDecision(decision.Allowed, decision.Reason.String())
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	return decision, nil
}

// emitDecision records the decision event. Fail-closed: the caller must
// abort when this fails.
func (s *Service) emitDecision(ctx context.Context, action audit.Action, decision compliance.Decision) error {
	return s.auditor.Emit(ctx, audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		LedgerID:   s.ledgerID,
		Action:     action,
		Allowed:    decision.Allowed,
		ReasonCode: uint8(decision.Reason),
		Spender:    decision.Spender,
		From:       decision.From,
		To:         decision.To,
		Value:      decision.Amount,
		Actor:      requestcontext.Actor(ctx),
		RequestID:  requestcontext.RequestID(ctx),
	})
}
