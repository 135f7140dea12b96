// Package handler wires the transfer endpoints to the ledger service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"custos/internal/compliance"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	audit "custos/pkg/platform/audit"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the ledger operations the handler needs.
type Service interface {
	Transfer(ctx context.Context, spender, from, to domain.Account, amount uint64) (compliance.Decision, error)
	Evaluate(ctx context.Context, spender, from, to domain.Account, amount uint64) (compliance.Decision, error)
	Mint(ctx context.Context, actor, to domain.Account, amount uint64) (compliance.Decision, error)
	Balance(ctx context.Context, account domain.Account) (uint64, error)
}

// Handler exposes the ledger over HTTP.
type Handler struct {
	service Service
	events  audit.Store
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, events audit.Store, logger *slog.Logger) *Handler {
	return &Handler{service: service, events: events, logger: logger}
}

// Register mounts ledger endpoints on the router. All routes require an
// authenticated actor.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transfers", h.handleTransfer)
	r.Post("/transfers/evaluate", h.handleEvaluate)
	r.Post("/mint", h.handleMint)
	r.Get("/accounts/{account}/balance", h.handleBalance)
	r.Get("/audit/decisions", h.handleDecisions)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Transfer)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Evaluate)
}

type decideFunc func(ctx context.Context, spender, from, to domain.Account, amount uint64) (compliance.Decision, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, run decideFunc) {
	ctx := r.Context()

	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[transferRequest](w, r)
	if !ok {
		return
	}
	from, to, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The authenticated actor is the spender; delegated spends where the
	// source differs from the spender are expressed by from != actor.
	decision, err := run(ctx, actor, from, to, req.Amount)
	if err != nil {
		h.logger.ErrorContext(ctx, "transfer handling failed",
			"request_id", requestcontext.RequestID(ctx),
			"from", req.From,
			"to", req.To,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newDecisionResponse(decision))
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[mintRequest](w, r)
	if !ok {
		return
	}
	to, err := domain.ParseAccount(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision, err := h.service.Mint(ctx, actor, to, req.Amount)
	if err != nil {
		h.logger.ErrorContext(ctx, "mint failed",
			"request_id", requestcontext.RequestID(ctx),
			"to", req.To,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newDecisionResponse(decision))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.service.Balance(ctx, account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balanceResponse{
		Account: account.String(),
		Balance: balance,
	})
}

func (h *Handler) handleDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer between 1 and 1000"))
			return
		}
		limit = parsed
	}

	events, err := h.events.ListRecent(ctx, limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newEventsResponse(events))
}
