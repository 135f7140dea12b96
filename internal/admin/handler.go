package admin

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/internal/permission"
	"custos/internal/whitelist"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Handler exposes the admin service over HTTP. Authorization happens in the
// registries; the handler only parses and translates.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs an admin handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/officers", h.handleGrantOfficer)
	r.Delete("/admin/officers/{account}", h.handleRevokeOfficer)
	r.Put("/admin/permissions/{action}", h.handleSetPermission)
	r.Post("/admin/owner", h.handleTransferOwnership)
	r.Put("/admin/settings/locked", h.handleSetLocked)
	r.Put("/admin/settings/new-shareholders", h.handleSetAllowNewShareholders)
	r.Put("/admin/settings/offer-end", h.handleSetOfferEnd)
	r.Post("/admin/whitelists", h.handleCreateWhitelist)
	r.Post("/admin/settings/whitelists", h.handleAddWhitelistToSettings)
	r.Post("/admin/whitelists/{name}/members", h.handleAddMember)
	r.Delete("/admin/whitelists/{name}/members/{account}", h.handleRemoveMember)
	r.Post("/admin/whitelists/{name}/ledgers", h.handleRegisterLedger)
}

type accountRequest struct {
	Account string `json:"account"`
}

type enabledRequest struct {
	Enabled bool `json:"enabled"`
}

type whitelistRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type offerEndRequest struct {
	// ReleaseTime is Unix seconds, matching the external timestamp contract.
	ReleaseTime int64 `json:"releaseTime"`
}

type ledgerRequest struct {
	LedgerID string `json:"ledgerId"`
}

func (h *Handler) handleGrantOfficer(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[accountRequest](w, r)
	if !ok {
		return
	}
	account, err := domain.ParseAccount(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.run(w, r, h.service.GrantOfficer(r.Context(), account))
}

func (h *Handler) handleRevokeOfficer(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.run(w, r, h.service.RevokeOfficer(r.Context(), account))
}

func (h *Handler) handleSetPermission(w http.ResponseWriter, r *http.Request) {
	action, err := permission.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[enabledRequest](w, r)
	if !ok {
		return
	}
	h.run(w, r, h.service.SetPermission(r.Context(), action, req.Enabled))
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[accountRequest](w, r)
	if !ok {
		return
	}
	account, err := domain.ParseAccount(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.run(w, r, h.service.TransferOwnership(r.Context(), account))
}

func (h *Handler) handleSetLocked(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[enabledRequest](w, r)
	if !ok {
		return
	}
	h.run(w, r, h.service.SetLocked(r.Context(), req.Enabled))
}

func (h *Handler) handleSetAllowNewShareholders(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[enabledRequest](w, r)
	if !ok {
		return
	}
	h.run(w, r, h.service.SetAllowNewShareholders(r.Context(), req.Enabled))
}

func (h *Handler) handleSetOfferEnd(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[offerEndRequest](w, r)
	if !ok {
		return
	}
	if req.ReleaseTime <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "releaseTime must be a positive Unix timestamp"))
		return
	}
	h.run(w, r, h.service.SetInitialOfferEndDate(r.Context(), time.Unix(req.ReleaseTime, 0)))
}

func (h *Handler) handleCreateWhitelist(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[whitelistRequest](w, r)
	if !ok {
		return
	}
	kind, err := whitelist.ParseKind(req.Kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.CreateWhitelist(r.Context(), whitelist.List{
		Name:      req.Name,
		Kind:      kind,
		CreatedAt: requestcontext.Now(r.Context()),
	})
	if err != nil {
		h.logError(r, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"name": created.Name,
		"kind": string(created.Kind),
	})
}

func (h *Handler) handleAddWhitelistToSettings(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[nameRequest](w, r)
	if !ok {
		return
	}
	h.run(w, r, h.service.AddWhitelistToSettings(r.Context(), req.Name))
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[accountRequest](w, r)
	if !ok {
		return
	}
	account, err := domain.ParseAccount(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.run(w, r, h.service.AddMember(r.Context(), chi.URLParam(r, "name"), account))
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.run(w, r, h.service.RemoveMember(r.Context(), chi.URLParam(r, "name"), account))
}

func (h *Handler) handleRegisterLedger(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[ledgerRequest](w, r)
	if !ok {
		return
	}
	ledgerID, err := domain.ParseLedgerID(req.LedgerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.run(w, r, h.service.RegisterLedger(r.Context(), chi.URLParam(r, "name"), ledgerID))
}

// run finishes a mutation request uniformly: error translation or 204.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.logError(r, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "admin operation failed",
			"request_id", requestcontext.RequestID(ctx),
			"path", r.URL.Path,
			"error", err,
		)
	}
}
