// Package http assembles the service router.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custos/internal/admin"
	ledgerhandler "custos/internal/ledger/handler"
	"custos/internal/platform/middleware"
)

// NewRouter wires middleware and handlers. Everything except health and
// metrics requires an authenticated actor.
func NewRouter(auth *middleware.Authenticator, ledger *ledgerhandler.Handler, adminHandler *admin.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(protected chi.Router) {
		protected.Use(auth.RequireActor)
		ledger.Register(protected)
		adminHandler.Register(protected)
	})

	return r
}
