package testutil

import (
	"net/http"

	"custos/pkg/domain"
	"custos/pkg/requestcontext"
)

// WithActor injects an authenticated actor into the request context,
// simulating what the auth middleware does for a valid bearer token.
func WithActor(req *http.Request, actor domain.Account) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}
