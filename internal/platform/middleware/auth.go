package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"custos/pkg/domain"
	"custos/pkg/requestcontext"
)

// AccountClaims are the claims custos expects in a bearer token. The subject
// is the caller's ledger account; the engine and admin surfaces treat it as
// the acting party for authorization and as the default spender.
type AccountClaims struct {
	jwt.RegisteredClaims
}

// Authenticator validates bearer tokens and resolves the actor account.
type Authenticator struct {
	signingKey []byte
	logger     *slog.Logger
}

// NewAuthenticator builds an Authenticator over an HMAC signing key.
func NewAuthenticator(signingKey string, logger *slog.Logger) *Authenticator {
	return &Authenticator{signingKey: []byte(signingKey), logger: logger}
}

// RequireActor rejects requests without a valid bearer token and injects the
// token subject into the context as the actor account.
func (a *Authenticator) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeAuthError(w, "missing bearer token")
			return
		}

		actor, err := a.parse(token)
		if err != nil {
			a.logger.WarnContext(ctx, "unauthorized access - invalid token",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			writeAuthError(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
	})
}

func (a *Authenticator) parse(token string) (domain.Account, error) {
	claims := &AccountClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.signingKey, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("token invalid")
	}
	return domain.ParseAccount(claims.Subject)
}

func writeAuthError(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"unauthorized","error_description":"%s"}`, desc))
}
