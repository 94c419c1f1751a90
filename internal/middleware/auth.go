// Package middleware provides HTTP middlewares for authentication, logging,
// CORS and write rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/response"
	"github.com/atinyakov/ParkPassport/internal/token"
)

type ctxKey string

const (
	accountKey     ctxKey = "account"
	accountSlotKey ctxKey = "account-slot"
)

// TokenHeader carries the access token when no Authorization header is sent.
const TokenHeader = "X-Access-Token"

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// TokenAuth is a middleware that requires a valid access token.
//
// The token is read from the X-Access-Token header or from an
// "Authorization: Bearer" header. On success the account ID is stored in the
// request context; otherwise the request is rejected with 401 before any
// handler runs.
func TokenAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				response.Error(w, apperrors.Unauthorized("missing access token"))
				return
			}
			claims, err := verifier.Verify(raw)
			if err != nil {
				response.Error(w, apperrors.Unauthorized("invalid access token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), claims.AccountID)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(TokenHeader)); t != "" {
		return t
	}
	scheme, t, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(t)
	}
	return ""
}

// WithAccountID returns a copy of ctx carrying the authenticated account ID.
// It also reports the ID to an enclosing WithRequestLogging.
func WithAccountID(ctx context.Context, accountID int64) context.Context {
	if slot, ok := ctx.Value(accountSlotKey).(*int64); ok {
		*slot = accountID
	}
	return context.WithValue(ctx, accountKey, accountID)
}

// GetAccountIDFromContext extracts the authenticated account ID from ctx.
// It returns 0 if none is present.
func GetAccountIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(accountKey).(int64); ok {
		return id
	}
	return 0
}
