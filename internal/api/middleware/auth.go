package middleware

import (
	"context"
	"net/http"

	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/model"
)

type contextKey string

const accountKey contextKey = "account"

// Authenticator resolves a raw API key to its owning account. A nil
// account with a nil error means the key is unknown or revoked.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*model.Account, error)
}

// Auth returns a middleware that validates the X-API-Key header and
// attaches the authenticated account to the request context.
func Auth(accounts Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			account, err := accounts.Authenticate(r.Context(), key)
			if err != nil {
				response.WriteError(w, http.StatusInternalServerError, "authentication unavailable")
				return
			}
			if account == nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccount returns the authenticated account from the request
// context, or nil outside the authed route group.
func GetAccount(ctx context.Context) *model.Account {
	account, _ := ctx.Value(accountKey).(*model.Account)
	return account
}

// WithAccount attaches an account to the context. Used by tests and
// internal callers that bypass the HTTP auth path.
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}
