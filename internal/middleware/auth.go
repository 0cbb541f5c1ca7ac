package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ayush/task-manager-api/internal/httpx"
	"github.com/ayush/task-manager-api/internal/models"
)

// TokenVerifier resolves a raw bearer token to the user it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

type contextKey int

const (
	userKey contextKey = iota
	tokenKey
)

const unauthorizedMessage = "Please authenticate."

// RequireAuth is middleware that validates the bearer token and injects the
// user and the raw token into the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteMessage(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, models.ErrAuthentication) {
					slog.DebugContext(r.Context(), "token rejected", "error", err)
					httpx.WriteMessage(w, http.StatusUnauthorized, unauthorizedMessage)
					return
				}
				httpx.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user, token)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// WithIdentity returns ctx carrying the authenticated user and token.
func WithIdentity(ctx context.Context, user *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

// UserFromContext returns the user RequireAuth resolved.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// TokenFromContext returns the raw token the request authenticated with.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok && t != ""
}
