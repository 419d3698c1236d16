package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/respond"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "accessToken"

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(accessToken string) (auth.Identity, error)
}

// RequireAuth rejects requests without a valid access token and stores the
// caller's identity on the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := accessToken(r)
			if token == "" {
				respond.Error(ctx, w, apperr.Auth("unauthorized request"))
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(ctx).Warn("access token rejected", "error", err)
				respond.Error(ctx, w, apperr.Auth("invalid access token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r, identity)))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid access token is
// present and otherwise lets the request through anonymously.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := accessToken(r); token != "" {
				if identity, err := verifier.Verify(token); err == nil {
					r = r.WithContext(withIdentity(r, identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withIdentity(r *http.Request, identity auth.Identity) context.Context {
	ctx := auth.WithIdentity(r.Context(), identity)
	logger := logging.FromContext(ctx).With("user_id", identity.UserID)
	return logging.WithLogger(ctx, logger)
}

// accessToken reads the bearer token, falling back to the cookie.
func accessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
