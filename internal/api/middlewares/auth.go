package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	jwtutil "github.com/5w1tchy/shelf-api/internal/security/jwt"
)

// TokenVersions reports a user's current token_version.
type TokenVersions interface {
	TokenVersion(ctx context.Context, userID string) (int, error)
}

// RequireAuth verifies the Bearer JWT, checks its token version against the
// store, then injects the user id into the context.
func RequireAuth(jwt *jwtutil.Manager, versions TokenVersions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "missing Authorization header")
				return
			}
			tokenStr, err := bearer(raw)
			if err != nil {
				httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "invalid Authorization header")
				return
			}
			claims, err := jwt.ParseAccess(tokenStr)
			if err != nil {
				httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_token", "invalid token")
				return
			}

			dbVer, err := versions.TokenVersion(r.Context(), claims.Subject)
			if err != nil {
				httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "user not found")
				return
			}
			if claims.TokenVersion != dbVer {
				httpx.ErrorCode(w, http.StatusUnauthorized, "token_revoked", "token revoked")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
		})
	}
}

func bearer(h string) (string, error) {
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", errors.New("no bearer")
	}
	return strings.TrimSpace(tok), nil
}
