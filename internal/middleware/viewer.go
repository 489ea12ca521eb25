package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vimeoalbum/backend/internal/auth"
	"github.com/vimeoalbum/backend/internal/logging"
)

// TokenCookie carries the access token for browser page views.
const TokenCookie = "vimeoalbum_token"

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(accessToken string) (auth.Viewer, error)
}

// Viewer resolves the caller from a bearer header or the token cookie and stores it on
// the request context. Requests without a valid token continue as anonymous viewers.
func Viewer(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			viewer, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(r.Context()).Debug("ignoring invalid access token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithViewer(r.Context(), viewer)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", viewer.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrivileged rejects anonymous callers with 401 and unprivileged ones with 403.
func RequirePrivileged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.ViewerFromContext(r.Context())
		switch {
		case viewer.Anonymous():
			writeError(w, http.StatusUnauthorized, "authentication required")
		case !viewer.Privileged():
			writeError(w, http.StatusForbidden, "insufficient privileges")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func accessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
