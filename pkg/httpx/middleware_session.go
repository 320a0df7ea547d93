package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/stagedoor/auth/pkg/jwtx"
	"github.com/stagedoor/auth/pkg/slogx"
)

// SessionCookieName is the cookie carrying the signed session token that
// login establishes.
const SessionCookieName = "authd_session"

// SessionMiddleware authenticates the request from the session cookie or a
// Bearer token and rejects it when neither verifies. The authorization
// endpoints sit behind this; the token endpoint does not (clients
// authenticate themselves there).
func SessionMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := sessionToken(r)
			if raw == "" {
				writeSessionError(w, "authentication required")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("session token rejected", "err", err)
				writeSessionError(w, "session is invalid or expired")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken pulls the raw session JWT from the cookie, falling back to
// the Authorization header for non-browser callers.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	}
	return ""
}

func writeSessionError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "login_required",
		"error_description": desc,
	})
}
