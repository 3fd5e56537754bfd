package middleware

import (
	"net/http"
	"strings"

	"github.com/filegate/service/internal/response"
	"github.com/filegate/service/internal/session"
)

// RequireSession returns middleware that accepts a session cookie or a Bearer
// token, verifies it and injects the principal into the request context.
// Requests without a valid session never reach the wrapped handler.
func RequireSession(issuer *session.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := sessionToken(r)
			if !ok {
				response.Unauthorized(w, "login required")
				return
			}

			p, err := issuer.Parse(raw)
			if err != nil {
				response.Unauthorized(w, "invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithPrincipal(r.Context(), p)))
		})
	}
}

// sessionToken prefers the Authorization header over the cookie.
func sessionToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	c, err := r.Cookie(session.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
