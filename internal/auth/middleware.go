package auth

import (
	"net/http"
	"strings"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Middleware authenticates requests using the access token from the
// Authorization header or, as a fallback, the access cookie.
type Middleware struct {
	Service      *Service
	AccessCookie string
}

// Authenticate attaches the user identity to the request context when a
// valid token is present. Requests without a token pass through anonymous.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.extractToken(r)
		if token != "" {
			if subject, roles, err := m.Service.ParseAccessToken(token); err == nil {
				ctx := common.WithUserID(r.Context(), subject)
				ctx = common.WithRoles(ctx, roles)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests that do not carry a valid access token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.extractToken(r)
		if token == "" {
			common.WriteError(w, common.NewAppError("UNAUTHORIZED", "missing access token", http.StatusUnauthorized, nil))
			return
		}
		subject, roles, err := m.Service.ParseAccessToken(token)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		ctx := common.WithUserID(r.Context(), subject)
		ctx = common.WithRoles(ctx, roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole guards a subtree so only users carrying the named role pass.
// It must be mounted after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !common.HasRole(r.Context(), role) {
				common.WriteError(w, common.NewAppError("FORBIDDEN", "insufficient permissions", http.StatusForbidden, nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if m.AccessCookie == "" {
		return ""
	}
	cookie, err := r.Cookie(m.AccessCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
