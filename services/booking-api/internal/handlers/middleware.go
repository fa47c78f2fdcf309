package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/apptbook/libs/auth"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
)

// RequireAuth verifies the bearer access token and attaches its identity to
// the request context. Any failure ends the request with 401.
func RequireAuth(issuer *auth.Issuer) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || scheme != "Bearer" || token == "" {
				httpx.WriteMessage(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
				return
			}
			id, err := issuer.VerifyAccess(token)
			if err != nil {
				httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if _, err := uuid.Parse(id.TenantID); err != nil {
				httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireCapability rejects callers whose role does not grant c.
func RequireCapability(c model.Capability) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			role, ok := model.ParseRole(id.Role)
			if !ok || !role.Allows(c) {
				httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tenantID returns the tenant of the verified caller. RequireAuth has
// already checked that it parses.
func tenantID(r *http.Request) uuid.UUID {
	id, _ := auth.IdentityFromContext(r.Context())
	tid, _ := uuid.Parse(id.TenantID)
	return tid
}
