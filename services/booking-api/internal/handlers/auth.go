package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/auth"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/accounts"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth/refresh"
)

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var in accounts.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	sess, err := a.accounts.Register(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.setRefreshCookie(w, sess.RefreshToken)
	httpx.WriteOK(w, http.StatusCreated, sessionPayload(sess))
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var in accounts.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	sess, err := a.accounts.Login(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.setRefreshCookie(w, sess.RefreshToken)
	httpx.WriteOK(w, http.StatusOK, sessionPayload(sess))
}

func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(refreshCookieName); err == nil {
		token = c.Value
	}
	access, err := a.accounts.Refresh(r.Context(), token)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteOK(w, http.StatusOK, map[string]any{"accessToken": access})
}

func (a *API) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteOK(w, http.StatusOK, nil)
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	httpx.WriteOK(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"sub":      id.UserID,
			"tenantId": id.TenantID,
			"role":     id.Role,
		},
	})
}

func (a *API) setRefreshCookie(w http.ResponseWriter, token string) {
	ttl := a.issuer.RefreshTTL()
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionPayload(sess accounts.Session) map[string]any {
	return map[string]any{
		"tenant": map[string]any{
			"id":   sess.Tenant.ID,
			"name": sess.Tenant.Name,
			"slug": sess.Tenant.Slug,
		},
		"user": map[string]any{
			"id":    sess.User.ID,
			"email": sess.User.Email,
			"role":  sess.User.Role,
		},
		"accessToken": sess.AccessToken,
	}
}
