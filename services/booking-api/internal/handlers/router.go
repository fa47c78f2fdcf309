package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/libs/runtime"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
)

type RouterConfig struct {
	// AuthLimiter guards register, login and refresh. Nil disables it.
	AuthLimiter httpx.Middleware
	ReadyChecks []runtime.ReadyCheck
	Metrics     http.Handler
}

func (a *API) Routes(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()
	runtime.RegisterHealth(mux, cfg.ReadyChecks...)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteOK(w, http.StatusOK, map[string]any{"message": "Appointment SaaS API is running"})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteOK(w, http.StatusOK, map[string]any{"message": "API is healthy"})
	})

	limited := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, cfg.AuthLimiter)
	}
	mux.Handle("POST /api/auth/register", limited(a.Register))
	mux.Handle("POST /api/auth/login", limited(a.Login))
	mux.Handle("POST /api/auth/refresh", limited(a.Refresh))
	mux.HandleFunc("POST /api/auth/logout", a.Logout)

	gate := RequireAuth(a.issuer)
	protected := func(h http.HandlerFunc, c model.Capability) http.Handler {
		return httpx.Chain(h, gate, RequireCapability(c))
	}
	mux.Handle("GET /api/users/me", httpx.Chain(http.HandlerFunc(a.Me), gate))
	mux.Handle("GET /api/services", protected(a.ListServices, model.CapManageServices))
	mux.Handle("POST /api/services", protected(a.CreateService, model.CapManageServices))
	mux.Handle("GET /api/appointments", protected(a.ListAppointments, model.CapManageAppointments))
	mux.Handle("POST /api/appointments", protected(a.CreateAppointment, model.CapManageAppointments))
	mux.Handle("PATCH /api/appointments/{id}/status", protected(a.UpdateAppointmentStatus, model.CapManageAppointments))
	mux.Handle("GET /api/dashboard/stats", protected(a.DashboardStats, model.CapViewDashboard))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusNotFound, "Not Found - "+r.Method+" "+r.URL.RequestURI())
	})
	return mux
}
