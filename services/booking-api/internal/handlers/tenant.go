package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/catalog"
)

func (a *API) ListServices(w http.ResponseWriter, r *http.Request) {
	svcs, err := a.catalog.List(r.Context(), tenantID(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]serviceView, 0, len(svcs))
	for _, s := range svcs {
		out = append(out, toServiceView(s))
	}
	httpx.WriteOK(w, http.StatusOK, map[string]any{"services": out})
}

func (a *API) CreateService(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	svc, err := a.catalog.Create(r.Context(), tenantID(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteOK(w, http.StatusCreated, map[string]any{"service": toServiceView(svc)})
}

func (a *API) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := a.booking.List(r.Context(), tenantID(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]appointmentView, 0, len(appts))
	for _, appt := range appts {
		out = append(out, toAppointmentView(appt))
	}
	httpx.WriteOK(w, http.StatusOK, map[string]any{"appointments": out})
}

func (a *API) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in booking.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	appt, err := a.booking.Create(r.Context(), tenantID(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteOK(w, http.StatusCreated, map[string]any{"appointment": toAppointmentView(appt)})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *API) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var in statusRequest
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	appt, err := a.booking.TransitionStatus(r.Context(), tenantID(r), r.PathValue("id"), in.Status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteOK(w, http.StatusOK, map[string]any{"appointment": toAppointmentView(appt)})
}

func (a *API) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.booking.Stats(r.Context(), tenantID(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteOK(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"totalServices":      stats.TotalServices,
			"totalAppointments":  stats.TotalAppointments,
			"todaysAppointments": stats.TodaysAppointments,
			"byStatus":           stats.ByStatus,
		},
	})
}
