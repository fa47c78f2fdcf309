package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
)

type serviceView struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenantId"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"createdAt"`
}

type serviceSummaryView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	Price           float64   `json:"price"`
}

type appointmentView struct {
	ID            uuid.UUID           `json:"id"`
	TenantID      uuid.UUID           `json:"tenantId"`
	ServiceID     uuid.UUID           `json:"serviceId"`
	Service       *serviceSummaryView `json:"service"`
	CustomerName  string              `json:"customerName"`
	CustomerEmail string              `json:"customerEmail,omitempty"`
	CustomerPhone string              `json:"customerPhone,omitempty"`
	StartAt       time.Time           `json:"startAt"`
	EndAt         time.Time           `json:"endAt"`
	Status        model.Status        `json:"status"`
	Notes         string              `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func toServiceView(s model.Service) serviceView {
	return serviceView{
		ID:              s.ID,
		TenantID:        s.TenantID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		CreatedAt:       s.CreatedAt,
	}
}

func toAppointmentView(a model.Appointment) appointmentView {
	v := appointmentView{
		ID:            a.ID,
		TenantID:      a.TenantID,
		ServiceID:     a.ServiceID,
		CustomerName:  a.CustomerName,
		CustomerEmail: a.CustomerEmail,
		CustomerPhone: a.CustomerPhone,
		StartAt:       a.StartAt,
		EndAt:         a.EndAt,
		Status:        a.Status,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Service != nil {
		v.Service = &serviceSummaryView{
			ID:              a.Service.ID,
			Name:            a.Service.Name,
			DurationMinutes: a.Service.DurationMinutes,
			Price:           a.Service.Price,
		}
	}
	return v
}
