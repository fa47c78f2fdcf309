// Package booking creates, lists and transitions appointments. A booking is
// accepted only when its half-open interval [start, start+duration) does not
// overlap any BOOKED appointment of the same tenant.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/storage"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/validation"
)

// Store is the persistence the engine relies on. InsertAppointment must
// perform the overlap check and the insert atomically.
type Store interface {
	ServiceByID(ctx context.Context, tenantID, serviceID uuid.UUID) (model.Service, error)
	InsertAppointment(ctx context.Context, a model.Appointment, evt outbox.Event) error
	ListAppointments(ctx context.Context, tenantID uuid.UUID) ([]model.Appointment, error)
	AppointmentByID(ctx context.Context, tenantID, id uuid.UUID) (model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, tenantID, id uuid.UUID, from, to model.Status, at time.Time, evt outbox.Event) (model.Appointment, error)
	Stats(ctx context.Context, tenantID uuid.UUID, dayStart, dayEnd time.Time) (model.Stats, error)
}

type Engine struct {
	store  Store
	now    func() time.Time
	tracer trace.Tracer
}

func NewEngine(store Store, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:  store,
		now:    now,
		tracer: otel.Tracer("apptbook/booking"),
	}
}

type CreateInput struct {
	ServiceID     string `json:"serviceId"`
	CustomerName  string `json:"customerName" validate:"min=2,max=100"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone string `json:"customerPhone"`
	StartAt       string `json:"startAt" validate:"required"`
	Notes         string `json:"notes" validate:"max=500"`
}

func (in *CreateInput) normalize() {
	in.ServiceID = strings.TrimSpace(in.ServiceID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = validation.NormalizeEmail(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.StartAt = strings.TrimSpace(in.StartAt)
	in.Notes = strings.TrimSpace(in.Notes)
}

type bookedPayload struct {
	AppointmentID string    `json:"appointmentId"`
	TenantID      string    `json:"tenantId"`
	ServiceID     string    `json:"serviceId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	StartAt       time.Time `json:"startAt"`
	EndAt         time.Time `json:"endAt"`
}

type statusChangedPayload struct {
	AppointmentID string       `json:"appointmentId"`
	TenantID      string       `json:"tenantId"`
	From          model.Status `json:"from"`
	To            model.Status `json:"to"`
}

// Create books an appointment for tenantID. The end instant is derived from
// the service duration; the caller never supplies it.
func (e *Engine) Create(ctx context.Context, tenantID uuid.UUID, in CreateInput) (appt model.Appointment, err error) {
	ctx, span := e.tracer.Start(ctx, "booking.Create", trace.WithAttributes(attribute.String("tenant.id", tenantID.String())))
	defer func() { endSpan(span, err) }()

	in.normalize()
	if err := validation.Struct(in); err != nil {
		return model.Appointment{}, err
	}

	serviceID, err := uuid.Parse(in.ServiceID)
	if err != nil {
		return model.Appointment{}, apperr.InvalidReference("Invalid serviceId")
	}
	svc, err := e.store.ServiceByID(ctx, tenantID, serviceID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return model.Appointment{}, apperr.InvalidReference("Invalid serviceId for this tenant")
		}
		return model.Appointment{}, err
	}

	start, err := ParseInstant(in.StartAt)
	if err != nil {
		return model.Appointment{}, apperr.InvalidInput("Invalid startAt date")
	}

	now := e.now().UTC()
	appt = model.Appointment{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ServiceID:     svc.ID,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		StartAt:       start,
		EndAt:         start.Add(svc.Duration()),
		Status:        model.StatusBooked,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	span.SetAttributes(attribute.String("appointment.id", appt.ID.String()))

	evt, err := outbox.NewEvent("appointment", appt.ID.String(), outbox.TypeAppointmentBooked, bookedPayload{
		AppointmentID: appt.ID.String(),
		TenantID:      tenantID.String(),
		ServiceID:     svc.ID.String(),
		CustomerName:  appt.CustomerName,
		CustomerEmail: appt.CustomerEmail,
		StartAt:       appt.StartAt,
		EndAt:         appt.EndAt,
	}, now)
	if err != nil {
		return model.Appointment{}, apperr.Internal(err)
	}

	if err := e.store.InsertAppointment(ctx, appt, evt); err != nil {
		switch {
		case errors.Is(err, storage.ErrSlotTaken):
			metrics.IncConflict()
			return model.Appointment{}, err
		case apperr.KindOf(err) == apperr.KindNotFound:
			return model.Appointment{}, apperr.InvalidReference("Invalid serviceId for this tenant")
		}
		return model.Appointment{}, err
	}
	metrics.IncBooked()

	summary := svc.Summary()
	appt.Service = &summary
	return appt, nil
}

// List returns every appointment of the tenant ordered by start ascending.
func (e *Engine) List(ctx context.Context, tenantID uuid.UUID) ([]model.Appointment, error) {
	return e.store.ListAppointments(ctx, tenantID)
}

// TransitionStatus moves an appointment forward in its lifecycle. Setting the
// current status again returns the appointment unchanged.
func (e *Engine) TransitionStatus(ctx context.Context, tenantID uuid.UUID, rawID, rawStatus string) (appt model.Appointment, err error) {
	ctx, span := e.tracer.Start(ctx, "booking.TransitionStatus", trace.WithAttributes(
		attribute.String("tenant.id", tenantID.String()),
		attribute.String("appointment.status", rawStatus),
	))
	defer func() { endSpan(span, err) }()

	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return model.Appointment{}, apperr.InvalidInput("Invalid appointment id")
	}
	next, ok := model.ParseStatus(rawStatus)
	if !ok {
		return model.Appointment{}, apperr.InvalidInput("Invalid status")
	}

	current, err := e.store.AppointmentByID(ctx, tenantID, id)
	if err != nil {
		return model.Appointment{}, err
	}

	// One retry covers a concurrent transition that landed between the read
	// and the conditional update.
	for attempt := 0; attempt < 2; attempt++ {
		if current.Status == next {
			return current, nil
		}
		if !current.Status.CanTransitionTo(next) {
			return model.Appointment{}, apperr.InvalidInput("Invalid status transition")
		}

		now := e.now().UTC()
		evt, err := outbox.NewEvent("appointment", id.String(), outbox.TypeAppointmentStatusChanged, statusChangedPayload{
			AppointmentID: id.String(),
			TenantID:      tenantID.String(),
			From:          current.Status,
			To:            next,
		}, now)
		if err != nil {
			return model.Appointment{}, apperr.Internal(err)
		}

		updated, err := e.store.UpdateAppointmentStatus(ctx, tenantID, id, current.Status, next, now, evt)
		if err == nil {
			metrics.IncTransition(string(next))
			return updated, nil
		}
		if !errors.Is(err, storage.ErrStatusChanged) {
			return model.Appointment{}, err
		}
		if current, err = e.store.AppointmentByID(ctx, tenantID, id); err != nil {
			return model.Appointment{}, err
		}
	}
	return model.Appointment{}, apperr.Conflict("Appointment was modified concurrently")
}

// Stats summarizes the tenant's catalog and bookings. Today is the current
// UTC day applied to appointment start instants.
func (e *Engine) Stats(ctx context.Context, tenantID uuid.UUID) (model.Stats, error) {
	now := e.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return e.store.Stats(ctx, tenantID, dayStart, dayStart.AddDate(0, 0, 1))
}

// ParseInstant accepts RFC 3339 timestamps with or without fractional seconds.
func ParseInstant(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.KindOf(err).String())
	}
	span.End()
}
