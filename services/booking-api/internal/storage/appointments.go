package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
)

const appointmentColumns = `
	a.id, a.tenant_id, a.service_id, a.customer_name, a.customer_email, a.customer_phone,
	a.start_at, a.end_at, a.status, a.notes, a.created_at, a.updated_at,
	s.name, s.duration_minutes, s.price::float8`

// InsertAppointment stores a BOOKED appointment. The appointments_no_overlap
// exclusion constraint rejects an overlapping BOOKED interval of the same
// tenant, so the conflict check and the insert are one atomic step.
func (s *Store) InsertAppointment(ctx context.Context, a model.Appointment, evt outbox.Event) error {
	return db.InTx(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointments
				(id, tenant_id, service_id, customer_name, customer_email, customer_phone, start_at, end_at, status, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, a.ID, a.TenantID, a.ServiceID, a.CustomerName, a.CustomerEmail, a.CustomerPhone,
			a.StartAt, a.EndAt, string(a.Status), a.Notes, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			switch {
			case IsExclusionViolation(err):
				return ErrSlotTaken
			case IsForeignKeyViolation(err) && constraintName(err) == "appointments_service_fkey":
				return ErrServiceNotFound
			}
			return fmt.Errorf("insert appointment: %w", err)
		}
		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
		return nil
	})
}

// ListAppointments returns the tenant's appointments ordered by start time.
func (s *Store) ListAppointments(ctx context.Context, tenantID uuid.UUID) ([]model.Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		JOIN services s ON s.id = a.service_id AND s.tenant_id = a.tenant_id
		WHERE a.tenant_id = $1
		ORDER BY a.start_at ASC, a.created_at ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (s *Store) AppointmentByID(ctx context.Context, tenantID, id uuid.UUID) (model.Appointment, error) {
	a, err := scanAppointment(s.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		JOIN services s ON s.id = a.service_id AND s.tenant_id = a.tenant_id
		WHERE a.tenant_id = $1 AND a.id = $2
	`, tenantID, id))
	if err != nil {
		if IsNotFound(err) {
			return model.Appointment{}, ErrAppointmentNotFound
		}
		return model.Appointment{}, err
	}
	return a, nil
}

// UpdateAppointmentStatus moves the appointment from one status to another
// and records evt. It fails with ErrStatusChanged when the stored status is
// no longer from.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, tenantID, id uuid.UUID, from, to model.Status, at time.Time, evt outbox.Event) (model.Appointment, error) {
	var updated model.Appointment
	err := db.InTx(ctx, s.db, func(tx pgx.Tx) error {
		a, err := scanAppointment(tx.QueryRow(ctx, `
			WITH a AS (
				UPDATE appointments
				SET status = $4, updated_at = $5
				WHERE tenant_id = $1 AND id = $2 AND status = $3
				RETURNING *
			)
			SELECT `+appointmentColumns+`
			FROM a
			JOIN services s ON s.id = a.service_id AND s.tenant_id = a.tenant_id
		`, tenantID, id, string(from), string(to), at))
		if err != nil {
			if IsNotFound(err) {
				return ErrStatusChanged
			}
			return fmt.Errorf("update appointment status: %w", err)
		}
		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
		updated = a
		return nil
	})
	return updated, err
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		a   model.Appointment
		svc model.ServiceSummary
	)
	err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.ServiceID,
		&a.CustomerName,
		&a.CustomerEmail,
		&a.CustomerPhone,
		&a.StartAt,
		&a.EndAt,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&svc.Name,
		&svc.DurationMinutes,
		&svc.Price,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	svc.ID = a.ServiceID
	a.Service = &svc
	return a, nil
}
