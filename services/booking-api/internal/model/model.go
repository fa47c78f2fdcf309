// Package model holds the tenant-scoped entities shared by the booking API.
package model

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

type Service struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Name            string
	DurationMinutes int
	Price           float64
	CreatedAt       time.Time
}

// Duration is the length of one booking of this service.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// ServiceSummary is the denormalized service view embedded in appointments.
type ServiceSummary struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
	Price           float64
}

func (s Service) Summary() ServiceSummary {
	return ServiceSummary{
		ID:              s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
	}
}

type Appointment struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	ServiceID     uuid.UUID
	Service       *ServiceSummary
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	StartAt       time.Time
	EndAt         time.Time
	Status        Status
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Overlaps reports whether the half-open intervals [StartAt, EndAt) and
// [start, end) intersect. Touching endpoints do not overlap.
func (a Appointment) Overlaps(start, end time.Time) bool {
	return a.StartAt.Before(end) && a.EndAt.After(start)
}

// Stats is the per-tenant dashboard projection.
type Stats struct {
	TotalServices      int
	TotalAppointments  int
	TodaysAppointments int
	ByStatus           map[Status]int
}
