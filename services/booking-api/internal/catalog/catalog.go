// Package catalog manages the services a tenant offers.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/validation"
)

type Store interface {
	InsertService(ctx context.Context, svc model.Service) error
	ListServices(ctx context.Context, tenantID uuid.UUID) ([]model.Service, error)
}

type Catalog struct {
	store Store
	now   func() time.Time
}

func New(store Store, now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	return &Catalog{store: store, now: now}
}

type CreateInput struct {
	Name            string   `json:"name" validate:"min=2,max=80"`
	DurationMinutes *int     `json:"durationMinutes" validate:"required,min=5,max=480"`
	Price           *float64 `json:"price" validate:"omitempty,min=0"`
}

func (c *Catalog) Create(ctx context.Context, tenantID uuid.UUID, in CreateInput) (model.Service, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return model.Service{}, err
	}

	svc := model.Service{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Name:            in.Name,
		DurationMinutes: *in.DurationMinutes,
		CreatedAt:       c.now().UTC(),
	}
	if in.Price != nil {
		svc.Price = *in.Price
	}
	if err := c.store.InsertService(ctx, svc); err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

// List returns the tenant's services, newest first.
func (c *Catalog) List(ctx context.Context, tenantID uuid.UUID) ([]model.Service, error) {
	return c.store.ListServices(ctx, tenantID)
}
