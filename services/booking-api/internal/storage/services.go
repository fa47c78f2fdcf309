package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
)

func (s *Store) InsertService(ctx context.Context, svc model.Service) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO services (id, tenant_id, name, duration_minutes, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, svc.ID, svc.TenantID, svc.Name, svc.DurationMinutes, svc.Price, svc.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrServiceNameTaken
		}
		if IsNumericOutOfRange(err) {
			return ErrPriceOutOfRange
		}
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

// ListServices returns the tenant's services, newest first.
func (s *Store) ListServices(ctx context.Context, tenantID uuid.UUID) ([]model.Service, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, tenant_id, name, duration_minutes, price::float8, created_at
		FROM services
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []model.Service{}
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.DurationMinutes, &svc.Price, &svc.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

func (s *Store) ServiceByID(ctx context.Context, tenantID, serviceID uuid.UUID) (model.Service, error) {
	var svc model.Service
	err := s.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, duration_minutes, price::float8, created_at
		FROM services
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, serviceID).Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.DurationMinutes, &svc.Price, &svc.CreatedAt)
	if err != nil {
		if IsNotFound(err) {
			return model.Service{}, ErrServiceNotFound
		}
		return model.Service{}, err
	}
	return svc, nil
}
