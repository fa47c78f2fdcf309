package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
)

// CreateTenantWithOwner inserts the tenant, its first user and the
// registration event in one transaction.
func (s *Store) CreateTenantWithOwner(ctx context.Context, t model.Tenant, u model.User, evt outbox.Event) error {
	return db.InTx(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO tenants (id, name, slug, created_at)
			VALUES ($1, $2, $3, $4)
		`, t.ID, t.Name, t.Slug, t.CreatedAt)
		if err != nil {
			if IsUniqueViolation(err) {
				return ErrTenantSlugTaken
			}
			return fmt.Errorf("insert tenant: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO users (id, tenant_id, email, password_hash, role, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, u.ID, u.TenantID, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt)
		if err != nil {
			if IsUniqueViolation(err) {
				return ErrUserEmailTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}

		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
		return nil
	})
}

func (s *Store) TenantBySlug(ctx context.Context, slug string) (model.Tenant, error) {
	var t model.Tenant
	err := s.db.QueryRow(ctx, `
		SELECT id, name, slug, created_at
		FROM tenants
		WHERE slug = $1
	`, slug).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if err != nil {
		if IsNotFound(err) {
			return model.Tenant{}, ErrTenantNotFound
		}
		return model.Tenant{}, err
	}
	return t, nil
}

func (s *Store) UserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (model.User, error) {
	return s.scanUser(s.db.QueryRow(ctx, `
		SELECT id, tenant_id, email, password_hash, role, created_at
		FROM users
		WHERE tenant_id = $1 AND email = $2
	`, tenantID, email))
}

func (s *Store) UserByID(ctx context.Context, tenantID, userID uuid.UUID) (model.User, error) {
	return s.scanUser(s.db.QueryRow(ctx, `
		SELECT id, tenant_id, email, password_hash, role, created_at
		FROM users
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, userID))
}

func (s *Store) scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if IsNotFound(err) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return u, nil
}
