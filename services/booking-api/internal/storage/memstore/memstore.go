// Package memstore is an in-process store with the same contract as the
// Postgres store. A single mutex makes the overlap check and the insert of an
// appointment one atomic step.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/storage"
)

type Store struct {
	mu           sync.RWMutex
	tenants      map[uuid.UUID]model.Tenant
	slugs        map[string]uuid.UUID
	users        map[uuid.UUID]model.User
	services     map[uuid.UUID]model.Service
	appointments map[uuid.UUID]model.Appointment
	events       []outbox.Event
}

func New() *Store {
	return &Store{
		tenants:      map[uuid.UUID]model.Tenant{},
		slugs:        map[string]uuid.UUID{},
		users:        map[uuid.UUID]model.User{},
		services:     map[uuid.UUID]model.Service{},
		appointments: map[uuid.UUID]model.Appointment{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// Events returns the outbox events recorded so far.
func (s *Store) Events() []outbox.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]outbox.Event(nil), s.events...)
}

func (s *Store) CreateTenantWithOwner(_ context.Context, t model.Tenant, u model.User, evt outbox.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slugs[t.Slug]; ok {
		return storage.ErrTenantSlugTaken
	}
	for _, existing := range s.users {
		if existing.TenantID == u.TenantID && existing.Email == u.Email {
			return storage.ErrUserEmailTaken
		}
	}
	s.tenants[t.ID] = t
	s.slugs[t.Slug] = t.ID
	s.users[u.ID] = u
	s.events = append(s.events, evt)
	return nil
}

func (s *Store) TenantBySlug(_ context.Context, slug string) (model.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slugs[slug]
	if !ok {
		return model.Tenant{}, storage.ErrTenantNotFound
	}
	return s.tenants[id], nil
}

func (s *Store) UserByEmail(_ context.Context, tenantID uuid.UUID, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.TenantID == tenantID && u.Email == email {
			return u, nil
		}
	}
	return model.User{}, storage.ErrUserNotFound
}

func (s *Store) UserByID(_ context.Context, tenantID, userID uuid.UUID) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok || u.TenantID != tenantID {
		return model.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) InsertService(_ context.Context, svc model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.services {
		if existing.TenantID == svc.TenantID && existing.Name == svc.Name {
			return storage.ErrServiceNameTaken
		}
	}
	s.services[svc.ID] = svc
	return nil
}

func (s *Store) ListServices(_ context.Context, tenantID uuid.UUID) ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Service{}
	for _, svc := range s.services {
		if svc.TenantID == tenantID {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) ServiceByID(_ context.Context, tenantID, serviceID uuid.UUID) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[serviceID]
	if !ok || svc.TenantID != tenantID {
		return model.Service{}, storage.ErrServiceNotFound
	}
	return svc, nil
}

func (s *Store) InsertAppointment(_ context.Context, a model.Appointment, evt outbox.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[a.ServiceID]
	if !ok || svc.TenantID != a.TenantID {
		return storage.ErrServiceNotFound
	}
	if a.Status == model.StatusBooked {
		for _, existing := range s.appointments {
			if existing.TenantID == a.TenantID && existing.Status == model.StatusBooked && existing.Overlaps(a.StartAt, a.EndAt) {
				return storage.ErrSlotTaken
			}
		}
	}
	a.Service = nil
	s.appointments[a.ID] = a
	s.events = append(s.events, evt)
	return nil
}

func (s *Store) ListAppointments(_ context.Context, tenantID uuid.UUID) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Appointment{}
	for _, a := range s.appointments {
		if a.TenantID == tenantID {
			out = append(out, s.resolve(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) AppointmentByID(_ context.Context, tenantID, id uuid.UUID) (model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok || a.TenantID != tenantID {
		return model.Appointment{}, storage.ErrAppointmentNotFound
	}
	return s.resolve(a), nil
}

func (s *Store) UpdateAppointmentStatus(_ context.Context, tenantID, id uuid.UUID, from, to model.Status, at time.Time, evt outbox.Event) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok || a.TenantID != tenantID {
		return model.Appointment{}, storage.ErrAppointmentNotFound
	}
	if a.Status != from {
		return model.Appointment{}, storage.ErrStatusChanged
	}
	a.Status = to
	a.UpdatedAt = at
	s.appointments[id] = a
	s.events = append(s.events, evt)
	return s.resolve(a), nil
}

func (s *Store) Stats(_ context.Context, tenantID uuid.UUID, dayStart, dayEnd time.Time) (model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.Stats{ByStatus: map[model.Status]int{}}
	for _, svc := range s.services {
		if svc.TenantID == tenantID {
			stats.TotalServices++
		}
	}
	for _, a := range s.appointments {
		if a.TenantID != tenantID {
			continue
		}
		stats.TotalAppointments++
		stats.ByStatus[a.Status]++
		if !a.StartAt.Before(dayStart) && a.StartAt.Before(dayEnd) {
			stats.TodaysAppointments++
		}
	}
	return stats, nil
}

// resolve attaches the service summary. Callers hold the lock.
func (s *Store) resolve(a model.Appointment) model.Appointment {
	if svc, ok := s.services[a.ServiceID]; ok && svc.TenantID == a.TenantID {
		summary := svc.Summary()
		a.Service = &summary
	}
	return a
}
