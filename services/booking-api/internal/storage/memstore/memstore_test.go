package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/storage"
)

func seedService(t *testing.T, s *Store, tenantID uuid.UUID, name string, minutes int) model.Service {
	t.Helper()
	svc := model.Service{ID: uuid.New(), TenantID: tenantID, Name: name, DurationMinutes: minutes, CreatedAt: time.Now()}
	require.NoError(t, s.InsertService(context.Background(), svc))
	return svc
}

func booked(tenantID, serviceID uuid.UUID, start time.Time, d time.Duration) model.Appointment {
	return model.Appointment{
		ID:           uuid.New(),
		TenantID:     tenantID,
		ServiceID:    serviceID,
		CustomerName: "Jane",
		StartAt:      start,
		EndAt:        start.Add(d),
		Status:       model.StatusBooked,
		CreatedAt:    time.Now(),
	}
}

func TestTenantSlugUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	t1 := model.Tenant{ID: uuid.New(), Name: "Acme", Slug: "acme"}
	require.NoError(t, s.CreateTenantWithOwner(ctx, t1, model.User{ID: uuid.New(), TenantID: t1.ID, Email: "a@acme.test"}, outbox.Event{}))

	t2 := model.Tenant{ID: uuid.New(), Name: "Acme 2", Slug: "acme"}
	err := s.CreateTenantWithOwner(ctx, t2, model.User{ID: uuid.New(), TenantID: t2.ID}, outbox.Event{})
	assert.ErrorIs(t, err, storage.ErrTenantSlugTaken)

	got, err := s.TenantBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, t1.ID, got.ID)
	assert.Len(t, s.Events(), 1)
}

func TestOwnerEmailUniquePerTenant(t *testing.T) {
	s := New()
	ctx := context.Background()
	t1 := model.Tenant{ID: uuid.New(), Name: "Acme", Slug: "acme"}
	require.NoError(t, s.CreateTenantWithOwner(ctx, t1, model.User{ID: uuid.New(), TenantID: t1.ID, Email: "owner@acme.test"}, outbox.Event{}))

	t2 := model.Tenant{ID: uuid.New(), Name: "Acme Two", Slug: "acme-two"}
	err := s.CreateTenantWithOwner(ctx, t2, model.User{ID: uuid.New(), TenantID: t1.ID, Email: "owner@acme.test"}, outbox.Event{})
	assert.ErrorIs(t, err, storage.ErrUserEmailTaken)
	_, err = s.TenantBySlug(ctx, "acme-two")
	assert.ErrorIs(t, err, storage.ErrTenantNotFound)
	assert.Len(t, s.Events(), 1)

	other := model.Tenant{ID: uuid.New(), Name: "Beta", Slug: "beta"}
	assert.NoError(t, s.CreateTenantWithOwner(ctx, other, model.User{ID: uuid.New(), TenantID: other.ID, Email: "owner@acme.test"}, outbox.Event{}))
}

func TestUserLookupsAreTenantScoped(t *testing.T) {
	s := New()
	ctx := context.Background()
	tenant := model.Tenant{ID: uuid.New(), Slug: "acme"}
	user := model.User{ID: uuid.New(), TenantID: tenant.ID, Email: "owner@acme.test"}
	require.NoError(t, s.CreateTenantWithOwner(ctx, tenant, user, outbox.Event{}))

	_, err := s.UserByEmail(ctx, tenant.ID, "owner@acme.test")
	assert.NoError(t, err)
	_, err = s.UserByEmail(ctx, uuid.New(), "owner@acme.test")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	_, err = s.UserByID(ctx, uuid.New(), user.ID)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestServiceNameUniquePerTenant(t *testing.T) {
	s := New()
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()
	seedService(t, s, tenantA, "Cleaning", 30)

	err := s.InsertService(ctx, model.Service{ID: uuid.New(), TenantID: tenantA, Name: "Cleaning"})
	assert.ErrorIs(t, err, storage.ErrServiceNameTaken)
	assert.NoError(t, s.InsertService(ctx, model.Service{ID: uuid.New(), TenantID: tenantB, Name: "Cleaning"}))
}

func TestListServicesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	tenant := uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"one", "two", "three"} {
		require.NoError(t, s.InsertService(ctx, model.Service{ID: uuid.New(), TenantID: tenant, Name: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}
	svcs, err := s.ListServices(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, svcs, 3)
	assert.Equal(t, "three", svcs[0].Name)
	assert.Equal(t, "one", svcs[2].Name)
}

func TestInsertAppointmentOverlap(t *testing.T) {
	s := New()
	ctx := context.Background()
	tenant := uuid.New()
	svc := seedService(t, s, tenant, "Cleaning", 30)
	nine := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertAppointment(ctx, booked(tenant, svc.ID, nine, 30*time.Minute), outbox.Event{}))
	assert.ErrorIs(t, s.InsertAppointment(ctx, booked(tenant, svc.ID, nine.Add(15*time.Minute), 30*time.Minute), outbox.Event{}), storage.ErrSlotTaken)
	assert.NoError(t, s.InsertAppointment(ctx, booked(tenant, svc.ID, nine.Add(30*time.Minute), 30*time.Minute), outbox.Event{}))

	other := uuid.New()
	otherSvc := seedService(t, s, other, "Cleaning", 30)
	assert.NoError(t, s.InsertAppointment(ctx, booked(other, otherSvc.ID, nine, 30*time.Minute), outbox.Event{}))

	assert.ErrorIs(t, s.InsertAppointment(ctx, booked(tenant, otherSvc.ID, nine.Add(2*time.Hour), 30*time.Minute), outbox.Event{}), storage.ErrServiceNotFound)
}

func TestUpdateStatusFreesSlot(t *testing.T) {
	s := New()
	ctx := context.Background()
	tenant := uuid.New()
	svc := seedService(t, s, tenant, "Cleaning", 30)
	nine := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	first := booked(tenant, svc.ID, nine, 30*time.Minute)
	require.NoError(t, s.InsertAppointment(ctx, first, outbox.Event{}))

	updated, err := s.UpdateAppointmentStatus(ctx, tenant, first.ID, model.StatusBooked, model.StatusCancelled, nine, outbox.Event{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, updated.Status)
	require.NotNil(t, updated.Service)
	assert.Equal(t, "Cleaning", updated.Service.Name)

	_, err = s.UpdateAppointmentStatus(ctx, tenant, first.ID, model.StatusBooked, model.StatusCompleted, nine, outbox.Event{})
	assert.ErrorIs(t, err, storage.ErrStatusChanged)

	_, err = s.UpdateAppointmentStatus(ctx, uuid.New(), first.ID, model.StatusCancelled, model.StatusCompleted, nine, outbox.Event{})
	assert.ErrorIs(t, err, storage.ErrAppointmentNotFound)

	assert.NoError(t, s.InsertAppointment(ctx, booked(tenant, svc.ID, nine, 30*time.Minute), outbox.Event{}))
}

func TestStats(t *testing.T) {
	s := New()
	ctx := context.Background()
	tenant := uuid.New()
	svc := seedService(t, s, tenant, "Cleaning", 30)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertAppointment(ctx, booked(tenant, svc.ID, day.Add(9*time.Hour), 30*time.Minute), outbox.Event{}))
	require.NoError(t, s.InsertAppointment(ctx, booked(tenant, svc.ID, day.Add(33*time.Hour), 30*time.Minute), outbox.Event{}))

	stats, err := s.Stats(ctx, tenant, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalServices)
	assert.Equal(t, 2, stats.TotalAppointments)
	assert.Equal(t, 1, stats.TodaysAppointments)
	assert.Equal(t, 2, stats.ByStatus[model.StatusBooked])
}
