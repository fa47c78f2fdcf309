package booking_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/storage/memstore"
)

type fixture struct {
	store   *memstore.Store
	engine  *booking.Engine
	tenant  uuid.UUID
	service model.Service
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		tenant: uuid.New(),
		now:    time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC),
	}
	f.engine = booking.NewEngine(f.store, func() time.Time { return f.now })
	f.service = f.addService(t, f.tenant, "Cleaning", 30)
	return f
}

func (f *fixture) addService(t *testing.T, tenant uuid.UUID, name string, minutes int) model.Service {
	t.Helper()
	svc := model.Service{ID: uuid.New(), TenantID: tenant, Name: name, DurationMinutes: minutes, Price: 40, CreatedAt: f.now}
	require.NoError(t, f.store.InsertService(context.Background(), svc))
	return svc
}

func (f *fixture) book(tenant uuid.UUID, serviceID uuid.UUID, start string) (model.Appointment, error) {
	return f.engine.Create(context.Background(), tenant, booking.CreateInput{
		ServiceID:    serviceID.String(),
		CustomerName: "Jane Roe",
		StartAt:      start,
	})
}

func TestCreateScenarioAcmeDental(t *testing.T) {
	f := newFixture(t)

	first, err := f.book(f.tenant, f.service.ID, "2024-05-06T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, first.Status)
	assert.Equal(t, time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC), first.EndAt)
	require.NotNil(t, first.Service)
	assert.Equal(t, "Cleaning", first.Service.Name)

	_, err = f.book(f.tenant, f.service.ID, "2024-05-06T09:15:00Z")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "Time slot already booked", apperr.Message(err))

	adjacent, err := f.book(f.tenant, f.service.ID, "2024-05-06T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, first.EndAt, adjacent.StartAt)

	events := f.store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, outbox.TypeAppointmentBooked, events[0].EventType)
	assert.Equal(t, first.ID.String(), events[0].AggregateID)
}

func TestCreateNormalizesOffsetsAndFields(t *testing.T) {
	f := newFixture(t)

	appt, err := f.engine.Create(context.Background(), f.tenant, booking.CreateInput{
		ServiceID:     f.service.ID.String(),
		CustomerName:  "  Jane Roe ",
		CustomerEmail: " Jane@Example.COM ",
		StartAt:       "2024-05-06T11:00:00+02:00",
		Notes:         " first visit ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", appt.CustomerName)
	assert.Equal(t, "jane@example.com", appt.CustomerEmail)
	assert.Equal(t, "first visit", appt.Notes)
	assert.Equal(t, time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC), appt.StartAt)
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	other := uuid.New()
	foreign := f.addService(t, other, "Cleaning", 30)

	cases := []struct {
		name string
		in   booking.CreateInput
		kind apperr.Kind
		msg  string
	}{
		{
			name: "foreign tenant service",
			in:   booking.CreateInput{ServiceID: foreign.ID.String(), CustomerName: "Jane", StartAt: "2024-05-06T09:00:00Z"},
			kind: apperr.KindInvalidReference,
			msg:  "Invalid serviceId for this tenant",
		},
		{
			name: "unknown service",
			in:   booking.CreateInput{ServiceID: uuid.NewString(), CustomerName: "Jane", StartAt: "2024-05-06T09:00:00Z"},
			kind: apperr.KindInvalidReference,
		},
		{
			name: "malformed service id",
			in:   booking.CreateInput{ServiceID: "not-an-id", CustomerName: "Jane", StartAt: "2024-05-06T09:00:00Z"},
			kind: apperr.KindInvalidReference,
			msg:  "Invalid serviceId",
		},
		{
			name: "missing service id",
			in:   booking.CreateInput{CustomerName: "Jane", StartAt: "2024-05-06T09:00:00Z"},
			kind: apperr.KindInvalidReference,
		},
		{
			name: "short name",
			in:   booking.CreateInput{ServiceID: f.service.ID.String(), CustomerName: "J", StartAt: "2024-05-06T09:00:00Z"},
			kind: apperr.KindInvalidInput,
		},
		{
			name: "bad email",
			in:   booking.CreateInput{ServiceID: f.service.ID.String(), CustomerName: "Jane", CustomerEmail: "nope", StartAt: "2024-05-06T09:00:00Z"},
			kind: apperr.KindInvalidInput,
		},
		{
			name: "unparseable start",
			in:   booking.CreateInput{ServiceID: f.service.ID.String(), CustomerName: "Jane", StartAt: "tomorrow at nine"},
			kind: apperr.KindInvalidInput,
			msg:  "Invalid startAt date",
		},
		{
			name: "long notes",
			in:   booking.CreateInput{ServiceID: f.service.ID.String(), CustomerName: "Jane", StartAt: "2024-05-06T09:00:00Z", Notes: string(make([]byte, 501))},
			kind: apperr.KindInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Create(context.Background(), f.tenant, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
			if tc.msg != "" {
				assert.Equal(t, tc.msg, apperr.Message(err))
			}
		})
	}
	assert.Empty(t, f.store.Events())
}

func TestEmptyEmailIsAbsent(t *testing.T) {
	f := newFixture(t)
	appt, err := f.engine.Create(context.Background(), f.tenant, booking.CreateInput{
		ServiceID:     f.service.ID.String(),
		CustomerName:  "Jane",
		CustomerEmail: "",
		StartAt:       "2024-05-06T09:00:00Z",
	})
	require.NoError(t, err)
	assert.Empty(t, appt.CustomerEmail)
}

func TestOverlapIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	other := uuid.New()
	otherSvc := f.addService(t, other, "Cleaning", 30)

	_, err := f.book(f.tenant, f.service.ID, "2024-05-06T09:00:00Z")
	require.NoError(t, err)
	_, err = f.book(other, otherSvc.ID, "2024-05-06T09:00:00Z")
	assert.NoError(t, err)
}

func TestTerminalAppointmentsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.book(f.tenant, f.service.ID, "2024-05-06T09:00:00Z")
	require.NoError(t, err)
	done, err := f.engine.TransitionStatus(ctx, f.tenant, first.ID.String(), "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	second, err := f.book(f.tenant, f.service.ID, "2024-05-06T09:00:00Z")
	require.NoError(t, err)
	_, err = f.engine.TransitionStatus(ctx, f.tenant, second.ID.String(), "CANCELLED")
	require.NoError(t, err)

	_, err = f.book(f.tenant, f.service.ID, "2024-05-06T09:10:00Z")
	assert.NoError(t, err)
}

func TestTransitionStatusRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, err := f.book(f.tenant, f.service.ID, "2024-05-06T09:00:00Z")
	require.NoError(t, err)

	same, err := f.engine.TransitionStatus(ctx, f.tenant, appt.ID.String(), "BOOKED")
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, same.Status)

	_, err = f.engine.TransitionStatus(ctx, f.tenant, appt.ID.String(), "cancelled")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(t, "Invalid status", apperr.Message(err))

	_, err = f.engine.TransitionStatus(ctx, f.tenant, "42", "CANCELLED")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.engine.TransitionStatus(ctx, uuid.New(), appt.ID.String(), "CANCELLED")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "Appointment not found", apperr.Message(err))

	cancelled, err := f.engine.TransitionStatus(ctx, f.tenant, appt.ID.String(), "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Service)

	again, err := f.engine.TransitionStatus(ctx, f.tenant, appt.ID.String(), "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, again.Status)

	_, err = f.engine.TransitionStatus(ctx, f.tenant, appt.ID.String(), "BOOKED")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(t, "Invalid status transition", apperr.Message(err))

	var changes int
	for _, evt := range f.store.Events() {
		if evt.EventType == outbox.TypeAppointmentStatusChanged {
			changes++
		}
	}
	assert.Equal(t, 1, changes)
}

func TestListOrdersByStart(t *testing.T) {
	f := newFixture(t)
	for _, start := range []string{"2024-05-06T12:00:00Z", "2024-05-06T08:00:00Z", "2024-05-06T10:00:00Z"} {
		_, err := f.book(f.tenant, f.service.ID, start)
		require.NoError(t, err)
	}
	appts, err := f.engine.List(context.Background(), f.tenant)
	require.NoError(t, err)
	require.Len(t, appts, 3)
	for i := 1; i < len(appts); i++ {
		assert.True(t, appts[i-1].StartAt.Before(appts[i].StartAt))
	}

	empty, err := f.engine.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStatsUsesUTCDay(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(f.tenant, f.service.ID, "2024-05-06T09:00:00Z")
	require.NoError(t, err)
	_, err = f.book(f.tenant, f.service.ID, "2024-05-07T09:00:00Z")
	require.NoError(t, err)

	stats, err := f.engine.Stats(context.Background(), f.tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalServices)
	assert.Equal(t, 2, stats.TotalAppointments)
	assert.Equal(t, 1, stats.TodaysAppointments)
	assert.Equal(t, 2, stats.ByStatus[model.StatusBooked])
}

func TestConcurrentBookingsNeverOverlap(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := base.Add(time.Duration(i%8) * 10 * time.Minute)
			_, _ = f.book(f.tenant, f.service.ID, start.Format(time.RFC3339))
		}(i)
	}
	wg.Wait()

	appts, err := f.engine.List(context.Background(), f.tenant)
	require.NoError(t, err)
	require.NotEmpty(t, appts)
	for i := range appts {
		for j := i + 1; j < len(appts); j++ {
			a, b := appts[i], appts[j]
			assert.False(t, a.Overlaps(b.StartAt, b.EndAt), fmt.Sprintf("%s overlaps %s", a.StartAt, b.StartAt))
		}
	}
}
