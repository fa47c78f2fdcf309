package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

var outboxColumns = []string{"id", "event_id", "aggregate_type", "aggregate_id", "event_type", "payload", "traceparent", "tracestate", "created_at"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("x", 3600))
	evt, err := NewEvent("appointment", "a-1", TypeAppointmentBooked, map[string]string{"status": "BOOKED"}, at)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"BOOKED"}`, string(evt.Payload))
	assert.Equal(t, time.UTC, evt.OccurredAt.Location())
	assert.NotEqual(t, uuid.Nil, evt.ID)
}

func TestPublishBatchRelaysAndMarks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM outbox_events`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow(int64(1), "e-1", "appointment", "a-1", TypeAppointmentBooked, []byte(`{}`), "", "", created).
			AddRow(int64(2), "e-2", "tenant", "t-1", TypeTenantRegistered, []byte(`{}`), "", "", created))
	mock.ExpectExec(`UPDATE outbox_events`).
		WithArgs([]int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	w := &captureWriter{}
	var published int
	p := NewPublisher(mock, NewRepository(), w, discardLogger(), PublisherConfig{
		BatchSize: 10,
		OnPublish: func(n int) { published += n },
	})

	n, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, published)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, TypeAppointmentBooked, w.msgs[0].Topic)
	assert.Equal(t, "a-1", string(w.msgs[0].Key))
	assert.Equal(t, "e-1", kafkax.HeaderValue(w.msgs[0].Headers, kafkax.HeaderEventID))
	assert.Equal(t, TypeTenantRegistered, kafkax.HeaderValue(w.msgs[1].Headers, kafkax.HeaderEventType))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishBatchLeavesRowsOnWriteFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM outbox_events`).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow(int64(7), "e-7", "appointment", "a-7", TypeAppointmentBooked, []byte(`{}`), "", "", time.Now()))
	mock.ExpectRollback()

	w := &captureWriter{err: errors.New("broker down")}
	p := NewPublisher(mock, NewRepository(), w, discardLogger(), PublisherConfig{})

	_, err = p.PublishBatch(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishBatchEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM outbox_events`).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows(outboxColumns))
	mock.ExpectCommit()

	p := NewPublisher(mock, NewRepository(), &captureWriter{}, discardLogger(), PublisherConfig{})
	n, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
