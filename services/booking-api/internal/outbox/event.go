package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the domain event envelope written to the outbox table in the same
// transaction as the change it describes. The Kafka topic equals EventType.
type Event struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	OccurredAt    time.Time
}

const (
	TypeTenantRegistered         = "tenant.registered.v1"
	TypeAppointmentBooked        = "appointment.booked.v1"
	TypeAppointmentStatusChanged = "appointment.status_changed.v1"
)

func NewEvent(aggregateType, aggregateID, eventType string, payload any, at time.Time) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
		OccurredAt:    at.UTC(),
	}, nil
}
