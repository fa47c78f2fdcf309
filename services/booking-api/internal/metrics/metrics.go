package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "apptbook"

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_booked_total",
		Help:      "Appointments successfully booked.",
	})
	bookingConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointment_conflicts_total",
		Help:      "Booking attempts rejected because the slot overlaps a BOOKED appointment.",
	})
	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_status_transitions_total",
			Help:      "Appointment status changes by target status.",
		},
		[]string{"to"},
	)
	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		},
		[]string{"result"},
	)
	outboxPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_published_total",
		Help:      "Outbox events relayed to Kafka.",
	})
)

// Register registers the collectors on the default registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, bookingConflicts, statusTransitions, logins, outboxPublished)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncBooked() { bookingsCreated.Inc() }
func IncConflict() { bookingConflicts.Inc() }
func IncTransition(to string) { statusTransitions.WithLabelValues(to).Inc() }
func IncLogin(result string) { logins.WithLabelValues(result).Inc() }
func AddOutboxPublished(n int) { outboxPublished.Add(float64(n)) }
