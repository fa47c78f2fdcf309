package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
)

// Stats counts the tenant's services and appointments. Appointments whose
// start falls in [dayStart, dayEnd) count as today's.
func (s *Store) Stats(ctx context.Context, tenantID uuid.UUID, dayStart, dayEnd time.Time) (model.Stats, error) {
	stats := model.Stats{ByStatus: map[model.Status]int{}}
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM services WHERE tenant_id = $1),
			(SELECT count(*) FROM appointments WHERE tenant_id = $1),
			(SELECT count(*) FROM appointments WHERE tenant_id = $1 AND start_at >= $2 AND start_at < $3)
	`, tenantID, dayStart, dayEnd).Scan(&stats.TotalServices, &stats.TotalAppointments, &stats.TodaysAppointments)
	if err != nil {
		return model.Stats{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		WHERE tenant_id = $1
		GROUP BY status
	`, tenantID)
	if err != nil {
		return model.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status model.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return model.Stats{}, err
		}
		stats.ByStatus[status] = n
	}
	if rows.Err() != nil {
		return model.Stats{}, rows.Err()
	}
	return stats, nil
}
