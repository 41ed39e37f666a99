package readstore

import (
	"context"
	"time"

	"telehealth-core/internal/infra"
	"telehealth-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityReadStore struct {
	pool *pgxpool.Pool
}

func NewAvailabilityReadStore(pool *pgxpool.Pool) *AvailabilityReadStore {
	return &AvailabilityReadStore{pool: pool}
}

// OccupiedIntervals merges active unexpired holds and non-cancelled
// appointments overlapping [from, to). This is the read path other clients see
// while a hold is pending, so held slots never look bookable.
func (s *AvailabilityReadStore) OccupiedIntervals(ctx context.Context, specialistID uuid.UUID, from, to time.Time, now time.Time) ([]queries.OccupiedInterval, error) {
	const query = `
SELECT start_time, start_time + make_interval(mins => duration_minutes), 'hold'
FROM holds
WHERE specialist_id = $1
  AND status = 'active'
  AND expires_at > $2
  AND start_time < $4
  AND start_time + make_interval(mins => duration_minutes) > $3
UNION ALL
SELECT start_time, start_time + make_interval(mins => duration_minutes), 'appointment'
FROM appointments
WHERE specialist_id = $1
  AND status <> 'cancelled'
  AND start_time < $4
  AND start_time + make_interval(mins => duration_minutes) > $3
ORDER BY 1`

	rows, err := s.pool.Query(ctx, query, specialistID, now, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "query occupied intervals", err)
	}
	defer rows.Close()

	var result []queries.OccupiedInterval
	for rows.Next() {
		var iv queries.OccupiedInterval
		if err := rows.Scan(&iv.Start, &iv.End, &iv.Kind); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "scan occupied interval", err)
		}
		result = append(result, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "iterate occupied intervals", err)
	}
	return result, nil
}
