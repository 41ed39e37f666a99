package queries

import (
	"context"
	"sort"
	"time"

	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrInvalidWindow = errs.New("invalid availability window")

// OccupiedInterval is one blocked stretch of a specialist's timeline: an
// active unexpired hold or a non-cancelled appointment.
type OccupiedInterval struct {
	Start time.Time
	End   time.Time
	Kind  string // "hold" | "appointment"
}

type AvailabilityReadStore interface {
	OccupiedIntervals(ctx context.Context, specialistID uuid.UUID, from, to time.Time, now time.Time) ([]OccupiedInterval, error)
}

type AvailabilityQueries interface {
	// Occupied returns blocked intervals in [from, to), holds included, so the
	// read path shows reserved-but-unpaid slots as taken.
	Occupied(ctx context.Context, specialistID uuid.UUID, from, to time.Time) ([]OccupiedInterval, error)
	// NextOpenSlot finds the earliest start >= from where a slot of the given
	// duration fits, or false if the search window has no gap.
	NextOpenSlot(ctx context.Context, specialistID uuid.UUID, from time.Time, duration, window time.Duration) (time.Time, bool, error)
}

type availabilityQueriesImpl struct {
	readStore AvailabilityReadStore
	clock     clock.Clock
}

func NewAvailabilityQueries(readStore AvailabilityReadStore, clk clock.Clock) AvailabilityQueries {
	return &availabilityQueriesImpl{readStore: readStore, clock: clk}
}

func (q *availabilityQueriesImpl) Occupied(ctx context.Context, specialistID uuid.UUID, from, to time.Time) ([]OccupiedInterval, error) {
	if !from.Before(to) {
		return nil, ErrInvalidWindow
	}
	return q.readStore.OccupiedIntervals(ctx, specialistID, from, to, q.clock.Now())
}

func (q *availabilityQueriesImpl) NextOpenSlot(ctx context.Context, specialistID uuid.UUID, from time.Time, duration, window time.Duration) (time.Time, bool, error) {
	if duration <= 0 || window <= 0 {
		return time.Time{}, false, ErrInvalidWindow
	}

	to := from.Add(window)
	occupied, err := q.readStore.OccupiedIntervals(ctx, specialistID, from, to.Add(duration), q.clock.Now())
	if err != nil {
		return time.Time{}, false, err
	}

	sort.Slice(occupied, func(i, j int) bool {
		return occupied[i].Start.Before(occupied[j].Start)
	})

	// Walk the sorted intervals and slide the candidate start past each
	// overlapping block. This is advisory: the authoritative check is the
	// overlap test inside Reserve's transaction.
	candidate := from
	for _, iv := range occupied {
		if !candidate.Before(to) {
			return time.Time{}, false, nil
		}
		if iv.Start.Before(candidate.Add(duration)) && candidate.Before(iv.End) {
			candidate = iv.End
		}
	}
	if !candidate.Before(to) {
		return time.Time{}, false, nil
	}
	return candidate, true, nil
}
