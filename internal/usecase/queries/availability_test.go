//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type stubReadStore struct {
	intervals []queries.OccupiedInterval
}

func (s *stubReadStore) OccupiedIntervals(_ context.Context, _ uuid.UUID, _, _ time.Time, _ time.Time) ([]queries.OccupiedInterval, error) {
	return s.intervals, nil
}

func block(start time.Time, d time.Duration, kind string) queries.OccupiedInterval {
	return queries.OccupiedInterval{Start: start, End: start.Add(d), Kind: kind}
}

func newAvailability(intervals ...queries.OccupiedInterval) queries.AvailabilityQueries {
	return queries.NewAvailabilityQueries(&stubReadStore{intervals: intervals}, clock.NewMockClock(testNow))
}

func TestOccupied(t *testing.T) {
	q := newAvailability(block(testNow, 30*time.Minute, "hold"))

	t.Run("returns blocked intervals", func(t *testing.T) {
		got, err := q.Occupied(t.Context(), uuid.New(), testNow, testNow.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "hold", got[0].Kind)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		_, err := q.Occupied(t.Context(), uuid.New(), testNow.Add(time.Hour), testNow)
		assert.ErrorIs(t, err, queries.ErrInvalidWindow)
	})
}

func TestNextOpenSlot(t *testing.T) {
	const (
		duration = 30 * time.Minute
		window   = 4 * time.Hour
	)
	specialistID := uuid.New()

	t.Run("empty timeline opens at from", func(t *testing.T) {
		q := newAvailability()
		start, found, err := q.NextOpenSlot(t.Context(), specialistID, testNow, duration, window)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, start.Equal(testNow))
	})

	t.Run("slides past a block at the start", func(t *testing.T) {
		q := newAvailability(block(testNow, time.Hour, "appointment"))
		start, found, err := q.NextOpenSlot(t.Context(), specialistID, testNow, duration, window)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, start.Equal(testNow.Add(time.Hour)))
	})

	t.Run("fits in a gap between blocks", func(t *testing.T) {
		q := newAvailability(
			block(testNow, 30*time.Minute, "hold"),
			block(testNow.Add(time.Hour), time.Hour, "appointment"),
		)
		start, found, err := q.NextOpenSlot(t.Context(), specialistID, testNow, duration, window)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, start.Equal(testNow.Add(30*time.Minute)))
	})

	t.Run("gap shorter than the slot is skipped", func(t *testing.T) {
		q := newAvailability(
			block(testNow, 30*time.Minute, "hold"),
			// 15 minute gap, too small for a 30 minute slot.
			block(testNow.Add(45*time.Minute), time.Hour, "appointment"),
		)
		start, found, err := q.NextOpenSlot(t.Context(), specialistID, testNow, duration, window)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, start.Equal(testNow.Add(105*time.Minute)))
	})

	t.Run("unsorted input is handled", func(t *testing.T) {
		q := newAvailability(
			block(testNow.Add(30*time.Minute), 30*time.Minute, "appointment"),
			block(testNow, 30*time.Minute, "hold"),
		)
		start, found, err := q.NextOpenSlot(t.Context(), specialistID, testNow, duration, window)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, start.Equal(testNow.Add(time.Hour)))
	})

	t.Run("fully booked window reports no slot", func(t *testing.T) {
		q := newAvailability(block(testNow, window+time.Hour, "appointment"))
		_, found, err := q.NextOpenSlot(t.Context(), specialistID, testNow, duration, window)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		q := newAvailability()
		_, _, err := q.NextOpenSlot(t.Context(), specialistID, testNow, 0, window)
		assert.ErrorIs(t, err, queries.ErrInvalidWindow)

		_, _, err = q.NextOpenSlot(t.Context(), specialistID, testNow, duration, -time.Hour)
		assert.ErrorIs(t, err, queries.ErrInvalidWindow)
	})
}
