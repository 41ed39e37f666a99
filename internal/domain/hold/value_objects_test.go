//go:build unit

package hold_test

import (
	"testing"
	"time"

	"telehealth-core/internal/domain/hold"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func mustSlot(t *testing.T, start time.Time, duration time.Duration) hold.TimeSlot {
	t.Helper()
	slot, err := hold.NewTimeSlot(start, duration)
	require.NoError(t, err)
	return slot
}

func TestNewTimeSlot(t *testing.T) {
	t.Run("rejects non-positive duration", func(t *testing.T) {
		_, err := hold.NewTimeSlot(base, 0)
		assert.ErrorIs(t, err, hold.ErrInvalidDuration)

		_, err = hold.NewTimeSlot(base, -time.Minute)
		assert.ErrorIs(t, err, hold.ErrInvalidDuration)
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		jst := time.FixedZone("JST", 9*3600)
		slot := mustSlot(t, base.In(jst), 30*time.Minute)
		assert.Equal(t, time.UTC, slot.Start().Location())
		assert.True(t, slot.Start().Equal(base))
	})

	t.Run("future slot must start after now", func(t *testing.T) {
		_, err := hold.NewFutureTimeSlot(base, 30*time.Minute, base)
		assert.ErrorIs(t, err, hold.ErrStartInPast)

		_, err = hold.NewFutureTimeSlot(base.Add(time.Minute), 30*time.Minute, base)
		assert.NoError(t, err)
	})
}

func TestTimeSlotOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     hold.TimeSlot
		overlaps bool
	}{
		{
			name:     "identical intervals overlap",
			a:        mustSlot(t, base, 30*time.Minute),
			b:        mustSlot(t, base, 30*time.Minute),
			overlaps: true,
		},
		{
			name:     "partial overlap",
			a:        mustSlot(t, base, 30*time.Minute),
			b:        mustSlot(t, base.Add(15*time.Minute), 30*time.Minute),
			overlaps: true,
		},
		{
			name:     "containment",
			a:        mustSlot(t, base, time.Hour),
			b:        mustSlot(t, base.Add(15*time.Minute), 10*time.Minute),
			overlaps: true,
		},
		{
			name:     "back to back slots do not overlap",
			a:        mustSlot(t, base, 30*time.Minute),
			b:        mustSlot(t, base.Add(30*time.Minute), 30*time.Minute),
			overlaps: false,
		},
		{
			name:     "disjoint intervals",
			a:        mustSlot(t, base, 30*time.Minute),
			b:        mustSlot(t, base.Add(2*time.Hour), 30*time.Minute),
			overlaps: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.overlaps, tt.b.Overlaps(tt.a))
		})
	}
}

func TestTimeSlotAccessors(t *testing.T) {
	slot := mustSlot(t, base, 45*time.Minute)

	assert.True(t, slot.End().Equal(base.Add(45*time.Minute)))
	assert.Equal(t, 45, slot.DurationMinutes())
	assert.Equal(t, "[2026-03-10T09:00:00Z,2026-03-10T09:45:00Z)", slot.String())
}
