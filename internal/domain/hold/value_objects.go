package hold

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrStartInPast     = errors.New("start time cannot be in the past")
)

// TimeSlot is a half-open interval [start, start+duration) on a specialist's timeline.
type TimeSlot struct {
	start    time.Time
	duration time.Duration
}

func NewTimeSlot(start time.Time, duration time.Duration) (TimeSlot, error) {
	if duration <= 0 {
		return TimeSlot{}, ErrInvalidDuration
	}
	return TimeSlot{start: start.UTC(), duration: duration}, nil
}

// NewFutureTimeSlot additionally requires the slot to start after now.
func NewFutureTimeSlot(start time.Time, duration time.Duration, now time.Time) (TimeSlot, error) {
	slot, err := NewTimeSlot(start, duration)
	if err != nil {
		return TimeSlot{}, err
	}
	if !slot.start.After(now) {
		return TimeSlot{}, ErrStartInPast
	}
	return slot, nil
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.start.Add(ts.duration)
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.duration
}

func (ts TimeSlot) DurationMinutes() int {
	return int(ts.duration / time.Minute)
}

// Overlaps reports whether the two half-open intervals share any instant.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.End()) && other.start.Before(ts.End())
}

func (ts TimeSlot) String() string {
	return fmt.Sprintf("[%s,%s)", ts.start.Format(time.RFC3339), ts.End().Format(time.RFC3339))
}
