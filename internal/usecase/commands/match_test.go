//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"telehealth-core/internal/domain/match"
	"telehealth-core/internal/domain/specialist"
	"telehealth-core/internal/infra/directory"
	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/usecase/commands"
	"telehealth-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAvailability struct {
	nextOpen map[uuid.UUID]time.Time
	// idle marks specialists with an empty calendar: the first open slot is
	// whatever search start the caller passed in, as the real query does.
	idle map[uuid.UUID]bool
}

func (f *fakeAvailability) Occupied(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]queries.OccupiedInterval, error) {
	return nil, nil
}

func (f *fakeAvailability) NextOpenSlot(_ context.Context, specialistID uuid.UUID, from time.Time, _, _ time.Duration) (time.Time, bool, error) {
	if f.idle[specialistID] {
		return from, true, nil
	}
	start, ok := f.nextOpen[specialistID]
	return start, ok, nil
}

type fakeHoldCommands struct {
	conflicting map[uuid.UUID]bool
	reserved    []commands.ReserveInput
}

func (f *fakeHoldCommands) Reserve(_ context.Context, in commands.ReserveInput) (*commands.ReserveResult, error) {
	if f.conflicting[in.SpecialistID] {
		return nil, commands.ErrSlotConflict
	}
	f.reserved = append(f.reserved, in)
	return &commands.ReserveResult{Hold: &queries.HoldView{
		ID:           uuid.New(),
		SpecialistID: in.SpecialistID,
		PatientID:    in.PatientID,
		StartTime:    in.StartTime,
		Status:       "active",
	}}, nil
}

func (f *fakeHoldCommands) Release(_ context.Context, _, _ uuid.UUID) (*queries.HoldView, error) {
	return nil, nil
}

func (f *fakeHoldCommands) Renew(_ context.Context, _, _ uuid.UUID) (*queries.HoldView, error) {
	return nil, nil
}

type rejectPredicate struct {
	rejected map[uuid.UUID]bool
}

func (p rejectPredicate) Eligible(_ context.Context, id uuid.UUID, _ match.Request) (bool, error) {
	return !p.rejected[id], nil
}

type matchFixture struct {
	specialists  *fakeSpecialistReader
	presence     *fakePresence
	availability *fakeAvailability
	holds        *fakeHoldCommands
	eligibility  match.EligibilityPredicate
	clock        *clock.MockClock
}

func (f *matchFixture) build() commands.MatchCommands {
	cfg := config.MatchConfig{MaxAttempts: 3, SlotDuration: 30 * time.Minute, SearchWindow: 4 * time.Hour}
	if f.eligibility == nil {
		f.eligibility = match.AllowAll{}
	}
	return commands.NewMatchCommands(
		f.specialists, f.presence, f.availability, f.holds, f.eligibility, fakeUoW{}, f.clock, cfg, nil,
	)
}

// onlineSpecialist registers a specialist in both the durable directory and
// the live presence snapshot.
func onlineSpecialist(f *matchFixture, tzOffset int, rating float64, inFlight int) uuid.UUID {
	id := uuid.New()
	s, err := specialist.NewSpecialist(id, "Dr. Ito", tzOffset, []string{"en"}, rating, true, []string{"video"})
	if err != nil {
		panic(err)
	}
	f.specialists.byID[id] = s
	f.presence.entries = append(f.presence.entries, directory.PresenceEntry{
		SpecialistID: id,
		Accepting:    true,
		InFlight:     inFlight,
	})
	f.availability.nextOpen[id] = testNow.Add(time.Hour)
	return id
}

func newMatchFixture() *matchFixture {
	return &matchFixture{
		specialists:  newFakeSpecialistReader(),
		presence:     &fakePresence{},
		availability: &fakeAvailability{nextOpen: map[uuid.UUID]time.Time{}, idle: map[uuid.UUID]bool{}},
		holds:        &fakeHoldCommands{conflicting: map[uuid.UUID]bool{}},
		clock:        clock.NewMockClock(testNow),
	}
}

func matchInput() commands.FindMatchInput {
	return commands.FindMatchInput{
		PatientID:        uuid.New(),
		Language:         "en",
		ConsultationType: "video",
	}
}

func TestFindMatch(t *testing.T) {
	t.Run("best ranked candidate gets the hold", func(t *testing.T) {
		f := newMatchFixture()
		_ = onlineSpecialist(f, 0, 3.0, 2)
		best := onlineSpecialist(f, 0, 5.0, 0)

		res, err := f.build().FindMatch(t.Context(), matchInput())
		require.NoError(t, err)
		assert.Equal(t, best, res.SpecialistID)
		assert.Equal(t, 1, res.Attempts)
		assert.Equal(t, []uuid.UUID{best}, f.presence.recorded)
	})

	t.Run("conflict moves the search to the next candidate", func(t *testing.T) {
		f := newMatchFixture()
		second := onlineSpecialist(f, 0, 3.0, 1)
		first := onlineSpecialist(f, 0, 5.0, 0)
		f.holds.conflicting[first] = true

		res, err := f.build().FindMatch(t.Context(), matchInput())
		require.NoError(t, err)
		assert.Equal(t, second, res.SpecialistID)
		assert.Equal(t, 2, res.Attempts)
	})

	t.Run("no online specialists", func(t *testing.T) {
		f := newMatchFixture()

		_, err := f.build().FindMatch(t.Context(), matchInput())
		assertIs(t, err, commands.ErrNoneAvailable)
	})

	t.Run("all candidates conflicting exhausts the attempts", func(t *testing.T) {
		f := newMatchFixture()
		for i := 0; i < 3; i++ {
			id := onlineSpecialist(f, 0, 4.0, i)
			f.holds.conflicting[id] = true
		}

		_, err := f.build().FindMatch(t.Context(), matchInput())
		assertIs(t, err, commands.ErrMatchExhausted)
	})

	t.Run("fully booked candidate is skipped without an attempt", func(t *testing.T) {
		f := newMatchFixture()
		booked := onlineSpecialist(f, 0, 5.0, 0)
		delete(f.availability.nextOpen, booked)
		open := onlineSpecialist(f, 0, 3.0, 1)

		res, err := f.build().FindMatch(t.Context(), matchInput())
		require.NoError(t, err)
		assert.Equal(t, open, res.SpecialistID)
	})

	t.Run("ineligible candidates never reach reservation", func(t *testing.T) {
		f := newMatchFixture()
		blocked := onlineSpecialist(f, 0, 5.0, 0)
		allowed := onlineSpecialist(f, 0, 3.0, 1)
		f.eligibility = rejectPredicate{rejected: map[uuid.UUID]bool{blocked: true}}

		res, err := f.build().FindMatch(t.Context(), matchInput())
		require.NoError(t, err)
		assert.Equal(t, allowed, res.SpecialistID)
		require.Len(t, f.holds.reserved, 1)
		assert.Equal(t, allowed, f.holds.reserved[0].SpecialistID)
	})

	t.Run("empty calendar reserves a slot strictly ahead of now", func(t *testing.T) {
		f := newMatchFixture()
		id := onlineSpecialist(f, 0, 4.0, 0)
		f.availability.idle[id] = true

		res, err := f.build().FindMatch(t.Context(), matchInput())
		require.NoError(t, err)
		assert.Equal(t, id, res.SpecialistID)
		require.Len(t, f.holds.reserved, 1)
		// A wide-open calendar must not hand back the current instant, which
		// the reservation path rejects as a past start.
		assert.True(t, f.holds.reserved[0].StartTime.After(testNow))
	})

	t.Run("reserved slot uses the configured duration", func(t *testing.T) {
		f := newMatchFixture()
		id := onlineSpecialist(f, 0, 4.0, 0)

		_, err := f.build().FindMatch(t.Context(), matchInput())
		require.NoError(t, err)
		require.Len(t, f.holds.reserved, 1)
		assert.Equal(t, 30*time.Minute, f.holds.reserved[0].Duration)
		assert.True(t, f.holds.reserved[0].StartTime.Equal(f.availability.nextOpen[id]))
	})
}
