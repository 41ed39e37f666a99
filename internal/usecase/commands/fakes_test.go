//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"telehealth-core/internal/domain/appointment"
	"telehealth-core/internal/domain/hold"
	"telehealth-core/internal/domain/specialist"
	"telehealth-core/internal/infra"
	"telehealth-core/internal/infra/directory"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/pkg/errs"
	"telehealth-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// assertIs matches through errs.Mark chains, which stdlib errors.Is cannot see.
func assertIs(t *testing.T, err, want error) {
	t.Helper()
	assert.True(t, errs.Is(err, want), "expected %v in chain, got %v", want, err)
}

// fakeUoW runs the closure directly; transactional semantics are covered by
// repository integration tests, here we only exercise command logic.
type fakeUoW struct{}

func (fakeUoW) Within(ctx context.Context, fn func(context.Context, infra.DBTX) error) error {
	return fn(ctx, nil)
}

func (fakeUoW) WithDB(ctx context.Context, fn func(context.Context, infra.DBTX) error) error {
	return fn(ctx, nil)
}

type fakeHoldLedger struct {
	lockErr        error
	locked         []uuid.UUID
	overlap        bool
	existing       *hold.Hold
	byID           map[uuid.UUID]*hold.Hold
	created        []*hold.Hold
	createErr      error
	statusUpdates  []string
	updateStatusOK bool
	expiryUpdates  []time.Time
}

func newFakeHoldLedger() *fakeHoldLedger {
	return &fakeHoldLedger{byID: map[uuid.UUID]*hold.Hold{}, updateStatusOK: true}
}

func (f *fakeHoldLedger) LockSpecialistTimeline(_ context.Context, _ infra.DBTX, specialistID uuid.UUID) error {
	if f.lockErr != nil {
		return f.lockErr
	}
	f.locked = append(f.locked, specialistID)
	return nil
}

func (f *fakeHoldLedger) HasOverlap(_ context.Context, _ infra.DBTX, _ uuid.UUID, _ hold.TimeSlot, _ time.Time) (bool, error) {
	return f.overlap, nil
}

func (f *fakeHoldLedger) FindActiveByPatientSlot(_ context.Context, _ infra.DBTX, _, _ uuid.UUID, _ hold.TimeSlot, _ time.Time) (*hold.Hold, error) {
	return f.existing, nil
}

func (f *fakeHoldLedger) Create(_ context.Context, _ infra.DBTX, h *hold.Hold) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, h)
	f.byID[h.ID()] = h
	return nil
}

func (f *fakeHoldLedger) FindByIDForUpdate(_ context.Context, _ infra.DBTX, id uuid.UUID) (*hold.Hold, error) {
	h, ok := f.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "hold not found", nil)
	}
	return h, nil
}

func (f *fakeHoldLedger) UpdateStatus(_ context.Context, _ infra.DBTX, id uuid.UUID, from, to hold.Status) (bool, error) {
	f.statusUpdates = append(f.statusUpdates, id.String()+":"+from.String()+"->"+to.String())
	return f.updateStatusOK, nil
}

func (f *fakeHoldLedger) UpdateExpiry(_ context.Context, _ infra.DBTX, _ uuid.UUID, expiresAt time.Time) (bool, error) {
	f.expiryUpdates = append(f.expiryUpdates, expiresAt)
	return true, nil
}

type fakeAppointmentLedger struct {
	byID      map[uuid.UUID]*appointment.Appointment
	created   []*appointment.Appointment
	createErr error
	updates   []appointment.Status
}

func newFakeAppointmentLedger() *fakeAppointmentLedger {
	return &fakeAppointmentLedger{byID: map[uuid.UUID]*appointment.Appointment{}}
}

func (f *fakeAppointmentLedger) Create(_ context.Context, _ infra.DBTX, a *appointment.Appointment, _ time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, a)
	f.byID[a.ID()] = a
	return nil
}

func (f *fakeAppointmentLedger) FindByHoldID(_ context.Context, _ infra.DBTX, holdID uuid.UUID) (*appointment.Appointment, error) {
	for _, a := range f.byID {
		if a.HoldID() == holdID {
			return a, nil
		}
	}
	return nil, infra.WrapRepoErr(infra.KindNotFound, "appointment not found", nil)
}

func (f *fakeAppointmentLedger) FindByIDForUpdate(_ context.Context, _ infra.DBTX, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "appointment not found", nil)
	}
	return a, nil
}

func (f *fakeAppointmentLedger) UpdateStatus(_ context.Context, _ infra.DBTX, _ uuid.UUID, to appointment.Status, _ time.Time) error {
	f.updates = append(f.updates, to)
	return nil
}

type fakeSpecialistReader struct {
	byID map[uuid.UUID]*specialist.Specialist
}

func newFakeSpecialistReader(specs ...*specialist.Specialist) *fakeSpecialistReader {
	f := &fakeSpecialistReader{byID: map[uuid.UUID]*specialist.Specialist{}}
	for _, s := range specs {
		f.byID[s.ID()] = s
	}
	return f
}

func (f *fakeSpecialistReader) FindByID(_ context.Context, _ infra.DBTX, id uuid.UUID) (*specialist.Specialist, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "specialist not found", nil)
	}
	return s, nil
}

func (f *fakeSpecialistReader) FindByIDs(_ context.Context, _ infra.DBTX, ids []uuid.UUID) ([]*specialist.Specialist, error) {
	out := make([]*specialist.Specialist, 0, len(ids))
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakePresence struct {
	entries  []directory.PresenceEntry
	recorded []uuid.UUID
	released []uuid.UUID
}

func (f *fakePresence) Snapshot(_ context.Context, _ time.Time) ([]directory.PresenceEntry, error) {
	return f.entries, nil
}

func (f *fakePresence) RecordAssignment(_ context.Context, specialistID uuid.UUID, _ time.Time) error {
	f.recorded = append(f.recorded, specialistID)
	return nil
}

func (f *fakePresence) ReleaseAssignment(_ context.Context, specialistID uuid.UUID) error {
	f.released = append(f.released, specialistID)
	return nil
}

type fakeBookingReadStore struct {
	appointments map[uuid.UUID]*queries.AppointmentView
	holds        map[uuid.UUID]*queries.HoldView
}

func newFakeBookingReadStore() *fakeBookingReadStore {
	return &fakeBookingReadStore{
		appointments: map[uuid.UUID]*queries.AppointmentView{},
		holds:        map[uuid.UUID]*queries.HoldView{},
	}
}

func (f *fakeBookingReadStore) AppointmentByID(_ context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	v, ok := f.appointments[id]
	if !ok {
		// Commit reads its own write; the fake mirrors that by synthesizing a
		// minimal view.
		return &queries.AppointmentView{ID: id}, nil
	}
	return v, nil
}

func (f *fakeBookingReadStore) HoldByID(_ context.Context, id uuid.UUID) (*queries.HoldView, error) {
	v, ok := f.holds[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "hold not found", nil)
	}
	return v, nil
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		HoldTTL:         time.Minute,
		MaxHoldLifetime: 10 * time.Minute,
		CommitRetries:   3,
	}
}

func testSpecialist(id uuid.UUID) *specialist.Specialist {
	s, err := specialist.NewSpecialist(id, "Dr. Chen", 0, []string{"en"}, 4.5, true, []string{"video"})
	if err != nil {
		panic(err)
	}
	return s
}
