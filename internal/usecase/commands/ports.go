package commands

import (
	"context"
	"time"

	"telehealth-core/internal/domain/appointment"
	"telehealth-core/internal/domain/hold"
	"telehealth-core/internal/domain/specialist"
	"telehealth-core/internal/infra"
	"telehealth-core/internal/infra/directory"

	"github.com/google/uuid"
)

// HoldLedger is the write port onto the holds side of the slot ledger.
type HoldLedger interface {
	LockSpecialistTimeline(ctx context.Context, db infra.DBTX, specialistID uuid.UUID) error
	HasOverlap(ctx context.Context, db infra.DBTX, specialistID uuid.UUID, slot hold.TimeSlot, now time.Time) (bool, error)
	FindActiveByPatientSlot(ctx context.Context, db infra.DBTX, specialistID, patientID uuid.UUID, slot hold.TimeSlot, now time.Time) (*hold.Hold, error)
	Create(ctx context.Context, db infra.DBTX, h *hold.Hold) error
	FindByIDForUpdate(ctx context.Context, db infra.DBTX, id uuid.UUID) (*hold.Hold, error)
	UpdateStatus(ctx context.Context, db infra.DBTX, id uuid.UUID, from, to hold.Status) (bool, error)
	UpdateExpiry(ctx context.Context, db infra.DBTX, id uuid.UUID, expiresAt time.Time) (bool, error)
}

// AppointmentLedger is the write port onto the appointments side of the ledger.
type AppointmentLedger interface {
	Create(ctx context.Context, db infra.DBTX, a *appointment.Appointment, now time.Time) error
	FindByHoldID(ctx context.Context, db infra.DBTX, holdID uuid.UUID) (*appointment.Appointment, error)
	FindByIDForUpdate(ctx context.Context, db infra.DBTX, id uuid.UUID) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, db infra.DBTX, id uuid.UUID, to appointment.Status, now time.Time) error
}

// SpecialistReader reads directory attributes owned by the specialist service.
type SpecialistReader interface {
	FindByID(ctx context.Context, db infra.DBTX, id uuid.UUID) (*specialist.Specialist, error)
	FindByIDs(ctx context.Context, db infra.DBTX, ids []uuid.UUID) ([]*specialist.Specialist, error)
}

// PresenceDirectory is the live online/load view used by the match engine.
// Its snapshot is advisory: exclusivity is always re-validated through Reserve.
type PresenceDirectory interface {
	Snapshot(ctx context.Context, now time.Time) ([]directory.PresenceEntry, error)
	RecordAssignment(ctx context.Context, specialistID uuid.UUID, now time.Time) error
	ReleaseAssignment(ctx context.Context, specialistID uuid.UUID) error
}
