package appointment

import (
	"errors"
	"time"

	"telehealth-core/internal/domain/hold"

	"github.com/google/uuid"
)

var (
	ErrHoldNotCommitted = errors.New("appointment requires a committed hold")
	ErrAlreadyCancelled = errors.New("appointment is already cancelled")
	ErrAlreadyCompleted = errors.New("appointment is already completed")
)

// Metadata carries consultation type, urgency, chief complaint and similar
// attributes that are opaque to the booking core.
type Metadata map[string]string

// Appointment is the durable booking derived 1:1 from a committed hold.
type Appointment struct {
	id           uuid.UUID
	holdID       uuid.UUID
	specialistID uuid.UUID
	patientID    uuid.UUID
	slot         hold.TimeSlot
	status       Status
	fee          Money
	metadata     Metadata
	createdAt    time.Time
	updatedAt    time.Time
}

// FromCommittedHold is the only constructor for new appointments: no other code
// path may create one.
func FromCommittedHold(h *hold.Hold, fee Money, metadata Metadata) (*Appointment, error) {
	if h.Status() != hold.StatusCommitted {
		return nil, ErrHoldNotCommitted
	}
	return &Appointment{
		id:           uuid.New(),
		holdID:       h.ID(),
		specialistID: h.SpecialistID(),
		patientID:    h.PatientID(),
		slot:         h.Slot(),
		status:       StatusPending,
		fee:          fee,
		metadata:     metadata,
	}, nil
}

func Reconstruct(
	id, holdID, specialistID, patientID uuid.UUID,
	slot hold.TimeSlot,
	status Status,
	fee Money,
	metadata Metadata,
	createdAt, updatedAt time.Time,
) *Appointment {
	return &Appointment{
		id:           id,
		holdID:       holdID,
		specialistID: specialistID,
		patientID:    patientID,
		slot:         slot,
		status:       status,
		fee:          fee,
		metadata:     metadata,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (a *Appointment) Confirm() error {
	switch a.status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	a.status = StatusConfirmed
	return nil
}

// Cancel releases the interval on the slot ledger so it becomes bookable again.
func (a *Appointment) Cancel() error {
	switch a.status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	a.status = StatusCancelled
	return nil
}

func (a *Appointment) Complete() error {
	switch a.status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	a.status = StatusCompleted
	return nil
}

func (a *Appointment) ID() uuid.UUID           { return a.id }
func (a *Appointment) HoldID() uuid.UUID       { return a.holdID }
func (a *Appointment) SpecialistID() uuid.UUID { return a.specialistID }
func (a *Appointment) PatientID() uuid.UUID    { return a.patientID }
func (a *Appointment) Slot() hold.TimeSlot     { return a.slot }
func (a *Appointment) Status() Status          { return a.status }
func (a *Appointment) Fee() Money              { return a.fee }
func (a *Appointment) Metadata() Metadata      { return a.metadata }
func (a *Appointment) CreatedAt() time.Time    { return a.createdAt }
func (a *Appointment) UpdatedAt() time.Time    { return a.updatedAt }
