package hold

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotActive           = errors.New("hold is not active")
	ErrExpired             = errors.New("hold has expired")
	ErrAlreadyCommitted    = errors.New("hold is already committed")
	ErrAlreadyReleased     = errors.New("hold is already released")
	ErrLifetimeExceeded    = errors.New("hold lifetime limit exceeded")
	ErrNotOwnedByRequester = errors.New("hold is not owned by requester")
)

// Hold is a short-lived exclusive reservation of a time slot against a specialist.
type Hold struct {
	id           uuid.UUID
	specialistID uuid.UUID
	patientID    uuid.UUID
	slot         TimeSlot
	status       Status
	createdAt    time.Time
	expiresAt    time.Time
}

func NewHold(specialistID, patientID uuid.UUID, slot TimeSlot, now time.Time, ttl time.Duration) *Hold {
	return &Hold{
		id:           uuid.New(),
		specialistID: specialistID,
		patientID:    patientID,
		slot:         slot,
		status:       StatusActive,
		createdAt:    now.UTC(),
		expiresAt:    now.UTC().Add(ttl),
	}
}

func Reconstruct(
	id, specialistID, patientID uuid.UUID,
	slot TimeSlot,
	status Status,
	createdAt, expiresAt time.Time,
) *Hold {
	return &Hold{
		id:           id,
		specialistID: specialistID,
		patientID:    patientID,
		slot:         slot,
		status:       status,
		createdAt:    createdAt,
		expiresAt:    expiresAt,
	}
}

// HasExpired reports whether the TTL has passed, regardless of the stored status.
// The sweeper materializes this as StatusExpired; until then callers must treat
// an active-but-lapsed hold as expired.
func (h *Hold) HasExpired(now time.Time) bool {
	return !now.Before(h.expiresAt)
}

func (h *Hold) IsActiveAt(now time.Time) bool {
	return h.status == StatusActive && !h.HasExpired(now)
}

// Commit transitions active -> committed. Deterministic rejections mirror the
// caller-visible outcomes: committing an expired hold fails with ErrExpired even
// if the sweeper has not marked it yet.
func (h *Hold) Commit(now time.Time) error {
	switch h.status {
	case StatusCommitted:
		return ErrAlreadyCommitted
	case StatusReleased:
		return ErrAlreadyReleased
	case StatusExpired:
		return ErrExpired
	}
	if h.HasExpired(now) {
		h.status = StatusExpired
		return ErrExpired
	}
	h.status = StatusCommitted
	return nil
}

// Release transitions active -> released. Releasing a hold that is already in a
// terminal state is a no-op, so client retries are idempotent.
func (h *Hold) Release(requesterID uuid.UUID) error {
	if h.patientID != requesterID {
		return ErrNotOwnedByRequester
	}
	if h.status.IsTerminal() {
		return nil
	}
	h.status = StatusReleased
	return nil
}

// Renew extends the TTL while active, bounded by maxLifetime from creation.
func (h *Hold) Renew(now time.Time, ttl, maxLifetime time.Duration) error {
	if h.status != StatusActive {
		return ErrNotActive
	}
	if h.HasExpired(now) {
		h.status = StatusExpired
		return ErrExpired
	}
	next := now.UTC().Add(ttl)
	if next.Sub(h.createdAt) > maxLifetime {
		return ErrLifetimeExceeded
	}
	h.expiresAt = next
	return nil
}

func (h *Hold) ID() uuid.UUID           { return h.id }
func (h *Hold) SpecialistID() uuid.UUID { return h.specialistID }
func (h *Hold) PatientID() uuid.UUID    { return h.patientID }
func (h *Hold) Slot() TimeSlot          { return h.slot }
func (h *Hold) Status() Status          { return h.status }
func (h *Hold) CreatedAt() time.Time    { return h.createdAt }
func (h *Hold) ExpiresAt() time.Time    { return h.expiresAt }
