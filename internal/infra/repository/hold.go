package repository

import (
	"context"
	"time"

	"telehealth-core/internal/domain/hold"
	"telehealth-core/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// HoldRepository is the write side of the slot ledger for holds. All methods
// take an explicit DBTX so callers control the transaction boundary.
type HoldRepository struct{}

func NewHoldRepository() *HoldRepository {
	return &HoldRepository{}
}

// LockSpecialistTimeline serializes writers on one specialist's timeline via a
// row lock. Contending Reserve/Commit calls for the same specialist queue here;
// unrelated specialists are unaffected.
func (r *HoldRepository) LockSpecialistTimeline(ctx context.Context, db infra.DBTX, specialistID uuid.UUID) error {
	const query = `SELECT id FROM specialists WHERE id = $1 FOR UPDATE`

	var id uuid.UUID
	if err := db.QueryRow(ctx, query, specialistID).Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return infra.WrapRepoErr(infra.KindNotFound, "specialist not found", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "lock specialist timeline", err)
	}
	return nil
}

// HasOverlap reports whether any active unexpired hold or occupying appointment
// overlaps [start, start+duration) for the specialist. Must run after
// LockSpecialistTimeline within the same transaction.
func (r *HoldRepository) HasOverlap(ctx context.Context, db infra.DBTX, specialistID uuid.UUID, slot hold.TimeSlot, now time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM holds
    WHERE specialist_id = $1
      AND status = 'active'
      AND expires_at > $2
      AND start_time < $4
      AND start_time + make_interval(mins => duration_minutes) > $3
) OR EXISTS (
    SELECT 1 FROM appointments
    WHERE specialist_id = $1
      AND status <> 'cancelled'
      AND start_time < $4
      AND start_time + make_interval(mins => duration_minutes) > $3
)`

	var overlaps bool
	if err := db.QueryRow(ctx, query, specialistID, now, slot.Start(), slot.End()).Scan(&overlaps); err != nil {
		return false, infra.WrapRepoErr(infra.KindDBFailure, "check slot overlap", err)
	}
	return overlaps, nil
}

// FindActiveByPatientSlot returns the patient's own active hold on the exact
// interval, if any, so a duplicate Reserve replays instead of conflicting.
func (r *HoldRepository) FindActiveByPatientSlot(ctx context.Context, db infra.DBTX, specialistID, patientID uuid.UUID, slot hold.TimeSlot, now time.Time) (*hold.Hold, error) {
	const query = `
SELECT id, specialist_id, patient_id, start_time, duration_minutes, status, created_at, expires_at
FROM holds
WHERE specialist_id = $1 AND patient_id = $2
  AND start_time = $3 AND duration_minutes = $4
  AND status = 'active' AND expires_at > $5`

	h, err := scanHold(db.QueryRow(ctx, query, specialistID, patientID, slot.Start(), slot.DurationMinutes(), now))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "find active hold by patient slot", err)
	}
	return h, nil
}

func (r *HoldRepository) Create(ctx context.Context, db infra.DBTX, h *hold.Hold) error {
	const stmt = `
INSERT INTO holds (id, specialist_id, patient_id, start_time, duration_minutes, status, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db.Exec(ctx, stmt,
		h.ID(),
		h.SpecialistID(),
		h.PatientID(),
		h.Slot().Start(),
		h.Slot().DurationMinutes(),
		h.Status().String(),
		h.CreatedAt(),
		h.ExpiresAt(),
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "create hold", err)
	}
	return nil
}

// FindByIDForUpdate row-locks the hold so Commit, Release, Renew and the
// sweeper cannot interleave on the same hold.
func (r *HoldRepository) FindByIDForUpdate(ctx context.Context, db infra.DBTX, id uuid.UUID) (*hold.Hold, error) {
	const query = `
SELECT id, specialist_id, patient_id, start_time, duration_minutes, status, created_at, expires_at
FROM holds
WHERE id = $1
FOR UPDATE`

	h, err := scanHold(db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidUUID(err) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "hold not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "find hold for update", err)
	}
	return h, nil
}

// UpdateStatus performs the conditional transition from -> to and reports
// whether a row changed. A zero-row update means another transaction won.
func (r *HoldRepository) UpdateStatus(ctx context.Context, db infra.DBTX, id uuid.UUID, from, to hold.Status) (bool, error) {
	const stmt = `UPDATE holds SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := db.Exec(ctx, stmt, id, from.String(), to.String())
	if err != nil {
		return false, infra.WrapRepoErr(infra.KindDBFailure, "update hold status", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateExpiry persists a renewed TTL; succeeds only while still active.
func (r *HoldRepository) UpdateExpiry(ctx context.Context, db infra.DBTX, id uuid.UUID, expiresAt time.Time) (bool, error) {
	const stmt = `UPDATE holds SET expires_at = $2 WHERE id = $1 AND status = 'active'`

	tag, err := db.Exec(ctx, stmt, id, expiresAt)
	if err != nil {
		return false, infra.WrapRepoErr(infra.KindDBFailure, "update hold expiry", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ExpireBatch reclaims lapsed holds: active AND expires_at <= now -> expired.
// The status guard makes it safe against a concurrent Commit; whichever
// transaction lands first wins and the other's update affects zero rows.
func (r *HoldRepository) ExpireBatch(ctx context.Context, db infra.DBTX, now time.Time, limit int) (int64, error) {
	const stmt = `
UPDATE holds SET status = 'expired'
WHERE id IN (
    SELECT id FROM holds
    WHERE status = 'active' AND expires_at <= $1
    ORDER BY expires_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)
AND status = 'active'`

	tag, err := db.Exec(ctx, stmt, now, limit)
	if err != nil {
		return 0, infra.WrapRepoErr(infra.KindDBFailure, "expire hold batch", err)
	}
	return tag.RowsAffected(), nil
}

func scanHold(row pgx.Row) (*hold.Hold, error) {
	var (
		id, specialistID, patientID uuid.UUID
		startTime                   time.Time
		durationMinutes             int
		status                      string
		createdAt, expiresAt        time.Time
	)
	if err := row.Scan(&id, &specialistID, &patientID, &startTime, &durationMinutes, &status, &createdAt, &expiresAt); err != nil {
		return nil, err
	}

	slot, err := hold.NewTimeSlot(startTime, time.Duration(durationMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	return hold.Reconstruct(id, specialistID, patientID, slot, hold.Status(status), createdAt, expiresAt), nil
}
