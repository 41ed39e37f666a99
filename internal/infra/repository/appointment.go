package repository

import (
	"context"
	"encoding/json"
	"time"

	"telehealth-core/internal/domain/appointment"
	"telehealth-core/internal/domain/hold"
	"telehealth-core/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AppointmentRepository struct{}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{}
}

func (r *AppointmentRepository) Create(ctx context.Context, db infra.DBTX, a *appointment.Appointment, now time.Time) error {
	const stmt = `
INSERT INTO appointments (id, hold_id, specialist_id, patient_id, start_time, duration_minutes, status, fee_cents, currency, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	metadata, err := json.Marshal(a.Metadata())
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "marshal appointment metadata", err)
	}

	_, err = db.Exec(ctx, stmt,
		a.ID(),
		a.HoldID(),
		a.SpecialistID(),
		a.PatientID(),
		a.Slot().Start(),
		a.Slot().DurationMinutes(),
		a.Status().String(),
		a.Fee().Cents(),
		a.Fee().Currency(),
		metadata,
		now,
	)
	if err != nil {
		if name, ok := uniqueViolationConstraint(err); ok {
			// uq_appointments_timeline is the schema-level double-booking
			// backstop; any other unique hit is the 1:1 hold->appointment
			// invariant on hold_id.
			if name == "uq_appointments_timeline" {
				return infra.WrapRepoErr(infra.KindConflict, "interval already booked", err)
			}
			return infra.WrapRepoErr(infra.KindDuplicateKey, "appointment already exists for hold", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "create appointment", err)
	}
	return nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, db infra.DBTX, id uuid.UUID) (*appointment.Appointment, error) {
	const query = appointmentSelect + ` WHERE id = $1`
	return r.findOne(ctx, db, query, id)
}

func (r *AppointmentRepository) FindByHoldID(ctx context.Context, db infra.DBTX, holdID uuid.UUID) (*appointment.Appointment, error) {
	const query = appointmentSelect + ` WHERE hold_id = $1`
	return r.findOne(ctx, db, query, holdID)
}

// FindByIDForUpdate row-locks the appointment for lifecycle transitions.
func (r *AppointmentRepository) FindByIDForUpdate(ctx context.Context, db infra.DBTX, id uuid.UUID) (*appointment.Appointment, error) {
	const query = appointmentSelect + ` WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, db, query, id)
}

// UpdateStatus materializes a lifecycle transition decided on the entity.
// Cancellation retracts the ledger interval because the overlap check skips
// cancelled rows.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, db infra.DBTX, id uuid.UUID, to appointment.Status, now time.Time) error {
	const stmt = `UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := db.Exec(ctx, stmt, id, to.String(), now)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "update appointment status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(infra.KindNotFound, "appointment not found", nil)
	}
	return nil
}

const appointmentSelect = `
SELECT id, hold_id, specialist_id, patient_id, start_time, duration_minutes, status, fee_cents, currency, metadata, created_at, updated_at
FROM appointments`

func (r *AppointmentRepository) findOne(ctx context.Context, db infra.DBTX, query string, arg any) (*appointment.Appointment, error) {
	var (
		id, holdID, specialistID, patientID uuid.UUID
		startTime                           time.Time
		durationMinutes                     int
		status, currency                    string
		feeCents                            int64
		metadataRaw                         []byte
		createdAt, updatedAt                time.Time
	)

	err := db.QueryRow(ctx, query, arg).Scan(
		&id, &holdID, &specialistID, &patientID,
		&startTime, &durationMinutes, &status,
		&feeCents, &currency, &metadataRaw,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidUUID(err) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "appointment not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "find appointment", err)
	}

	slot, err := hold.NewTimeSlot(startTime, time.Duration(durationMinutes)*time.Minute)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "invalid appointment interval", err)
	}

	fee, err := appointment.NewMoney(feeCents, currency)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "invalid appointment fee", err)
	}

	var metadata appointment.Metadata
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "unmarshal appointment metadata", err)
		}
	}

	return appointment.Reconstruct(
		id, holdID, specialistID, patientID,
		slot, appointment.Status(status), fee, metadata,
		createdAt, updatedAt,
	), nil
}
