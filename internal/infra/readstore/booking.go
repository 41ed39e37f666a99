package readstore

import (
	"context"
	"encoding/json"
	"errors"

	"telehealth-core/internal/infra"
	"telehealth-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingReadStore struct {
	pool *pgxpool.Pool
}

func NewBookingReadStore(pool *pgxpool.Pool) *BookingReadStore {
	return &BookingReadStore{pool: pool}
}

func (s *BookingReadStore) AppointmentByID(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	const query = `
SELECT a.id, a.hold_id, a.specialist_id, sp.name, a.patient_id,
       a.start_time, a.duration_minutes, a.status, a.fee_cents, a.currency, a.metadata,
       a.created_at, a.updated_at
FROM appointments a
JOIN specialists sp ON sp.id = a.specialist_id
WHERE a.id = $1`

	var (
		view        queries.AppointmentView
		metadataRaw []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&view.ID, &view.HoldID, &view.SpecialistID, &view.SpecialistName, &view.PatientID,
		&view.StartTime, &view.DurationMinutes, &view.Status, &view.FeeCents, &view.Currency, &metadataRaw,
		&view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidUUID(err) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "appointment not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "query appointment view", err)
	}

	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &view.Metadata); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "unmarshal appointment metadata", err)
		}
	}
	return &view, nil
}

func (s *BookingReadStore) HoldByID(ctx context.Context, id uuid.UUID) (*queries.HoldView, error) {
	const query = `
SELECT id, specialist_id, patient_id, start_time, duration_minutes, status, created_at, expires_at
FROM holds
WHERE id = $1`

	var view queries.HoldView
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&view.ID, &view.SpecialistID, &view.PatientID,
		&view.StartTime, &view.DurationMinutes, &view.Status,
		&view.CreatedAt, &view.ExpiresAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidUUID(err) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "hold not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "query hold view", err)
	}
	return &view, nil
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
