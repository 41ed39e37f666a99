package queries

import (
	"context"
	"time"

	"telehealth-core/internal/infra"
	"telehealth-core/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errs.New("appointment not found")
	ErrHoldNotFound        = errs.New("hold not found")
)

type AppointmentView struct {
	ID              uuid.UUID
	HoldID          uuid.UUID
	SpecialistID    uuid.UUID
	SpecialistName  string
	PatientID       uuid.UUID
	StartTime       time.Time
	DurationMinutes int
	Status          string
	FeeCents        int64
	Currency        string
	Metadata        map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type HoldView struct {
	ID              uuid.UUID
	SpecialistID    uuid.UUID
	PatientID       uuid.UUID
	StartTime       time.Time
	DurationMinutes int
	Status          string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

type BookingReadStore interface {
	AppointmentByID(ctx context.Context, id uuid.UUID) (*AppointmentView, error)
	HoldByID(ctx context.Context, id uuid.UUID) (*HoldView, error)
}

type BookingQueries interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentView, error)
	GetHold(ctx context.Context, id uuid.UUID) (*HoldView, error)
}

type bookingQueriesImpl struct {
	readStore BookingReadStore
}

func NewBookingQueries(readStore BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{readStore: readStore}
}

func (q *bookingQueriesImpl) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentView, error) {
	view, err := q.readStore.AppointmentByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, errs.Wrap(err, "failed to find appointment")
	}
	return view, nil
}

func (q *bookingQueriesImpl) GetHold(ctx context.Context, id uuid.UUID) (*HoldView, error) {
	view, err := q.readStore.HoldByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, errs.Wrap(err, "failed to find hold")
	}
	return view, nil
}
