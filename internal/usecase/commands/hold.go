package commands

import (
	"context"
	"log/slog"
	"time"

	"telehealth-core/internal/domain/hold"
	"telehealth-core/internal/infra"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/pkg/errs"
	"telehealth-core/internal/pkg/metrics"
	"telehealth-core/internal/usecase/queries"

	"github.com/google/uuid"
)

var (
	ErrSpecialistNotFound      = errs.New("specialist not found")
	ErrSpecialistNotBookable   = errs.New("specialist not bookable for this consultation")
	ErrInvalidSlot             = errs.New("invalid time slot")
	ErrSlotConflict            = errs.New("time slot conflict")
	ErrHoldNotFound            = errs.New("hold not found")
	ErrHoldExpired             = errs.New("hold expired")
	ErrHoldAlreadyCommitted    = errs.New("hold already committed")
	ErrHoldAlreadyReleased     = errs.New("hold already released")
	ErrHoldLifetimeExceeded    = errs.New("hold lifetime limit exceeded")
	ErrNotHoldOwner            = errs.New("hold not owned by requester")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type ReserveInput struct {
	SpecialistID     uuid.UUID
	PatientID        uuid.UUID
	StartTime        time.Time
	Duration         time.Duration
	ConsultationType string
}

type ReserveResult struct {
	Hold *queries.HoldView
	// Replayed is true when the patient already held this exact interval and
	// the existing hold was returned instead of a Conflict.
	Replayed bool
}

type HoldCommands interface {
	Reserve(ctx context.Context, in ReserveInput) (*ReserveResult, error)
	Release(ctx context.Context, holdID, requesterID uuid.UUID) (*queries.HoldView, error)
	Renew(ctx context.Context, holdID, requesterID uuid.UUID) (*queries.HoldView, error)
}

type holdCommandsImpl struct {
	holds       HoldLedger
	specialists SpecialistReader
	presence    PresenceDirectory
	uow         uow.UnitOfWork
	clock       clock.Clock
	cfg         config.BookingConfig
	metrics     *metrics.BookingMetrics
}

func NewHoldCommands(
	holds HoldLedger,
	specialists SpecialistReader,
	presence PresenceDirectory,
	unitOfWork uow.UnitOfWork,
	clk clock.Clock,
	cfg config.BookingConfig,
	m *metrics.BookingMetrics,
) HoldCommands {
	return &holdCommandsImpl{
		holds:       holds,
		specialists: specialists,
		presence:    presence,
		uow:         unitOfWork,
		clock:       clk,
		cfg:         cfg,
		metrics:     m,
	}
}

// Reserve places a short-lived exclusive hold on [start, start+duration) for
// the specialist. The transaction's row lock on the specialist timeline is the
// correctness mechanism: concurrent reservations for the same specialist
// serialize here, so exactly one of N overlapping attempts wins.
func (c *holdCommandsImpl) Reserve(ctx context.Context, in ReserveInput) (*ReserveResult, error) {
	now := c.clock.Now()

	slot, err := hold.NewFutureTimeSlot(in.StartTime, in.Duration, now)
	if err != nil {
		c.metrics.ObserveReserve("invalid")
		return nil, errs.Mark(err, ErrInvalidSlot)
	}

	var result *ReserveResult
	err = c.uow.Within(ctx, func(ctx context.Context, tx infra.DBTX) error {
		sp, err := c.specialists.FindByID(ctx, tx, in.SpecialistID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrSpecialistNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := sp.ValidateBookable(in.ConsultationType); err != nil {
			return errs.Mark(err, ErrSpecialistNotBookable)
		}

		if err := c.holds.LockSpecialistTimeline(ctx, tx, in.SpecialistID); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		existing, err := c.holds.FindActiveByPatientSlot(ctx, tx, in.SpecialistID, in.PatientID, slot, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if existing != nil {
			result = &ReserveResult{Hold: holdToView(existing), Replayed: true}
			return nil
		}

		overlaps, err := c.holds.HasOverlap(ctx, tx, in.SpecialistID, slot, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if overlaps {
			return ErrSlotConflict
		}

		h := hold.NewHold(in.SpecialistID, in.PatientID, slot, now, c.cfg.HoldTTL)
		if err := c.holds.Create(ctx, tx, h); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		result = &ReserveResult{Hold: holdToView(h)}
		return nil
	})
	if err != nil {
		c.metrics.ObserveReserve(reserveOutcome(err))
		return nil, err
	}

	c.metrics.ObserveReserve("reserved")
	return result, nil
}

// Release transitions the caller's own hold to released so the interval
// becomes bookable immediately. Releasing an already-terminal hold is a no-op.
func (c *holdCommandsImpl) Release(ctx context.Context, holdID, requesterID uuid.UUID) (*queries.HoldView, error) {
	var view *queries.HoldView
	err := c.uow.Within(ctx, func(ctx context.Context, tx infra.DBTX) error {
		h, err := c.holds.FindByIDForUpdate(ctx, tx, holdID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrHoldNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		wasActive := h.Status() == hold.StatusActive
		if err := h.Release(requesterID); err != nil {
			return errs.Mark(err, ErrNotHoldOwner)
		}

		if wasActive && h.Status() == hold.StatusReleased {
			if _, err := c.holds.UpdateStatus(ctx, tx, holdID, hold.StatusActive, hold.StatusReleased); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}

		view = holdToView(h)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.releasePresence(ctx, view.SpecialistID)
	return view, nil
}

// Renew extends the hold TTL for multi-step checkout flows, bounded by the
// maximum total hold lifetime so a slot cannot be starved indefinitely.
func (c *holdCommandsImpl) Renew(ctx context.Context, holdID, requesterID uuid.UUID) (*queries.HoldView, error) {
	now := c.clock.Now()

	var view *queries.HoldView
	err := c.uow.Within(ctx, func(ctx context.Context, tx infra.DBTX) error {
		h, err := c.holds.FindByIDForUpdate(ctx, tx, holdID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrHoldNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if h.PatientID() != requesterID {
			return ErrNotHoldOwner
		}

		// Serialize with Reserve: extending the expiry must not interleave
		// with an overlap check that already read the old, lapsing deadline.
		if err := c.holds.LockSpecialistTimeline(ctx, tx, h.SpecialistID()); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := h.Renew(now, c.cfg.HoldTTL, c.cfg.MaxHoldLifetime); err != nil {
			switch {
			case errs.Is(err, hold.ErrExpired):
				// Materialize the lapse so the slot frees without waiting for
				// the sweeper.
				if _, updErr := c.holds.UpdateStatus(ctx, tx, holdID, hold.StatusActive, hold.StatusExpired); updErr != nil {
					return errs.Mark(updErr, ErrDatabaseOperationFailed)
				}
				return ErrHoldExpired
			case errs.Is(err, hold.ErrLifetimeExceeded):
				return ErrHoldLifetimeExceeded
			default:
				return terminalHoldError(h.Status())
			}
		}

		if _, err := c.holds.UpdateExpiry(ctx, tx, holdID, h.ExpiresAt()); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		view = holdToView(h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// releasePresence is best-effort: counters decay by TTL anyway, this only
// speeds up rebalancing for instant-match traffic.
func (c *holdCommandsImpl) releasePresence(ctx context.Context, specialistID uuid.UUID) {
	if err := c.presence.ReleaseAssignment(ctx, specialistID); err != nil {
		slog.Warn("failed to release presence assignment", "specialist_id", specialistID, "error", err.Error())
	}
}

func terminalHoldError(s hold.Status) error {
	switch s {
	case hold.StatusCommitted:
		return ErrHoldAlreadyCommitted
	case hold.StatusReleased:
		return ErrHoldAlreadyReleased
	case hold.StatusExpired:
		return ErrHoldExpired
	default:
		return ErrDatabaseOperationFailed
	}
}

func reserveOutcome(err error) string {
	switch {
	case errs.Is(err, ErrSlotConflict):
		return "conflict"
	case errs.Is(err, ErrSpecialistNotFound), errs.Is(err, ErrSpecialistNotBookable):
		return "rejected"
	default:
		return "error"
	}
}

func holdToView(h *hold.Hold) *queries.HoldView {
	return &queries.HoldView{
		ID:              h.ID(),
		SpecialistID:    h.SpecialistID(),
		PatientID:       h.PatientID(),
		StartTime:       h.Slot().Start(),
		DurationMinutes: h.Slot().DurationMinutes(),
		Status:          h.Status().String(),
		CreatedAt:       h.CreatedAt(),
		ExpiresAt:       h.ExpiresAt(),
	}
}
