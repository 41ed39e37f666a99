package commands

import (
	"context"
	"log/slog"

	"telehealth-core/internal/domain/appointment"
	"telehealth-core/internal/domain/hold"
	"telehealth-core/internal/infra"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/errs"
	"telehealth-core/internal/pkg/metrics"
	"telehealth-core/internal/usecase/queries"

	"github.com/google/uuid"
)

var ErrInvalidFee = errs.New("invalid appointment fee")

type CommitInput struct {
	HoldID uuid.UUID
	// Fee and currency are settled by the payment collaborator between Reserve
	// and Commit; the core records them, it does not compute them.
	FeeCents int64
	Currency string
	Metadata map[string]string
}

type CommitResult struct {
	Appointment *queries.AppointmentView
}

type BookingCommands interface {
	Commit(ctx context.Context, in CommitInput) (*CommitResult, error)
	CancelAppointment(ctx context.Context, appointmentID, requesterID uuid.UUID) error
	CompleteAppointment(ctx context.Context, appointmentID uuid.UUID) error
}

type bookingCommandsImpl struct {
	holds        HoldLedger
	appointments AppointmentLedger
	presence     PresenceDirectory
	booking      queries.BookingReadStore
	uow          uow.UnitOfWork
	clock        clock.Clock
	metrics      *metrics.BookingMetrics
}

func NewBookingCommands(
	holds HoldLedger,
	appointments AppointmentLedger,
	presence PresenceDirectory,
	booking queries.BookingReadStore,
	unitOfWork uow.UnitOfWork,
	clk clock.Clock,
	m *metrics.BookingMetrics,
) BookingCommands {
	return &bookingCommandsImpl{
		holds:        holds,
		appointments: appointments,
		presence:     presence,
		booking:      booking,
		uow:          unitOfWork,
		clock:        clk,
		metrics:      m,
	}
}

// Commit converts a valid, unexpired hold into a durable appointment in one
// atomic step. It re-takes the specialist timeline lock so a Reserve running
// at the hold's expiry boundary cannot observe the interval as free while the
// commit is in flight. Repeated Commit calls for the same hold are
// deterministic: the first wins, later ones see AlreadyCommitted.
func (c *bookingCommandsImpl) Commit(ctx context.Context, in CommitInput) (*CommitResult, error) {
	now := c.clock.Now()

	fee, err := appointment.NewMoney(in.FeeCents, in.Currency)
	if err != nil {
		c.metrics.ObserveCommit("invalid")
		return nil, errs.Mark(err, ErrInvalidFee)
	}

	var (
		specialistID  uuid.UUID
		appointmentID uuid.UUID
	)
	err = c.uow.Within(ctx, func(ctx context.Context, tx infra.DBTX) error {
		h, err := c.holds.FindByIDForUpdate(ctx, tx, in.HoldID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrHoldNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		// Serialize with Reserve on the same specialist; without this a
		// concurrent Reserve can treat the hold as lapsed while we commit it.
		if err := c.holds.LockSpecialistTimeline(ctx, tx, h.SpecialistID()); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := h.Commit(now); err != nil {
			switch {
			case errs.Is(err, hold.ErrAlreadyCommitted):
				return ErrHoldAlreadyCommitted
			case errs.Is(err, hold.ErrAlreadyReleased):
				return ErrHoldAlreadyReleased
			case errs.Is(err, hold.ErrExpired):
				// Deterministic rejection even before the sweeper runs; the
				// lapse is persisted here so the slot frees immediately.
				if _, updErr := c.holds.UpdateStatus(ctx, tx, in.HoldID, hold.StatusActive, hold.StatusExpired); updErr != nil {
					return errs.Mark(updErr, ErrDatabaseOperationFailed)
				}
				return ErrHoldExpired
			default:
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}

		updated, err := c.holds.UpdateStatus(ctx, tx, in.HoldID, hold.StatusActive, hold.StatusCommitted)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !updated {
			// The row lock makes this unreachable unless the ledger is
			// corrupted; treat as transient and let the caller retry.
			return errs.Mark(errs.New("hold transition lost"), ErrDatabaseOperationFailed)
		}

		appt, err := appointment.FromCommittedHold(h, fee, in.Metadata)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := c.appointments.Create(ctx, tx, appt, now); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrHoldAlreadyCommitted
			}
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSlotConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		specialistID = h.SpecialistID()
		appointmentID = appt.ID()
		return nil
	})
	if err != nil {
		c.metrics.ObserveCommit(commitOutcome(err))
		return nil, err
	}
	c.metrics.ObserveCommit("committed")

	if presErr := c.presence.ReleaseAssignment(ctx, specialistID); presErr != nil {
		slog.Warn("failed to release presence assignment", "specialist_id", specialistID, "error", presErr.Error())
	}

	// Read-after-write: the committed appointment joined with directory data.
	view, err := c.booking.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &CommitResult{Appointment: view}, nil
}

// CancelAppointment is the lifecycle operation that retracts the ledger
// interval: once cancelled, the slot becomes bookable again because the
// overlap check skips cancelled rows.
func (c *bookingCommandsImpl) CancelAppointment(ctx context.Context, appointmentID, requesterID uuid.UUID) error {
	now := c.clock.Now()

	return c.uow.Within(ctx, func(ctx context.Context, tx infra.DBTX) error {
		appt, err := c.appointments.FindByIDForUpdate(ctx, tx, appointmentID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return queries.ErrAppointmentNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if appt.PatientID() != requesterID && appt.SpecialistID() != requesterID {
			return ErrNotHoldOwner
		}
		if err := appt.Cancel(); err != nil {
			return err
		}
		return c.appointments.UpdateStatus(ctx, tx, appointmentID, appt.Status(), now)
	})
}

func (c *bookingCommandsImpl) CompleteAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	now := c.clock.Now()

	return c.uow.Within(ctx, func(ctx context.Context, tx infra.DBTX) error {
		appt, err := c.appointments.FindByIDForUpdate(ctx, tx, appointmentID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return queries.ErrAppointmentNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := appt.Complete(); err != nil {
			return err
		}
		return c.appointments.UpdateStatus(ctx, tx, appointmentID, appt.Status(), now)
	})
}

func commitOutcome(err error) string {
	switch {
	case errs.Is(err, ErrHoldExpired):
		return "expired"
	case errs.Is(err, ErrHoldAlreadyCommitted):
		return "already_committed"
	case errs.Is(err, ErrHoldAlreadyReleased):
		return "already_released"
	case errs.Is(err, ErrHoldNotFound):
		return "not_found"
	default:
		return "error"
	}
}
