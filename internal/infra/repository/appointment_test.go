//go:build unit

package repository_test

import (
	"testing"
	"time"

	"telehealth-core/internal/domain/appointment"
	"telehealth-core/internal/domain/hold"
	"telehealth-core/internal/infra"
	"telehealth-core/internal/infra/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func committedAppointment(t *testing.T) *appointment.Appointment {
	t.Helper()
	slot, err := hold.NewTimeSlot(repoNow.Add(time.Hour), 30*time.Minute)
	require.NoError(t, err)
	h := hold.NewHold(uuid.New(), uuid.New(), slot, repoNow, time.Minute)
	require.NoError(t, h.Commit(repoNow))

	fee, err := appointment.NewMoney(5000, "USD")
	require.NoError(t, err)
	appt, err := appointment.FromCommittedHold(h, fee, appointment.Metadata{"channel": "mobile"})
	require.NoError(t, err)
	return appt
}

func TestCreateAppointment(t *testing.T) {
	repo := repository.NewAppointmentRepository()

	uniqueErr := func(constraint string) *pgconn.PgError {
		return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
	}

	anyArgs := make([]any, 11)
	for i := range anyArgs {
		anyArgs[i] = pgxmock.AnyArg()
	}

	t.Run("inserts the row", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO appointments`).
			WithArgs(anyArgs...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(t.Context(), mock, committedAppointment(t), repoNow)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hold uniqueness maps to duplicate key", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO appointments`).
			WithArgs(anyArgs...).
			WillReturnError(uniqueErr("appointments_hold_id_key"))

		err := repo.Create(t.Context(), mock, committedAppointment(t), repoNow)
		assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))
	})

	t.Run("timeline backstop maps to conflict", func(t *testing.T) {
		// The schema-level double-booking guard is a distinct failure from a
		// replayed commit and must not be confused with it.
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO appointments`).
			WithArgs(anyArgs...).
			WillReturnError(uniqueErr("uq_appointments_timeline"))

		err := repo.Create(t.Context(), mock, committedAppointment(t), repoNow)
		assert.True(t, infra.IsKind(err, infra.KindConflict))
	})
}
