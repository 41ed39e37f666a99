package components

import (
	"telehealth-core/internal/infra/readstore"
	"telehealth-core/internal/infra/repository"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/usecase/commands"
	"telehealth-core/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	repositoryModule,
	readstoreModule,
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		NewUnitOfWork,
		repository.NewHoldRepository,
		repository.NewAppointmentRepository,
		repository.NewSpecialistRepository,
		fx.Annotate(
			repository.NewHoldRepository,
			fx.As(new(commands.HoldLedger)),
		),
		fx.Annotate(
			repository.NewAppointmentRepository,
			fx.As(new(commands.AppointmentLedger)),
		),
		fx.Annotate(
			repository.NewSpecialistRepository,
			fx.As(new(commands.SpecialistReader)),
		),
	),
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewAvailabilityReadStore,
			fx.As(new(queries.AvailabilityReadStore)),
		),
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
	),
)

func NewUnitOfWork(pool *pgxpool.Pool, cfg config.Config) uow.UnitOfWork {
	return uow.NewPostgresUoW(pool, cfg.Booking.CommitRetries)
}
