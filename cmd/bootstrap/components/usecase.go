package components

import (
	"telehealth-core/internal/domain/match"
	"telehealth-core/internal/infra/directory"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/pkg/metrics"
	"telehealth-core/internal/usecase/commands"
	"telehealth-core/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(store *directory.PresenceStore) commands.PresenceDirectory {
		return store
	},
	func() match.EligibilityPredicate {
		// Jurisdiction rules live in an external licensing service; until one
		// is plugged in every candidate is eligible.
		return match.AllowAll{}
	},
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAvailabilityQueries,
		queries.NewBookingQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewHoldCommands,
		NewBookingCommands,
		NewMatchCommands,
	),
)

func NewHoldCommands(
	holds commands.HoldLedger,
	specialists commands.SpecialistReader,
	presence commands.PresenceDirectory,
	unitOfWork uow.UnitOfWork,
	clk clock.Clock,
	cfg config.Config,
	m *metrics.BookingMetrics,
) commands.HoldCommands {
	return commands.NewHoldCommands(holds, specialists, presence, unitOfWork, clk, cfg.Booking, m)
}

func NewBookingCommands(
	holds commands.HoldLedger,
	appointments commands.AppointmentLedger,
	presence commands.PresenceDirectory,
	booking queries.BookingReadStore,
	unitOfWork uow.UnitOfWork,
	clk clock.Clock,
	m *metrics.BookingMetrics,
) commands.BookingCommands {
	return commands.NewBookingCommands(holds, appointments, presence, booking, unitOfWork, clk, m)
}

func NewMatchCommands(
	specialists commands.SpecialistReader,
	presence commands.PresenceDirectory,
	availability queries.AvailabilityQueries,
	holds commands.HoldCommands,
	eligibility match.EligibilityPredicate,
	unitOfWork uow.UnitOfWork,
	clk clock.Clock,
	cfg config.Config,
	m *metrics.BookingMetrics,
) commands.MatchCommands {
	return commands.NewMatchCommands(specialists, presence, availability, holds, eligibility, unitOfWork, clk, cfg.Match, m)
}
