package components

import (
	"telehealth-core/internal/handler"
	"telehealth-core/internal/handler/api"
	"telehealth-core/internal/handler/middleware"
	"telehealth-core/internal/infra/directory"
	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/pkg/jwt"
	"telehealth-core/internal/usecase/queries"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewHoldHandler,
		api.NewAppointmentHandler,
		api.NewMatchHandler,
		NewSpecialistHandler,
		NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewSpecialistHandler(
	availability queries.AvailabilityQueries,
	presence *directory.PresenceStore,
	clk clock.Clock,
	cfg config.Config,
) *api.SpecialistHandler {
	return api.NewSpecialistHandler(availability, presence, clk, cfg.Match)
}

func NewAuthMiddleware(jwtService *jwt.Service) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(jwtService)
}
