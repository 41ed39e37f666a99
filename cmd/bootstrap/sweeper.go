package bootstrap

import (
	"context"

	"telehealth-core/internal/infra/repository"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/pkg/metrics"
	"telehealth-core/internal/sweeper"

	"go.uber.org/fx"
)

var SweeperModule = fx.Module("sweeper",
	fx.Provide(
		NewSweeper,
	),
	fx.Invoke(runSweeper),
)

func NewSweeper(
	holds *repository.HoldRepository,
	unitOfWork uow.UnitOfWork,
	clk clock.Clock,
	cfg config.Config,
	m *metrics.BookingMetrics,
) *sweeper.Sweeper {
	return sweeper.New(holds, unitOfWork, clk, cfg.Sweeper, m)
}

func runSweeper(lc fx.Lifecycle, s *sweeper.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			s.Stop()
			return nil
		},
	})
}
