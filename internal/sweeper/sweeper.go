// Package sweeper reclaims lapsed holds in the background so abandoned
// reservations free their slots without any client action.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"telehealth-core/internal/infra"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/pkg/metrics"
)

// ExpiredHoldReclaimer is the slice of the hold ledger the sweeper needs.
type ExpiredHoldReclaimer interface {
	ExpireBatch(ctx context.Context, db infra.DBTX, now time.Time, limit int) (int64, error)
}

type Sweeper struct {
	holds   ExpiredHoldReclaimer
	uow     uow.UnitOfWork
	clock   clock.Clock
	cfg     config.SweeperConfig
	metrics *metrics.BookingMetrics

	cancel context.CancelFunc
	done   chan struct{}
}

func New(
	holds ExpiredHoldReclaimer,
	unitOfWork uow.UnitOfWork,
	clk clock.Clock,
	cfg config.SweeperConfig,
	m *metrics.BookingMetrics,
) *Sweeper {
	return &Sweeper{
		holds:   holds,
		uow:     unitOfWork,
		clock:   clk,
		cfg:     cfg,
		metrics: m,
	}
}

// Start launches the periodic sweep loop. It returns immediately; the loop
// runs until Stop is called.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
}

// Stop signals the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("hold sweep failed", "error", err.Error())
			}
		}
	}
}

// SweepOnce runs one bounded reclaim pass and returns how many holds it
// expired. Expiry races with Commit are settled by the conditional status
// update, so a hold committed between the cutoff read and the update is left
// untouched.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := s.clock.Now()

	var expired int64
	err := s.uow.Within(ctx, func(ctx context.Context, tx infra.DBTX) error {
		n, err := s.holds.ExpireBatch(ctx, tx, now, s.cfg.BatchSize)
		if err != nil {
			return err
		}
		expired = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		s.metrics.ObserveExpired(int(expired))
		slog.Info("expired lapsed holds", "count", expired)
	}
	return expired, nil
}
