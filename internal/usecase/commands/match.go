package commands

import (
	"context"
	"log/slog"
	"time"

	"telehealth-core/internal/domain/match"
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
	ErrNoneAvailable  = errs.New("no specialist available")
	ErrMatchExhausted = errs.New("match attempts exhausted")
)

// matchLeadTime is the minimum gap between the routing request and the
// reserved slot start.
const matchLeadTime = time.Minute

type FindMatchInput struct {
	PatientID                uuid.UUID
	PatientTimezoneOffsetMin int
	Language                 string
	Urgency                  string
	ConsultationType         string
	// From is optional; zero means "now".
	From time.Time
}

type FindMatchResult struct {
	Hold         *queries.HoldView
	SpecialistID uuid.UUID
	Attempts     int
}

type MatchCommands interface {
	FindMatch(ctx context.Context, in FindMatchInput) (*FindMatchResult, error)
}

type matchCommandsImpl struct {
	specialists  SpecialistReader
	presence     PresenceDirectory
	availability queries.AvailabilityQueries
	holds        HoldCommands
	eligibility  match.EligibilityPredicate
	uow          uow.UnitOfWork
	clock        clock.Clock
	cfg          config.MatchConfig
	metrics      *metrics.BookingMetrics
}

func NewMatchCommands(
	specialists SpecialistReader,
	presence PresenceDirectory,
	availability queries.AvailabilityQueries,
	holds HoldCommands,
	eligibility match.EligibilityPredicate,
	unitOfWork uow.UnitOfWork,
	clk clock.Clock,
	cfg config.MatchConfig,
	m *metrics.BookingMetrics,
) MatchCommands {
	return &matchCommandsImpl{
		specialists:  specialists,
		presence:     presence,
		availability: availability,
		holds:        holds,
		eligibility:  eligibility,
		uow:          unitOfWork,
		clock:        clk,
		cfg:          cfg,
		metrics:      m,
	}
}

// FindMatch routes a patient to the best available specialist and reserves a
// concrete slot with them. The presence snapshot is advisory only: the
// authoritative exclusivity check happens inside Reserve, and a conflict there
// moves the search to the next-ranked candidate rather than failing the
// request.
func (c *matchCommandsImpl) FindMatch(ctx context.Context, in FindMatchInput) (*FindMatchResult, error) {
	started := c.clock.Now()

	// The reserved start must sit strictly ahead of the clock or Reserve's
	// future-slot check rejects it; an idle calendar would otherwise hand back
	// `started` itself. The lead also gives the patient time to join.
	earliest := started.Add(matchLeadTime)
	from := in.From
	if from.Before(earliest) {
		from = earliest
	}

	req := match.Request{
		PatientTimezoneOffsetMin: in.PatientTimezoneOffsetMin,
		Language:                 in.Language,
		Urgency:                  in.Urgency,
	}

	ranked, err := c.rankedPool(ctx, req, started)
	if err != nil {
		c.metrics.ObserveMatch("error", c.clock.Now().Sub(started).Seconds())
		return nil, err
	}
	if len(ranked) == 0 {
		c.metrics.ObserveMatch("none_available", c.clock.Now().Sub(started).Seconds())
		return nil, ErrNoneAvailable
	}

	maxAttempts := c.cfg.MaxAttempts
	if maxAttempts > len(ranked) {
		maxAttempts = len(ranked)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := ranked[attempt]

		start, found, err := c.availability.NextOpenSlot(ctx, candidate.SpecialistID, from, c.cfg.SlotDuration, c.cfg.SearchWindow)
		if err != nil {
			c.metrics.ObserveMatch("error", c.clock.Now().Sub(started).Seconds())
			return nil, err
		}
		if !found {
			// Fully booked within the window; not a conflict, just skip.
			continue
		}

		res, err := c.holds.Reserve(ctx, ReserveInput{
			SpecialistID:     candidate.SpecialistID,
			PatientID:        in.PatientID,
			StartTime:        start,
			Duration:         c.cfg.SlotDuration,
			ConsultationType: in.ConsultationType,
		})
		if err != nil {
			if errs.Is(err, ErrSlotConflict) || errs.Is(err, ErrSpecialistNotBookable) {
				// Lost the race or the directory row changed under us; the
				// next-ranked candidate gets the attempt.
				lastErr = err
				continue
			}
			c.metrics.ObserveMatch("error", c.clock.Now().Sub(started).Seconds())
			return nil, err
		}

		if presErr := c.presence.RecordAssignment(ctx, candidate.SpecialistID, c.clock.Now()); presErr != nil {
			slog.Warn("failed to record presence assignment",
				"specialist_id", candidate.SpecialistID, "error", presErr.Error())
		}

		c.metrics.ObserveMatch("matched", c.clock.Now().Sub(started).Seconds())
		return &FindMatchResult{
			Hold:         res.Hold,
			SpecialistID: candidate.SpecialistID,
			Attempts:     attempt + 1,
		}, nil
	}

	c.metrics.ObserveMatch("exhausted", c.clock.Now().Sub(started).Seconds())
	if lastErr != nil {
		return nil, errs.Mark(lastErr, ErrMatchExhausted)
	}
	return nil, ErrNoneAvailable
}

// rankedPool joins the live presence snapshot with directory attributes and
// returns the eligible candidates best-first.
func (c *matchCommandsImpl) rankedPool(ctx context.Context, req match.Request, now time.Time) ([]match.RoutingCandidate, error) {
	entries, err := c.presence.Snapshot(ctx, now)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SpecialistID)
	}

	var candidates []match.RoutingCandidate
	err = c.uow.WithDB(ctx, func(ctx context.Context, db infra.DBTX) error {
		specs, err := c.specialists.FindByIDs(ctx, db, ids)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		byID := make(map[uuid.UUID]int, len(entries))
		for i, e := range entries {
			byID[e.SpecialistID] = i
		}

		candidates = make([]match.RoutingCandidate, 0, len(specs))
		for _, s := range specs {
			e := entries[byID[s.ID()]]
			// Accepting must hold in both the live directory and the durable
			// record; either side can turn a specialist away.
			candidates = append(candidates, match.RoutingCandidate{
				SpecialistID:      s.ID(),
				Online:            true,
				Accepting:         e.Accepting && s.Accepting(),
				Languages:         s.Languages(),
				TimezoneOffsetMin: s.TimezoneOffsetMinutes(),
				Rating:            s.Rating(),
				InFlight:          e.InFlight,
				LastAssignedAt:    e.LastAssignedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pool := match.FilterPool(candidates, req)

	eligible := pool[:0]
	for _, cand := range pool {
		ok, err := c.eligibility.Eligible(ctx, cand.SpecialistID, req)
		if err != nil {
			return nil, errs.Wrap(err, "eligibility check")
		}
		if ok {
			eligible = append(eligible, cand)
		}
	}

	return match.Rank(eligible, req), nil
}
