package match

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RoutingCandidate is the ephemeral view of a specialist inside a single
// match invocation. It is assembled from the presence directory and the
// specialist table and never persisted.
type RoutingCandidate struct {
	SpecialistID      uuid.UUID
	Online            bool
	Accepting         bool
	Languages         []string
	TimezoneOffsetMin int
	Rating            float64
	InFlight          int
	LastAssignedAt    time.Time
}

// Request carries the patient-side routing inputs.
type Request struct {
	PatientTimezoneOffsetMin int
	Language                 string
	Urgency                  string
}

// EligibilityPredicate is the opaque licensing/jurisdiction check supplied by
// an external collaborator.
type EligibilityPredicate interface {
	Eligible(ctx context.Context, specialistID uuid.UUID, req Request) (bool, error)
}

// AllowAll is the default predicate when no jurisdiction rules are configured.
type AllowAll struct{}

func (AllowAll) Eligible(_ context.Context, _ uuid.UUID, _ Request) (bool, error) {
	return true, nil
}
