package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReserveHoldRequest struct {
	SpecialistID     uuid.UUID `json:"specialist_id" binding:"required"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	DurationMinutes  int       `json:"duration_minutes" binding:"required,gt=0"`
	ConsultationType string    `json:"consultation_type" binding:"required"`
}

func (r ReserveHoldRequest) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

type CommitHoldRequest struct {
	FeeCents int64             `json:"fee_cents" binding:"required,gt=0"`
	Currency string            `json:"currency" binding:"required,len=3"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r CommitHoldRequest) NormalizedCurrency() string {
	return strings.ToUpper(strings.TrimSpace(r.Currency))
}

type FindMatchRequest struct {
	TimezoneOffsetMinutes int        `json:"timezone_offset_minutes"`
	Language              string     `json:"language,omitempty"`
	Urgency               string     `json:"urgency,omitempty"`
	ConsultationType      string     `json:"consultation_type" binding:"required"`
	From                  *time.Time `json:"from,omitempty"`
}

func (r FindMatchRequest) FromOrZero() time.Time {
	if r.From == nil {
		return time.Time{}
	}
	return *r.From
}

type HeartbeatRequest struct {
	Accepting bool `json:"accepting"`
}
