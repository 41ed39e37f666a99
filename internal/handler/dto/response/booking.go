package response

import (
	"time"

	"telehealth-core/internal/usecase/commands"
	"telehealth-core/internal/usecase/queries"

	"github.com/google/uuid"
)

type HoldResponse struct {
	ID              uuid.UUID `json:"id"`
	SpecialistID    uuid.UUID `json:"specialist_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	Replayed        bool      `json:"replayed,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID         `json:"id"`
	HoldID          uuid.UUID         `json:"hold_id"`
	SpecialistID    uuid.UUID         `json:"specialist_id"`
	SpecialistName  string            `json:"specialist_name"`
	PatientID       uuid.UUID         `json:"patient_id"`
	StartTime       time.Time         `json:"start_time"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          string            `json:"status"`
	FeeCents        int64             `json:"fee_cents"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type MatchResponse struct {
	SpecialistID uuid.UUID    `json:"specialist_id"`
	Attempts     int          `json:"attempts"`
	Hold         HoldResponse `json:"hold"`
}

type OccupiedIntervalResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Kind  string    `json:"kind"`
}

type AvailabilityResponse struct {
	SpecialistID uuid.UUID                  `json:"specialist_id"`
	From         time.Time                  `json:"from"`
	To           time.Time                  `json:"to"`
	Occupied     []OccupiedIntervalResponse `json:"occupied"`
	NextOpenSlot *time.Time                 `json:"next_open_slot,omitempty"`
}

func FromHoldView(v *queries.HoldView, replayed bool) HoldResponse {
	return HoldResponse{
		ID:              v.ID,
		SpecialistID:    v.SpecialistID,
		PatientID:       v.PatientID,
		StartTime:       v.StartTime,
		DurationMinutes: v.DurationMinutes,
		Status:          v.Status,
		CreatedAt:       v.CreatedAt,
		ExpiresAt:       v.ExpiresAt,
		Replayed:        replayed,
	}
}

func FromAppointmentView(v *queries.AppointmentView) AppointmentResponse {
	return AppointmentResponse{
		ID:              v.ID,
		HoldID:          v.HoldID,
		SpecialistID:    v.SpecialistID,
		SpecialistName:  v.SpecialistName,
		PatientID:       v.PatientID,
		StartTime:       v.StartTime,
		DurationMinutes: v.DurationMinutes,
		Status:          v.Status,
		FeeCents:        v.FeeCents,
		Currency:        v.Currency,
		Metadata:        v.Metadata,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func FromMatchResult(r *commands.FindMatchResult) MatchResponse {
	return MatchResponse{
		SpecialistID: r.SpecialistID,
		Attempts:     r.Attempts,
		Hold:         FromHoldView(r.Hold, false),
	}
}

func FromOccupiedIntervals(intervals []queries.OccupiedInterval) []OccupiedIntervalResponse {
	out := make([]OccupiedIntervalResponse, len(intervals))
	for i, iv := range intervals {
		out[i] = OccupiedIntervalResponse{Start: iv.Start, End: iv.End, Kind: iv.Kind}
	}
	return out
}
