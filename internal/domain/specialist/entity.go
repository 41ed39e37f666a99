package specialist

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyName              = errors.New("specialist name cannot be empty")
	ErrNotAccepting           = errors.New("specialist is not accepting patients")
	ErrConsultationNotOffered = errors.New("specialist does not offer this consultation type")
	ErrInvalidTimezoneOffset  = errors.New("timezone offset must be within [-12h, +14h]")
	ErrRatingOutOfRange       = errors.New("rating must be between 0 and 5")
	ErrNoConsultationTypes    = errors.New("specialist must offer at least one consultation type")
)

// Specialist is the directory snapshot the booking core validates against.
// Profile CRUD is owned elsewhere; this entity only carries what Reserve and
// the match engine need.
type Specialist struct {
	id                uuid.UUID
	name              string
	timezoneOffsetMin int
	languages         []string
	rating            float64
	accepting         bool
	consultationTypes []string
}

func NewSpecialist(
	id uuid.UUID,
	name string,
	timezoneOffsetMin int,
	languages []string,
	rating float64,
	accepting bool,
	consultationTypes []string,
) (*Specialist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if timezoneOffsetMin < -12*60 || timezoneOffsetMin > 14*60 {
		return nil, ErrInvalidTimezoneOffset
	}
	if rating < 0 || rating > 5 {
		return nil, ErrRatingOutOfRange
	}
	if len(consultationTypes) == 0 {
		return nil, ErrNoConsultationTypes
	}
	return &Specialist{
		id:                id,
		name:              name,
		timezoneOffsetMin: timezoneOffsetMin,
		languages:         languages,
		rating:            rating,
		accepting:         accepting,
		consultationTypes: consultationTypes,
	}, nil
}

// ValidateBookable rejects reservations against specialists that are not
// accepting or do not offer the requested consultation type.
func (s *Specialist) ValidateBookable(consultationType string) error {
	if !s.accepting {
		return ErrNotAccepting
	}
	if consultationType == "" {
		return nil
	}
	for _, ct := range s.consultationTypes {
		if strings.EqualFold(ct, consultationType) {
			return nil
		}
	}
	return ErrConsultationNotOffered
}

func (s *Specialist) Speaks(language string) bool {
	for _, l := range s.languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}

func (s *Specialist) ID() uuid.UUID              { return s.id }
func (s *Specialist) Name() string               { return s.name }
func (s *Specialist) TimezoneOffsetMinutes() int { return s.timezoneOffsetMin }
func (s *Specialist) Languages() []string        { return s.languages }
func (s *Specialist) Rating() float64            { return s.rating }
func (s *Specialist) Accepting() bool            { return s.accepting }
func (s *Specialist) ConsultationTypes() []string {
	return s.consultationTypes
}
