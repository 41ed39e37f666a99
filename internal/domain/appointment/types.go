package appointment

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// OccupiesSlot reports whether the appointment still blocks its interval on the
// slot ledger. Cancelled appointments release their interval.
func (s Status) OccupiesSlot() bool {
	return s != StatusCancelled
}
