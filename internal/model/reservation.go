package model

import "time"

// Status is the lifecycle state of a reservation.  The state machine is
// small and strict: pending and approved are the only transient states,
// everything else is terminal and no transition out of a terminal state
// is ever permitted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCheckedIn Status = "checked_in"
	StatusNoShow    Status = "no_show"
)

// ValidStatus reports whether s is a known reservation status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCheckedIn, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCheckedIn, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether a reservation in state s occupies capacity in
// its slot.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCheckedIn:
		return true
	}
	return false
}

// CanTransition reports whether the state machine permits from -> to.
//
//	pending  -> approved | rejected | cancelled
//	approved -> cancelled | checked_in | no_show
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusCancelled || to == StatusCheckedIn || to == StatusNoShow
	}
	return false
}

// Reservation is a single booked slot.  After creation its status is
// owned exclusively by the lifecycle engine and the sweepers; no other
// component may mutate it.
//
// Fields:
//
//	ID           – primary key (UUID string); also the payload of the
//	               check-in token rendered as a QR code.
//	SpaceID      – the reserved space.
//	UserID       – the reserving user.
//	StartTime    – slot start (UTC).
//	EndTime      – slot end; always StartTime + the configured slot duration.
//	Status       – see the state machine above.
//	ReminderSent – set once the check-in reminder has been delivered.
//	CheckInTime  – stamped when the reservation transitions to checked_in.
//	CreatedAt    – timestamp of creation.
type Reservation struct {
	ID           string     `json:"id"`
	SpaceID      string     `json:"space_id"`
	UserID       string     `json:"user_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	Status       Status     `json:"status"`
	ReminderSent bool       `json:"reminder_sent"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
