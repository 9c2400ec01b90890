package model

import "time"

// WaitlistEntry queues a user for a space whose requested slot was full
// at admission time.  Entries are ordered by CreatedAt ascending; that
// ordering is the promotion queue.  An entry is destroyed when it is
// promoted into a Reservation.
//
// The entry deliberately carries no slot: promotion copies the slot from
// the reservation whose approval freed the capacity.
type WaitlistEntry struct {
	ID        string    `json:"id"`
	SpaceID   string    `json:"space_id"`
	UserID    string    `json:"user_id"`
	Position  int       `json:"position"` // 1-based, computed at insertion
	CreatedAt time.Time `json:"created_at"`
}
