// Package event defines the domain events published by the reservation
// lifecycle engine and an explicit in-process bus that dispatches them.
// Reactions to reservation writes (notifications, promotion, statistics)
// are bus subscribers, which keeps their ordering and failure handling
// explicit.
package event

import "github.com/iliyamo/library-space-reservation/internal/model"

// ReservationApproved is published synchronously after a reservation
// commits its transition into approved.  Subscribers drive the approval
// notification and the waitlist promotion.
type ReservationApproved struct {
	Reservation model.Reservation
}

// ReservationWritten is published after any reservation create or
// status change.  Previous is the status before the write, or "" for a
// newly created reservation.  The statistics aggregator and the broker
// mirror subscribe to it.
type ReservationWritten struct {
	Reservation model.Reservation
	Previous    model.Status
}
