// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationEvent mirrors a domain event onto the broker so downstream
// consumers (analytics, audit) can react without querying the primary
// database.  Type is "approved" or "written".
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID string `json:"reservation_id"`
	SpaceID       string `json:"space_id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	Previous      string `json:"previous,omitempty"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	OccurredAt    string `json:"occurred_at"`
}

// NotificationMessage is a queued push notification.  The consumer at
// the other end of notification.dispatch owns the actual delivery to
// the device token.
type NotificationMessage struct {
	UserID      string `json:"user_id"`
	DeviceToken string `json:"device_token"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	QueuedAt    string `json:"queued_at"`
}
