package queue

import (
	"context"
	"time"

	"github.com/iliyamo/library-space-reservation/internal/event"
)

// MirrorBus republishes every in-process domain event onto
// reservation.events.  Broker failures are already logged by the
// publisher and must not fail the originating operation, so the
// subscriber always returns nil.
func MirrorBus(bus *event.Bus) {
	bus.SubscribeWritten(func(ctx context.Context, ev event.ReservationWritten) error {
		_ = PublishReservationEvent(ctx, writtenEvent(ev))
		return nil
	})
	bus.SubscribeApproved(func(ctx context.Context, ev event.ReservationApproved) error {
		r := ev.Reservation
		_ = PublishReservationEvent(ctx, ReservationEvent{
			Type:          "approved",
			ReservationID: r.ID,
			SpaceID:       r.SpaceID,
			UserID:        r.UserID,
			Status:        string(r.Status),
			StartsAt:      r.StartTime.UTC().Format(time.RFC3339),
			EndsAt:        r.EndTime.UTC().Format(time.RFC3339),
			OccurredAt:    time.Now().UTC().Format(time.RFC3339),
		})
		return nil
	})
}

func writtenEvent(ev event.ReservationWritten) ReservationEvent {
	r := ev.Reservation
	return ReservationEvent{
		Type:          "written",
		ReservationID: r.ID,
		SpaceID:       r.SpaceID,
		UserID:        r.UserID,
		Status:        string(r.Status),
		Previous:      string(ev.Previous),
		StartsAt:      r.StartTime.UTC().Format(time.RFC3339),
		EndsAt:        r.EndTime.UTC().Format(time.RFC3339),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
}
