// Package stats derives the per-day reservation counters from
// reservation write events.  It is a plain bus subscriber: the engine
// and sweepers publish, the aggregator increments, and the store makes
// the arithmetic atomic.
package stats

import (
	"context"
	"time"

	"github.com/iliyamo/library-space-reservation/internal/event"
	"github.com/iliyamo/library-space-reservation/internal/model"
)

// Store is the counter sink.  Implementations must make each increment
// atomic so concurrent events for the same (date, space) never lose
// updates.
type Store interface {
	IncrReservation(ctx context.Context, date, spaceID string) error
	IncrCheckIn(ctx context.Context, date, spaceID string) error
	IncrNoShow(ctx context.Context, date, spaceID string) error
}

// DateKey derives the ISO date bucket for a reservation from its slot
// start, in UTC.
func DateKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

// Aggregator folds reservation writes into DailyStats counters, keyed
// per (date, space).
type Aggregator struct {
	store Store
}

// NewAggregator builds an Aggregator and subscribes it to reservation
// write events on the bus.
func NewAggregator(store Store, bus *event.Bus) *Aggregator {
	a := &Aggregator{store: store}
	bus.SubscribeWritten(a.handleWritten)
	return a
}

func (a *Aggregator) handleWritten(ctx context.Context, ev event.ReservationWritten) error {
	date := DateKey(ev.Reservation.StartTime)
	spaceID := ev.Reservation.SpaceID

	if ev.Previous == "" {
		if err := a.store.IncrReservation(ctx, date, spaceID); err != nil {
			return err
		}
	}
	switch ev.Reservation.Status {
	case model.StatusCheckedIn:
		if ev.Previous != model.StatusCheckedIn {
			return a.store.IncrCheckIn(ctx, date, spaceID)
		}
	case model.StatusNoShow:
		if ev.Previous != model.StatusNoShow {
			return a.store.IncrNoShow(ctx, date, spaceID)
		}
	}
	return nil
}
