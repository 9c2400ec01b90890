package stats

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/library-space-reservation/internal/event"
	"github.com/iliyamo/library-space-reservation/internal/model"
)

type counts struct {
	reservations, checkIns, noShows map[string]int
}

func newCounts() *counts {
	return &counts{
		reservations: map[string]int{},
		checkIns:     map[string]int{},
		noShows:      map[string]int{},
	}
}

func (c *counts) IncrReservation(_ context.Context, date, spaceID string) error {
	c.reservations[date+"|"+spaceID]++
	return nil
}
func (c *counts) IncrCheckIn(_ context.Context, date, spaceID string) error {
	c.checkIns[date+"|"+spaceID]++
	return nil
}
func (c *counts) IncrNoShow(_ context.Context, date, spaceID string) error {
	c.noShows[date+"|"+spaceID]++
	return nil
}

func publish(bus *event.Bus, status, previous model.Status) {
	bus.PublishWritten(context.Background(), event.ReservationWritten{
		Reservation: model.Reservation{
			ID:        "r1",
			SpaceID:   "room-1",
			StartTime: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
			Status:    status,
		},
		Previous: previous,
	})
}

const key = "2026-03-14|room-1"

func TestCreationIncrementsReservationCount(t *testing.T) {
	store := newCounts()
	bus := event.NewBus()
	NewAggregator(store, bus)

	publish(bus, model.StatusPending, "") // created
	publish(bus, model.StatusApproved, model.StatusPending)

	if store.reservations[key] != 1 {
		t.Fatalf("reservation count = %d, want 1", store.reservations[key])
	}
	if store.checkIns[key] != 0 || store.noShows[key] != 0 {
		t.Fatal("approval must not touch check-in or no-show counters")
	}
}

func TestCheckInAndNoShowCountOnce(t *testing.T) {
	store := newCounts()
	bus := event.NewBus()
	NewAggregator(store, bus)

	publish(bus, model.StatusCheckedIn, model.StatusApproved)
	publish(bus, model.StatusCheckedIn, model.StatusCheckedIn) // rescan, no change
	if store.checkIns[key] != 1 {
		t.Fatalf("check-in count = %d, want 1", store.checkIns[key])
	}

	publish(bus, model.StatusNoShow, model.StatusApproved)
	if store.noShows[key] != 1 {
		t.Fatalf("no-show count = %d, want 1", store.noShows[key])
	}
}

func TestPromotionCountsAsReservation(t *testing.T) {
	store := newCounts()
	bus := event.NewBus()
	NewAggregator(store, bus)

	// A promoted reservation is created directly as approved; it is
	// still a new reservation for the rollup.
	publish(bus, model.StatusApproved, "")

	if store.reservations[key] != 1 {
		t.Fatalf("reservation count = %d, want 1", store.reservations[key])
	}
}

func TestDateKeyUsesUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2026, 3, 13, 23, 0, 0, 0, est) // 04:00 UTC next day
	if got := DateKey(late); got != "2026-03-14" {
		t.Fatalf("DateKey = %q, want 2026-03-14", got)
	}
}
