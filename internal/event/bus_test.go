package event

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/library-space-reservation/internal/model"
)

func TestSubscribersRunInRegistrationOrder(t *testing.T) {
	b := NewBus()
	var order []string
	b.SubscribeWritten(func(context.Context, ReservationWritten) error {
		order = append(order, "first")
		return nil
	})
	b.SubscribeWritten(func(context.Context, ReservationWritten) error {
		order = append(order, "second")
		return nil
	})

	b.PublishWritten(context.Background(), ReservationWritten{})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("got order %v", order)
	}
}

func TestSubscriberErrorDoesNotStopDispatch(t *testing.T) {
	b := NewBus()
	called := false
	b.SubscribeApproved(func(context.Context, ReservationApproved) error {
		return errors.New("boom")
	})
	b.SubscribeApproved(func(context.Context, ReservationApproved) error {
		called = true
		return nil
	})

	b.PublishApproved(context.Background(), ReservationApproved{
		Reservation: model.Reservation{ID: "r1"},
	})

	if !called {
		t.Fatal("second subscriber not reached after first errored")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewBus()
	// Must simply be a no-op.
	b.PublishWritten(context.Background(), ReservationWritten{})
	b.PublishApproved(context.Background(), ReservationApproved{})
}
