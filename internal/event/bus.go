package event

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Bus is a minimal synchronous publish/subscribe dispatcher.  Subscribers
// run in registration order on the publisher's goroutine, so a command
// observes its own downstream effects (promotion, stats) before it
// returns.  A subscriber error is logged and never propagated: a failed
// reaction must not roll back the state transition that triggered it.
type Bus struct {
	mu       sync.RWMutex
	approved []func(context.Context, ReservationApproved) error
	written  []func(context.Context, ReservationWritten) error
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{} }

// SubscribeApproved registers a handler for ReservationApproved events.
func (b *Bus) SubscribeApproved(fn func(context.Context, ReservationApproved) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.approved = append(b.approved, fn)
}

// SubscribeWritten registers a handler for ReservationWritten events.
func (b *Bus) SubscribeWritten(fn func(context.Context, ReservationWritten) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.written = append(b.written, fn)
}

// PublishApproved dispatches ev to every approved-subscriber in order.
func (b *Bus) PublishApproved(ctx context.Context, ev ReservationApproved) {
	b.mu.RLock()
	subs := b.approved
	b.mu.RUnlock()
	for _, fn := range subs {
		if err := fn(ctx, ev); err != nil {
			zap.S().Errorw("approved subscriber failed",
				"reservation_id", ev.Reservation.ID, "error", err)
		}
	}
}

// PublishWritten dispatches ev to every written-subscriber in order.
func (b *Bus) PublishWritten(ctx context.Context, ev ReservationWritten) {
	b.mu.RLock()
	subs := b.written
	b.mu.RUnlock()
	for _, fn := range subs {
		if err := fn(ctx, ev); err != nil {
			zap.S().Errorw("written subscriber failed",
				"reservation_id", ev.Reservation.ID, "error", err)
		}
	}
}
