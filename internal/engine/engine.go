// Package engine implements the reservation lifecycle: slot admission
// with capacity-based waitlisting, admin approval and rejection,
// cancellation, QR check-in processing and feedback submission.  The
// engine owns every status mutation; handlers and sweepers call into it
// (or into the stores it defines) and never rewrite status themselves.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EagleChen/mapmutex"
	"go.uber.org/zap"

	"github.com/iliyamo/library-space-reservation/internal/event"
	"github.com/iliyamo/library-space-reservation/internal/model"
	"github.com/iliyamo/library-space-reservation/internal/repository"
)

// ErrSlotBusy is returned when the per-slot admission lock could not be
// acquired after the mutex's internal retries.  Callers should surface
// it as a retryable conflict.
var ErrSlotBusy = errors.New("slot admission busy")

// ErrInvalidRating is returned for feedback ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ErrNotProgram is returned when feedback targets a space that is not
// a program.
var ErrNotProgram = errors.New("feedback is only accepted for programs")

// SpaceStore is the engine's read-only view of spaces.
type SpaceStore interface {
	GetByID(ctx context.Context, id string) (*model.Space, error)
}

// ReservationStore is the engine's view of reservation persistence.
// UpdateStatus must be conditional on the allowed source states and
// return repository.ErrInvalidTransition when the reservation was not
// in one of them.
type ReservationStore interface {
	Get(ctx context.Context, id string) (*model.Reservation, error)
	Create(ctx context.Context, r *model.Reservation) error
	CountActiveInSlot(ctx context.Context, spaceID string, start time.Time) (int, error)
	UpdateStatus(ctx context.Context, id string, from []model.Status, to model.Status, checkInTime *time.Time) (*model.Reservation, error)
}

// WaitlistStore is the engine's view of the promotion queue.
type WaitlistStore interface {
	Create(ctx context.Context, e *model.WaitlistEntry) error
	EarliestForSpace(ctx context.Context, spaceID string) (*model.WaitlistEntry, error)
	Delete(ctx context.Context, id string) error
}

// FeedbackStore persists program feedback and must return
// repository.ErrDuplicate on a second submission for the same
// (program, user) pair.
type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
}

// Notifier delivers a title/body message to a user's registered device.
// Delivery is fire-and-forget: implementations log and swallow their
// own failures, so the engine never blocks or rolls back on them.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string)
}

// Config carries the reservation policy knobs.
type Config struct {
	SlotDuration time.Duration // fixed slot length, 1h when unset
	CheckInGrace time.Duration // check-in window after start, 10m when unset
}

// Engine wires the stores, the event bus and the notifier together.
type Engine struct {
	spaces       SpaceStore
	reservations ReservationStore
	waitlist     WaitlistStore
	feedback     FeedbackStore
	bus          *event.Bus
	notifier     Notifier
	cfg          Config

	// slots serializes admission per (spaceID, startTime) so the
	// capacity count-then-insert cannot race with itself.
	slots *mapmutex.Mutex
	now   func() time.Time
	log   *zap.SugaredLogger
}

// New constructs an Engine and registers its own reaction to approval
// events (user notification + waitlist promotion) on the bus.
func New(spaces SpaceStore, reservations ReservationStore, waitlist WaitlistStore, feedback FeedbackStore, bus *event.Bus, notifier Notifier, cfg Config) *Engine {
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = time.Hour
	}
	if cfg.CheckInGrace <= 0 {
		cfg.CheckInGrace = 10 * time.Minute
	}
	e := &Engine{
		spaces:       spaces,
		reservations: reservations,
		waitlist:     waitlist,
		feedback:     feedback,
		bus:          bus,
		notifier:     notifier,
		cfg:          cfg,
		slots:        mapmutex.NewMapMutex(),
		now:          time.Now,
		log:          zap.S(),
	}
	bus.SubscribeApproved(e.handleApproved)
	return e
}

func slotKey(spaceID string, start time.Time) string {
	return spaceID + "|" + start.UTC().Format(time.RFC3339)
}

// CreateResult is the outcome of a reservation request: either a
// pending reservation or a waitlist diversion with the queue position.
type CreateResult struct {
	Reservation *model.Reservation
	Waitlisted  bool
	Position    int
}

// CreateReservation admits a reservation request for one slot.  The
// admission sequence (count active, compare against capacity, insert)
// runs under the per-slot lock so concurrent requests for the same slot
// are serialized and the capacity invariant holds.  Requests that find
// the slot full are diverted to the waitlist; no reservation row is
// created for them.
func (e *Engine) CreateReservation(ctx context.Context, spaceID, userID string, start time.Time) (*CreateResult, error) {
	space, err := e.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	// DATETIME columns carry second precision, so fractional seconds
	// are dropped before the slot is locked, counted or stored.
	start = start.UTC().Truncate(time.Second)

	key := slotKey(spaceID, start)
	if !e.slots.TryLock(key) {
		return nil, ErrSlotBusy
	}
	defer e.slots.Unlock(key)

	count, err := e.reservations.CountActiveInSlot(ctx, spaceID, start)
	if err != nil {
		return nil, err
	}
	if count >= space.Capacity {
		entry := &model.WaitlistEntry{
			SpaceID:   spaceID,
			UserID:    userID,
			Position:  count - space.Capacity + 1,
			CreatedAt: e.now().UTC(),
		}
		if err := e.waitlist.Create(ctx, entry); err != nil {
			return nil, err
		}
		metrics.Waitlisted.Inc()
		e.log.Infow("slot full, user waitlisted",
			"space_id", spaceID, "user_id", userID, "position", entry.Position)
		return &CreateResult{Waitlisted: true, Position: entry.Position}, nil
	}

	res := &model.Reservation{
		SpaceID:   spaceID,
		UserID:    userID,
		StartTime: start,
		EndTime:   start.Add(e.cfg.SlotDuration),
		Status:    model.StatusPending,
		CreatedAt: e.now().UTC(),
	}
	if err := e.reservations.Create(ctx, res); err != nil {
		return nil, err
	}
	metrics.ReservationsCreated.Inc()
	e.bus.PublishWritten(ctx, event.ReservationWritten{Reservation: *res})
	return &CreateResult{Reservation: res}, nil
}

// Cancel withdraws a reservation on behalf of its owner.  Only pending
// and approved reservations may be cancelled.
func (e *Engine) Cancel(ctx context.Context, id, userID string) error {
	res, err := e.reservations.Get(ctx, id)
	if err != nil {
		return err
	}
	if res.UserID != userID {
		return repository.ErrForbidden
	}
	prev := res.Status
	updated, err := e.reservations.UpdateStatus(ctx, id,
		[]model.Status{model.StatusPending, model.StatusApproved}, model.StatusCancelled, nil)
	if err != nil {
		return err
	}
	e.bus.PublishWritten(ctx, event.ReservationWritten{Reservation: *updated, Previous: prev})
	return nil
}

// Approve transitions a pending reservation to approved and publishes
// the approval event that drives the user notification and the
// waitlist promotion.
func (e *Engine) Approve(ctx context.Context, id string) (*model.Reservation, error) {
	updated, err := e.reservations.UpdateStatus(ctx, id,
		[]model.Status{model.StatusPending}, model.StatusApproved, nil)
	if err != nil {
		return nil, err
	}
	e.bus.PublishWritten(ctx, event.ReservationWritten{Reservation: *updated, Previous: model.StatusPending})
	e.bus.PublishApproved(ctx, event.ReservationApproved{Reservation: *updated})
	return updated, nil
}

// Reject transitions a pending reservation to rejected and notifies the
// user.  A failed notification is the notifier's problem, not ours.
func (e *Engine) Reject(ctx context.Context, id string) (*model.Reservation, error) {
	updated, err := e.reservations.UpdateStatus(ctx, id,
		[]model.Status{model.StatusPending}, model.StatusRejected, nil)
	if err != nil {
		return nil, err
	}
	e.bus.PublishWritten(ctx, event.ReservationWritten{Reservation: *updated, Previous: model.StatusPending})
	e.notifier.Notify(ctx, updated.UserID,
		"Reservation rejected", "Your reservation was not approved. Please try another time slot.")
	return updated, nil
}

// SubmitFeedback stores one rating per (program, user) pair.  Only
// program spaces accept feedback.  The uniqueness is enforced by the
// store, so a duplicate submission surfaces as repository.ErrDuplicate
// regardless of timing.
func (e *Engine) SubmitFeedback(ctx context.Context, programID, userID string, rating int, comment string) (*model.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	space, err := e.spaces.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if space.Type != model.SpaceProgram {
		return nil, ErrNotProgram
	}
	f := &model.Feedback{
		ProgramID: programID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: e.now().UTC(),
	}
	if err := e.feedback.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// handleApproved reacts to an approval: notify the reservation's user,
// then promote the earliest waitlist entry for the same space (limit
// one per approval).  Deleting the entry is the claim and happens
// before anything else: a handler that loses or fails the delete
// promotes nobody, so one entry can never yield two promotions.  The
// promoted reservation copies the approved slot and is created
// directly as approved, skipping pending.
func (e *Engine) handleApproved(ctx context.Context, ev event.ReservationApproved) error {
	res := ev.Reservation
	e.notifier.Notify(ctx, res.UserID,
		"Reservation approved", "Your reservation has been approved. Have your QR code ready.")

	entry, err := e.waitlist.EarliestForSpace(ctx, res.SpaceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // nothing queued
		}
		return fmt.Errorf("load waitlist head: %w", err)
	}
	if err := e.waitlist.Delete(ctx, entry.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // another approval consumed this entry
		}
		// Entry stays queued; the next approval retries the promotion.
		return fmt.Errorf("consume waitlist entry: %w", err)
	}

	promoted := &model.Reservation{
		SpaceID:   entry.SpaceID,
		UserID:    entry.UserID,
		StartTime: res.StartTime,
		EndTime:   res.EndTime,
		Status:    model.StatusApproved,
		CreatedAt: e.now().UTC(),
	}
	if err := e.reservations.Create(ctx, promoted); err != nil {
		// The entry is already consumed, so the promotion is lost
		// rather than duplicated.
		return fmt.Errorf("create promoted reservation: %w", err)
	}
	metrics.Promotions.Inc()
	e.bus.PublishWritten(ctx, event.ReservationWritten{Reservation: *promoted})
	e.notifier.Notify(ctx, entry.UserID,
		"Waitlist promotion", "A spot opened up and your reservation is now confirmed.")
	e.log.Infow("waitlist user promoted",
		"space_id", entry.SpaceID, "user_id", entry.UserID, "reservation_id", promoted.ID)
	return nil
}
