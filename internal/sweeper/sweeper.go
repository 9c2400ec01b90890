// Package sweeper runs the time-driven reservation policies: marking
// missed reservations as no-shows and sending check-in reminders.
// Sweeps are one-shot per tick and idempotent per record, so an
// overrunning invocation overlapping the next tick cannot corrupt
// state.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/iliyamo/library-space-reservation/internal/event"
	"github.com/iliyamo/library-space-reservation/internal/model"
)

// ReservationStore is the slice of reservation persistence the sweeps
// need.  Both claims must be conditional single-row updates reporting
// whether the caller won, so the sweeps stay idempotent under
// overlapping invocations and never report a row someone else moved.
type ReservationStore interface {
	ExpiredApproved(ctx context.Context, cutoff time.Time) ([]model.Reservation, error)
	ClaimNoShow(ctx context.Context, id string) (bool, error)
	DueReminders(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
	ClaimReminder(ctx context.Context, id string) (bool, error)
}

// Notifier delivers reminder messages; failures are the notifier's to
// log and swallow.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string)
}

// Config carries the sweep policy knobs.
type Config struct {
	CheckInGrace  time.Duration // no-show cutoff after start (10m)
	ReminderLead  time.Duration // how far ahead reminders look (30m)
	NoShowEvery   time.Duration // no-show sweep interval (10m)
	ReminderEvery time.Duration // reminder sweep interval (5m)
}

var (
	noShowsMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweep_noshows_marked_total",
		Help: "Total reservations marked no_show by the sweep",
	})
	remindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweep_reminders_sent_total",
		Help: "Total check-in reminders sent",
	})
)

// Sweeper owns the two scheduled jobs.
type Sweeper struct {
	store    ReservationStore
	notifier Notifier
	bus      *event.Bus
	cfg      Config
	now      func() time.Time
	log      *zap.SugaredLogger
}

// New constructs a Sweeper, filling defaults for any zero value.
func New(store ReservationStore, notifier Notifier, bus *event.Bus, cfg Config) *Sweeper {
	if cfg.CheckInGrace <= 0 {
		cfg.CheckInGrace = 10 * time.Minute
	}
	if cfg.ReminderLead <= 0 {
		cfg.ReminderLead = 30 * time.Minute
	}
	if cfg.NoShowEvery <= 0 {
		cfg.NoShowEvery = 10 * time.Minute
	}
	if cfg.ReminderEvery <= 0 {
		cfg.ReminderEvery = 5 * time.Minute
	}
	return &Sweeper{
		store:    store,
		notifier: notifier,
		bus:      bus,
		cfg:      cfg,
		now:      time.Now,
		log:      zap.S(),
	}
}

// SweepNoShows marks every approved reservation whose check-in window
// has fully expired as no_show and returns how many were marked.  Each
// candidate is claimed with its own conditional update, so a user who
// checks in between selection and the claim loses nothing: the claim
// fails and no no_show event is published for that reservation.
func (s *Sweeper) SweepNoShows(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.cfg.CheckInGrace)
	due, err := s.store.ExpiredApproved(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("load expired reservations: %w", err)
	}
	marked := 0
	for i := range due {
		claimed, err := s.store.ClaimNoShow(ctx, due[i].ID)
		if err != nil {
			s.log.Errorw("claim no-show failed", "reservation_id", due[i].ID, "error", err)
			continue
		}
		if !claimed {
			continue // checked in or cancelled since selection
		}
		due[i].Status = model.StatusNoShow
		s.bus.PublishWritten(ctx, event.ReservationWritten{
			Reservation: due[i],
			Previous:    model.StatusApproved,
		})
		marked++
	}
	if marked > 0 {
		noShowsMarked.Add(float64(marked))
		s.log.Infow("no-show sweep", "marked", marked)
	}
	return marked, nil
}

// SweepReminders notifies users whose approved reservation starts
// within the reminder lead and who have not been reminded yet.  The
// reminder flag is claimed with a conditional update before the
// notification goes out, which is what bounds delivery to at most one
// per reservation even when sweeps overlap.
func (s *Sweeper) SweepReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.store.DueReminders(ctx, now, now.Add(s.cfg.ReminderLead))
	if err != nil {
		return 0, fmt.Errorf("load due reminders: %w", err)
	}
	sent := 0
	for i := range due {
		claimed, err := s.store.ClaimReminder(ctx, due[i].ID)
		if err != nil {
			s.log.Errorw("claim reminder failed", "reservation_id", due[i].ID, "error", err)
			continue
		}
		if !claimed {
			continue // another sweep got here first
		}
		minutes := int(s.cfg.ReminderLead / time.Minute)
		s.notifier.Notify(ctx, due[i].UserID, "Check-in reminder",
			fmt.Sprintf("Your reservation starts within %d minutes. Have your QR code ready.", minutes))
		sent++
	}
	if sent > 0 {
		remindersSent.Add(float64(sent))
		s.log.Infow("reminder sweep", "sent", sent)
	}
	return sent, nil
}

// Run blocks, firing both sweeps on their intervals until ctx is
// cancelled.  Each tick is independent; an error is logged and the
// next tick retries.
func (s *Sweeper) Run(ctx context.Context) {
	noShow := time.NewTicker(s.cfg.NoShowEvery)
	defer noShow.Stop()
	reminder := time.NewTicker(s.cfg.ReminderEvery)
	defer reminder.Stop()

	s.log.Infow("sweeper started",
		"noshow_every", s.cfg.NoShowEvery, "reminder_every", s.cfg.ReminderEvery)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-noShow.C:
			if _, err := s.SweepNoShows(ctx); err != nil {
				s.log.Errorw("no-show sweep failed", "error", err)
			}
		case <-reminder.C:
			if _, err := s.SweepReminders(ctx); err != nil {
				s.log.Errorw("reminder sweep failed", "error", err)
			}
		}
	}
}
