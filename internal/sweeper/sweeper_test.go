package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-space-reservation/internal/event"
	"github.com/iliyamo/library-space-reservation/internal/model"
)

type fakeStore struct {
	mu           sync.Mutex
	reservations []*model.Reservation

	// beforeClaim, when set, runs at the top of ClaimNoShow so tests
	// can interleave a state change between selection and the claim.
	beforeClaim func()
}

func (f *fakeStore) ExpiredApproved(_ context.Context, cutoff time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []model.Reservation
	for _, r := range f.reservations {
		if r.Status == model.StatusApproved && !r.StartTime.After(cutoff) {
			due = append(due, *r)
		}
	}
	return due, nil
}

func (f *fakeStore) ClaimNoShow(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beforeClaim != nil {
		f.beforeClaim()
	}
	for _, r := range f.reservations {
		if r.ID == id && r.Status == model.StatusApproved {
			r.Status = model.StatusNoShow
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DueReminders(_ context.Context, from, to time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []model.Reservation
	for _, r := range f.reservations {
		if r.Status == model.StatusApproved && !r.ReminderSent &&
			!r.StartTime.Before(from) && !r.StartTime.After(to) {
			due = append(due, *r)
		}
	}
	return due, nil
}

func (f *fakeStore) ClaimReminder(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.ID == id && !r.ReminderSent {
			r.ReminderSent = true
			return true, nil
		}
	}
	return false, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string // user IDs
}

func (f *fakeNotifier) Notify(_ context.Context, userID, _, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, userID)
}

var clock = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newTestSweeper(t *testing.T, store *fakeStore) (*Sweeper, *fakeNotifier, *[]event.ReservationWritten) {
	t.Helper()
	notifier := &fakeNotifier{}
	bus := event.NewBus()
	var published []event.ReservationWritten
	bus.SubscribeWritten(func(_ context.Context, ev event.ReservationWritten) error {
		published = append(published, ev)
		return nil
	})
	s := New(store, notifier, bus, Config{})
	s.now = func() time.Time { return clock }
	return s, notifier, &published
}

func res(id, user string, start time.Time, status model.Status) *model.Reservation {
	return &model.Reservation{
		ID: id, SpaceID: "room-1", UserID: user,
		StartTime: start, EndTime: start.Add(time.Hour), Status: status,
	}
}

func TestSweepNoShowsMarksExpiredOnly(t *testing.T) {
	store := &fakeStore{reservations: []*model.Reservation{
		res("r1", "alice", clock.Add(-11*time.Minute), model.StatusApproved), // window expired
		res("r2", "bob", clock.Add(-5*time.Minute), model.StatusApproved),    // still inside grace
		res("r3", "carol", clock.Add(-30*time.Minute), model.StatusCheckedIn),
		res("r4", "dave", clock.Add(-30*time.Minute), model.StatusPending),
	}}
	s, _, published := newTestSweeper(t, store)

	n, err := s.SweepNoShows(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Equal(t, model.StatusNoShow, store.reservations[0].Status)
	require.Equal(t, model.StatusApproved, store.reservations[1].Status)
	require.Equal(t, model.StatusCheckedIn, store.reservations[2].Status)
	require.Equal(t, model.StatusPending, store.reservations[3].Status)

	require.Len(t, *published, 1)
	require.Equal(t, "r1", (*published)[0].Reservation.ID)
	require.Equal(t, model.StatusApproved, (*published)[0].Previous)
}

func TestSweepNoShowsIdempotent(t *testing.T) {
	store := &fakeStore{reservations: []*model.Reservation{
		res("r1", "alice", clock.Add(-20*time.Minute), model.StatusApproved),
	}}
	s, _, _ := newTestSweeper(t, store)
	ctx := context.Background()

	n, err := s.SweepNoShows(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.SweepNoShows(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestSweepNoShowsSkipsConcurrentCheckIn(t *testing.T) {
	store := &fakeStore{reservations: []*model.Reservation{
		res("r1", "alice", clock.Add(-20*time.Minute), model.StatusApproved),
		res("r2", "bob", clock.Add(-20*time.Minute), model.StatusApproved),
	}}
	// alice checks in after the candidate selection but before her row
	// is claimed; the conditional claim must lose and keep her out of
	// the published no-shows.
	var once sync.Once
	store.beforeClaim = func() {
		once.Do(func() { store.reservations[0].Status = model.StatusCheckedIn })
	}
	s, _, published := newTestSweeper(t, store)

	n, err := s.SweepNoShows(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Equal(t, model.StatusCheckedIn, store.reservations[0].Status)
	require.Equal(t, model.StatusNoShow, store.reservations[1].Status)
	require.Len(t, *published, 1)
	require.Equal(t, "r2", (*published)[0].Reservation.ID)
}

func TestSweepRemindersWindowAndClaim(t *testing.T) {
	store := &fakeStore{reservations: []*model.Reservation{
		res("r1", "alice", clock.Add(20*time.Minute), model.StatusApproved), // due
		res("r2", "bob", clock.Add(2*time.Hour), model.StatusApproved),      // too far out
		res("r3", "carol", clock.Add(25*time.Minute), model.StatusPending),  // not approved
	}}
	s, notifier, _ := newTestSweeper(t, store)
	ctx := context.Background()

	sent, err := s.SweepReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Equal(t, []string{"alice"}, notifier.sent)

	// The claimed flag bounds delivery to at most one per reservation.
	sent, err = s.SweepReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, sent)
	require.Equal(t, []string{"alice"}, notifier.sent)
}
