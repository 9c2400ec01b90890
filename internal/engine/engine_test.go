package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-space-reservation/internal/event"
	"github.com/iliyamo/library-space-reservation/internal/model"
	"github.com/iliyamo/library-space-reservation/internal/repository"
)

// ----- in-memory fakes -----

type fakeSpaces struct {
	spaces map[string]*model.Space
}

func (f *fakeSpaces) GetByID(_ context.Context, id string) (*model.Space, error) {
	s, ok := f.spaces[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type fakeReservations struct {
	mu   sync.Mutex
	byID map[string]*model.Reservation
	seq  int
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{byID: map[string]*model.Reservation{}}
}

func (f *fakeReservations) Get(_ context.Context, id string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservations) Create(_ context.Context, r *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		f.seq++
		r.ID = fmt.Sprintf("res-%d", f.seq)
	}
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeReservations) CountActiveInSlot(_ context.Context, spaceID string, start time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.byID {
		if r.SpaceID == spaceID && r.StartTime.Equal(start) && r.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (f *fakeReservations) UpdateStatus(_ context.Context, id string, from []model.Status, to model.Status, checkInTime *time.Time) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if r.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, repository.ErrInvalidTransition
	}
	r.Status = to
	if checkInTime != nil {
		t := *checkInTime
		r.CheckInTime = &t
	}
	cp := *r
	return &cp, nil
}

type fakeWaitlist struct {
	mu        sync.Mutex
	entries   []*model.WaitlistEntry
	seq       int
	deleteErr error
}

func (f *fakeWaitlist) Create(_ context.Context, e *model.WaitlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	e.ID = fmt.Sprintf("wl-%d", f.seq)
	cp := *e
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeWaitlist) EarliestForSpace(_ context.Context, spaceID string) (*model.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries { // insertion order = FIFO
		if e.SpaceID == spaceID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWaitlist) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeFeedback struct {
	mu    sync.Mutex
	byKey map[string]*model.Feedback
}

func (f *fakeFeedback) Create(_ context.Context, fb *model.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byKey == nil {
		f.byKey = map[string]*model.Feedback{}
	}
	key := fb.ProgramID + "|" + fb.UserID
	if _, ok := f.byKey[key]; ok {
		return repository.ErrDuplicate
	}
	fb.ID = "fb-" + key
	cp := *fb
	f.byKey[key] = &cp
	return nil
}

type notice struct{ userID, title string }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notice
}

func (f *fakeNotifier) Notify(_ context.Context, userID, title, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notice{userID: userID, title: title})
}

func (f *fakeNotifier) titlesFor(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range f.sent {
		if n.userID == userID {
			out = append(out, n.title)
		}
	}
	return out
}

// ----- harness -----

type fixture struct {
	engine       *Engine
	spaces       *fakeSpaces
	reservations *fakeReservations
	waitlist     *fakeWaitlist
	feedback     *fakeFeedback
	notifier     *fakeNotifier
	bus          *event.Bus
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	f := &fixture{
		spaces: &fakeSpaces{spaces: map[string]*model.Space{
			"room-1": {ID: "room-1", Name: "Reading Room", Type: model.SpaceRoom, Capacity: capacity},
			"prog-1": {ID: "prog-1", Name: "Author Talk", Type: model.SpaceProgram, Capacity: capacity},
		}},
		reservations: newFakeReservations(),
		waitlist:     &fakeWaitlist{},
		feedback:     &fakeFeedback{},
		notifier:     &fakeNotifier{},
		bus:          event.NewBus(),
	}
	f.engine = New(f.spaces, f.reservations, f.waitlist, f.feedback, f.bus, f.notifier, Config{})
	return f
}

var slotStart = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// ----- tests -----

func TestCreateReservationPending(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	got, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart)
	require.NoError(t, err)
	require.False(t, got.Waitlisted)
	require.Equal(t, model.StatusPending, got.Reservation.Status)
	require.Equal(t, slotStart, got.Reservation.StartTime)
	require.Equal(t, slotStart.Add(time.Hour), got.Reservation.EndTime)
}

func TestCreateReservationUnknownSpace(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.engine.CreateReservation(context.Background(), "nope", "alice", slotStart)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateReservationWaitlistsWhenFull(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	first, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart)
	require.NoError(t, err)
	require.False(t, first.Waitlisted)

	second, err := f.engine.CreateReservation(ctx, "room-1", "bob", slotStart)
	require.NoError(t, err)
	require.True(t, second.Waitlisted)
	require.Equal(t, 1, second.Position)
	require.Nil(t, second.Reservation)

	// A pending reservation occupies capacity, but no reservation row
	// exists for the waitlisted user.
	n, err := f.reservations.CountActiveInSlot(ctx, "room-1", slotStart)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestApprovePromotesWaitlistHead(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	first, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart)
	require.NoError(t, err)
	_, err = f.engine.CreateReservation(ctx, "room-1", "bob", slotStart)
	require.NoError(t, err)
	_, err = f.engine.CreateReservation(ctx, "room-1", "carol", slotStart)
	require.NoError(t, err)

	approved, err := f.engine.Approve(ctx, first.Reservation.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, approved.Status)

	// Exactly one promotion per approval, FIFO: bob is promoted
	// directly to approved with alice's slot, carol stays queued.
	var promoted *model.Reservation
	for _, r := range f.reservations.byID {
		if r.UserID == "bob" {
			promoted = r
		}
	}
	require.NotNil(t, promoted)
	require.Equal(t, model.StatusApproved, promoted.Status)
	require.Equal(t, approved.StartTime, promoted.StartTime)
	require.Equal(t, approved.EndTime, promoted.EndTime)

	head, err := f.waitlist.EarliestForSpace(ctx, "room-1")
	require.NoError(t, err)
	require.Equal(t, "carol", head.UserID)

	require.Equal(t, []string{"Reservation approved"}, f.notifier.titlesFor("alice"))
	require.Equal(t, []string{"Waitlist promotion"}, f.notifier.titlesFor("bob"))
	require.Empty(t, f.notifier.titlesFor("carol"))
}

func TestCreateReservationConcurrentCapacity(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	const requests = 40
	var wg sync.WaitGroup
	var admitted, waitlisted, busy int64
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := f.engine.CreateReservation(ctx, "room-1", fmt.Sprintf("user-%d", i), slotStart)
			switch {
			case errors.Is(err, ErrSlotBusy):
				atomic.AddInt64(&busy, 1)
			case err != nil:
				t.Errorf("create reservation: %v", err)
			case got.Waitlisted:
				atomic.AddInt64(&waitlisted, 1)
			default:
				atomic.AddInt64(&admitted, 1)
			}
		}(i)
	}
	wg.Wait()

	// Serialized admission: capacity can never be oversubscribed no
	// matter how the goroutines interleave.
	require.LessOrEqual(t, admitted, int64(2))
	require.Equal(t, int64(requests), admitted+waitlisted+busy)

	n, err := f.reservations.CountActiveInSlot(ctx, "room-1", slotStart)
	require.NoError(t, err)
	require.LessOrEqual(t, n, 2)
	require.Equal(t, admitted, int64(n))
}

func TestCreateReservationTruncatesSubSecondStart(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	got, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart.Add(300*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, slotStart, got.Reservation.StartTime)
	require.Equal(t, slotStart.Add(time.Hour), got.Reservation.EndTime)

	// Another request inside the same wall-clock second lands in the
	// same slot and counts against its capacity.
	second, err := f.engine.CreateReservation(ctx, "room-1", "bob", slotStart.Add(700*time.Millisecond))
	require.NoError(t, err)
	require.True(t, second.Waitlisted)
}

func TestApproveRequiresPending(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	got, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart)
	require.NoError(t, err)
	_, err = f.engine.Approve(ctx, got.Reservation.ID)
	require.NoError(t, err)

	_, err = f.engine.Approve(ctx, got.Reservation.ID)
	require.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestApproveFailedWaitlistConsumeSkipsPromotion(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	first, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart)
	require.NoError(t, err)
	_, err = f.engine.CreateReservation(ctx, "room-1", "bob", slotStart)
	require.NoError(t, err)

	// The entry is consumed before any promotion; when the consume
	// fails, bob must not be promoted and must stay queued.
	f.waitlist.deleteErr = errors.New("storage offline")
	_, err = f.engine.Approve(ctx, first.Reservation.ID)
	require.NoError(t, err)

	for _, r := range f.reservations.byID {
		require.NotEqual(t, "bob", r.UserID)
	}
	require.Empty(t, f.notifier.titlesFor("bob"))
	head, err := f.waitlist.EarliestForSpace(ctx, "room-1")
	require.NoError(t, err)
	require.Equal(t, "bob", head.UserID)

	// Once the store recovers, the next approval promotes bob exactly
	// once.
	f.waitlist.deleteErr = nil
	later := slotStart.Add(2 * time.Hour)
	second, err := f.engine.CreateReservation(ctx, "room-1", "dave", later)
	require.NoError(t, err)
	_, err = f.engine.Approve(ctx, second.Reservation.ID)
	require.NoError(t, err)

	var promotions int
	for _, r := range f.reservations.byID {
		if r.UserID == "bob" {
			promotions++
			require.Equal(t, model.StatusApproved, r.Status)
			require.Equal(t, later, r.StartTime)
		}
	}
	require.Equal(t, 1, promotions)
	_, err = f.waitlist.EarliestForSpace(ctx, "room-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRejectNotifiesUser(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	got, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart)
	require.NoError(t, err)

	rejected, err := f.engine.Reject(ctx, got.Reservation.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, rejected.Status)
	require.Equal(t, []string{"Reservation rejected"}, f.notifier.titlesFor("alice"))
}

func TestCancelOwnershipAndTerminality(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	got, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart)
	require.NoError(t, err)
	id := got.Reservation.ID

	err = f.engine.Cancel(ctx, id, "mallory")
	require.ErrorIs(t, err, repository.ErrForbidden)

	require.NoError(t, f.engine.Cancel(ctx, id, "alice"))

	// Cancelled is terminal; a second cancel is refused.
	err = f.engine.Cancel(ctx, id, "alice")
	require.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestSubmitFeedback(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.engine.SubmitFeedback(ctx, "prog-1", "alice", 0, "")
	require.ErrorIs(t, err, ErrInvalidRating)
	_, err = f.engine.SubmitFeedback(ctx, "prog-1", "alice", 6, "")
	require.ErrorIs(t, err, ErrInvalidRating)

	_, err = f.engine.SubmitFeedback(ctx, "nope", "alice", 4, "")
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Rooms and study rooms never accept feedback.
	_, err = f.engine.SubmitFeedback(ctx, "room-1", "alice", 4, "")
	require.ErrorIs(t, err, ErrNotProgram)

	fb, err := f.engine.SubmitFeedback(ctx, "prog-1", "alice", 4, "great talk")
	require.NoError(t, err)
	require.Equal(t, 4, fb.Rating)

	_, err = f.engine.SubmitFeedback(ctx, "prog-1", "alice", 5, "changed my mind")
	require.ErrorIs(t, err, repository.ErrDuplicate)
}
