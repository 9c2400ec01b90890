package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-space-reservation/internal/model"
)

// approvedAt seeds an approved reservation starting at slotStart and
// pins the engine clock to the given scan time.
func approvedAt(t *testing.T, f *fixture, user string, scan time.Time) string {
	t.Helper()
	ctx := context.Background()
	got, err := f.engine.CreateReservation(ctx, "room-1", user, slotStart)
	require.NoError(t, err)
	_, err = f.engine.Approve(ctx, got.Reservation.ID)
	require.NoError(t, err)
	f.engine.now = func() time.Time { return scan }
	return got.Reservation.ID
}

func TestCheckInWithinGrace(t *testing.T) {
	f := newFixture(t, 5)
	id := approvedAt(t, f, "alice", slotStart.Add(9*time.Minute))

	got, err := f.engine.CheckIn(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, CheckInOK, got.Status)
	require.False(t, got.Already)
	require.Equal(t, model.StatusCheckedIn, got.Reservation.Status)
	require.NotNil(t, got.Reservation.CheckInTime)
}

func TestCheckInAtDeadline(t *testing.T) {
	f := newFixture(t, 5)
	// The window is inclusive: a scan at exactly start+grace succeeds.
	id := approvedAt(t, f, "alice", slotStart.Add(10*time.Minute))

	got, err := f.engine.CheckIn(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, CheckInOK, got.Status)
}

func TestCheckInAfterGraceMarksNoShow(t *testing.T) {
	f := newFixture(t, 5)
	id := approvedAt(t, f, "alice", slotStart.Add(11*time.Minute))

	got, err := f.engine.CheckIn(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, CheckInNoShow, got.Status)
	require.Equal(t, model.StatusNoShow, got.Reservation.Status)
}

func TestCheckInRescanIsIdempotent(t *testing.T) {
	f := newFixture(t, 5)
	id := approvedAt(t, f, "alice", slotStart.Add(5*time.Minute))
	ctx := context.Background()

	first, err := f.engine.CheckIn(ctx, id)
	require.NoError(t, err)
	require.False(t, first.Already)

	second, err := f.engine.CheckIn(ctx, id)
	require.NoError(t, err)
	require.Equal(t, CheckInOK, second.Status)
	require.True(t, second.Already)
}

func TestCheckInRefusesNonApprovedStates(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	got, err := f.engine.CreateReservation(ctx, "room-1", "alice", slotStart)
	require.NoError(t, err)

	// Still pending.
	res, err := f.engine.CheckIn(ctx, got.Reservation.ID)
	require.NoError(t, err)
	require.Equal(t, CheckInInvalidState, res.Status)

	require.NoError(t, f.engine.Cancel(ctx, got.Reservation.ID, "alice"))
	res, err = f.engine.CheckIn(ctx, got.Reservation.ID)
	require.NoError(t, err)
	require.Equal(t, CheckInInvalidState, res.Status)
}

func TestCheckInUnknownReservation(t *testing.T) {
	f := newFixture(t, 5)
	got, err := f.engine.CheckIn(context.Background(), "no-such-id")
	require.NoError(t, err)
	require.Equal(t, CheckInInvalid, got.Status)
}
