package engine

import (
	"context"
	"errors"

	"github.com/iliyamo/library-space-reservation/internal/event"
	"github.com/iliyamo/library-space-reservation/internal/model"
	"github.com/iliyamo/library-space-reservation/internal/repository"
)

// CheckInStatus is the operator-facing outcome of a scan.
type CheckInStatus string

const (
	// CheckInOK: the reservation is now (or already was) checked in.
	CheckInOK CheckInStatus = "checked_in"
	// CheckInNoShow: the grace period had expired at scan time; the
	// reservation was marked no_show.
	CheckInNoShow CheckInStatus = "no_show"
	// CheckInInvalid: the token did not resolve to a reservation.
	CheckInInvalid CheckInStatus = "invalid"
	// CheckInInvalidState: the reservation exists but is in a state a
	// scan cannot act on (pending, rejected, cancelled or no_show).
	CheckInInvalidState CheckInStatus = "invalid_state"
)

// CheckInResult reports a scan outcome.  Already is set when the
// reservation had been checked in by an earlier scan; re-scanning a
// valid ticket is an idempotent success, every other non-approved
// state is refused.
type CheckInResult struct {
	Status      CheckInStatus
	Already     bool
	Reservation *model.Reservation
}

// CheckIn processes a scanned reservation identifier against the
// check-in window.  A scan at or before startTime+grace transitions the
// reservation to checked_in and stamps the scan time; a later scan
// marks it no_show.
func (e *Engine) CheckIn(ctx context.Context, reservationID string) (*CheckInResult, error) {
	res, err := e.reservations.Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &CheckInResult{Status: CheckInInvalid}, nil
		}
		return nil, err
	}

	switch res.Status {
	case model.StatusCheckedIn:
		return &CheckInResult{Status: CheckInOK, Already: true, Reservation: res}, nil
	case model.StatusApproved:
		// fall through to the window check
	default:
		return &CheckInResult{Status: CheckInInvalidState, Reservation: res}, nil
	}

	now := e.now().UTC()
	deadline := res.StartTime.Add(e.cfg.CheckInGrace)

	if !now.After(deadline) {
		updated, err := e.reservations.UpdateStatus(ctx, reservationID,
			[]model.Status{model.StatusApproved}, model.StatusCheckedIn, &now)
		if err != nil {
			return nil, err
		}
		metrics.CheckIns.Inc()
		e.bus.PublishWritten(ctx, event.ReservationWritten{Reservation: *updated, Previous: model.StatusApproved})
		return &CheckInResult{Status: CheckInOK, Reservation: updated}, nil
	}

	updated, err := e.reservations.UpdateStatus(ctx, reservationID,
		[]model.Status{model.StatusApproved}, model.StatusNoShow, nil)
	if err != nil {
		return nil, err
	}
	metrics.LateNoShows.Inc()
	e.bus.PublishWritten(ctx, event.ReservationWritten{Reservation: *updated, Previous: model.StatusApproved})
	return &CheckInResult{Status: CheckInNoShow, Reservation: updated}, nil
}
