package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/library-space-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations.  Status
// mutations go through UpdateStatus, which enforces the allowed source
// states with a conditional UPDATE so that a lost race degrades into an
// ErrInvalidTransition instead of a silent overwrite.  All timestamps
// are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = `id, space_id, user_id, start_time, end_time, status, reminder_sent, check_in_time, created_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var res model.Reservation
	var status string
	var checkIn sql.NullTime
	err := row.Scan(&res.ID, &res.SpaceID, &res.UserID, &res.StartTime, &res.EndTime,
		&status, &res.ReminderSent, &checkIn, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	res.Status = model.Status(status)
	if checkIn.Valid {
		t := checkIn.Time.UTC()
		res.CheckInTime = &t
	}
	res.StartTime = res.StartTime.UTC()
	res.EndTime = res.EndTime.UTC()
	res.CreatedAt = res.CreatedAt.UTC()
	return &res, nil
}

// Create inserts a new reservation, generating an ID when the caller
// did not provide one.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO reservations (id, space_id, user_id, start_time, end_time, status, reminder_sent, created_at)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.SpaceID, res.UserID, res.StartTime.UTC(), res.EndTime.UTC(),
		string(res.Status), res.ReminderSent, res.CreatedAt)
	return err
}

// Get returns a reservation by ID.  ErrNotFound is returned when no
// such reservation exists.
func (r *ReservationRepo) Get(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// CountActiveInSlot counts reservations for the (space, start) slot in
// a capacity-occupying status.  The lifecycle engine calls this under
// the per-slot admission lock.
func (r *ReservationRepo) CountActiveInSlot(ctx context.Context, spaceID string, start time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
			   WHERE space_id = ? AND start_time = ? AND status IN ('pending','approved','checked_in')`
	var n int
	err := r.db.QueryRowContext(ctx, q, spaceID, start.UTC()).Scan(&n)
	return n, err
}

// UpdateStatus transitions a reservation into `to`, but only when its
// current status is one of `from`.  checkInTime, when non-nil, is
// stamped in the same statement.  It returns the updated reservation.
// ErrNotFound is returned for unknown IDs and ErrInvalidTransition when
// the reservation exists but was not in an allowed source state.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, from []model.Status, to model.Status, checkInTime *time.Time) (*model.Reservation, error) {
	if len(from) == 0 {
		return nil, ErrInvalidTransition
	}
	placeholders := make([]string, len(from))
	args := make([]interface{}, 0, len(from)+3)
	args = append(args, string(to))
	if checkInTime != nil {
		args = append(args, checkInTime.UTC())
	}
	args = append(args, id)
	for i, s := range from {
		placeholders[i] = "?"
		args = append(args, string(s))
	}
	q := `UPDATE reservations SET status = ?`
	if checkInTime != nil {
		q = `UPDATE reservations SET status = ?, check_in_time = ?`
	}
	q += ` WHERE id = ? AND status IN (` + strings.Join(placeholders, ",") + `)`
	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Distinguish a missing row from a refused transition.
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}
	return r.Get(ctx, id)
}

// ListByUser returns all reservations of a user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListByStatus returns all reservations in the given status, oldest
// start first.  Used by the admin dashboard.
func (r *ReservationRepo) ListByStatus(ctx context.Context, status model.Status) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE status = ? ORDER BY start_time`, string(status))
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// ExpiredApproved selects the no-show candidates: approved
// reservations whose start time is at or before cutoff.  Selection is
// only a snapshot; each candidate must still win ClaimNoShow before it
// may be reported as a no-show.
func (r *ReservationRepo) ExpiredApproved(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE status = 'approved' AND start_time <= ?`, cutoff.UTC())
}

// ClaimNoShow atomically moves one reservation from approved to
// no_show and reports whether this caller won the transition.  A
// reservation that checked in or was cancelled after being selected as
// a candidate loses the claim, so the caller never publishes a
// no_show for a row that actually moved elsewhere.
func (r *ReservationRepo) ClaimNoShow(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = 'no_show' WHERE id = ? AND status = 'approved'`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DueReminders selects approved reservations starting within [from, to]
// whose reminder has not been sent yet.
func (r *ReservationRepo) DueReminders(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationCols+` FROM reservations
		 WHERE status = 'approved' AND reminder_sent = 0 AND start_time >= ? AND start_time <= ?`,
		from.UTC(), to.UTC())
}

// ClaimReminder atomically flips reminder_sent for one reservation and
// reports whether this caller won the claim.  An overlapping sweep that
// loses the conditional update simply skips the row, which is what
// guarantees at-most-one reminder per reservation.
func (r *ReservationRepo) ClaimReminder(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET reminder_sent = 1 WHERE id = ? AND reminder_sent = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
