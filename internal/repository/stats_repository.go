package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/library-space-reservation/internal/model"
)

// StatsRepo maintains the daily_stats rollup.  Counters are bumped with
// INSERT .. ON DUPLICATE KEY UPDATE so concurrent increments for the
// same (date, space) row are atomic arithmetic at the store instead of
// a lossy read-modify-write of the whole record.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// incr bumps one counter column.  The column name is taken from a fixed
// set by the exported methods below, never from caller input.
func (r *StatsRepo) incr(ctx context.Context, date, spaceID, column string) error {
	var q string
	switch column {
	case "reservation_count":
		q = `INSERT INTO daily_stats (stat_date, space_id, reservation_count, check_in_count, no_show_count)
			 VALUES (?, ?, 1, 0, 0)
			 ON DUPLICATE KEY UPDATE reservation_count = reservation_count + 1`
	case "check_in_count":
		q = `INSERT INTO daily_stats (stat_date, space_id, reservation_count, check_in_count, no_show_count)
			 VALUES (?, ?, 0, 1, 0)
			 ON DUPLICATE KEY UPDATE check_in_count = check_in_count + 1`
	case "no_show_count":
		q = `INSERT INTO daily_stats (stat_date, space_id, reservation_count, check_in_count, no_show_count)
			 VALUES (?, ?, 0, 0, 1)
			 ON DUPLICATE KEY UPDATE no_show_count = no_show_count + 1`
	default:
		return nil
	}
	_, err := r.db.ExecContext(ctx, q, date, spaceID)
	return err
}

// IncrReservation bumps the reservation counter for (date, space).
func (r *StatsRepo) IncrReservation(ctx context.Context, date, spaceID string) error {
	return r.incr(ctx, date, spaceID, "reservation_count")
}

// IncrCheckIn bumps the check-in counter for (date, space).
func (r *StatsRepo) IncrCheckIn(ctx context.Context, date, spaceID string) error {
	return r.incr(ctx, date, spaceID, "check_in_count")
}

// IncrNoShow bumps the no-show counter for (date, space).
func (r *StatsRepo) IncrNoShow(ctx context.Context, date, spaceID string) error {
	return r.incr(ctx, date, spaceID, "no_show_count")
}

// Range returns the per-(date, space) rows between two ISO dates
// inclusive, with the average program rating joined in from the
// feedback collection at read time.
func (r *StatsRepo) Range(ctx context.Context, from, to string) ([]model.DailyStats, error) {
	const q = `SELECT d.stat_date, d.space_id, d.reservation_count, d.check_in_count, d.no_show_count,
					  COALESCE(AVG(f.rating), 0)
			   FROM daily_stats d
			   LEFT JOIN feedback f ON f.program_id = d.space_id
			   WHERE d.stat_date >= ? AND d.stat_date <= ?
			   GROUP BY d.stat_date, d.space_id, d.reservation_count, d.check_in_count, d.no_show_count
			   ORDER BY d.stat_date, d.space_id`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DailyStats, 0)
	for rows.Next() {
		var s model.DailyStats
		var date sql.NullString
		if err := rows.Scan(&date, &s.SpaceID, &s.ReservationCount, &s.CheckInCount, &s.NoShowCount, &s.AverageRating); err != nil {
			return nil, err
		}
		s.Date = date.String
		out = append(out, s)
	}
	return out, rows.Err()
}
