package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/library-space-reservation/internal/model"
)

// WaitlistRepo persists waitlist entries.  The promotion queue is the
// createdAt ascending order per space; EarliestForSpace returns its
// head.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// Create inserts a waitlist entry, generating its ID when absent.
func (r *WaitlistRepo) Create(ctx context.Context, e *model.WaitlistEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO waitlist_entries (id, space_id, user_id, position, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.SpaceID, e.UserID, e.Position, e.CreatedAt)
	return err
}

// EarliestForSpace returns the oldest entry queued for the space, or
// ErrNotFound when the waitlist is empty.
func (r *WaitlistRepo) EarliestForSpace(ctx context.Context, spaceID string) (*model.WaitlistEntry, error) {
	const q = `SELECT id, space_id, user_id, position, created_at FROM waitlist_entries
			   WHERE space_id = ? ORDER BY created_at, id LIMIT 1`
	var e model.WaitlistEntry
	err := r.db.QueryRowContext(ctx, q, spaceID).Scan(&e.ID, &e.SpaceID, &e.UserID, &e.Position, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// Delete removes a consumed entry.  Deleting an already-removed entry
// returns ErrNotFound so a promotion retry can detect the double spend.
func (r *WaitlistRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser returns a user's queued entries, oldest first, so the UI
// can show current positions.
func (r *WaitlistRepo) ListForUser(ctx context.Context, userID string) ([]model.WaitlistEntry, error) {
	const q = `SELECT id, space_id, user_id, position, created_at FROM waitlist_entries
			   WHERE user_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.WaitlistEntry, 0)
	for rows.Next() {
		var e model.WaitlistEntry
		if err := rows.Scan(&e.ID, &e.SpaceID, &e.UserID, &e.Position, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
