package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/library-space-reservation/internal/model"
)

// SpaceRepo provides CRUD operations for bookable spaces.  Spaces are
// created and mutated only through the admin endpoints; the lifecycle
// engine reads them to evaluate slot capacity.  All timestamp fields
// are stored in UTC.
type SpaceRepo struct {
	db *sql.DB
}

// NewSpaceRepo returns a new SpaceRepo bound to the given database.
func NewSpaceRepo(db *sql.DB) *SpaceRepo { return &SpaceRepo{db: db} }

// Create inserts a new space and populates its generated ID and
// timestamps on the provided model.
func (r *SpaceRepo) Create(ctx context.Context, s *model.Space) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	const q = `INSERT INTO spaces (id, name, type, capacity, description, location, image_url, created_at, updated_at)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.Name, string(s.Type), s.Capacity, s.Description, s.Location, s.ImageURL, now, now)
	return err
}

// GetByID returns a single space.  ErrNotFound is returned when no
// space with the given ID exists.
func (r *SpaceRepo) GetByID(ctx context.Context, id string) (*model.Space, error) {
	const q = `SELECT id, name, type, capacity, description, location, image_url, created_at, updated_at
			   FROM spaces WHERE id = ?`
	var s model.Space
	var typ string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Name, &typ, &s.Capacity, &s.Description, &s.Location, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Type = model.SpaceType(typ)
	return &s, nil
}

// List returns all spaces, optionally filtered by type.  Results are
// ordered by name for deterministic output.
func (r *SpaceRepo) List(ctx context.Context, typ model.SpaceType) ([]model.Space, error) {
	q := `SELECT id, name, type, capacity, description, location, image_url, created_at, updated_at FROM spaces`
	args := []interface{}{}
	if typ != "" {
		q += ` WHERE type = ?`
		args = append(args, string(typ))
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Space, 0)
	for rows.Next() {
		var s model.Space
		var t string
		if err := rows.Scan(&s.ID, &s.Name, &t, &s.Capacity, &s.Description, &s.Location, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Type = model.SpaceType(t)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a space.  ErrNotFound is
// returned when the space does not exist.
func (r *SpaceRepo) Update(ctx context.Context, s *model.Space) error {
	const q = `UPDATE spaces SET name = ?, type = ?, capacity = ?, description = ?, location = ?, image_url = ?, updated_at = ?
			   WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		s.Name, string(s.Type), s.Capacity, s.Description, s.Location, s.ImageURL, time.Now().UTC(), s.ID)
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

// Delete removes a space.  It refuses with ErrConflict when any
// reservation in an active status still references the space, so
// history for terminal reservations is preserved by refusing rather
// than cascading.
func (r *SpaceRepo) Delete(ctx context.Context, id string) error {
	const countQ = `SELECT COUNT(*) FROM reservations WHERE space_id = ? AND status IN ('pending','approved','checked_in')`
	var active int
	if err := r.db.QueryRowContext(ctx, countQ, id).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, id)
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
