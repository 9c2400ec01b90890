package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/library-space-reservation/internal/model"
)

// FeedbackRepo persists program feedback.  Uniqueness per
// (program, user) is enforced by a unique key on the table, so the
// duplicate check is a store-level constraint rather than a race-prone
// read-then-write sequence.
type FeedbackRepo struct {
	db *sql.DB
}

// NewFeedbackRepo returns a new FeedbackRepo bound to the given database.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

// Create inserts a feedback row.  ErrDuplicate is returned when the
// (program, user) pair already submitted.
func (r *FeedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO feedback (id, program_id, user_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, f.ID, f.ProgramID, f.UserID, f.Rating, f.Comment, f.CreatedAt)
	if err != nil {
		// MySQL error 1062: duplicate entry for the unique key.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListByProgram returns all feedback for a program, newest first.
func (r *FeedbackRepo) ListByProgram(ctx context.Context, programID string) ([]model.Feedback, error) {
	const q = `SELECT id, program_id, user_id, rating, comment, created_at FROM feedback
			   WHERE program_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Feedback, 0)
	for rows.Next() {
		var f model.Feedback
		var comment sql.NullString
		if err := rows.Scan(&f.ID, &f.ProgramID, &f.UserID, &f.Rating, &comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Comment = comment.String
		f.CreatedAt = f.CreatedAt.UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}

// AverageBySpace returns the mean rating per program across all
// feedback, used to fold averageRating into the stats rollup.
func (r *FeedbackRepo) AverageBySpace(ctx context.Context) (map[string]float64, error) {
	const q = `SELECT program_id, AVG(rating) FROM feedback GROUP BY program_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]float64)
	for rows.Next() {
		var id string
		var avg float64
		if err := rows.Scan(&id, &avg); err != nil {
			return nil, err
		}
		out[id] = avg
	}
	return out, rows.Err()
}
