package model

import "time"

// Feedback is a single post-visit rating for a program.  At most one
// Feedback may exist per (ProgramID, UserID) pair; the store enforces
// this with a unique key rather than a read-then-write check.
type Feedback struct {
	ID        string    `json:"id"`
	ProgramID string    `json:"program_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"` // 1..5
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
