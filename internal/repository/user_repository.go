package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/library-space-reservation/internal/model"
	"github.com/iliyamo/library-space-reservation/internal/utils"
)

// UserRepo persists user profiles.  Profiles are created at
// registration; the device token used by the notification gateway is
// written by a separate endpoint and read during notification lookup.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its generated ID.  ErrDuplicate is
// returned when the email is already registered.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName, role string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, display_name, role) VALUES (?,?,?,?,?)",
		id, email, hash, displayName, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

const userCols = "id,email,password_hash,display_name,role,COALESCE(device_token,''),is_active,created_at,updated_at"

func (r *UserRepo) scanOne(row *sql.Row) (model.UserProfile, error) {
	var u model.UserProfile
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &u.DeviceToken,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.UserProfile, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// SetDeviceToken registers (or clears, with "") the push notification
// device token for a user.
func (r *UserRepo) SetDeviceToken(ctx context.Context, userID, token string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET device_token=? WHERE id=?", token, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// RowsAffected is zero both for unknown users and for an unchanged
	// token; only the former is an error.
	if n == 0 {
		if _, err := r.GetByID(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// DeviceToken returns the registered device token for a user, "" when
// none is registered.
func (r *UserRepo) DeviceToken(ctx context.Context, userID string) (string, error) {
	var tok sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT device_token FROM users WHERE id=? LIMIT 1", userID).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return tok.String, nil
}
