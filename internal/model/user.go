package model

import "time"

// UserProfile represents an application user as stored in the `users`
// table.  Profiles are created at registration and updated when the
// client registers a device token for push notifications; the
// notification gateway reads DeviceToken during its lookup step.
//
// Fields:
//
//	ID           – primary key (UUID string); the JWT subject.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	DisplayName  – name shown in the UI.
//	Role         – ADMIN or MEMBER.
//	DeviceToken  – push notification device token ("" when unregistered).
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type UserProfile struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	DisplayName  string    // users.display_name
	Role         string    // users.role
	DeviceToken  string    // users.device_token
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
