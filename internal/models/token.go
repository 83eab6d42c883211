package models

import "time"

// RefreshToken represents a persisted refresh token record.
// At most one live record exists per user: logins and rotations overwrite
// the user's row instead of inserting additional ones.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}
