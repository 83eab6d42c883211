package models

import "time"

// User represents a registered account.
// PasswordHash is a bcrypt hash and is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity attached to a request context.
// It carries only the claims needed downstream, not the full account row.
type Principal struct {
	UserID   int64
	Username string
	Email    string
}
