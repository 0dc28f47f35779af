package domain

import "time"

// Admin is a dashboard user. The first login with an unknown email creates
// the record; PasswordHash is a bcrypt hash, never the plain password.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
