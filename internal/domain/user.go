package domain

import "time"

// User is the domain entity for a registered account.
// PasswordHash is a bcrypt digest; the plaintext is never stored anywhere.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
