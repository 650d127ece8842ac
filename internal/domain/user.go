package domain

import "time"

// User represents a registered account able to author and like posts.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the verified token payload attached to a request. It is
// ephemeral and never persisted.
type Identity struct {
	UserID   int64
	Username string
}
