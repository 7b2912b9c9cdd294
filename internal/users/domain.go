package users

import "time"

// User is the profile view of an account.
type User struct {
	ID         int64
	Email      string
	Username   string
	FullName   string
	IsActive   bool
	IsVerified bool
	Plan       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastLogin  *time.Time
}
