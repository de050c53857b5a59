package users

import "time"

// User is the identity anchor. Email, phone and username are optional
// individually but at least one must be present. A user holds exactly one
// role at a time.
type User struct {
	ID           int64
	Email        string
	Phone        string
	Username     string
	Name         string
	PasswordHash string
	IsActive     bool
	IsVerified   bool
	RoleID       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
