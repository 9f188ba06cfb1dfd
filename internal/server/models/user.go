// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. An empty HashedPassword marks an externally
// authenticated user that can never log in with a password.
type User struct {
	ID             int64
	Username       string
	HashedPassword string
	Salt           string
	Activated      bool
	RoleID         int64
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// UserUpdate carries the optional fields of a user PATCH. Nil means unchanged.
type UserUpdate struct {
	Username  *string
	Password  *string
	RoleID    *int64
	Activated *bool
}

// UserFilter narrows user listings. A nil Activated lists both states.
type UserFilter struct {
	Username  string
	Activated *bool
	Page      int
	Limit     int
}
