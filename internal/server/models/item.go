package models

import "time"

type Item struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	UserID      int64
}

type ItemUpdate struct {
	Name        *string
	Description *string
}

// ItemFilter matches name and description case-insensitively by substring.
type ItemFilter struct {
	Name        string
	Description string
	Page        int
	Limit       int
}
