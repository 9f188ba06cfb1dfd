package models

import "time"

// Token is one login session: an access/refresh pair owned by a user.
type Token struct {
	ID                     int64
	UserID                 int64
	AccessToken            string
	AccessTokenExpiration  time.Time
	RefreshToken           string
	RefreshTokenExpiration time.Time
	CreatedAt              time.Time
}
