package httpapi

import (
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	ID           int64  `json:"id"`
	AccessToken  string `json:"access_token"`
	Expires      int64  `json:"expires"`
	RefreshToken string `json:"refresh_token"`
}

func toTokenResponse(t *services.TokenResponse) tokenResponse {
	return tokenResponse{ID: t.ID, AccessToken: t.AccessToken, Expires: t.Expires, RefreshToken: t.RefreshToken}
}

type createUserRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	RoleID   int64  `json:"role_id" binding:"required"`
}

type updateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=64"`
	Password  *string `json:"password"`
	RoleID    *int64  `json:"role_id"`
	Activated *bool   `json:"activated"`
}

type listUsersQuery struct {
	Username  string `form:"username"`
	Activated *bool  `form:"activated"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
}

// userResponse is the public view of a user. Hash and salt never leave the
// server.
type userResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	RoleID    int64      `json:"role_id"`
	Activated bool       `json:"activated"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		RoleID:    u.RoleID,
		Activated: u.Activated,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type createdUserResponse struct {
	userResponse
	Password string `json:"password"`
}

type userListResponse struct {
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
	Users []userResponse `json:"users"`
}

type createItemRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}

type updateItemRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}

type listItemsQuery struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	Limit       int    `form:"limit" binding:"omitempty,min=1"`
}

type itemResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	UserID      int64      `json:"user_id"`
}

func toItemResponse(it *models.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
		UserID:      it.UserID,
	}
}

type itemListResponse struct {
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
	Items []itemResponse `json:"items"`
}

type roleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type versionResponse struct {
	ID        int64  `json:"id"`
	Version   string `json:"version"`
	Supported bool   `json:"supported"`
}
