package users

import (
	"context"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64, activatedOnly bool) (*models.User, error)
	GetByUsername(ctx context.Context, username string, activatedOnly bool) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	Count(ctx context.Context, filter models.UserFilter) (int, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	SetActivated(ctx context.Context, id int64, activated bool) (bool, error)
}
