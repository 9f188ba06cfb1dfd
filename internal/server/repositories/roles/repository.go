package roles

import (
	"context"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Role, error)
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
}
