package items

import (
	"context"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	GetByName(ctx context.Context, name string) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error)
	Count(ctx context.Context, filter models.ItemFilter) (int, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	Delete(ctx context.Context, id int64) (int64, error)
}
