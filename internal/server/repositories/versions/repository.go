package versions

import (
	"context"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Version, error)
	Get(ctx context.Context, version string) (*models.Version, error)
}
