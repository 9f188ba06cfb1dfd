package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

// Repository stores login sessions. "Live" always means the refresh
// expiration is after now.
type Repository interface {
	CountLive(ctx context.Context, userID int64, now time.Time) (int, error)
	DeleteSoonestExpiring(ctx context.Context, userID int64, now time.Time) (int64, error)
	Create(ctx context.Context, token *models.Token) (*models.Token, error)
	Rotate(ctx context.Context, refreshToken string, now time.Time, next *models.Token) (*models.Token, error)
	FindByAccess(ctx context.Context, accessToken string, now time.Time) (*models.Token, error)
	FindByRefresh(ctx context.Context, refreshToken string, now time.Time) (*models.Token, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteByAccess(ctx context.Context, userID int64, accessToken string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
