package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/config"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
)

// Clock returns the current time. Tests replace it to move time forward.
type Clock func() time.Time

// TokenService owns the lifecycle of access/refresh token pairs.
//
// Tokens are opaque random strings; validity is decided entirely by the
// stored expirations. A user keeps at most maxPerUser live pairs; issuing one
// more evicts the pair whose refresh window closes first. Two concurrent
// Issue calls may both see room under the cap and overshoot it by one; the
// next Issue brings the count back down.
type TokenService struct {
	store           dbx.Store
	repomanager     repomanager.RepositoryManager
	accessValidity  time.Duration
	refreshValidity time.Duration
	maxPerUser      int
	now             Clock
	newToken        func() (string, error)
}

// NewTokenService builds a TokenService with the lifetimes and per-user cap
// from cfg. A MaxTokensPerUser of 0 disables eviction.
func NewTokenService(store dbx.Store, m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		store:           store,
		repomanager:     m,
		accessValidity:  cfg.AccessTokenValidityDuration,
		refreshValidity: cfg.RefreshTokenValidityDuration,
		maxPerUser:      cfg.MaxTokensPerUser,
		now:             func() time.Time { return time.Now().UTC() },
		newToken:        common.MakeToken,
	}
}

// WithClock replaces the time source and returns s.
func (s *TokenService) WithClock(c Clock) *TokenService {
	s.now = c
	return s
}

// AccessValidity is the lifetime given to freshly issued access tokens.
func (s *TokenService) AccessValidity() time.Duration {
	return s.accessValidity
}

func (s *TokenService) nextPair(userID int64, now time.Time) (*models.Token, error) {
	access, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &models.Token{
		UserID:                 userID,
		AccessToken:            access,
		AccessTokenExpiration:  now.Add(s.accessValidity),
		RefreshToken:           refresh,
		RefreshTokenExpiration: now.Add(s.refreshValidity),
		CreatedAt:              now,
	}, nil
}

// Issue creates a new token pair for userID, evicting the user's
// soonest-expiring live pair first when the cap is reached.
func (s *TokenService) Issue(ctx context.Context, userID int64) (*models.Token, error) {
	now := s.now()
	token, err := s.nextPair(userID, now)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tokens(tx)

		if s.maxPerUser > 0 {
			live, err := repo.CountLive(ctx, userID, now)
			if err != nil {
				return err
			}
			if live >= s.maxPerUser {
				if _, err := repo.DeleteSoonestExpiring(ctx, userID, now); err != nil {
					return err
				}
			}
		}

		token, err = repo.Create(ctx, token)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Rotate replaces both values and expirations of the live pair holding
// refreshToken, keeping the same row. Unknown or expired refresh tokens
// yield common.ErrorNotFound.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*models.Token, error) {
	now := s.now()
	next, err := s.nextPair(0, now)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Tokens(s.store.DB()).Rotate(ctx, refreshToken, now, next)
}

// ResolveByAccess returns the owner of a valid access token or
// common.ErrorNotFound.
func (s *TokenService) ResolveByAccess(ctx context.Context, accessToken string) (int64, error) {
	t, err := s.repomanager.Tokens(s.store.DB()).FindByAccess(ctx, accessToken, s.now())
	if err != nil {
		return 0, err
	}
	return t.UserID, nil
}

// ResolveByRefresh returns the owner of a valid refresh token or
// common.ErrorNotFound.
func (s *TokenService) ResolveByRefresh(ctx context.Context, refreshToken string) (int64, error) {
	t, err := s.repomanager.Tokens(s.store.DB()).FindByRefresh(ctx, refreshToken, s.now())
	if err != nil {
		return 0, err
	}
	return t.UserID, nil
}

// Revoke deletes the user's pair holding accessToken, or all of the user's
// pairs when accessToken is empty. It returns the number of pairs removed.
func (s *TokenService) Revoke(ctx context.Context, userID int64, accessToken string) (int64, error) {
	repo := s.repomanager.Tokens(s.store.DB())
	if accessToken == "" {
		return repo.DeleteByUser(ctx, userID)
	}
	return repo.DeleteByAccess(ctx, userID, accessToken)
}

// Sweep deletes every pair whose refresh window has closed.
func (s *TokenService) Sweep(ctx context.Context) (int64, error) {
	return s.repomanager.Tokens(s.store.DB()).DeleteExpired(ctx, s.now())
}
