package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/cryptox"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/config"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
)

// TokenResponse is what login and refresh hand back to the client.
// Expires is the access token lifetime in seconds.
type TokenResponse struct {
	ID           int64
	AccessToken  string
	Expires      int64
	RefreshToken string
}

// passwordMatches is a seam for tests.
var passwordMatches = cryptox.PasswordMatches

// Stand-in credentials verified when there is no real hash to check, so every
// failed login costs one argon2 derivation.
var (
	dummySalt = strings.Repeat("5a", 16)
	dummyHash = strings.Repeat("0", 128)
)

// AuthService implements login, refresh rotation and logout on top of the
// Token Store.
type AuthService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	secret      string
}

// NewAuthService builds an AuthService hashing with cfg.SecretKey.
func NewAuthService(store dbx.Store, m repomanager.RepositoryManager, cfg *config.Config, tokens *TokenService) *AuthService {
	return &AuthService{
		store:       store,
		repomanager: m,
		tokens:      tokens,
		secret:      cfg.SecretKey,
	}
}

func (s *AuthService) response(t *models.Token) *TokenResponse {
	return &TokenResponse{
		ID:           t.UserID,
		AccessToken:  t.AccessToken,
		Expires:      int64(s.tokens.AccessValidity().Seconds()),
		RefreshToken: t.RefreshToken,
	}
}

// Login checks the credentials of an activated user and issues a new pair.
// Unknown users, wrong passwords, disabled accounts and password-less
// accounts all fail the same way.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	user, err := s.repomanager.Users(s.store.DB()).GetByUsername(ctx, username, true)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			passwordMatches(dummySalt, dummyHash, password, s.secret)
			return nil, common.Unauthenticated(common.MsgInvalidCredentialsDisabled, "login failed for %q: no such active user", username)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load user %q", username)
	}

	if user.HashedPassword == "" {
		passwordMatches(dummySalt, dummyHash, password, s.secret)
		return nil, common.Unauthenticated(common.MsgInvalidCredentialsDisabled, "login failed for user %d: no local password", user.ID)
	}

	if !passwordMatches(user.Salt, user.HashedPassword, password, s.secret) {
		return nil, common.Unauthenticated(common.MsgInvalidCredentialsDisabled, "login failed for user %d: password mismatch", user.ID)
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "issue token for user %d", user.ID)
	}
	return s.response(token), nil
}

// Refresh rotates the pair holding refreshToken in place.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	userID, err := s.tokens.ResolveByRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthenticated(common.MsgInvalidCredentials, "refresh token unknown or expired")
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "resolve refresh token")
	}

	if _, err := s.repomanager.Users(s.store.DB()).GetByID(ctx, userID, true); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthenticated(common.MsgInvalidCredentials, "user %d missing or deactivated", userID)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load user %d", userID)
	}

	token, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthenticated(common.MsgInvalidCredentials, "refresh token expired during rotation")
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "rotate token of user %d", userID)
	}
	return s.response(token), nil
}

// Logout deletes only the pair of the presented access token.
func (s *AuthService) Logout(ctx context.Context, id *Identity, accessToken string) (string, error) {
	if _, err := s.tokens.Revoke(ctx, id.User.ID, accessToken); err != nil {
		return "", common.Internal(common.MsgInternalServerError, err, "logout user %d", id.User.ID)
	}
	return fmt.Sprintf("User %d successfully logged out", id.User.ID), nil
}
