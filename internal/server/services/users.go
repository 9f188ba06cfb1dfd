package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/cryptox"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/config"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
)

// GeneratedPasswordLength is the size of passwords handed out on user creation.
const GeneratedPasswordLength = 12

// pageBounds applies the 1-based page default and caps the page size.
func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > common.MaxResultsPerPage {
		limit = common.MaxResultsPerPage
	}
	return page, limit
}

// CreatedUser carries the generated password, which is never stored in clear
// and is shown only once.
type CreatedUser struct {
	*models.User
	Password string
}

// UserPage is one page of a user listing. Page and Limit are the values
// actually applied, Total counts every match.
type UserPage struct {
	Page  int
	Limit int
	Total int
	Users []*models.User
}

// UserService manages accounts. Updates go through the Authorizer guard and
// disabling an account revokes its tokens.
type UserService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	authorizer  *Authorizer
	tokens      *TokenService
	secret      string
}

// NewUserService builds a UserService hashing with cfg.SecretKey.
func NewUserService(store dbx.Store, m repomanager.RepositoryManager, cfg *config.Config, authz *Authorizer, tokens *TokenService) *UserService {
	return &UserService{
		store:       store,
		repomanager: m,
		authorizer:  authz,
		tokens:      tokens,
		secret:      cfg.SecretKey,
	}
}

// Create registers an activated user with a random password.
func (s *UserService) Create(ctx context.Context, username string, roleID int64) (*CreatedUser, error) {
	db := s.store.DB()
	users := s.repomanager.Users(db)

	_, err := users.GetByUsername(ctx, username, false)
	if err == nil {
		return nil, common.Conflict(common.MsgUserAlreadyExists, "user with same username %s already exists", username)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.Internal(common.MsgInternalServerError, err, "load user %q", username)
	}

	if _, err := s.repomanager.Roles(db).GetByID(ctx, roleID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.BadRequest(common.MsgRoleNotFound, "role %d not found", roleID)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load role %d", roleID)
	}

	password, err := cryptox.GenerateRandomPassword(GeneratedPasswordLength)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "generate password")
	}
	hashed, err := cryptox.HashPassword(password, s.secret)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "hash password")
	}

	user, err := users.Create(ctx, &models.User{
		Username:       username,
		HashedPassword: hashed.Hash,
		Salt:           hashed.Salt,
		Activated:      true,
		RoleID:         roleID,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(common.MsgUserAlreadyExists, "user with same username %s already exists", username)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "create user %q", username)
	}

	return &CreatedUser{User: user, Password: password}, nil
}

// Get returns an activated user.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.store.DB()).GetByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.MsgUserNotFound, "user %d not found", id)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load user %d", id)
	}
	return u, nil
}

// List filters by case-insensitive username substring and activation.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) (*UserPage, error) {
	filter.Page, filter.Limit = pageBounds(filter.Page, filter.Limit)
	users := s.repomanager.Users(s.store.DB())

	list, err := users.List(ctx, filter)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "list users")
	}
	total, err := users.Count(ctx, filter)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "count users")
	}

	return &UserPage{Page: filter.Page, Limit: filter.Limit, Total: total, Users: list}, nil
}

// Update applies upd to user id on behalf of actor. The caller has already
// established that actor is the user or an admin.
func (s *UserService) Update(ctx context.Context, actor *Identity, id int64, upd models.UserUpdate) (*models.User, error) {
	users := s.repomanager.Users(s.store.DB())

	target, err := users.GetByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.MsgUserNotFound, "user %d not found", id)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load user %d", id)
	}

	if err := s.authorizer.CheckUserUpdate(ctx, actor, target, upd); err != nil {
		return nil, err
	}

	if upd.Username != nil && *upd.Username != "" {
		other, err := users.GetByUsername(ctx, *upd.Username, false)
		switch {
		case err == nil && other.ID != id:
			return nil, common.Conflict(common.MsgUserAlreadyExists, "user with same username %s already exists", *upd.Username)
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return nil, common.Internal(common.MsgInternalServerError, err, "load user %q", *upd.Username)
		}
		target.Username = *upd.Username
	}
	if upd.Password != nil && *upd.Password != "" {
		hashed, err := cryptox.HashPassword(*upd.Password, s.secret)
		if err != nil {
			return nil, common.Internal(common.MsgInternalServerError, err, "hash password")
		}
		target.HashedPassword, target.Salt = hashed.Hash, hashed.Salt
	}
	if upd.RoleID != nil && *upd.RoleID != 0 {
		target.RoleID = *upd.RoleID
	}
	if upd.Activated != nil {
		target.Activated = *upd.Activated
	}

	updated, err := users.Update(ctx, target)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(common.MsgUserAlreadyExists, "user with same username %s already exists", target.Username)
		}
		return nil, common.Internal(common.MsgFailedToUpdateUser, err, "error when trying to update user %d", id)
	}
	return updated, nil
}

// Disable logs the user out everywhere and deactivates the account.
func (s *UserService) Disable(ctx context.Context, id int64) (string, error) {
	if _, err := s.tokens.Revoke(ctx, id, ""); err != nil {
		return "", common.Internal(common.MsgFailedToDisableUser, err, "revoke tokens of user %d", id)
	}

	ok, err := s.repomanager.Users(s.store.DB()).SetActivated(ctx, id, false)
	if err != nil {
		return "", common.Internal(common.MsgFailedToDisableUser, err, "error when trying to disable user %d", id)
	}
	if !ok {
		return "", common.Internal(common.MsgFailedToDisableUser, nil, "error when trying to disable user %d", id)
	}
	return fmt.Sprintf("User %d successfully disabled", id), nil
}
