package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	User *models.User
	Role *models.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role != nil && i.Role.Name == common.RoleAdmin
}

// ResourceKind names what an owner-or-admin check is about.
type ResourceKind string

const (
	ResourceUser ResourceKind = "user"
	ResourceItem ResourceKind = "item"
)

// Authorizer turns bearer tokens into identities and enforces capabilities.
type Authorizer struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
}

// NewAuthorizer builds an Authorizer resolving tokens through tokens.
func NewAuthorizer(store dbx.Store, m repomanager.RepositoryManager, tokens *TokenService) *Authorizer {
	return &Authorizer{store: store, repomanager: m, tokens: tokens}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
}

// Authenticate resolves an access token to the activated user owning it.
func (a *Authorizer) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, common.Unauthenticated(common.MsgNotAuthentified, "no bearer token")
	}

	userID, err := a.tokens.ResolveByAccess(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthenticated(common.MsgInvalidCredentials, "access token unknown or expired")
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "resolve access token")
	}

	db := a.store.DB()
	user, err := a.repomanager.Users(db).GetByID(ctx, userID, true)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthenticated(common.MsgInvalidCredentials, "user %d missing or deactivated", userID)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load user %d", userID)
	}

	role, err := a.repomanager.Roles(db).GetByID(ctx, user.RoleID)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "load role %d of user %d", user.RoleID, userID)
	}

	return &Identity{User: user, Role: role}, nil
}

// RequireAdmin fails with Forbidden unless id holds the admin role.
func (a *Authorizer) RequireAdmin(id *Identity) error {
	if id.IsAdmin() {
		return nil
	}
	return common.Forbidden(common.MsgForbiddenAccess, "user %d does not have access to this resource", id.User.ID)
}

// RequireOwnerOrAdmin fails with NotFound when the resource does not exist,
// then lets admins through and everybody else only if they own it. Users are
// looked up regardless of activation so that admins can reactivate them.
func (a *Authorizer) RequireOwnerOrAdmin(ctx context.Context, id *Identity, kind ResourceKind, resourceID int64) error {
	db := a.store.DB()

	var owner int64
	switch kind {
	case ResourceUser:
		u, err := a.repomanager.Users(db).GetByID(ctx, resourceID, false)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NotFound(common.MsgUserNotFound, "user %d not found", resourceID)
			}
			return common.Internal(common.MsgInternalServerError, err, "load user %d", resourceID)
		}
		owner = u.ID
	case ResourceItem:
		it, err := a.repomanager.Items(db).GetByID(ctx, resourceID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NotFound(common.MsgItemNotFound, "item %d not found", resourceID)
			}
			return common.Internal(common.MsgInternalServerError, err, "load item %d", resourceID)
		}
		owner = it.UserID
	default:
		return common.Internal(common.MsgInternalServerError, nil, "unknown resource kind %q", kind)
	}

	if id.IsAdmin() || id.User.ID == owner {
		return nil
	}
	return common.Forbidden(common.MsgForbiddenAccess, "user %d does not have rights to edit %s %d", id.User.ID, kind, resourceID)
}

// CheckUserUpdate enforces who may change what on a user record:
//   - a non-admin may only edit themselves
//   - an admin may not edit another admin, nor hand the admin role to someone else
//   - a non-admin may not make themselves admin
//   - only admins may flip the activation flag
//
// The requested role must exist.
func (a *Authorizer) CheckUserUpdate(ctx context.Context, actor *Identity, target *models.User, upd models.UserUpdate) error {
	roles := a.repomanager.Roles(a.store.DB())

	adminRole, err := roles.GetByName(ctx, common.RoleAdmin)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.BadRequest(common.MsgRoleNotFound, "admin role missing")
		}
		return common.Internal(common.MsgInternalServerError, err, "load admin role")
	}

	givenRoleID := target.RoleID
	if upd.RoleID != nil && *upd.RoleID != 0 {
		if _, err := roles.GetByID(ctx, *upd.RoleID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.BadRequest(common.MsgRoleNotFound, "role %d not found", *upd.RoleID)
			}
			return common.Internal(common.MsgInternalServerError, err, "load role %d", *upd.RoleID)
		}
		givenRoleID = *upd.RoleID
	}

	actorIsAdmin := actor.IsAdmin()
	givenIsAdmin := givenRoleID == adminRole.ID
	targetIsAdmin := target.RoleID == adminRole.ID

	if actor.User.ID != target.ID {
		if !actorIsAdmin {
			return common.Forbidden(common.MsgCannotEditUserNonAdmin,
				"user %d is not admin and cannot edit user %d", actor.User.ID, target.ID)
		}
		if targetIsAdmin || givenIsAdmin {
			return common.Forbidden(common.MsgCannotEditAdminUser,
				"user %d cannot edit admin user %d", actor.User.ID, target.ID)
		}
	} else if givenIsAdmin && !actorIsAdmin {
		return common.Forbidden(common.MsgCannotSetSelfAdmin,
			"user %d cannot elevate own permissions to admin", actor.User.ID)
	}

	if upd.Activated != nil && *upd.Activated != target.Activated && !actorIsAdmin {
		return common.Forbidden(common.MsgCannotActivateAsNonAdmin,
			"user %d cannot enable/disable without being admin", actor.User.ID)
	}
	return nil
}
