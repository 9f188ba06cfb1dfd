package httpapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/services"
)

var (
	adminRole = &models.Role{ID: 1, Name: common.RoleAdmin}
	userRole  = &models.Role{ID: 2, Name: common.RoleUser}
)

// fakeBackend implements every service interface over a few fixed users.
type fakeBackend struct {
	mu sync.Mutex

	users    map[int64]*models.User
	sessions map[string]*services.Identity
	items    map[int64]*models.Item

	lastUserFilter models.UserFilter
	lastItemFilter models.ItemFilter
	lastUpdate     models.UserUpdate
	loggedOut      []string

	panicOnRoles bool
	rolesErr     error
}

func newFakeBackend() *fakeBackend {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	admin := &models.User{ID: 1, Username: "admin animal", RoleID: 1, Activated: true, CreatedAt: created, HashedPassword: "h", Salt: "s"}
	alice := &models.User{ID: 2, Username: "alice", RoleID: 2, Activated: true, CreatedAt: created}
	bob := &models.User{ID: 3, Username: "bob", RoleID: 2, Activated: true, CreatedAt: created}

	return &fakeBackend{
		users: map[int64]*models.User{1: admin, 2: alice, 3: bob},
		sessions: map[string]*services.Identity{
			"tok-admin": {User: admin, Role: adminRole},
			"tok-alice": {User: alice, Role: userRole},
			"tok-bob":   {User: bob, Role: userRole},
		},
		items: map[int64]*models.Item{
			10: {ID: 10, Name: "lamp", UserID: 2, CreatedAt: created},
		},
	}
}

func (f *fakeBackend) services() Services {
	return Services{
		Auth:     fakeAuth{f},
		Authz:    fakeAuthz{f},
		Versions: fakeVersions{},
		Users:    fakeUsers{f},
		Items:    fakeItems{f},
		Roles:    fakeRoles{f},
	}
}

type fakeVersions struct{}

func (fakeVersions) Check(_ context.Context, v string) error {
	switch v {
	case "", "1.0":
		return nil
	default:
		return common.VersionUnsupported("version %q", v)
	}
}

func (fakeVersions) List(context.Context) ([]*models.Version, error) {
	return []*models.Version{{ID: 1, Version: "1.0", Supported: true}, {ID: 2, Version: "0.9"}}, nil
}

type fakeAuthz struct{ f *fakeBackend }

func (a fakeAuthz) Authenticate(_ context.Context, token string) (*services.Identity, error) {
	if token == "" {
		return nil, common.Unauthenticated(common.MsgNotAuthentified, "no token")
	}
	a.f.mu.Lock()
	defer a.f.mu.Unlock()
	id, ok := a.f.sessions[token]
	if !ok {
		return nil, common.Unauthenticated(common.MsgInvalidCredentials, "unknown token %s", token)
	}
	return id, nil
}

func (a fakeAuthz) RequireAdmin(id *services.Identity) error {
	if id.IsAdmin() {
		return nil
	}
	return common.Forbidden(common.MsgForbiddenAccess, "not admin")
}

func (a fakeAuthz) RequireOwnerOrAdmin(_ context.Context, id *services.Identity, kind services.ResourceKind, rid int64) error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()
	var owner int64
	switch kind {
	case services.ResourceUser:
		u, ok := a.f.users[rid]
		if !ok {
			return common.NotFound(common.MsgUserNotFound, "user %d", rid)
		}
		owner = u.ID
	case services.ResourceItem:
		it, ok := a.f.items[rid]
		if !ok {
			return common.NotFound(common.MsgItemNotFound, "item %d", rid)
		}
		owner = it.UserID
	}
	if id.IsAdmin() || id.User.ID == owner {
		return nil
	}
	return common.Forbidden(common.MsgForbiddenAccess, "not owner")
}

type fakeAuth struct{ f *fakeBackend }

func (a fakeAuth) Login(_ context.Context, username, password string) (*services.TokenResponse, error) {
	if username == "admin animal" && password == "secret" {
		return &services.TokenResponse{ID: 1, AccessToken: "tok-admin", Expires: 7200, RefreshToken: "ref-admin"}, nil
	}
	return nil, common.Unauthenticated(common.MsgInvalidCredentialsDisabled, "bad login")
}

func (a fakeAuth) Refresh(_ context.Context, refresh string) (*services.TokenResponse, error) {
	if refresh == "ref-admin" {
		return &services.TokenResponse{ID: 1, AccessToken: "tok-admin-2", Expires: 7200, RefreshToken: "ref-admin-2"}, nil
	}
	return nil, common.Unauthenticated(common.MsgInvalidCredentials, "bad refresh")
}

func (a fakeAuth) Logout(_ context.Context, id *services.Identity, token string) (string, error) {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()
	a.f.loggedOut = append(a.f.loggedOut, token)
	return fmt.Sprintf("User %d successfully logged out", id.User.ID), nil
}

type fakeUsers struct{ f *fakeBackend }

func (u fakeUsers) Create(_ context.Context, username string, roleID int64) (*services.CreatedUser, error) {
	if username == "alice" {
		return nil, common.Conflict(common.MsgUserAlreadyExists, "dup")
	}
	return &services.CreatedUser{
		User:     &models.User{ID: 50, Username: username, RoleID: roleID, Activated: true},
		Password: "Abcdef123456",
	}, nil
}

func (u fakeUsers) Get(_ context.Context, id int64) (*models.User, error) {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	if usr, ok := u.f.users[id]; ok {
		return usr, nil
	}
	return nil, common.NotFound(common.MsgUserNotFound, "user %d", id)
}

func (u fakeUsers) List(_ context.Context, filter models.UserFilter) (*services.UserPage, error) {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	u.f.lastUserFilter = filter
	return &services.UserPage{Page: 1, Limit: 20, Total: 1, Users: []*models.User{u.f.users[1]}}, nil
}

func (u fakeUsers) Update(_ context.Context, _ *services.Identity, id int64, upd models.UserUpdate) (*models.User, error) {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	u.f.lastUpdate = upd
	usr := *u.f.users[id]
	if upd.Username != nil {
		usr.Username = *upd.Username
	}
	return &usr, nil
}

func (u fakeUsers) Disable(_ context.Context, id int64) (string, error) {
	return fmt.Sprintf("User %d successfully disabled", id), nil
}

type fakeItems struct{ f *fakeBackend }

func (i fakeItems) Create(_ context.Context, owner int64, name string, desc *string) (*models.Item, error) {
	i.f.mu.Lock()
	defer i.f.mu.Unlock()
	for _, it := range i.f.items {
		if it.Name == name {
			return nil, common.Conflict(common.MsgItemAlreadyExists, "dup")
		}
	}
	it := &models.Item{ID: 11, Name: name, Description: desc, UserID: owner}
	i.f.items[it.ID] = it
	return it, nil
}

func (i fakeItems) Get(_ context.Context, id int64) (*models.Item, error) {
	i.f.mu.Lock()
	defer i.f.mu.Unlock()
	if it, ok := i.f.items[id]; ok {
		return it, nil
	}
	return nil, common.NotFound(common.MsgItemNotFound, "item %d", id)
}

func (i fakeItems) List(_ context.Context, filter models.ItemFilter) (*services.ItemPage, error) {
	i.f.mu.Lock()
	defer i.f.mu.Unlock()
	i.f.lastItemFilter = filter
	return &services.ItemPage{Page: 1, Limit: 20, Total: 1, Items: []*models.Item{i.f.items[10]}}, nil
}

func (i fakeItems) Update(_ context.Context, id int64, upd models.ItemUpdate) (*models.Item, error) {
	i.f.mu.Lock()
	defer i.f.mu.Unlock()
	it := *i.f.items[id]
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	return &it, nil
}

func (i fakeItems) Delete(_ context.Context, id int64) (string, error) {
	i.f.mu.Lock()
	defer i.f.mu.Unlock()
	delete(i.f.items, id)
	return fmt.Sprintf("Item %d successfully deleted", id), nil
}

type fakeRoles struct{ f *fakeBackend }

func (r fakeRoles) List(context.Context) ([]*models.Role, error) {
	if r.f.panicOnRoles {
		panic("boom")
	}
	if r.f.rolesErr != nil {
		return nil, r.f.rolesErr
	}
	return []*models.Role{adminRole, userRole}, nil
}

func (r fakeRoles) Get(_ context.Context, id int64) (*models.Role, error) {
	switch id {
	case 1:
		return adminRole, nil
	case 2:
		return userRole, nil
	}
	return nil, common.NotFound(common.MsgRoleNotFound, "role %d", id)
}

var errPlain = errors.New("connection reset by peer")
