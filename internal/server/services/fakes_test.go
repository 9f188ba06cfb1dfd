package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/cryptox"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/config"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/items"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/roles"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/versions"
	"github.com/stretchr/testify/require"
)

// --- in-memory store ---

const (
	adminRoleID int64 = 1
	userRoleID  int64 = 2
)

type memDB struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	roles    map[int64]*models.Role
	tokens   map[int64]*models.Token
	versions map[string]*models.Version
	items    map[int64]*models.Item
	nextID   int64

	// failWith makes every repository call fail when set.
	failWith error
}

func newMemDB() *memDB {
	return &memDB{
		users: map[int64]*models.User{},
		roles: map[int64]*models.Role{
			adminRoleID: {ID: adminRoleID, Name: common.RoleAdmin},
			userRoleID:  {ID: userRoleID, Name: common.RoleUser},
		},
		tokens: map[int64]*models.Token{},
		versions: map[string]*models.Version{
			"1.0": {ID: 1, Version: "1.0", Supported: true},
			"0.9": {ID: 2, Version: "0.9", Supported: false},
		},
		items:  map[int64]*models.Item{},
		nextID: 100,
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

type fakeStore struct{}

func (fakeStore) DB() dbx.DBTX { return nil }
func (fakeStore) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	return fn(ctx, nil)
}

type memManager struct{ db *memDB }

func (m *memManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *memManager) RollbackMigration(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository                  { return &memUsers{m.db} }
func (m *memManager) Roles(dbx.DBTX) roles.Repository                  { return &memRoles{m.db} }
func (m *memManager) Tokens(dbx.DBTX) tokens.Repository                { return &memTokens{m.db} }
func (m *memManager) Versions(dbx.DBTX) versions.Repository            { return &memVersions{m.db} }
func (m *memManager) Items(dbx.DBTX) items.Repository                  { return &memItems{m.db} }

// --- users ---

type memUsers struct{ db *memDB }

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, other := range r.db.users {
		if other.Username == u.Username {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.db.id()
	c.CreatedAt = time.Now()
	r.db.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memUsers) GetByID(_ context.Context, id int64, activatedOnly bool) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	u, ok := r.db.users[id]
	if !ok || (activatedOnly && !u.Activated) {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *memUsers) GetByUsername(_ context.Context, username string, activatedOnly bool) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, u := range r.db.users {
		if u.Username == username && (!activatedOnly || u.Activated) {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) matching(f models.UserFilter) []*models.User {
	var res []*models.User
	for _, u := range r.db.users {
		if f.Activated != nil && u.Activated != *f.Activated {
			continue
		}
		if f.Username != "" && !strings.Contains(strings.ToLower(u.Username), strings.ToLower(f.Username)) {
			continue
		}
		out := *u
		res = append(res, &out)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (r *memUsers) List(_ context.Context, f models.UserFilter) ([]*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	return page(r.matching(f), f.Page, f.Limit), nil
}

func (r *memUsers) Count(_ context.Context, f models.UserFilter) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return 0, r.db.failWith
	}
	return len(r.matching(f)), nil
}

func (r *memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	if _, ok := r.db.users[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	for _, other := range r.db.users {
		if other.ID != u.ID && other.Username == u.Username {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	now := time.Now()
	c.UpdatedAt = &now
	r.db.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memUsers) SetActivated(_ context.Context, id int64, activated bool) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return false, r.db.failWith
	}
	u, ok := r.db.users[id]
	if !ok {
		return false, nil
	}
	u.Activated = activated
	return true, nil
}

// --- roles ---

type memRoles struct{ db *memDB }

func (r *memRoles) List(context.Context) ([]*models.Role, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	var res []*models.Role
	for _, role := range r.db.roles {
		out := *role
		res = append(res, &out)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *memRoles) GetByID(_ context.Context, id int64) (*models.Role, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	role, ok := r.db.roles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *role
	return &out, nil
}

func (r *memRoles) GetByName(_ context.Context, name string) (*models.Role, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, role := range r.db.roles {
		if role.Name == name {
			out := *role
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- tokens ---

type memTokens struct{ db *memDB }

func (r *memTokens) CountLive(_ context.Context, userID int64, now time.Time) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return 0, r.db.failWith
	}
	n := 0
	for _, t := range r.db.tokens {
		if t.UserID == userID && t.RefreshTokenExpiration.After(now) {
			n++
		}
	}
	return n, nil
}

func (r *memTokens) DeleteSoonestExpiring(_ context.Context, userID int64, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return 0, r.db.failWith
	}
	var victim *models.Token
	for _, t := range r.db.tokens {
		if t.UserID != userID || !t.RefreshTokenExpiration.After(now) {
			continue
		}
		if victim == nil || t.RefreshTokenExpiration.Before(victim.RefreshTokenExpiration) {
			victim = t
		}
	}
	if victim == nil {
		return 0, nil
	}
	delete(r.db.tokens, victim.ID)
	return 1, nil
}

func (r *memTokens) Create(_ context.Context, t *models.Token) (*models.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, other := range r.db.tokens {
		if other.AccessToken == t.AccessToken || other.RefreshToken == t.RefreshToken {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *t
	c.ID = r.db.id()
	r.db.tokens[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memTokens) Rotate(_ context.Context, refresh string, now time.Time, next *models.Token) (*models.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, t := range r.db.tokens {
		if t.RefreshToken == refresh && t.RefreshTokenExpiration.After(now) {
			t.AccessToken = next.AccessToken
			t.AccessTokenExpiration = next.AccessTokenExpiration
			t.RefreshToken = next.RefreshToken
			t.RefreshTokenExpiration = next.RefreshTokenExpiration
			out := *t
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memTokens) FindByAccess(_ context.Context, token string, now time.Time) (*models.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, t := range r.db.tokens {
		if t.AccessToken == token && t.AccessTokenExpiration.After(now) {
			out := *t
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memTokens) FindByRefresh(_ context.Context, token string, now time.Time) (*models.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, t := range r.db.tokens {
		if t.RefreshToken == token && t.RefreshTokenExpiration.After(now) {
			out := *t
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memTokens) deleteWhere(pred func(*models.Token) bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return 0, r.db.failWith
	}
	var n int64
	for id, t := range r.db.tokens {
		if pred(t) {
			delete(r.db.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *memTokens) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	return r.deleteWhere(func(t *models.Token) bool { return t.UserID == userID })
}

func (r *memTokens) DeleteByAccess(_ context.Context, userID int64, token string) (int64, error) {
	return r.deleteWhere(func(t *models.Token) bool { return t.UserID == userID && t.AccessToken == token })
}

func (r *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(t *models.Token) bool { return t.RefreshTokenExpiration.Before(now) })
}

// --- versions ---

type memVersions struct{ db *memDB }

func (r *memVersions) List(context.Context) ([]*models.Version, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	var res []*models.Version
	for _, v := range r.db.versions {
		out := *v
		res = append(res, &out)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *memVersions) Get(_ context.Context, version string) (*models.Version, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	v, ok := r.db.versions[version]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *v
	return &out, nil
}

// --- items ---

type memItems struct{ db *memDB }

func (r *memItems) Create(_ context.Context, it *models.Item) (*models.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, other := range r.db.items {
		if other.Name == it.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *it
	c.ID = r.db.id()
	c.CreatedAt = time.Now()
	r.db.items[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memItems) GetByID(_ context.Context, id int64) (*models.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	it, ok := r.db.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *it
	return &out, nil
}

func (r *memItems) GetByName(_ context.Context, name string) (*models.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	for _, it := range r.db.items {
		if it.Name == name {
			out := *it
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memItems) matching(f models.ItemFilter) []*models.Item {
	var res []*models.Item
	for _, it := range r.db.items {
		if f.Name != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Description != "" {
			if it.Description == nil || !strings.Contains(strings.ToLower(*it.Description), strings.ToLower(f.Description)) {
				continue
			}
		}
		out := *it
		res = append(res, &out)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (r *memItems) List(_ context.Context, f models.ItemFilter) ([]*models.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	return page(r.matching(f), f.Page, f.Limit), nil
}

func (r *memItems) Count(_ context.Context, f models.ItemFilter) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return 0, r.db.failWith
	}
	return len(r.matching(f)), nil
}

func (r *memItems) Update(_ context.Context, it *models.Item) (*models.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return nil, r.db.failWith
	}
	if _, ok := r.db.items[it.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	for _, other := range r.db.items {
		if other.ID != it.ID && other.Name == it.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *it
	now := time.Now()
	c.UpdatedAt = &now
	r.db.items[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memItems) Delete(_ context.Context, id int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failWith != nil {
		return 0, r.db.failWith
	}
	if _, ok := r.db.items[id]; !ok {
		return 0, nil
	}
	delete(r.db.items, id)
	return 1, nil
}

func page[T any](all []T, p, limit int) []T {
	off := models.Offset(p, limit)
	if off >= len(all) {
		return nil
	}
	end := off + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[off:end]
}

// --- fixture ---

const testSecret = "test-secret"

type fixture struct {
	db    *memDB
	store dbx.Store
	m     *memManager
	cfg   *config.Config
	now   time.Time

	tokens *TokenService
	authz  *Authorizer
	auth   *AuthService
	users  *UserService
	items  *ItemService
	roles  *RoleService
	gate   *VersionGate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret

	f := &fixture{
		db:    newMemDB(),
		store: fakeStore{},
		cfg:   cfg,
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.m = &memManager{db: f.db}

	f.tokens = NewTokenService(f.store, f.m, cfg).WithClock(func() time.Time { return f.now })
	f.authz = NewAuthorizer(f.store, f.m, f.tokens)
	f.auth = NewAuthService(f.store, f.m, cfg, f.tokens)
	f.users = NewUserService(f.store, f.m, cfg, f.authz, f.tokens)
	f.items = NewItemService(f.store, f.m)
	f.roles = NewRoleService(f.store, f.m)
	f.gate = NewVersionGate(f.store, f.m)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// addUser stores a user directly. An empty password leaves the user without
// a hash, like an externally authenticated account.
func (f *fixture) addUser(t *testing.T, username, password string, roleID int64, activated bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, RoleID: roleID, Activated: activated}
	if password != "" {
		p, err := cryptox.HashPassword(password, testSecret)
		require.NoError(t, err)
		u.HashedPassword, u.Salt = p.Hash, p.Salt
	}
	created, err := f.m.Users(nil).Create(context.Background(), u)
	require.NoError(t, err)
	return created
}

func (f *fixture) identity(t *testing.T, u *models.User) *Identity {
	t.Helper()
	role, err := f.m.Roles(nil).GetByID(context.Background(), u.RoleID)
	require.NoError(t, err)
	return &Identity{User: u, Role: role}
}

func (f *fixture) tokenCount() int {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return len(f.db.tokens)
}

func requireFault(t *testing.T, err error, kind common.Kind, detail string) {
	t.Helper()
	require.Error(t, err)
	fault, ok := common.AsFault(err)
	require.True(t, ok, "expected fault, got %v", err)
	require.Equal(t, kind, fault.Kind, fault.Info)
	if detail != "" {
		require.Equal(t, detail, fault.Detail)
	}
}

func ptr[T any](v T) *T { return &v }
