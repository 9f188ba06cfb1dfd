// Package httpapi exposes the itemkeeper services over HTTP using gin.
//
// Every route except /versions, /metrics and /healthz passes the client
// version gate. Capability guards (authenticated, admin, owner-or-admin) are
// plain gin middleware placed in front of the handlers that need them.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/logging"
	"github.com/dmitrijs2005/itemkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService issues, rotates and revokes token pairs.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenResponse, error)
	Logout(ctx context.Context, id *services.Identity, accessToken string) (string, error)
}

// Authorizer backs the capability guards.
type Authorizer interface {
	Authenticate(ctx context.Context, accessToken string) (*services.Identity, error)
	RequireAdmin(id *services.Identity) error
	RequireOwnerOrAdmin(ctx context.Context, id *services.Identity, kind services.ResourceKind, resourceID int64) error
}

// VersionGate checks the x-version header.
type VersionGate interface {
	Check(ctx context.Context, declared string) error
	List(ctx context.Context) ([]*models.Version, error)
}

// UserService is the user resource.
type UserService interface {
	Create(ctx context.Context, username string, roleID int64) (*services.CreatedUser, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) (*services.UserPage, error)
	Update(ctx context.Context, actor *services.Identity, id int64, upd models.UserUpdate) (*models.User, error)
	Disable(ctx context.Context, id int64) (string, error)
}

// ItemService is the item resource.
type ItemService interface {
	Create(ctx context.Context, ownerID int64, name string, description *string) (*models.Item, error)
	Get(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) (*services.ItemPage, error)
	Update(ctx context.Context, id int64, upd models.ItemUpdate) (*models.Item, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// RoleService is the read-only role resource.
type RoleService interface {
	List(ctx context.Context) ([]*models.Role, error)
	Get(ctx context.Context, id int64) (*models.Role, error)
}

// Services bundles the collaborators the handlers call into.
type Services struct {
	Auth     AuthService
	Authz    Authorizer
	Versions VersionGate
	Users    UserService
	Items    ItemService
	Roles    RoleService
}

// HTTPServer serves the JSON API and owns the http.Server lifecycle.
type HTTPServer struct {
	address         string
	svc             Services
	logger          logging.Logger
	metrics         *metrics.Metrics
	shutdownTimeout time.Duration
}

// NewHTTPServer builds a server listening on address. m may be nil, in which
// case nothing is recorded and /metrics serves an empty registry.
func NewHTTPServer(address string, l logging.Logger, m *metrics.Metrics, svc Services) *HTTPServer {
	return &HTTPServer{
		address:         address,
		svc:             svc,
		logger:          l.With("module", "http_server"),
		metrics:         m,
		shutdownTimeout: 10 * time.Second,
	}
}

// Handler builds the gin engine with every route registered.
func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(s.requestID(), s.accessLog(), s.recovery())
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, statusResponse{Detail: "Not Found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, statusResponse{Detail: "Method Not Allowed"})
	})

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/versions", s.listVersions)

	api := r.Group("/", s.versionGate())

	api.POST("/auth/token", s.login)
	api.POST("/auth/refresh", s.refresh)
	api.GET("/auth/me", s.authenticated(), s.me)
	api.POST("/auth/logout", s.authenticated(), s.logout)

	api.POST("/users", s.authenticated(), s.adminOnly(), s.createUser)
	api.GET("/users", s.listUsers)
	api.GET("/users/:user_id", s.getUser)
	api.PATCH("/users/:user_id", s.authenticated(), s.ownerOrAdmin(services.ResourceUser, "user_id"), s.updateUser)
	api.DELETE("/users/:user_id", s.authenticated(), s.ownerOrAdmin(services.ResourceUser, "user_id"), s.disableUser)

	api.POST("/items", s.authenticated(), s.createItem)
	api.GET("/items", s.authenticated(), s.listItems)
	api.GET("/items/:item_id", s.authenticated(), s.getItem)
	api.PATCH("/items/:item_id", s.authenticated(), s.ownerOrAdmin(services.ResourceItem, "item_id"), s.updateItem)
	api.DELETE("/items/:item_id", s.authenticated(), s.ownerOrAdmin(services.ResourceItem, "item_id"), s.deleteItem)

	api.GET("/roles", s.listRoles)
	api.GET("/roles/:role_id", s.getRole)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
