// Package server wires configuration, storage, services, the HTTP API and the
// token sweeper together and runs them until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/logging"
	"github.com/dmitrijs2005/itemkeeper/internal/server/config"
	"github.com/dmitrijs2005/itemkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/itemkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/itemkeeper/internal/server/services"
	"github.com/dmitrijs2005/itemkeeper/internal/server/sweeper"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	httpServer  *httpapi.HTTPServer
	sweeper     *sweeper.Sweeper
	// sweepStore is the sweeper's own handle; it shares only the pool.
	sweepStore  dbx.Store
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	if c.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(c, logger, db, repomanager.NewPostgresRepositoryManager()), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, m repomanager.RepositoryManager) *App {
	store := dbx.NewSQLStore(db, nil)
	mx := metrics.New(prometheus.NewRegistry())

	tokens := services.NewTokenService(store, m, c)
	authz := services.NewAuthorizer(store, m, tokens)

	svc := httpapi.Services{
		Auth:     services.NewAuthService(store, m, c, tokens),
		Authz:    authz,
		Versions: services.NewVersionGate(store, m),
		Users:    services.NewUserService(store, m, c, authz, tokens),
		Items:    services.NewItemService(store, m),
		Roles:    services.NewRoleService(store, m),
	}

	sweepStore := dbx.NewSQLStore(db, nil)
	sweepTokens := services.NewTokenService(sweepStore, m, c)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: m,
		httpServer:  httpapi.NewHTTPServer(c.HTTPAddr, logger, mx, svc),
		sweeper:     sweeper.New(sweepTokens, c.SweepInterval, logger, mx),
		sweepStore:  sweepStore,
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run applies migrations if configured, then serves HTTP and sweeps expired
// tokens until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "closing database", "error", err)
		}
	}()

	if app.config.RunMigrations {
		if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		app.logger.Info(ctx, "Migrations applied")
	}

	app.sweeper.Start(ctx)
	defer app.sweeper.Stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
