// Package admincli implements itemkeeper-admin, the operator tool for
// schema migrations, bootstrapping accounts and one-off token sweeps.
//
// It talks to PostgreSQL directly and does not need a running server.
package admincli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/itemkeeper/internal/server/config"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// Seams for tests.
var (
	sqlOpen    = sql.Open
	newManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

// App creates the admin CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "itemkeeper-admin",
		Usage:   "itemkeeper maintenance tool",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			MigrateCommand(),
			CreateUserCommand(),
			SweepCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	var defaults config.Config
	defaults.LoadDefaults()

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "dsn",
			Aliases: []string{"d"},
			Usage:   "PostgreSQL DSN",
			EnvVars: []string{config.EnvPrefix + "DATABASE_DSN"},
			Value:   defaults.DatabaseDSN,
		},
		&cli.StringFlag{
			Name:    "secret",
			Aliases: []string{"s"},
			Usage:   "password hashing secret, must match the server's",
			EnvVars: []string{config.EnvPrefix + "SECRET_KEY"},
			Value:   defaults.SecretKey,
		},
	}
}

// loadConfig builds a server Config from defaults and the global flags.
func loadConfig(c *cli.Context) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = c.String("dsn")
	cfg.SecretKey = c.String("secret")
	return cfg
}

// openDB opens and pings the database named by --dsn.
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
