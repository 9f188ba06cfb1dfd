package admincli

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// MigrateCommand applies or reverts the embedded schema migrations.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: runMigrateUp,
			},
			{
				Name:   "down",
				Usage:  "Revert the most recent migration",
				Action: runMigrateDown,
			},
		},
	}
}

func runMigrateUp(c *cli.Context) error {
	db, err := openDB(c.Context, c.String("dsn"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := newManager().RunMigrations(c.Context, db); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "migrations applied")
	return nil
}

func runMigrateDown(c *cli.Context) error {
	db, err := openDB(c.Context, c.String("dsn"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := newManager().RollbackMigration(c.Context, db); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "last migration reverted")
	return nil
}
