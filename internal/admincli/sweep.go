package admincli

import (
	"fmt"

	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/services"
	"github.com/urfave/cli/v2"
)

// SweepCommand runs the expired-token cleanup once, outside the server's schedule.
func SweepCommand() *cli.Command {
	return &cli.Command{
		Name:   "sweep",
		Usage:  "Delete tokens whose refresh window has closed",
		Action: runSweep,
	}
}

func runSweep(c *cli.Context) error {
	cfg := loadConfig(c)

	db, err := openDB(c.Context, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens := services.NewTokenService(dbx.NewSQLStore(db, nil), newManager(), cfg)
	n, err := tokens.Sweep(c.Context)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%d expired token pair(s) removed\n", n)
	return nil
}
