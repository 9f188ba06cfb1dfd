package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/items"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/roles"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/versions"
)

// RepositoryManager vends repositories bound to a DBTX, so one service call
// can run several of them inside the same transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	RollbackMigration(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Versions(db dbx.DBTX) versions.Repository
	Items(db dbx.DBTX) items.Repository
}
