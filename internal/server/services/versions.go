package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
)

// VersionGate rejects clients that declare a retired or unknown version.
type VersionGate struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
}

// NewVersionGate builds a VersionGate over the versions table.
func NewVersionGate(store dbx.Store, m repomanager.RepositoryManager) *VersionGate {
	return &VersionGate{store: store, repomanager: m}
}

// Check accepts an empty declaration so that untagged clients keep working.
func (g *VersionGate) Check(ctx context.Context, declared string) error {
	if declared == "" {
		return nil
	}
	v, err := g.repomanager.Versions(g.store.DB()).Get(ctx, declared)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.VersionUnsupported("unknown version %q", declared)
		}
		return common.Internal(common.MsgInternalServerError, err, "load version %q", declared)
	}
	if !v.Supported {
		return common.VersionUnsupported("version %q is no longer supported", declared)
	}
	return nil
}

// List returns every known version with its support flag.
func (g *VersionGate) List(ctx context.Context) ([]*models.Version, error) {
	list, err := g.repomanager.Versions(g.store.DB()).List(ctx)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "list versions")
	}
	return list, nil
}
