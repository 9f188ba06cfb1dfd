package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
)

// RoleService exposes the read-only role catalogue.
type RoleService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
}

// NewRoleService builds a RoleService.
func NewRoleService(store dbx.Store, m repomanager.RepositoryManager) *RoleService {
	return &RoleService{store: store, repomanager: m}
}

// List returns every role ordered by id.
func (s *RoleService) List(ctx context.Context) ([]*models.Role, error) {
	list, err := s.repomanager.Roles(s.store.DB()).List(ctx)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "list roles")
	}
	return list, nil
}

// Get fails with NotFound for an unknown id.
func (s *RoleService) Get(ctx context.Context, id int64) (*models.Role, error) {
	r, err := s.repomanager.Roles(s.store.DB()).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.MsgRoleNotFound, "role %d not found", id)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load role %d", id)
	}
	return r, nil
}
