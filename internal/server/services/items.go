package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/dmitrijs2005/itemkeeper/internal/server/repositories/repomanager"
)

// ItemPage is one page of an item listing.
type ItemPage struct {
	Page  int
	Limit int
	Total int
	Items []*models.Item
}

// ItemService manages items. Ownership checks happen before it is called.
type ItemService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
}

// NewItemService builds an ItemService.
func NewItemService(store dbx.Store, m repomanager.RepositoryManager) *ItemService {
	return &ItemService{store: store, repomanager: m}
}

// Create stores a new item owned by ownerID. Item names are unique.
func (s *ItemService) Create(ctx context.Context, ownerID int64, name string, description *string) (*models.Item, error) {
	items := s.repomanager.Items(s.store.DB())

	_, err := items.GetByName(ctx, name)
	if err == nil {
		return nil, common.Conflict(common.MsgItemAlreadyExists, "item with same name %s already exists", name)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.Internal(common.MsgInternalServerError, err, "load item %q", name)
	}

	item, err := items.Create(ctx, &models.Item{Name: name, Description: description, UserID: ownerID})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(common.MsgItemAlreadyExists, "item with same name %s already exists", name)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "create item %q", name)
	}
	return item, nil
}

// Get fails with NotFound for an unknown id.
func (s *ItemService) Get(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repomanager.Items(s.store.DB()).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.MsgItemNotFound, "item %d not found", id)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load item %d", id)
	}
	return item, nil
}

// List filters by case-insensitive name and description substrings.
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) (*ItemPage, error) {
	filter.Page, filter.Limit = pageBounds(filter.Page, filter.Limit)
	items := s.repomanager.Items(s.store.DB())

	list, err := items.List(ctx, filter)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "list items")
	}
	total, err := items.Count(ctx, filter)
	if err != nil {
		return nil, common.Internal(common.MsgInternalServerError, err, "count items")
	}

	return &ItemPage{Page: filter.Page, Limit: filter.Limit, Total: total, Items: list}, nil
}

// Update applies the non-nil fields of upd. A name held by another item is a Conflict.
func (s *ItemService) Update(ctx context.Context, id int64, upd models.ItemUpdate) (*models.Item, error) {
	items := s.repomanager.Items(s.store.DB())

	item, err := items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.MsgItemNotFound, "item %d not found", id)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "load item %d", id)
	}

	if upd.Name != nil && *upd.Name != "" {
		other, err := items.GetByName(ctx, *upd.Name)
		switch {
		case err == nil && other.ID != id:
			return nil, common.Conflict(common.MsgItemAlreadyExists, "item with same name %s already exists", *upd.Name)
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return nil, common.Internal(common.MsgInternalServerError, err, "load item %q", *upd.Name)
		}
		item.Name = *upd.Name
	}
	if upd.Description != nil {
		item.Description = upd.Description
	}

	updated, err := items.Update(ctx, item)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.Conflict(common.MsgItemAlreadyExists, "item with same name %s already exists", item.Name)
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.NotFound(common.MsgItemNotFound, "item %d not found", id)
		}
		return nil, common.Internal(common.MsgInternalServerError, err, "update item %d", id)
	}
	return updated, nil
}

// Delete removes the item and returns a status message.
func (s *ItemService) Delete(ctx context.Context, id int64) (string, error) {
	n, err := s.repomanager.Items(s.store.DB()).Delete(ctx, id)
	if err != nil {
		return "", common.Internal(common.MsgFailedToDeleteItem, err, "error when trying to delete item %d", id)
	}
	if n == 0 {
		return "", common.Internal(common.MsgFailedToDeleteItem, nil, "item %d was not deleted", id)
	}
	return fmt.Sprintf("Item %d successfully deleted", id), nil
}
