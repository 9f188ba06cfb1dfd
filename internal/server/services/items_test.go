package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	it, err := f.items.Create(ctx, 7, "lamp", ptr("desk lamp"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), it.UserID)
	assert.Equal(t, "desk lamp", *it.Description)

	got, err := f.items.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.Name, got.Name)

	_, err = f.items.Create(ctx, 8, "lamp", nil)
	requireFault(t, err, common.KindConflict, common.MsgItemAlreadyExists)

	_, err = f.items.Get(ctx, 999)
	requireFault(t, err, common.KindNotFound, common.MsgItemNotFound)
}

func TestItemService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 22; i++ {
		desc := "plain"
		if i%2 == 0 {
			desc = "Shiny thing"
		}
		_, err := f.items.Create(ctx, 7, fmt.Sprintf("item-%02d", i), ptr(desc))
		require.NoError(t, err)
	}

	res, err := f.items.List(ctx, models.ItemFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 22, res.Total)
	assert.Equal(t, common.MaxResultsPerPage, res.Limit)
	assert.Len(t, res.Items, common.MaxResultsPerPage)

	res, err = f.items.List(ctx, models.ItemFilter{Description: "shiny", Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 11, res.Total)
	assert.Len(t, res.Items, 5)

	res, err = f.items.List(ctx, models.ItemFilter{Name: "item-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}

func TestItemService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lamp, err := f.items.Create(ctx, 7, "lamp", nil)
	require.NoError(t, err)
	_, err = f.items.Create(ctx, 7, "chair", nil)
	require.NoError(t, err)

	updated, err := f.items.Update(ctx, lamp.ID, models.ItemUpdate{Description: ptr("bright")})
	require.NoError(t, err)
	assert.Equal(t, "lamp", updated.Name)
	assert.Equal(t, "bright", *updated.Description)

	// same name on the same item is fine
	_, err = f.items.Update(ctx, lamp.ID, models.ItemUpdate{Name: ptr("lamp")})
	assert.NoError(t, err)

	_, err = f.items.Update(ctx, lamp.ID, models.ItemUpdate{Name: ptr("chair")})
	requireFault(t, err, common.KindConflict, common.MsgItemAlreadyExists)

	_, err = f.items.Update(ctx, 999, models.ItemUpdate{Name: ptr("x")})
	requireFault(t, err, common.KindNotFound, common.MsgItemNotFound)
}

func TestItemService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lamp, err := f.items.Create(ctx, 7, "lamp", nil)
	require.NoError(t, err)

	msg, err := f.items.Delete(ctx, lamp.ID)
	require.NoError(t, err)
	assert.Contains(t, msg, "deleted")

	_, err = f.items.Delete(ctx, lamp.ID)
	requireFault(t, err, common.KindInternal, common.MsgFailedToDeleteItem)

	f.db.failWith = errors.New("db down")
	_, err = f.items.Delete(ctx, 1)
	requireFault(t, err, common.KindInternal, common.MsgFailedToDeleteItem)
}
