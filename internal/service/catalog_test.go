package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stores_api/internal/events"
	"github.com/Skotchmaster/stores_api/internal/repo"
	"github.com/Skotchmaster/stores_api/internal/search"
	"github.com/Skotchmaster/stores_api/internal/transport"
)

func itemReq(price float64, storeID uint) transport.ItemRequest {
	return transport.ItemRequest{Price: &price, StoreID: &storeID}
}

func TestRequestID(t *testing.T) {
	day := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "OCT2616-1", RequestID(day, 1))
	assert.Equal(t, "JAN2403-42", RequestID(time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC), 42))
}

func TestCatalog_CreateItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	e.catalog.Now = func() time.Time { return day }

	store, err := e.catalog.CreateStore(ctx, "Tesla")
	require.NoError(t, err)
	assert.Equal(t, uint(1), store.ID)
	assert.Empty(t, store.Items)

	item, err := e.catalog.CreateItem(ctx, "Model3", itemReq(35000.004, store.ID))
	require.NoError(t, err)
	assert.Equal(t, "OCT2616-1", item.RequestID)
	assert.Equal(t, 35000.0, item.Price)
	assert.Equal(t, store.ID, item.StoreID)

	assert.Contains(t, e.index.items, item.ID)
	assert.Equal(t, []string{events.StoreCreated, events.ItemCreated}, e.events.types())

	_, err = e.catalog.CreateItem(ctx, "Model3", itemReq(1, store.ID))
	require.ErrorIs(t, err, ErrConflict)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "An item with name 'Model3' already exists.", se.Message)
}

func TestCatalog_CreateItem_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.catalog.CreateStore(ctx, "S")
	require.NoError(t, err)

	price := 10.0
	storeID := uint(1)
	missing := uint(99)
	negative := -1.0
	huge := 1e308
	tooBig := 1e10
	roundsUp := 9999999999.996
	inf := math.Inf(1)
	nan := math.NaN()

	tests := []struct {
		name string
		req  transport.ItemRequest
		msg  string
	}{
		{"no price", transport.ItemRequest{StoreID: &storeID}, "'price' cannot be left blank."},
		{"no store", transport.ItemRequest{Price: &price}, "'store_id' cannot be left blank."},
		{"negative price", transport.ItemRequest{Price: &negative, StoreID: &storeID}, "'price' cannot be negative."},
		{"unknown store", transport.ItemRequest{Price: &price, StoreID: &missing}, "'store_id' 99 does not reference an existing store."},
		{"huge price", transport.ItemRequest{Price: &huge, StoreID: &storeID}, "'price' must be less than 10000000000."},
		{"price at column limit", transport.ItemRequest{Price: &tooBig, StoreID: &storeID}, "'price' must be less than 10000000000."},
		{"price rounds to limit", transport.ItemRequest{Price: &roundsUp, StoreID: &storeID}, "'price' must be less than 10000000000."},
		{"infinite price", transport.ItemRequest{Price: &inf, StoreID: &storeID}, "'price' must be a finite number."},
		{"nan price", transport.ItemRequest{Price: &nan, StoreID: &storeID}, "'price' must be a finite number."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.catalog.CreateItem(ctx, "chair", tt.req)
			require.ErrorIs(t, err, ErrValidation)
			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.msg, se.Message)
		})
	}

	items, err := e.catalog.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCatalog_UpsertItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.catalog.CreateStore(ctx, "A")
	require.NoError(t, err)
	_, err = e.catalog.CreateStore(ctx, "B")
	require.NoError(t, err)

	item, created, err := e.catalog.UpsertItem(ctx, "chair", itemReq(10, 1))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, item.RequestID)

	updated, created, err := e.catalog.UpsertItem(ctx, "chair", itemReq(12.346, 2))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, 12.35, updated.Price)
	assert.Equal(t, uint(2), updated.StoreID)
	assert.Equal(t, item.RequestID, updated.RequestID)
	assert.Equal(t, 12.35, e.index.items[item.ID].Price)

	_, _, err = e.catalog.UpsertItem(ctx, "chair", transport.ItemRequest{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_DeleteItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.catalog.CreateStore(ctx, "S")
	require.NoError(t, err)
	item, err := e.catalog.CreateItem(ctx, "chair", itemReq(1, 1))
	require.NoError(t, err)

	require.NoError(t, e.catalog.DeleteItem(ctx, "chair"))
	assert.NotContains(t, e.index.items, item.ID)

	_, err = e.catalog.GetItem(ctx, "chair")
	require.ErrorIs(t, err, ErrNotFound)

	err = e.catalog.DeleteItem(ctx, "chair")
	require.ErrorIs(t, err, ErrNotFound)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, MsgItemNotFound, se.Message)
}

func TestCatalog_StoreViewMatchesItems(t *testing.T) {
	for _, n := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("%d items", n), func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()

			store, err := e.catalog.CreateStore(ctx, "S")
			require.NoError(t, err)
			_, err = e.catalog.CreateStore(ctx, "Other")
			require.NoError(t, err)
			_, err = e.catalog.CreateItem(ctx, "elsewhere", itemReq(1, 2))
			require.NoError(t, err)

			for i := 0; i < n; i++ {
				_, err := e.catalog.CreateItem(ctx, fmt.Sprintf("item-%d", i), itemReq(float64(i), store.ID))
				require.NoError(t, err)
			}

			view, err := e.catalog.GetStore(ctx, "S")
			require.NoError(t, err)

			direct, err := e.repo.ListItemsForStore(ctx, store.ID)
			require.NoError(t, err)
			assert.Equal(t, direct, view.Items)
			assert.Len(t, view.Items, n)
		})
	}
}

func TestCatalog_DeleteStoreCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.CreateStore(ctx, "Tesla")
	require.NoError(t, err)
	_, err = e.catalog.CreateItem(ctx, "Model3", itemReq(1, 1))
	require.NoError(t, err)

	require.NoError(t, e.catalog.DeleteStore(ctx, "Tesla"))
	assert.Empty(t, e.index.items)

	_, err = e.catalog.GetItem(ctx, "Model3")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.catalog.GetStore(ctx, "Tesla")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, e.catalog.DeleteStore(ctx, "Tesla"), ErrNotFound)

	stores, err := e.catalog.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestCatalog_CreateStoreConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.CreateStore(ctx, "Tesla")
	require.NoError(t, err)
	_, err = e.catalog.CreateStore(ctx, "Tesla")
	require.ErrorIs(t, err, ErrConflict)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "A store with name 'Tesla' already exists.", se.Message)
}

func TestCatalog_SearchItems(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.CreateStore(ctx, "S")
	require.NoError(t, err)
	_, err = e.catalog.CreateItem(ctx, "chair", itemReq(5, 1))
	require.NoError(t, err)

	total, items, err := e.catalog.SearchItems(ctx, "chair", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "chair", items[0].Name)

	_, _, err = e.catalog.SearchItems(ctx, " ", 1, 10)
	require.ErrorIs(t, err, ErrValidation)

	e.catalog.Search = search.Disabled{}
	_, _, err = e.catalog.SearchItems(ctx, "chair", 1, 10)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, search.ErrDisabled)
}

func TestCatalog_IndexFailureDoesNotFailWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.index.err = errors.New("cluster red")

	_, err := e.catalog.CreateStore(ctx, "S")
	require.NoError(t, err)
	_, err = e.catalog.CreateItem(ctx, "chair", itemReq(5, 1))
	require.NoError(t, err)

	_, _, err = e.catalog.SearchItems(ctx, "chair", 1, 10)
	require.ErrorIs(t, err, ErrUnavailable)
}

// staleStoreCheck answers StoreExists as if the store were still there,
// standing in for a store deleted between the check and the insert.
type staleStoreCheck struct {
	*repo.GormRepo
}

func (staleStoreCheck) StoreExists(context.Context, uint) (bool, error) { return true, nil }

func TestCatalog_ItemForDeletedStoreIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.catalog.CreateStore(ctx, "S")
	require.NoError(t, err)
	e.catalog.Repo = staleStoreCheck{e.repo}

	_, err = e.catalog.CreateItem(ctx, "chair", itemReq(1, 99))
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, repo.ErrMissingReference)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "'store_id' 99 does not reference an existing store.", se.Message)

	_, err = e.catalog.CreateItem(ctx, "chair", itemReq(1, 1))
	require.NoError(t, err)
	_, _, err = e.catalog.UpsertItem(ctx, "chair", itemReq(2, 42))
	require.ErrorIs(t, err, ErrValidation)

	item, err := e.catalog.GetItem(ctx, "chair")
	require.NoError(t, err)
	assert.Equal(t, uint(1), item.StoreID)
	assert.Equal(t, 1.0, item.Price)
}
