package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cTHE0/restaurant/internal/entity"
	"github.com/cTHE0/restaurant/internal/repository/catalog"
	"github.com/cTHE0/restaurant/internal/testutil"
)

func newRepo(t *testing.T) *catalog.Repository {
	t.Helper()
	return catalog.NewRepository(testutil.NewDB(t))
}

func mustCategory(t *testing.T, repo *catalog.Repository, name string, rank int) *entity.MenuCategory {
	t.Helper()
	cat := &entity.MenuCategory{Name: name, SortOrder: rank}
	require.NoError(t, repo.CreateCategory(context.Background(), cat))
	require.NotZero(t, cat.ID)
	return cat
}

func mustItem(t *testing.T, repo *catalog.Repository, categoryID int64, name string, rank int, available bool) *entity.MenuItem {
	t.Helper()
	item := &entity.MenuItem{
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString("9.90"),
		Available:  available,
		SortOrder:  rank,
	}
	require.NoError(t, repo.CreateItem(context.Background(), item))
	require.NotZero(t, item.ID)
	return item
}

func TestListCategoriesOrdersByRankThenID(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	desserts := mustCategory(t, repo, "Desserts", 2)
	mains := mustCategory(t, repo, "Mains", 1)
	drinks := mustCategory(t, repo, "Drinks", 2)

	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)

	assert.Equal(t, []int64{mains.ID, desserts.ID, drinks.ID}, []int64{categories[0].ID, categories[1].ID, categories[2].ID})
}

func TestListAvailableItemsSkipsUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	cat := mustCategory(t, repo, "Mains", 1)
	second := mustItem(t, repo, cat.ID, "Pasta", 1, true)
	mustItem(t, repo, cat.ID, "Hidden", 0, false)
	first := mustItem(t, repo, cat.ID, "Pizza", 0, true)

	items, err := repo.ListAvailableItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("9.90")))
}

func TestDeleteCategoryCascadesToItems(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	doomed := mustCategory(t, repo, "Seasonal", 3)
	kept := mustCategory(t, repo, "Mains", 1)
	mustItem(t, repo, doomed.ID, "Pumpkin soup", 0, true)
	survivor := mustItem(t, repo, kept.ID, "Pizza", 0, true)

	require.NoError(t, repo.DeleteCategory(ctx, doomed.ID))

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, survivor.ID, items[0].ID)

	_, err = repo.GetCategory(ctx, doomed.ID)
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
	assert.ErrorIs(t, repo.DeleteCategory(ctx, doomed.ID), catalog.ErrCategoryNotFound)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	cat := mustCategory(t, repo, "Mains", 1)
	item := mustItem(t, repo, cat.ID, "Pizza", 0, true)

	item.Price = decimal.RequireFromString("13.00")
	item.Available = false
	require.NoError(t, repo.UpdateItem(ctx, item))

	loaded, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Price.Equal(decimal.NewFromInt(13)))
	assert.False(t, loaded.Available)

	require.NoError(t, repo.DeleteItem(ctx, item.ID))
	assert.ErrorIs(t, repo.DeleteItem(ctx, item.ID), catalog.ErrItemNotFound)
	_, err = repo.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestItemsByID(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	cat := mustCategory(t, repo, "Mains", 1)
	a := mustItem(t, repo, cat.ID, "Pizza", 0, true)
	b := mustItem(t, repo, cat.ID, "Pasta", 1, true)

	found, err := repo.ItemsByID(ctx, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "Pasta", found[b.ID].Name)

	empty, err := repo.ItemsByID(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
