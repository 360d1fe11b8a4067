package services

import (
	"context"
	"testing"

	"caketime/entity"
	"caketime/repository"
	"caketime/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts_CRUD(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewProductService(repository.NewProductRepository(db))
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{Name: "Bad", Price: decimal.NewFromInt(100), Category: "sandwiches"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
	_, err = svc.Create(ctx, ProductInput{Name: "Free", Price: decimal.Zero, Category: "cakes"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	p, err := svc.Create(ctx, ProductInput{
		Name: "Black Forest", Price: decimal.RequireFromString("749.999"), Category: "Cakes",
		Flavor: "chocolate", Tags: []string{"classic"},
	})
	require.NoError(t, err)
	assert.True(t, p.InStock, "new products are in stock unless told otherwise")
	assert.Equal(t, entity.CategoryCakes, p.Category)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(750)))

	out := false
	updated, err := svc.Update(ctx, p.ID, ProductInput{
		Name: "Black Forest", Price: decimal.NewFromInt(799), Category: "cakes", InStock: &out,
	})
	require.NoError(t, err)
	assert.False(t, updated.InStock)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.InStock, "false is persisted")
	assert.True(t, got.Price.Equal(decimal.NewFromInt(799)))

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrNotFound)
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProducts_ListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewProductService(repository.NewProductRepository(db))
	ctx := context.Background()

	cheap := testutil.SeedProduct(t, db, "Butter Cookie", "99", true)
	mid := testutil.SeedProduct(t, db, "Chocolate Truffle", "499", true)
	testutil.SeedProduct(t, db, "Sold Out Cake", "599", false)
	require.NoError(t, db.Model(cheap).Update("category", entity.CategoryCookies).Error)

	yes := true
	page, err := svc.List(ctx, repository.ProductFilter{InStock: &yes, Sort: "price-asc"})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Total)
	assert.Equal(t, cheap.ID, page.Items[0].ID)

	page, err = svc.List(ctx, repository.ProductFilter{Category: "COOKIES"})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)

	page, err = svc.List(ctx, repository.ProductFilter{Search: "truffle"})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, mid.ID, page.Items[0].ID)

	floor := decimal.NewFromInt(100)
	page, err = svc.List(ctx, repository.ProductFilter{MinPrice: &floor, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 1)
	assert.EqualValues(t, 2, page.Pages)
}
