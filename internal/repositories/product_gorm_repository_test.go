package repositories_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

func TestGORMProductRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()

	product := &models.Product{Name: "Monitor", Description: "27 inch", Price: decimal.RequireFromString("199.99"), UserID: "seller"}
	require.NoError(t, repo.Create(ctx, product))
	require.NotEmpty(t, product.ID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	product.Name = "Monitor Pro"
	product.Price = decimal.RequireFromString("249.00")
	require.NoError(t, repo.Update(ctx, product))

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monitor Pro", got.Name)
	requireDecimal(t, "249.00", got.Price)
	assert.Equal(t, "seller", got.UserID)

	err = repo.Update(ctx, &models.Product{ID: "missing", Name: "x"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, product.ID))
	_, err = repo.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, product.ID), repositories.ErrNotFound)
}

func TestGORMProductRepository_DeleteRecomputesOrderTotals(t *testing.T) {
	db := newTestDB(t)
	products := repositories.NewGORMProductRepository(db)
	orders := repositories.NewGORMOrderRepository(db)
	ctx := context.Background()

	a := seedProduct(t, db, "A", "10.00", "seller")
	b := seedProduct(t, db, "B", "5.00", "seller")

	order := &models.Order{UserID: "buyer"}
	require.NoError(t, orders.Create(ctx, order, nil, []string{a.ID, b.ID}))
	requireDecimal(t, "15.00", order.TotalPrice)

	require.NoError(t, products.Delete(ctx, b.ID))

	got, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, got.ProductIDs())
	requireDecimal(t, "10.00", got.TotalPrice)
}
