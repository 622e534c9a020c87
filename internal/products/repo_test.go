package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/pkg/db/dbtest"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
)

func seedProduct(t *testing.T, conn *gorm.DB, name string, price string, stock int, category enums.ProductCategory) models.Product {
	t.Helper()
	p := models.Product{
		Name:        name,
		Description: name + " hand tied",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Category:    category,
	}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func TestRepositoryListFilters(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedProduct(t, conn, "Red Roses", "45.00", 10, enums.ProductCategoryRoses)
	seedProduct(t, conn, "White Roses", "39.50", 0, enums.ProductCategoryRoses)
	seedProduct(t, conn, "Spring Tulips", "24.00", 7, enums.ProductCategoryTulips)

	roses := enums.ProductCategoryRoses
	rows, total, err := repo.List(ctx, ListFilter{Category: &roses, Sort: SortPriceAsc})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "White Roses", rows[0].Name)

	rows, total, err = repo.List(ctx, ListFilter{Search: "ROSES", InStock: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Red Roses", rows[0].Name)

	min := decimal.RequireFromString("30")
	max := decimal.RequireFromString("40")
	rows, total, err = repo.List(ctx, ListFilter{MinPrice: &min, MaxPrice: &max})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "White Roses", rows[0].Name)

	rows, total, err = repo.List(ctx, ListFilter{Sort: SortName, Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Spring Tulips", rows[0].Name)
}

func TestRepositoryListLikeEscapesWildcards(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seedProduct(t, conn, "Peonies", "30.00", 3, enums.ProductCategoryBouquets)

	_, total, err := repo.List(context.Background(), ListFilter{Search: "%"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestRepositoryDecrementStockGuardsAvailability(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	p := seedProduct(t, conn, "Sunflowers", "18.00", 5, enums.ProductCategorySunflowers)

	ok, err := repo.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.IncrementStock(ctx, p.ID, 4))
	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.Stock)
}

func TestRepositoryDeleteRemovesCartAndWishlistRows(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	p := seedProduct(t, conn, "Orchid", "55.00", 2, enums.ProductCategoryOrchids)
	userID := uuid.New()
	require.NoError(t, conn.Create(&models.CartItem{UserID: userID, ProductID: p.ID, Quantity: 1}).Error)
	require.NoError(t, conn.Create(&models.WishlistItem{UserID: userID, ProductID: p.ID}).Error)

	require.NoError(t, repo.Delete(ctx, p.ID))

	var carts, wishes int64
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&carts).Error)
	require.NoError(t, conn.Model(&models.WishlistItem{}).Count(&wishes).Error)
	assert.Zero(t, carts)
	assert.Zero(t, wishes)

	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), gorm.ErrRecordNotFound)
}

func TestRepositoryRatingSummaries(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	p := seedProduct(t, conn, "Lily", "22.00", 4, enums.ProductCategoryLilies)
	other := seedProduct(t, conn, "Fern", "12.00", 4, enums.ProductCategoryPlants)
	for _, rating := range []int{5, 4} {
		require.NoError(t, conn.Create(&models.Review{
			OrderID: uuid.New(), ProductID: p.ID, UserID: uuid.New(), Rating: rating,
		}).Error)
	}

	got, err := repo.RatingSummaries(context.Background(), []uuid.UUID{p.ID, other.ID})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got[p.ID].Average, 0.001)
	assert.EqualValues(t, 2, got[p.ID].Count)
	_, ok := got[other.ID]
	assert.False(t, ok)
}
