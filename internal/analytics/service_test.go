package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/analytics/query"
	"github.com/daisydays/daisydays-backend/pkg/db/dbtest"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

var fixedNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func newAnalytics(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(query.NewStore(conn), func() time.Time { return fixedNow })
	require.NoError(t, err)
	return svc, conn
}

func seedOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus, total string, createdAt time.Time) {
	t.Helper()
	order := models.Order{
		UserID:          uuid.New(),
		Status:          status,
		Subtotal:        decimal.RequireFromString(total),
		TotalAmount:     decimal.RequireFromString(total),
		ShippingAddress: types.ShippingAddress{FullName: "A", Line1: "B", City: "C", PostalCode: "D"},
		CreatedAt:       createdAt,
	}
	require.NoError(t, conn.Create(&order).Error)
}

func TestMonthlySalesExcludesCancelled(t *testing.T) {
	svc, conn := newAnalytics(t)
	seedOrder(t, conn, enums.OrderStatusDelivered, "40.00", time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC))
	seedOrder(t, conn, enums.OrderStatusPending, "10.50", time.Date(2026, time.March, 20, 10, 0, 0, 0, time.UTC))
	seedOrder(t, conn, enums.OrderStatusCancelled, "99.00", time.Date(2026, time.March, 21, 10, 0, 0, 0, time.UTC))
	seedOrder(t, conn, enums.OrderStatusShipped, "5.00", time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC))

	rows, err := svc.MonthlySales(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 12)
	assert.Equal(t, "Mar", rows[2].Label)
	assert.EqualValues(t, 2, rows[2].Orders)
	assert.True(t, decimal.RequireFromString("50.50").Equal(rows[2].Revenue), rows[2].Revenue.String())
	assert.Zero(t, rows[0].Orders)

	_, err = svc.MonthlySales(context.Background(), 1999)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestActiveUsers(t *testing.T) {
	svc, conn := newAnalytics(t)
	users := []models.User{
		{Name: "A", Email: "a@example.com", Role: enums.UserRoleAdmin, IsActive: true, CreatedAt: fixedNow.AddDate(0, -2, 0)},
		{Name: "B", Email: "b@example.com", Role: enums.UserRoleCustomer, IsActive: true, CreatedAt: fixedNow.AddDate(0, 0, -3)},
		{Name: "C", Email: "c@example.com", Role: enums.UserRoleCustomer, IsActive: true, CreatedAt: fixedNow.AddDate(0, -1, 0)},
	}
	for i := range users {
		require.NoError(t, conn.Create(&users[i]).Error)
	}
	require.NoError(t, conn.Model(&models.User{}).Where("email = ?", "c@example.com").Update("is_active", false).Error)

	stats, err := svc.ActiveUsers(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Active)
	assert.EqualValues(t, 1, stats.Inactive)
	assert.EqualValues(t, 1, stats.Admins)
	assert.EqualValues(t, 2, stats.Customers)
	assert.EqualValues(t, 1, stats.NewThisMonth)
}

func TestProductsByCategoryCoversEveryCategory(t *testing.T) {
	svc, conn := newAnalytics(t)
	for _, stock := range []int{3, 4} {
		require.NoError(t, conn.Create(&models.Product{
			Name: "Rose", Price: decimal.RequireFromString("10"), Stock: stock, Category: enums.ProductCategoryRoses,
		}).Error)
	}

	rows, err := svc.ProductsByCategory(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, len(enums.ProductCategories()))
	for _, row := range rows {
		if row.Category == enums.ProductCategoryRoses {
			assert.EqualValues(t, 2, row.Products)
			assert.EqualValues(t, 7, row.Stock)
		} else {
			assert.Zero(t, row.Products)
		}
	}
}

func TestOrderStats(t *testing.T) {
	svc, conn := newAnalytics(t)
	seedOrder(t, conn, enums.OrderStatusDelivered, "30", fixedNow)
	seedOrder(t, conn, enums.OrderStatusPending, "15", fixedNow)
	seedOrder(t, conn, enums.OrderStatusCancelled, "100", fixedNow)

	stats, err := svc.OrderStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus[enums.OrderStatusCancelled])
	assert.EqualValues(t, 0, stats.ByStatus[enums.OrderStatusShipped])
	assert.True(t, decimal.RequireFromString("45").Equal(stats.Revenue))
	assert.True(t, decimal.RequireFromString("22.5").Equal(stats.AverageOrder))
}
