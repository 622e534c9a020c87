package query

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
)

// MonthRow is revenue aggregated for one month number (1-12).
type MonthRow struct {
	Month   int
	Revenue decimal.Decimal
	Orders  int64
}

// UserRow carries the raw account totals.
type UserRow struct {
	Total        int64
	Active       int64
	Admins       int64
	NewThisMonth int64
}

// StatusRow is the order count and total for one status.
type StatusRow struct {
	Status  enums.OrderStatus
	Orders  int64
	Revenue decimal.Decimal
}

// CategoryRow is the product count and stock for one category.
type CategoryRow struct {
	Category enums.ProductCategory
	Products int64
	Stock    int64
}

// Store runs the dashboard aggregations against the primary database.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// MonthlySales groups non-cancelled orders created in [from, to) by month.
func (s *Store) MonthlySales(ctx context.Context, from, to time.Time) ([]MonthRow, error) {
	var rows []MonthRow
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(s.monthExpr()+" AS month, COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS orders").
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status <> ?", enums.OrderStatusCancelled).
		Group("month").
		Order("month").
		Scan(&rows).Error
	return rows, err
}

// UserCounts returns the account totals, counting sign-ups since monthStart as new.
func (s *Store) UserCounts(ctx context.Context, monthStart time.Time) (UserRow, error) {
	var row UserRow
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS admins,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS new_this_month`,
			enums.UserRoleAdmin, monthStart).
		Scan(&row).Error
	return row, err
}

func (s *Store) CategoryCounts(ctx context.Context) ([]CategoryRow, error) {
	var rows []CategoryRow
	err := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category, COUNT(*) AS products, COALESCE(SUM(stock), 0) AS stock").
		Group("category").
		Scan(&rows).Error
	return rows, err
}

func (s *Store) StatusCounts(ctx context.Context) ([]StatusRow, error) {
	var rows []StatusRow
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS revenue").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (s *Store) monthExpr() string {
	if s.db.Dialector.Name() == "postgres" {
		return "CAST(EXTRACT(MONTH FROM created_at) AS INTEGER)"
	}
	return "CAST(strftime('%m', created_at) AS INTEGER)"
}
