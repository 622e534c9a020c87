package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/internal/analytics/query"
	"github.com/daisydays/daisydays-backend/internal/analytics/types"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
)

const (
	minYear = 2000
	maxYear = 2100
)

// Service provides the admin dashboard reports.
type Service interface {
	// MonthlySales returns twelve rows for the year; zero selects the current year.
	MonthlySales(ctx context.Context, year int) ([]types.MonthlySales, error)
	ActiveUsers(ctx context.Context) (*types.UserStats, error)
	ProductsByCategory(ctx context.Context) ([]types.CategoryCount, error)
	OrderStats(ctx context.Context) (*types.OrderStats, error)
}

type service struct {
	store *query.Store
	now   func() time.Time
}

// NewService builds an analytics service backed by SQL aggregations.
func NewService(store *query.Store, now func() time.Time) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("analytics store required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{store: store, now: now}, nil
}

func (s *service) MonthlySales(ctx context.Context, year int) ([]types.MonthlySales, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}
	if year < minYear || year > maxYear {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid year").
			WithDetails(map[string]string{"year": fmt.Sprintf("must be between %d and %d", minYear, maxYear)})
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.store.MonthlySales(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "monthly sales")
	}

	out := make([]types.MonthlySales, 12)
	for i := range out {
		month := time.Month(i + 1)
		out[i] = types.MonthlySales{Month: i + 1, Label: month.String()[:3], Revenue: decimal.Zero}
	}
	for _, row := range rows {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		out[row.Month-1].Revenue = row.Revenue.Round(2)
		out[row.Month-1].Orders = row.Orders
	}
	return out, nil
}

func (s *service) ActiveUsers(ctx context.Context) (*types.UserStats, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	row, err := s.store.UserCounts(ctx, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "user counts")
	}
	return &types.UserStats{
		Total:        row.Total,
		Active:       row.Active,
		Inactive:     row.Total - row.Active,
		Admins:       row.Admins,
		Customers:    row.Total - row.Admins,
		NewThisMonth: row.NewThisMonth,
	}, nil
}

// ProductsByCategory reports every category, including empty ones.
func (s *service) ProductsByCategory(ctx context.Context) ([]types.CategoryCount, error) {
	rows, err := s.store.CategoryCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category counts")
	}
	byCategory := make(map[enums.ProductCategory]query.CategoryRow, len(rows))
	for _, row := range rows {
		byCategory[row.Category] = row
	}
	categories := enums.ProductCategories()
	out := make([]types.CategoryCount, 0, len(categories))
	for _, category := range categories {
		row := byCategory[category]
		out = append(out, types.CategoryCount{Category: category, Products: row.Products, Stock: row.Stock})
	}
	return out, nil
}

func (s *service) OrderStats(ctx context.Context) (*types.OrderStats, error) {
	rows, err := s.store.StatusCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order stats")
	}
	stats := &types.OrderStats{
		ByStatus:     make(map[enums.OrderStatus]int64),
		Revenue:      decimal.Zero,
		AverageOrder: decimal.Zero,
	}
	for _, status := range enums.OrderStatuses() {
		stats.ByStatus[status] = 0
	}
	var billable int64
	for _, row := range rows {
		stats.Total += row.Orders
		stats.ByStatus[row.Status] = row.Orders
		if row.Status == enums.OrderStatusCancelled {
			continue
		}
		billable += row.Orders
		stats.Revenue = stats.Revenue.Add(row.Revenue)
	}
	stats.Revenue = stats.Revenue.Round(2)
	if billable > 0 {
		stats.AverageOrder = stats.Revenue.Div(decimal.NewFromInt(billable)).Round(2)
	}
	return stats, nil
}
