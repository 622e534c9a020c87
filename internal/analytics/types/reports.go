package types

import (
	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/pkg/enums"
)

// MonthlySales is one calendar month of non-cancelled orders.
type MonthlySales struct {
	Month   int             `json:"month"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// UserStats counts accounts by state and role.
type UserStats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Inactive     int64 `json:"inactive"`
	Admins       int64 `json:"admins"`
	Customers    int64 `json:"customers"`
	NewThisMonth int64 `json:"newThisMonth"`
}

// CategoryCount is the catalog size of one category.
type CategoryCount struct {
	Category enums.ProductCategory `json:"category"`
	Products int64                 `json:"products"`
	Stock    int64                 `json:"stock"`
}

// OrderStats summarizes every order. Revenue and AverageOrder exclude cancelled orders.
type OrderStats struct {
	Total        int64                       `json:"total"`
	ByStatus     map[enums.OrderStatus]int64 `json:"byStatus"`
	Revenue      decimal.Decimal             `json:"revenue"`
	AverageOrder decimal.Decimal             `json:"averageOrder"`
}
