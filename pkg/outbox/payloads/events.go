package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/pkg/enums"
)

// UserRegisteredEvent is emitted when an account is created by sign-up or first
// Google sign-in.
type UserRegisteredEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Provider string    `json:"provider"`
}

// OrderPlacedItem mirrors one order line snapshot.
type OrderPlacedItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderPlacedEvent is emitted in the checkout transaction.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	UserID      uuid.UUID         `json:"user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Items       []OrderPlacedItem `json:"items"`
	PlacedAt    time.Time         `json:"placed_at"`
}

// OrderStatusChangedEvent is emitted on every status transition, cancellations
// included.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	UserID         uuid.UUID         `json:"user_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	ChangedBy      uuid.UUID         `json:"changed_by"`
	StockRestored  bool              `json:"stock_restored"`
	ChangedAt      time.Time         `json:"changed_at"`
}
