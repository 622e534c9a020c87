package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// ItemInput is one requested line at checkout.
type ItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=999"`
}

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	Items           []ItemInput           `json:"items" validate:"required,min=1,max=50,dive"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress" validate:"required"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
}

// ListQuery carries the order listing filters.
type ListQuery struct {
	Status string
	Cursor string
	Limit  int
}

// OrderItemDTO is one snapshot line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// OrderDTO is the order view shared by customers and admins.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"userId"`
	Status          enums.OrderStatus     `json:"status"`
	Items           []OrderItemDTO        `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	ConfirmedAt     *time.Time            `json:"confirmedAt,omitempty"`
	ShippedAt       *time.Time            `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time            `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time            `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// ListResult is one cursor page of orders.
type ListResult struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func fromModel(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ImageURL:    item.ImageURL,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	return OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		Items:           items,
		Subtotal:        order.Subtotal,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		ConfirmedAt:     order.ConfirmedAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
