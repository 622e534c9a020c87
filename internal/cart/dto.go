package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/internal/products"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
)

// AddItemInput is the payload for POST /cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// ItemDTO is one cart line.
type ItemDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	Quantity  int                  `json:"quantity"`
	Product   *products.SummaryDTO `json:"product,omitempty"`
	LineTotal decimal.Decimal      `json:"lineTotal"`
}

// CartDTO is the full cart view.
type CartDTO struct {
	Items      []ItemDTO       `json:"items"`
	TotalItems int             `json:"totalItems"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

func itemFromModel(item models.CartItem, product *models.Product) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		LineTotal: decimal.Zero,
	}
	if product != nil {
		summary := products.Summary(*product)
		dto.Product = &summary
		dto.LineTotal = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	return dto
}

func cartFromModels(items []models.CartItem) CartDTO {
	out := CartDTO{Items: make([]ItemDTO, 0, len(items)), Subtotal: decimal.Zero}
	for _, item := range items {
		dto := itemFromModel(item, item.Product)
		out.Items = append(out.Items, dto)
		out.TotalItems += item.Quantity
		out.Subtotal = out.Subtotal.Add(dto.LineTotal)
	}
	return out
}
