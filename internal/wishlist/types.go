package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/internal/products"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
)

// ItemDTO is a saved product.
type ItemDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	Product   *products.SummaryDTO `json:"product,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

// CheckDTO answers whether a product is on the user's wishlist.
type CheckDTO struct {
	InWishlist bool       `json:"inWishlist"`
	ItemID     *uuid.UUID `json:"itemId,omitempty"`
}

func itemFromModel(item models.WishlistItem) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		CreatedAt: item.CreatedAt,
	}
	if item.Product != nil {
		summary := products.Summary(*item.Product)
		dto.Product = &summary
	}
	return dto
}
