package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/pkg/db/models"
)

// SubmitInput is the payload for POST /reviews.
type SubmitInput struct {
	OrderID   uuid.UUID `json:"orderId" validate:"required"`
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" validate:"max=2000"`
}

// UpdateInput is the payload for PUT /reviews/:id.
type UpdateInput struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"orderId"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductReviews lists a product's reviews with their aggregate.
type ProductReviews struct {
	Items         []ReviewDTO `json:"items"`
	AverageRating float64     `json:"averageRating"`
	Count         int64       `json:"count"`
}

// Eligibility answers whether the user may review a product.
type Eligibility struct {
	CanReview        bool        `json:"canReview"`
	EligibleOrderIDs []uuid.UUID `json:"eligibleOrderIds"`
	Reviews          []ReviewDTO `json:"reviews"`
}

func fromModel(r models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.User != nil {
		dto.UserName = r.User.Name
	}
	return dto
}

func fromModels(rows []models.Review) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out
}
