package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/internal/media"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

// ProductDTO is the catalog representation returned to clients.
type ProductDTO struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Price         decimal.Decimal       `json:"price"`
	Stock         int                   `json:"stock"`
	InStock       bool                  `json:"inStock"`
	Category      enums.ProductCategory `json:"category"`
	Images        types.Images          `json:"images"`
	AverageRating float64               `json:"averageRating"`
	ReviewCount   int64                 `json:"reviewCount"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// SummaryDTO is the trimmed product embedded in cart and wishlist rows.
type SummaryDTO struct {
	ID       uuid.UUID             `json:"id"`
	Name     string                `json:"name"`
	Price    decimal.Decimal       `json:"price"`
	Stock    int                   `json:"stock"`
	Category enums.ProductCategory `json:"category"`
	ImageURL *string               `json:"imageUrl,omitempty"`
}

// ListQuery carries the raw catalog filters from the query string.
type ListQuery struct {
	Category string
	Search   string
	MinPrice string
	MaxPrice string
	InStock  bool
	Sort     string
	Page     int
	Limit    int
}

// ListResult is one page of the catalog.
type ListResult struct {
	Items      []ProductDTO `json:"items"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"totalPages"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    enums.ProductCategory
	Images      []media.Upload
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Price          *decimal.Decimal
	Stock          *int
	Category       *enums.ProductCategory
	NewImages      []media.Upload
	RemoveImageIDs []string
}

// FromModel builds the catalog DTO; rating is the zero summary when the product has no reviews.
func FromModel(p models.Product, rating RatingSummary) ProductDTO {
	images := p.Images
	if images == nil {
		images = types.Images{}
	}
	return ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		InStock:       p.Stock > 0,
		Category:      p.Category,
		Images:        images,
		AverageRating: roundRating(rating.Average),
		ReviewCount:   rating.Count,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Summary builds the compact product view.
func Summary(p models.Product) SummaryDTO {
	return SummaryDTO{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
		ImageURL: p.Images.First(),
	}
}

func roundRating(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
