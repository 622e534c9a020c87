package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/pkg/enums"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

// Product is a catalog listing. Stock never drops below zero.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description string                `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(10,2);not null"`
	Stock       int                   `gorm:"column:stock;not null;default:0"`
	Category    enums.ProductCategory `gorm:"column:category;not null"`
	Images      types.Images          `gorm:"column:images;type:jsonb;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Images == nil {
		p.Images = types.Images{}
	}
	return nil
}
