package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PromotionSnapshot is the denormalized copy of a running promotion attached to a
// product for display. It is rebuilt on every recomputation.
type PromotionSnapshot struct {
	PromotionID   uuid.UUID       `json:"promotion_id"`
	Title         string          `json:"title"`
	Type          PromotionType   `json:"type"`
	DiscountValue float64         `json:"discount_value"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Status        PromotionStatus `json:"status"`
}

type Product struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID uuid.UUID `gorm:"type:uuid;index" json:"seller_id"`
	Name     string    `gorm:"size:180" json:"name"`
	Category string    `gorm:"size:100;index" json:"category"`

	// BasePrice is the seller-set price. Price is derived from it and the seller's
	// running promotions and is never edited directly.
	BasePrice                float64             `gorm:"type:decimal(12,2);default:0" json:"base_price"`
	Price                    float64             `gorm:"type:decimal(12,2)" json:"price"`
	OriginalPrice            float64             `gorm:"type:decimal(12,2);default:0" json:"original_price"`
	ManualOriginalPrice      float64             `gorm:"type:decimal(12,2);default:0" json:"manual_original_price"`
	PromotionDiscountPercent float64             `gorm:"type:decimal(5,2);default:0" json:"promotion_discount_percent"`
	ActivePromotions         []PromotionSnapshot `gorm:"type:jsonb;serializer:json" json:"active_promotions"`

	Stock     int          `gorm:"type:int;default:0" json:"stock"`
	Currency  CurrencyCode `gorm:"size:3;default:ETB" json:"currency"`
	Active    bool         `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type ProductRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]Product, error)
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
