package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PromotionType string

const (
	PromotionPercentage PromotionType = "percentage"
	PromotionAmount     PromotionType = "amount"
	PromotionBundle     PromotionType = "bundle"
)

func (t PromotionType) Valid() bool {
	switch t {
	case PromotionPercentage, PromotionAmount, PromotionBundle:
		return true
	}
	return false
}

type PromotionStatus string

const (
	PromotionDraft     PromotionStatus = "Draft"
	PromotionScheduled PromotionStatus = "Scheduled"
	PromotionRunning   PromotionStatus = "Running"
	PromotionCompleted PromotionStatus = "Completed"
	PromotionArchived  PromotionStatus = "Archived"
)

func (s PromotionStatus) Valid() bool {
	switch s {
	case PromotionDraft, PromotionScheduled, PromotionRunning, PromotionCompleted, PromotionArchived:
		return true
	}
	return false
}

type SellerPromotion struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID      uuid.UUID       `gorm:"type:uuid;index" json:"seller_id"`
	Title         string          `gorm:"size:180" json:"title"`
	Type          PromotionType   `gorm:"type:varchar(20)" json:"type"`
	DiscountValue float64         `gorm:"type:decimal(12,2)" json:"discount_value"`
	MinSpend      float64         `gorm:"type:decimal(12,2);default:0" json:"min_spend"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Status        PromotionStatus `gorm:"type:varchar(20);index" json:"status"`
	Performance   float64         `gorm:"type:decimal(5,2);default:0" json:"performance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p SellerPromotion) Snapshot() PromotionSnapshot {
	return PromotionSnapshot{
		PromotionID:   p.ID,
		Title:         p.Title,
		Type:          p.Type,
		DiscountValue: p.DiscountValue,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		Status:        p.Status,
	}
}

type PromotionRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SellerPromotion, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]SellerPromotion, error)
	Save(ctx context.Context, p *SellerPromotion) error
	Delete(ctx context.Context, id uuid.UUID) error
}
