package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/gebeya/internal/domain"
)

type PromotionRepo struct{ db *gorm.DB }

func NewPromotionRepo(db *gorm.DB) *PromotionRepo { return &PromotionRepo{db: db} }

func (r *PromotionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.SellerPromotion, error) {
	var p domain.SellerPromotion
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListBySeller returns the seller's promotions, newest start first.
func (r *PromotionRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.SellerPromotion, error) {
	var list []domain.SellerPromotion
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("start_date desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *PromotionRepo) Save(ctx context.Context, p *domain.SellerPromotion) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PromotionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.SellerPromotion{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
