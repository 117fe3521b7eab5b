package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/phenrril/gebeya/internal/domain"
)

type TaxRuleRepo struct{ db *gorm.DB }

func NewTaxRuleRepo(db *gorm.DB) *TaxRuleRepo { return &TaxRuleRepo{db: db} }

func (r *TaxRuleRepo) ListActive(ctx context.Context, country string) ([]domain.TaxRule, error) {
	var list []domain.TaxRule
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND LOWER(country) = LOWER(?)", true, country).
		Order("priority asc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *TaxRuleRepo) Save(ctx context.Context, rule *domain.TaxRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}
