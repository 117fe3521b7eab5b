package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phenrril/gebeya/internal/domain"
)

type CurrencyRepo struct{ db *gorm.DB }

func NewCurrencyRepo(db *gorm.DB) *CurrencyRepo { return &CurrencyRepo{db: db} }

func (r *CurrencyRepo) FindByCode(ctx context.Context, code domain.CurrencyCode) (*domain.Currency, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *CurrencyRepo) FindBase(ctx context.Context) (*domain.Currency, error) {
	return r.first(ctx, "is_base_currency = ?", true)
}

func (r *CurrencyRepo) first(ctx context.Context, query string, arg any) (*domain.Currency, error) {
	var c domain.Currency
	if err := r.db.WithContext(ctx).First(&c, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CurrencyRepo) List(ctx context.Context) ([]domain.Currency, error) {
	var list []domain.Currency
	if err := r.db.WithContext(ctx).Order("is_base_currency desc, code asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CurrencyRepo) Save(ctx context.Context, c *domain.Currency) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CurrencyRepo) Delete(ctx context.Context, code domain.CurrencyCode) error {
	res := r.db.WithContext(ctx).Where("code = ? AND is_base_currency = ?", code, false).Delete(&domain.Currency{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CurrencyRepo) SetBase(ctx context.Context, code domain.CurrencyCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Currency{}).
			Where("is_base_currency = ? AND code <> ?", true, code).
			Update("is_base_currency", false).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.Currency{}).
			Where("code = ?", code).
			Updates(map[string]any{"is_base_currency": true, "exchange_rate": 1})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
