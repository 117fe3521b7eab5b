package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/gebeya/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) loaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items").Preload("Items.Product").Preload("Customer")
}

func (r *OrderRepo) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var o domain.Order
	if err := r.loaded(ctx).First(&o, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *OrderRepo) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, "order_number = ?", number)
}

func (r *OrderRepo) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	return r.findOne(ctx, "payment_id = ?", paymentID)
}

func (r *OrderRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).Count(&n).Error
	return n, err
}

// Place inserts the order with its items and takes the stock in one transaction.
// A line whose product no longer has enough stock aborts the whole order.
func (r *OrderRepo) Place(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Customer", "Items").Create(o).Error; err != nil {
			return err
		}
		for i := range o.Items {
			it := &o.Items[i]
			it.OrderID = o.ID
			if err := tx.Omit("Product").Create(it).Error; err != nil {
				return err
			}
			res := tx.Model(&domain.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var available int
				tx.Model(&domain.Product{}).Select("stock").Where("id = ?", it.ProductID).Scan(&available)
				return &domain.InsufficientStockError{ProductID: it.ProductID, Available: available, Requested: it.Quantity}
			}
		}
		return nil
	})
}

// Save updates the order row only; items are immutable once placed.
func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}

func (r *OrderRepo) Cancel(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(o).Error; err != nil {
			return err
		}
		for _, it := range o.Items {
			if err := tx.Model(&domain.Product{}).
				Where("id = ?", it.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
