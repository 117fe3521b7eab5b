package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/gebeya/internal/domain"
)

type ProductUC struct {
	Products domain.ProductRepo
	Pricing  *PricingUC
	Authz    *Authorizer
}

type ProductInput struct {
	SellerID            uuid.UUID           `json:"seller_id"`
	Name                string              `json:"name"`
	Category            string              `json:"category"`
	Price               float64             `json:"price"`
	ManualOriginalPrice float64             `json:"manual_original_price"`
	Stock               int                 `json:"stock"`
	Currency            domain.CurrencyCode `json:"currency"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name is required")
	}
	if in.Price <= 0 {
		return domain.Invalid("price must be positive")
	}
	if in.ManualOriginalPrice < 0 {
		return domain.Invalid("manual original price must not be negative")
	}
	if in.Stock < 0 {
		return domain.Invalid("stock must not be negative")
	}
	return nil
}

func (uc *ProductUC) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if id == uuid.Nil {
		return nil, domain.Invalid("product id")
	}
	return uc.Products.FindByID(ctx, id)
}

func (uc *ProductUC) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Product, error) {
	return uc.Products.ListBySeller(ctx, sellerID)
}

func (uc *ProductUC) Create(ctx context.Context, actor domain.Actor, in ProductInput) (*domain.Product, error) {
	if err := uc.Authz.Require(actor, "product", "write"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	sellerID := actor.ID
	if actor.IsAdmin() {
		if in.SellerID == uuid.Nil {
			return nil, domain.Invalid("seller_id is required")
		}
		sellerID = in.SellerID
	}
	cur := in.Currency
	if cur == "" {
		cur = domain.CurrencyETB
	}
	p := &domain.Product{
		ID:                  uuid.New(),
		SellerID:            sellerID,
		Name:                strings.TrimSpace(in.Name),
		Category:            strings.TrimSpace(in.Category),
		BasePrice:           in.Price,
		Price:               in.Price,
		ManualOriginalPrice: in.ManualOriginalPrice,
		Stock:               in.Stock,
		Currency:            cur,
		Active:              true,
	}
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	if err := uc.Pricing.ApplyPromotionsToProducts(ctx, sellerID); err != nil {
		return nil, fmt.Errorf("reprice after create: %w", err)
	}
	return uc.Products.FindByID(ctx, p.ID)
}

func (uc *ProductUC) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	p, err := uc.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Category = strings.TrimSpace(in.Category)
	p.ManualOriginalPrice = in.ManualOriginalPrice
	p.Stock = in.Stock
	if in.Currency != "" {
		p.Currency = in.Currency
	}
	// an explicit edit moves the base; repricing derives the current price from it
	p.BasePrice = in.Price
	p.Price = in.Price
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	if err := uc.Pricing.ApplyPromotionsToProducts(ctx, p.SellerID); err != nil {
		return nil, fmt.Errorf("reprice after update: %w", err)
	}
	return uc.Products.FindByID(ctx, p.ID)
}

func (uc *ProductUC) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	p, err := uc.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := uc.Products.Delete(ctx, p.ID); err != nil {
		return err
	}
	if err := uc.Pricing.ApplyPromotionsToProducts(ctx, p.SellerID); err != nil {
		return fmt.Errorf("reprice after delete: %w", err)
	}
	return nil
}

func (uc *ProductUC) owned(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Product, error) {
	if err := uc.Authz.Require(actor, "product", "write"); err != nil {
		return nil, err
	}
	p, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.SellerID != actor.ID {
		return nil, fmt.Errorf("%w: product belongs to another seller", domain.ErrForbidden)
	}
	return p, nil
}
