package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/gebeya/internal/domain"
)

// PricingUC derives each product's current price from its seller's running promotions.
type PricingUC struct {
	Products   domain.ProductRepo
	Promotions domain.PromotionRepo
}

// CalculateDiscount returns the price a single promotion yields on basePrice and the
// discount percent it represents, both rounded to two decimals. Bundle promotions do
// not change the unit price.
func CalculateDiscount(basePrice float64, p domain.SellerPromotion) (finalPrice, percent float64) {
	base := dec(basePrice)
	final, pct := base, decimal.Zero
	switch p.Type {
	case domain.PromotionPercentage:
		pct = clampDec(dec(p.DiscountValue), 0, 100)
		final = base.Mul(hundred.Sub(pct)).Div(hundred)
	case domain.PromotionAmount:
		off := dec(p.DiscountValue)
		if off.IsNegative() {
			off = decimal.Zero
		}
		final = decimal.Max(decimal.Zero, base.Sub(off))
		if base.IsPositive() {
			pct = base.Sub(final).Div(base).Mul(hundred)
		}
	}
	if final.IsNegative() {
		final = decimal.Zero
	}
	pct = clampDec(pct, 0, 100)
	return final.Round(2).InexactFloat64(), pct.Round(2).InexactFloat64()
}

// ApplyBestPrice rewrites the derived pricing fields of p from the running promotions.
// The lowest resulting price wins; promotions never stack. BasePrice is only read,
// except on a never-priced product where it is initialised from Price.
func ApplyBestPrice(p *domain.Product, running []domain.SellerPromotion) {
	if p.BasePrice == 0 {
		p.BasePrice = p.Price
	}
	base := p.BasePrice

	if len(running) == 0 {
		p.Price = base
		p.PromotionDiscountPercent = 0
		p.ActivePromotions = []domain.PromotionSnapshot{}
		if p.ManualOriginalPrice > 0 {
			p.OriginalPrice = p.ManualOriginalPrice
		}
		return
	}

	snapshot := make([]domain.PromotionSnapshot, 0, len(running))
	bestPrice, bestPct := CalculateDiscount(base, running[0])
	for i, promo := range running {
		snapshot = append(snapshot, promo.Snapshot())
		if i == 0 {
			continue
		}
		if price, pct := CalculateDiscount(base, promo); price < bestPrice {
			bestPrice, bestPct = price, pct
		}
	}
	p.ActivePromotions = snapshot

	if bestPct > 0 && bestPrice < base {
		p.Price = bestPrice
		p.PromotionDiscountPercent = bestPct
		p.OriginalPrice = base
		return
	}
	p.Price = base
	p.PromotionDiscountPercent = 0
	if p.ManualOriginalPrice > 0 {
		p.OriginalPrice = p.ManualOriginalPrice
	}
}

// ApplyPromotionsToProducts recomputes and persists every product of the seller.
// Writes are not transactional: a failed save stops the run and earlier products keep
// their new prices; the next trigger recomputes them all again.
func (uc *PricingUC) ApplyPromotionsToProducts(ctx context.Context, sellerID uuid.UUID) error {
	promos, err := uc.Promotions.ListBySeller(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("list promotions: %w", err)
	}
	products, err := uc.Products.ListBySeller(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	running := make([]domain.SellerPromotion, 0, len(promos))
	for _, p := range promos {
		if p.Status == domain.PromotionRunning {
			running = append(running, p)
		}
	}

	discounted := 0
	for i := range products {
		p := &products[i]
		ApplyBestPrice(p, running)
		if p.PromotionDiscountPercent > 0 {
			discounted++
		}
		if err := uc.Products.Save(ctx, p); err != nil {
			log.Error().Err(err).Str("seller_id", sellerID.String()).Str("product_id", p.ID.String()).Msg("save repriced product")
			return fmt.Errorf("save product %s: %w", p.ID, err)
		}
	}

	log.Info().
		Str("seller_id", sellerID.String()).
		Int("running_promotions", len(running)).
		Int("products", len(products)).
		Int("discounted", discounted).
		Msg("promotions applied")
	return nil
}
