package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/gebeya/internal/domain"
)

func TestCalculateDiscount(t *testing.T) {
	cases := []struct {
		name      string
		promo     domain.SellerPromotion
		base      float64
		wantPrice float64
		wantPct   float64
	}{
		{"percentage", domain.SellerPromotion{Type: domain.PromotionPercentage, DiscountValue: 20}, 1000, 800, 20},
		{"percentage clamped", domain.SellerPromotion{Type: domain.PromotionPercentage, DiscountValue: 150}, 1000, 0, 100},
		{"amount", domain.SellerPromotion{Type: domain.PromotionAmount, DiscountValue: 150}, 1000, 850, 15},
		{"amount above price", domain.SellerPromotion{Type: domain.PromotionAmount, DiscountValue: 1500}, 1000, 0, 100},
		{"amount rounding", domain.SellerPromotion{Type: domain.PromotionAmount, DiscountValue: 10}, 30, 20, 33.33},
		{"bundle", domain.SellerPromotion{Type: domain.PromotionBundle, DiscountValue: 50}, 1000, 1000, 0},
		{"zero base", domain.SellerPromotion{Type: domain.PromotionAmount, DiscountValue: 10}, 0, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			price, pct := CalculateDiscount(c.base, c.promo)
			assert.Equal(t, c.wantPrice, price)
			assert.Equal(t, c.wantPct, pct)
		})
	}
}

func TestApplyBestPriceLowestWins(t *testing.T) {
	p := &domain.Product{BasePrice: 1000, Price: 1000, ManualOriginalPrice: 1200}
	running := []domain.SellerPromotion{
		{Title: "ten off", Type: domain.PromotionPercentage, DiscountValue: 10, Status: domain.PromotionRunning},
		{Title: "flat", Type: domain.PromotionAmount, DiscountValue: 250, Status: domain.PromotionRunning},
		{Title: "bundle", Type: domain.PromotionBundle, DiscountValue: 2, Status: domain.PromotionRunning},
	}

	ApplyBestPrice(p, running)

	assert.Equal(t, 750.0, p.Price)
	assert.Equal(t, 25.0, p.PromotionDiscountPercent)
	assert.Equal(t, 1000.0, p.OriginalPrice)
	assert.Equal(t, 1000.0, p.BasePrice)
	assert.Len(t, p.ActivePromotions, 3)
}

func TestApplyBestPriceWithoutPromotionsRestoresBase(t *testing.T) {
	p := &domain.Product{BasePrice: 1000, Price: 800, PromotionDiscountPercent: 20, ManualOriginalPrice: 1200,
		ActivePromotions: []domain.PromotionSnapshot{{Title: "old"}}}

	ApplyBestPrice(p, nil)

	assert.Equal(t, 1000.0, p.Price)
	assert.Zero(t, p.PromotionDiscountPercent)
	assert.Empty(t, p.ActivePromotions)
	assert.Equal(t, 1200.0, p.OriginalPrice)
}

func TestApplyBestPriceBundleOnlyKeepsBase(t *testing.T) {
	p := &domain.Product{Price: 500}
	ApplyBestPrice(p, []domain.SellerPromotion{{Type: domain.PromotionBundle, DiscountValue: 3, Status: domain.PromotionRunning}})

	assert.Equal(t, 500.0, p.BasePrice, "base price initialised from price")
	assert.Equal(t, 500.0, p.Price)
	assert.Zero(t, p.PromotionDiscountPercent)
	assert.Len(t, p.ActivePromotions, 1)
}

func TestApplyPromotionsToProductsOnlyRunning(t *testing.T) {
	w := testWorld(t)
	seller := w.user(domain.RoleSeller)
	other := w.user(domain.RoleSeller)
	a := w.product(seller.ID, "phone", 1000, 5)
	b := w.product(seller.ID, "radio", 200, 5)
	foreign := w.product(other.ID, "shoe", 1000, 5)
	w.promotion(seller.ID, "running", domain.PromotionPercentage, 20, domain.PromotionRunning)
	w.promotion(seller.ID, "draft", domain.PromotionPercentage, 50, domain.PromotionDraft)
	w.promotion(seller.ID, "done", domain.PromotionAmount, 900, domain.PromotionCompleted)

	require.NoError(t, w.pricing.ApplyPromotionsToProducts(context.Background(), seller.ID))

	assert.Equal(t, 800.0, w.store.products[a.ID].Price)
	assert.Equal(t, 160.0, w.store.products[b.ID].Price)
	assert.Len(t, w.store.products[a.ID].ActivePromotions, 1)
	assert.Equal(t, 1000.0, w.store.products[foreign.ID].Price)
}

func TestApplyPromotionsToProductsStopsOnSaveError(t *testing.T) {
	w := testWorld(t)
	seller := w.user(domain.RoleSeller)
	w.product(seller.ID, "phone", 1000, 5)
	w.store.failProductSave = errors.New("disk full")

	err := w.pricing.ApplyPromotionsToProducts(context.Background(), seller.ID)
	assert.ErrorContains(t, err, "disk full")
}
