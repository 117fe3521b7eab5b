package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/gebeya/internal/domain"
)

// PromotionUC manages seller promotions. Every mutation reprices the seller's catalog.
type PromotionUC struct {
	Promotions domain.PromotionRepo
	Pricing    *PricingUC
	Authz      *Authorizer
}

type PromotionInput struct {
	SellerID      uuid.UUID              `json:"seller_id"`
	Title         string                 `json:"title"`
	Type          domain.PromotionType   `json:"type"`
	DiscountValue float64                `json:"discount_value"`
	MinSpend      float64                `json:"min_spend"`
	StartDate     time.Time              `json:"start_date"`
	EndDate       time.Time              `json:"end_date"`
	Status        domain.PromotionStatus `json:"status"`
	Performance   float64                `json:"performance"`
}

func (in PromotionInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Invalid("title is required")
	}
	if !in.Type.Valid() {
		return domain.Invalid("unknown promotion type %q", in.Type)
	}
	if in.DiscountValue < 0 {
		return domain.Invalid("discount value must not be negative")
	}
	if in.Type == domain.PromotionPercentage && in.DiscountValue > 100 {
		return domain.Invalid("percentage discount must be at most 100")
	}
	if in.MinSpend < 0 {
		return domain.Invalid("min spend must not be negative")
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return domain.Invalid("end date before start date")
	}
	if in.Status != "" && !in.Status.Valid() {
		return domain.Invalid("unknown promotion status %q", in.Status)
	}
	if in.Performance < 0 || in.Performance > 100 {
		return domain.Invalid("performance must be between 0 and 100")
	}
	return nil
}

var promotionTransitions = map[domain.PromotionStatus][]domain.PromotionStatus{
	domain.PromotionDraft:     {domain.PromotionScheduled, domain.PromotionRunning, domain.PromotionArchived},
	domain.PromotionScheduled: {domain.PromotionRunning, domain.PromotionDraft, domain.PromotionArchived},
	domain.PromotionRunning:   {domain.PromotionCompleted, domain.PromotionArchived},
	domain.PromotionCompleted: {domain.PromotionArchived},
}

func canMovePromotion(from, to domain.PromotionStatus) bool {
	if from == to {
		return true
	}
	for _, s := range promotionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (uc *PromotionUC) List(ctx context.Context, sellerID uuid.UUID) ([]domain.SellerPromotion, error) {
	return uc.Promotions.ListBySeller(ctx, sellerID)
}

func (uc *PromotionUC) Create(ctx context.Context, actor domain.Actor, in PromotionInput) (*domain.SellerPromotion, error) {
	if err := uc.Authz.Require(actor, "promotion", "write"); err != nil {
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
	status := in.Status
	if status == "" {
		status = domain.PromotionDraft
	}
	p := &domain.SellerPromotion{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Title:         strings.TrimSpace(in.Title),
		Type:          in.Type,
		DiscountValue: in.DiscountValue,
		MinSpend:      in.MinSpend,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Status:        status,
		Performance:   in.Performance,
	}
	if err := uc.Promotions.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, uc.reprice(ctx, sellerID)
}

func (uc *PromotionUC) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in PromotionInput) (*domain.SellerPromotion, error) {
	p, err := uc.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Status != "" && !canMovePromotion(p.Status, in.Status) {
		return nil, fmt.Errorf("%w: promotion %s -> %s", domain.ErrInvalidTransition, p.Status, in.Status)
	}
	p.Title = strings.TrimSpace(in.Title)
	p.Type = in.Type
	p.DiscountValue = in.DiscountValue
	p.MinSpend = in.MinSpend
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.Performance = in.Performance
	if in.Status != "" {
		p.Status = in.Status
	}
	if err := uc.Promotions.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, uc.reprice(ctx, p.SellerID)
}

func (uc *PromotionUC) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.PromotionStatus) (*domain.SellerPromotion, error) {
	if !status.Valid() {
		return nil, domain.Invalid("unknown promotion status %q", status)
	}
	p, err := uc.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canMovePromotion(p.Status, status) {
		return nil, fmt.Errorf("%w: promotion %s -> %s", domain.ErrInvalidTransition, p.Status, status)
	}
	p.Status = status
	if err := uc.Promotions.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, uc.reprice(ctx, p.SellerID)
}

func (uc *PromotionUC) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	p, err := uc.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := uc.Promotions.Delete(ctx, p.ID); err != nil {
		return err
	}
	return uc.reprice(ctx, p.SellerID)
}

// Validate returns the cart-level discount a running promotion grants on subtotal.
// Bundle promotions grant no monetary discount, same as in product pricing.
func (uc *PromotionUC) Validate(ctx context.Context, id uuid.UUID, subtotal float64) (float64, error) {
	p, err := uc.Promotions.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if p.Status != domain.PromotionRunning {
		return 0, domain.Invalid("promotion is not running")
	}
	if subtotal < p.MinSpend {
		return 0, domain.Invalid("minimum spend of %.2f not reached", p.MinSpend)
	}
	sub := dec(subtotal)
	switch p.Type {
	case domain.PromotionPercentage:
		pct := clampDec(dec(p.DiscountValue), 0, 100)
		return sub.Mul(pct).Div(hundred).Round(2).InexactFloat64(), nil
	case domain.PromotionAmount:
		return decimal.Min(sub, dec(p.DiscountValue)).Round(2).InexactFloat64(), nil
	}
	return 0, nil
}

func (uc *PromotionUC) owned(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.SellerPromotion, error) {
	if err := uc.Authz.Require(actor, "promotion", "write"); err != nil {
		return nil, err
	}
	p, err := uc.Promotions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.SellerID != actor.ID {
		return nil, fmt.Errorf("%w: promotion belongs to another seller", domain.ErrForbidden)
	}
	return p, nil
}

func (uc *PromotionUC) reprice(ctx context.Context, sellerID uuid.UUID) error {
	if err := uc.Pricing.ApplyPromotionsToProducts(ctx, sellerID); err != nil {
		return fmt.Errorf("reprice seller %s: %w", sellerID, err)
	}
	return nil
}
