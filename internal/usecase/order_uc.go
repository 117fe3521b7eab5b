package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/gebeya/internal/domain"
)

const (
	defaultShippingCost  = 150
	freeShippingMinimum  = 1000
	orderNumberSeqDigits = 4
)

var regionShippingCosts = map[domain.Region]float64{
	domain.RegionAddisAbaba: 50,
	domain.RegionDireDawa:   100,
	domain.RegionHarari:     100,
}

// delivery window in days, {min, max}
var regionDeliveryDays = map[domain.Region][2]int{
	domain.RegionAddisAbaba: {1, 2},
	domain.RegionDireDawa:   {3, 5},
	domain.RegionHarari:     {3, 5},
}

// ShippingCostFor returns the shipping fee for a region given the items total.
// Addis Ababa orders above 1000 ship free.
func ShippingCostFor(region domain.Region, itemsTotal float64) float64 {
	if region == domain.RegionAddisAbaba && itemsTotal > freeShippingMinimum {
		return 0
	}
	if v, ok := regionShippingCosts[region]; ok {
		return v
	}
	return defaultShippingCost
}

func DeliveryDays(region domain.Region) (minDays, maxDays int) {
	if d, ok := regionDeliveryDays[region]; ok {
		return d[0], d[1]
	}
	return 5, 10
}

// RecomputeTotal derives an order's total from its lines, shipping and tax.
func RecomputeTotal(o *domain.Order) float64 {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(dec(it.Subtotal))
	}
	return total.Add(dec(o.ShippingCost)).Add(dec(o.TaxAmount)).Round(2).InexactFloat64()
}

type OrderUC struct {
	Orders   domain.OrderRepo
	Products domain.ProductRepo
	Users    domain.UserRepo
	// Taxes is optional; without it orders carry no tax.
	Taxes *TaxUC
	// Sequence is optional; without it the order count is used.
	Sequence domain.OrderSequence
	Events   domain.EventPublisher
	Authz    *Authorizer
	Clock    func() time.Time
}

type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   domain.PaymentMethod   `json:"payment_method"`
	Notes           string                 `json:"notes"`
}

type StatusUpdate struct {
	Status         domain.OrderStatus `json:"status"`
	TrackingNumber string             `json:"tracking_number"`
	Carrier        string             `json:"carrier"`
	Reason         string             `json:"reason"`
}

func (in CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return domain.Invalid("items are required")
	}
	for _, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return domain.Invalid("product_id is required")
		}
		if it.Quantity <= 0 {
			return domain.Invalid("quantity must be positive")
		}
	}
	if !in.ShippingAddress.Region.Valid() {
		return domain.Invalid("unknown region %q", in.ShippingAddress.Region)
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.Valid() {
		return domain.Invalid("unknown payment method %q", in.PaymentMethod)
	}
	return nil
}

// CreateOrder prices the cart, checks stock and places the order.
//
// The stock check runs before the write; two concurrent checkouts may both pass it.
// The repository decrements stock conditionally in the same transaction as the order
// insert, so the loser fails with ErrInsufficientStock instead of overselling.
func (uc *OrderUC) CreateOrder(ctx context.Context, actor domain.Actor, in CreateOrderInput) (*domain.Order, error) {
	if err := uc.Authz.Require(actor, "order", "create"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	customer, err := uc.Users.FindByID(ctx, actor.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Invalid("customer %s has no profile yet", actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", actor.ID, err)
	}

	now := nowFrom(uc.Clock)
	o := &domain.Order{
		ID:              uuid.New(),
		CustomerID:      customer.ID,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   domain.PaymentPending,
		Status:          domain.OrderStatusPending,
		Currency:        domain.CurrencyETB,
		Notes:           strings.TrimSpace(in.Notes),
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = domain.PaymentCOD
	}
	if o.ShippingAddress.Country == "" {
		o.ShippingAddress.Country = domain.DefaultCountry
	}

	requested := map[uuid.UUID]int{}
	for _, it := range in.Items {
		requested[it.ProductID] += it.Quantity
	}

	itemsTotal, discount := decimal.Zero, decimal.Zero
	taxItems := make([]TaxItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, err := uc.Products.FindByID(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, err)
		}
		if p.Stock < requested[p.ID] {
			return nil, &domain.InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: requested[p.ID]}
		}
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal := dec(p.Price).Mul(qty)
		itemsTotal = itemsTotal.Add(subtotal)
		if p.BasePrice > p.Price {
			discount = discount.Add(dec(p.BasePrice - p.Price).Mul(qty))
		}
		o.Items = append(o.Items, domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Title:     p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Subtotal:  subtotal.Round(2).InexactFloat64(),
		})
		taxItems = append(taxItems, TaxItem{ProductID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price, Quantity: it.Quantity})
	}

	o.ShippingCost = ShippingCostFor(o.ShippingAddress.Region, itemsTotal.InexactFloat64())
	o.DiscountAmount = discount.Round(2).InexactFloat64()
	if uc.Taxes != nil {
		calc, err := uc.Taxes.CalculateTaxes(ctx, taxItems, &o.ShippingAddress, o.ShippingCost, o.Currency)
		if err != nil {
			return nil, fmt.Errorf("calculate taxes: %w", err)
		}
		o.TaxAmount = calc.Tax.Total
	}
	o.TotalAmount = RecomputeTotal(o)

	_, maxDays := DeliveryDays(o.ShippingAddress.Region)
	o.EstimatedDelivery = now.AddDate(0, 0, maxDays)

	if err := uc.assignOrderNumber(ctx, o, now); err != nil {
		return nil, err
	}
	if err := uc.Orders.Place(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Str("order_number", o.OrderNumber).Str("customer_id", o.CustomerID.String()).Float64("total", o.TotalAmount).Msg("order placed")
	publish(ctx, uc.Events, domain.NewOrderEvent(domain.EventOrderCreated, o, map[string]any{"total_amount": o.TotalAmount}))

	return uc.Orders.FindByID(ctx, o.ID)
}

// assignOrderNumber sets ORD-<epoch millis>-<sequence> when the order has none.
func (uc *OrderUC) assignOrderNumber(ctx context.Context, o *domain.Order, now time.Time) error {
	if o.OrderNumber != "" {
		return nil
	}
	var seq int64
	if uc.Sequence != nil {
		n, err := uc.Sequence.Next(ctx)
		if err != nil {
			return fmt.Errorf("order sequence: %w", err)
		}
		seq = n
	} else {
		n, err := uc.Orders.Count(ctx)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		seq = n + 1
	}
	o.OrderNumber = fmt.Sprintf("ORD-%d-%0*d", now.UnixMilli(), orderNumberSeqDigits, seq)
	return nil
}

func (uc *OrderUC) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Order, error) {
	if err := uc.Authz.Require(actor, "order", "read"); err != nil {
		return nil, err
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessOrder(actor, o) {
		return nil, fmt.Errorf("%w: order %s", domain.ErrForbidden, o.OrderNumber)
	}
	return o, nil
}

// UpdateOrderStatus moves an order forward in fulfilment. Cancellation is delegated to
// CancelOrder so stock is restored.
func (uc *OrderUC) UpdateOrderStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, in StatusUpdate) (*domain.Order, error) {
	if in.Status == domain.OrderStatusCancelled {
		return uc.CancelOrder(ctx, actor, id, in.Reason)
	}
	if err := uc.Authz.Require(actor, "order", "update_status"); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, domain.Invalid("unknown order status %q", in.Status)
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !o.HasSeller(actor.ID) {
		return nil, fmt.Errorf("%w: order %s has no items of this seller", domain.ErrForbidden, o.OrderNumber)
	}
	prev := o.Status
	if in.Status != prev && !prev.CanTransitionTo(in.Status) {
		return nil, fmt.Errorf("%w: order %s -> %s", domain.ErrInvalidTransition, prev, in.Status)
	}

	o.Status = in.Status
	if in.TrackingNumber != "" {
		o.TrackingNumber = strings.TrimSpace(in.TrackingNumber)
	}
	if in.Carrier != "" {
		o.Carrier = strings.TrimSpace(in.Carrier)
	}
	switch o.Status {
	case domain.OrderStatusDelivered:
		if o.DeliveredAt == nil {
			t := nowFrom(uc.Clock)
			o.DeliveredAt = &t
		}
	default:
		o.DeliveredAt = nil
	}
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	if prev != o.Status {
		log.Info().Str("order_number", o.OrderNumber).Str("from", string(prev)).Str("to", string(o.Status)).Msg("order status changed")
		publish(ctx, uc.Events, domain.NewOrderEvent(domain.EventOrderStatusChanged, o, map[string]any{"from": prev, "to": o.Status}))
	}
	return o, nil
}

// CancelOrder cancels a pending or confirmed order and restores stock for every line.
func (uc *OrderUC) CancelOrder(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.Order, error) {
	if err := uc.Authz.Require(actor, "order", "cancel"); err != nil {
		return nil, err
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessOrder(actor, o) {
		return nil, fmt.Errorf("%w: order %s", domain.ErrForbidden, o.OrderNumber)
	}
	if !o.Status.Cancellable() {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, o.OrderNumber, o.Status)
	}
	prev := o.Status
	o.Status = domain.OrderStatusCancelled
	o.CancellationReason = strings.TrimSpace(reason)
	o.DeliveredAt = nil
	if o.PaymentStatus == domain.PaymentPending || o.PaymentStatus == domain.PaymentProcessing {
		o.PaymentStatus = domain.PaymentCancelled
	}
	if err := uc.Orders.Cancel(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Str("order_number", o.OrderNumber).Str("from", string(prev)).Int("items", len(o.Items)).Msg("order cancelled, stock restored")
	publish(ctx, uc.Events, domain.NewOrderEvent(domain.EventOrderCancelled, o, map[string]any{"reason": o.CancellationReason}))
	return o, nil
}

func canAccessOrder(actor domain.Actor, o *domain.Order) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleSeller:
		return o.HasSeller(actor.ID)
	case domain.RoleCustomer:
		return o.CustomerID == actor.ID
	}
	return false
}
