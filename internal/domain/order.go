package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

// fulfilment order; cancelled and returned are handled separately.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

func (s OrderStatus) Valid() bool {
	if _, ok := orderStatusRank[s]; ok {
		return true
	}
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

// Cancellable reports whether an order in status s may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// CanTransitionTo enforces one-directional fulfilment: forward moves only,
// cancellation from pending/confirmed, return only after delivery.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch next {
	case OrderStatusCancelled:
		return s.Cancellable()
	case OrderStatusReturned:
		return s == OrderStatusDelivered
	}
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	return ok && to > from
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentCancelled  PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentTelebirr     PaymentMethod = "telebirr"
	PaymentCBE          PaymentMethod = "cbe"
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentChapa        PaymentMethod = "chapa"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentTelebirr, PaymentCBE, PaymentCOD, PaymentBankTransfer, PaymentChapa:
		return true
	}
	return false
}

type Region string

const (
	RegionAddisAbaba  Region = "Addis Ababa"
	RegionAfar        Region = "Afar"
	RegionAmhara      Region = "Amhara"
	RegionBenishangul Region = "Benishangul-Gumuz"
	RegionDireDawa    Region = "Dire Dawa"
	RegionGambela     Region = "Gambela"
	RegionHarari      Region = "Harari"
	RegionOromia      Region = "Oromia"
	RegionSidama      Region = "Sidama"
	RegionSomali      Region = "Somali"
	RegionSNNPR       Region = "SNNPR"
	RegionSouthWest   Region = "South West Ethiopia"
	RegionTigray      Region = "Tigray"
)

var regions = map[Region]struct{}{
	RegionAddisAbaba: {}, RegionAfar: {}, RegionAmhara: {}, RegionBenishangul: {},
	RegionDireDawa: {}, RegionGambela: {}, RegionHarari: {}, RegionOromia: {},
	RegionSidama: {}, RegionSomali: {}, RegionSNNPR: {}, RegionSouthWest: {}, RegionTigray: {},
}

func (r Region) Valid() bool {
	_, ok := regions[r]
	return ok
}

const DefaultCountry = "Ethiopia"

type ShippingAddress struct {
	Country string `json:"country"`
	Region  Region `json:"region"`
	City    string `json:"city"`
	Street  string `json:"street"`
	Phone   string `json:"phone"`
}

type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string    `gorm:"size:40;uniqueIndex" json:"order_number"`
	CustomerID  uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Customer    *User     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Items []OrderItem `json:"items"`

	ShippingAddress   ShippingAddress `gorm:"type:jsonb;serializer:json" json:"shipping_address"`
	ShippingCost      float64         `gorm:"type:decimal(12,2);default:0" json:"shipping_cost"`
	TaxAmount         float64         `gorm:"type:decimal(12,2);default:0" json:"tax_amount"`
	DiscountAmount    float64         `gorm:"type:decimal(12,2);default:0" json:"discount_amount"`
	TotalAmount       float64         `gorm:"type:decimal(12,2)" json:"total_amount"`
	Currency          CurrencyCode    `gorm:"size:3;default:ETB" json:"currency"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
	Notes             string          `gorm:"type:text" json:"notes"`

	PaymentMethod  PaymentMethod  `gorm:"type:varchar(30);index" json:"payment_method"`
	PaymentStatus  PaymentStatus  `gorm:"type:varchar(20);index" json:"payment_status"`
	PaymentID      string         `gorm:"size:140;index" json:"payment_id"`
	PaymentDetails map[string]any `gorm:"type:jsonb;serializer:json" json:"payment_details"`

	Status             OrderStatus `gorm:"type:varchar(20);index" json:"status"`
	TrackingNumber     string      `gorm:"size:80" json:"tracking_number"`
	Carrier            string      `gorm:"size:80" json:"carrier"`
	DeliveredAt        *time.Time  `json:"delivered_at"`
	CancellationReason string      `gorm:"type:text" json:"cancellation_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SellerID  uuid.UUID `gorm:"type:uuid;index" json:"seller_id"`
	Title     string    `gorm:"size:180" json:"title"`
	Price     float64   `gorm:"type:decimal(12,2)" json:"price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Subtotal  float64   `gorm:"type:decimal(12,2)" json:"subtotal"`
}

// HasSeller reports whether any line of the order belongs to sellerID.
func (o *Order) HasSeller(sellerID uuid.UUID) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

// MergePaymentDetails adds keys to the provider payload without dropping earlier ones.
func (o *Order) MergePaymentDetails(kv map[string]any) {
	if o.PaymentDetails == nil {
		o.PaymentDetails = map[string]any{}
	}
	for k, v := range kv {
		o.PaymentDetails[k] = v
	}
}

type OrderRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	Count(ctx context.Context) (int64, error)
	// Place persists a new order and decrements stock for each of its items.
	Place(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
	// Cancel persists a cancelled order and restores stock for each of its items.
	Cancel(ctx context.Context, o *Order) error
}

// OrderSequence hands out the numeric suffix of order numbers.
type OrderSequence interface {
	Next(ctx context.Context) (int64, error)
}
