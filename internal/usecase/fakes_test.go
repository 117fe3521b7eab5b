package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/gebeya/internal/domain"
)

// memStore backs every fake repository so orders can touch product stock.
type memStore struct {
	mu         sync.Mutex
	products   map[uuid.UUID]domain.Product
	promotions map[uuid.UUID]domain.SellerPromotion
	orders     map[uuid.UUID]domain.Order
	users      map[uuid.UUID]domain.User
	rules      []domain.TaxRule
	currencies map[domain.CurrencyCode]domain.Currency
	events     []domain.Event

	failProductSave error
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[uuid.UUID]domain.Product{},
		promotions: map[uuid.UUID]domain.SellerPromotion{},
		orders:     map[uuid.UUID]domain.Order{},
		users:      map[uuid.UUID]domain.User{},
		currencies: map[domain.CurrencyCode]domain.Currency{},
	}
}

type fakeProducts struct{ s *memStore }

func (f fakeProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f fakeProducts) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]domain.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.Product
	for _, p := range f.s.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeProducts) Save(_ context.Context, p *domain.Product) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failProductSave != nil {
		return f.s.failProductSave
	}
	f.s.products[p.ID] = *p
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.s.products, id)
	return nil
}

type fakePromotions struct{ s *memStore }

func (f fakePromotions) FindByID(_ context.Context, id uuid.UUID) (*domain.SellerPromotion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.promotions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f fakePromotions) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]domain.SellerPromotion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.SellerPromotion
	for _, p := range f.s.promotions {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f fakePromotions) Save(_ context.Context, p *domain.SellerPromotion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.promotions[p.ID] = *p
	return nil
}

func (f fakePromotions) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.promotions, id)
	return nil
}

type fakeUsers struct{ s *memStore }

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeUsers) Save(_ context.Context, u *domain.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.users[u.ID] = *u
	return nil
}

type fakeOrders struct {
	s     *memStore
	saves *int
}

func (f fakeOrders) load(o domain.Order) *domain.Order {
	if u, ok := f.s.users[o.CustomerID]; ok {
		o.Customer = &u
	}
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	details := make(map[string]any, len(o.PaymentDetails))
	for k, v := range o.PaymentDetails {
		details[k] = v
	}
	o.PaymentDetails = details
	return &o
}

func (f fakeOrders) find(match func(domain.Order) bool) (*domain.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, o := range f.s.orders {
		if match(o) {
			return f.load(o), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeOrders) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	return f.find(func(o domain.Order) bool { return o.ID == id })
}

func (f fakeOrders) FindByNumber(_ context.Context, number string) (*domain.Order, error) {
	return f.find(func(o domain.Order) bool { return o.OrderNumber == number })
}

func (f fakeOrders) FindByPaymentID(_ context.Context, paymentID string) (*domain.Order, error) {
	return f.find(func(o domain.Order) bool { return o.PaymentID != "" && o.PaymentID == paymentID })
}

func (f fakeOrders) Count(context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return int64(len(f.s.orders)), nil
}

func (f fakeOrders) Place(_ context.Context, o *domain.Order) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, it := range o.Items {
		p := f.s.products[it.ProductID]
		if p.Stock < it.Quantity {
			return &domain.InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: it.Quantity}
		}
	}
	for _, it := range o.Items {
		p := f.s.products[it.ProductID]
		p.Stock -= it.Quantity
		f.s.products[it.ProductID] = p
	}
	stored := *o
	stored.Customer = nil
	f.s.orders[o.ID] = stored
	return nil
}

func (f fakeOrders) Save(_ context.Context, o *domain.Order) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.saves != nil {
		*f.saves++
	}
	stored := *o
	stored.Customer = nil
	f.s.orders[o.ID] = stored
	return nil
}

func (f fakeOrders) Cancel(ctx context.Context, o *domain.Order) error {
	if err := f.Save(ctx, o); err != nil {
		return err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, it := range o.Items {
		p := f.s.products[it.ProductID]
		p.Stock += it.Quantity
		f.s.products[it.ProductID] = p
	}
	return nil
}

type fakeRules struct{ s *memStore }

func (f fakeRules) ListActive(_ context.Context, country string) ([]domain.TaxRule, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.TaxRule
	for _, r := range f.s.rules {
		if r.IsActive && r.Country == country {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeRules) Save(_ context.Context, r *domain.TaxRule) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.rules = append(f.s.rules, *r)
	return nil
}

type fakeCurrencies struct{ s *memStore }

func (f fakeCurrencies) FindByCode(_ context.Context, code domain.CurrencyCode) (*domain.Currency, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.currencies[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f fakeCurrencies) FindBase(context.Context) (*domain.Currency, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, c := range f.s.currencies {
		if c.IsBaseCurrency {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeCurrencies) List(context.Context) ([]domain.Currency, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]domain.Currency, 0, len(f.s.currencies))
	for _, c := range f.s.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f fakeCurrencies) Save(_ context.Context, c *domain.Currency) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.currencies[c.Code] = *c
	return nil
}

func (f fakeCurrencies) Delete(_ context.Context, code domain.CurrencyCode) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.currencies, code)
	return nil
}

func (f fakeCurrencies) SetBase(_ context.Context, code domain.CurrencyCode) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.currencies[code]; !ok {
		return domain.ErrNotFound
	}
	for k, c := range f.s.currencies {
		c.IsBaseCurrency = k == code
		if k == code {
			c.ExchangeRate = 1
		}
		f.s.currencies[k] = c
	}
	return nil
}

type fakeEvents struct {
	s   *memStore
	err error
}

func (f fakeEvents) Publish(_ context.Context, evts ...domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.events = append(f.s.events, evts...)
	return nil
}

func (s *memStore) eventTypes() []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeSequence struct{ n int64 }

func (f *fakeSequence) Next(context.Context) (int64, error) {
	f.n++
	return f.n, nil
}

type fakeChapa struct {
	initURL  string
	initErr  error
	status   string
	verifyN  int
	verifyFn func(txRef string) (*domain.ChapaVerification, error)
}

func (f *fakeChapa) Initialize(_ context.Context, c domain.ChapaCheckout) (string, error) {
	if f.initErr != nil {
		return "", f.initErr
	}
	return f.initURL + "?tx_ref=" + c.TxRef, nil
}

func (f *fakeChapa) Verify(_ context.Context, txRef string) (*domain.ChapaVerification, error) {
	f.verifyN++
	if f.verifyFn != nil {
		return f.verifyFn(txRef)
	}
	return &domain.ChapaVerification{Status: f.status, Reference: "REF-" + txRef, Raw: map[string]any{"status": f.status, "tx_ref": txRef}}, nil
}

type fakeTelebirr struct{}

func (fakeTelebirr) CreateOrder(_ context.Context, o *domain.Order) (*domain.TelebirrCheckout, error) {
	if o == nil {
		return nil, errors.New("nil order")
	}
	return &domain.TelebirrCheckout{OutTradeNo: o.OrderNumber, QRCode: "QR:" + o.OrderNumber, DeepLink: "telebirr://pay?outTradeNo=" + o.OrderNumber}, nil
}

func (fakeTelebirr) VerifyNotification(n domain.TelebirrNotification) bool {
	return n.Sign != "" && n.Sign == telebirrSign(n)
}

func telebirrSign(n domain.TelebirrNotification) string {
	return "sig:" + n.OutTradeNo + ":" + n.TradeStatus + ":" + n.TransactionID
}

// signedNotification builds a notification the fake gateway accepts.
func signedNotification(outTradeNo, status, txID string) domain.TelebirrNotification {
	n := domain.TelebirrNotification{OutTradeNo: outTradeNo, TradeStatus: status, TransactionID: txID}
	n.Sign = telebirrSign(n)
	return n
}

type fakeBank struct{}

func (fakeBank) Instructions(o *domain.Order, ref string) domain.BankTransferInstructions {
	return domain.BankTransferInstructions{BankName: "CBE", AccountNumber: "1000", Reference: ref, Amount: o.TotalAmount}
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// world wires every use case against one in-memory store.
type world struct {
	store      *memStore
	authz      *Authorizer
	pricing    *PricingUC
	products   *ProductUC
	promotions *PromotionUC
	taxes      *TaxUC
	orders     *OrderUC
	payments   *PaymentUC
	currencies *CurrencyUC
	users      *UserUC
	chapa      *fakeChapa
	orderSaves int
}

func newWorld(authz *Authorizer) *world {
	w := &world{store: newMemStore(), authz: authz, chapa: &fakeChapa{initURL: "https://checkout.chapa.co/pay", status: "success"}}
	s := w.store
	w.pricing = &PricingUC{Products: fakeProducts{s}, Promotions: fakePromotions{s}}
	w.products = &ProductUC{Products: fakeProducts{s}, Pricing: w.pricing, Authz: authz}
	w.promotions = &PromotionUC{Promotions: fakePromotions{s}, Pricing: w.pricing, Authz: authz}
	w.taxes = &TaxUC{Rules: fakeRules{s}, Authz: authz, Clock: fixedClock}
	orders := fakeOrders{s: s, saves: &w.orderSaves}
	w.orders = &OrderUC{
		Orders:   orders,
		Products: fakeProducts{s},
		Users:    fakeUsers{s},
		Taxes:    w.taxes,
		Sequence: &fakeSequence{},
		Events:   fakeEvents{s: s},
		Authz:    authz,
		Clock:    fixedClock,
	}
	w.payments = &PaymentUC{
		Orders:   orders,
		Chapa:    w.chapa,
		Telebirr: fakeTelebirr{},
		Bank:     fakeBank{},
		Events:   fakeEvents{s: s},
		Authz:    authz,
		Clock:    fixedClock,
	}
	w.currencies = &CurrencyUC{Currencies: fakeCurrencies{s}, Authz: authz}
	w.users = &UserUC{Users: fakeUsers{s}, Authz: authz, Clock: fixedClock}
	return w
}

func (w *world) user(role domain.Role) domain.Actor {
	id := uuid.New()
	w.store.users[id] = domain.User{ID: id, Email: id.String()[:8] + "@example.et", Name: "Abebe Kebede", Phone: "+251911000000", Role: role}
	return domain.Actor{ID: id, Role: role}
}

func (w *world) product(sellerID uuid.UUID, name string, price float64, stock int) domain.Product {
	p := domain.Product{ID: uuid.New(), SellerID: sellerID, Name: name, Category: "electronics", BasePrice: price, Price: price, Stock: stock, Currency: domain.CurrencyETB, Active: true}
	w.store.products[p.ID] = p
	return p
}

func (w *world) promotion(sellerID uuid.UUID, title string, t domain.PromotionType, value float64, status domain.PromotionStatus) domain.SellerPromotion {
	p := domain.SellerPromotion{ID: uuid.New(), SellerID: sellerID, Title: title, Type: t, DiscountValue: value, Status: status}
	w.store.promotions[p.ID] = p
	return p
}

func (w *world) vat(rate float64) {
	w.store.rules = append(w.store.rules, domain.TaxRule{
		ID: uuid.New(), Name: "VAT", Country: domain.DefaultCountry, Region: domain.RegionAll,
		Rate: rate, AppliesTo: domain.TaxAppliesTo{Products: true, Shipping: true}, IsActive: true,
	})
}
