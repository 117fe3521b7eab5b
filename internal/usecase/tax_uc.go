package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/gebeya/internal/domain"
)

type TaxUC struct {
	Rules domain.TaxRuleRepo
	Authz *Authorizer
	Clock func() time.Time
}

type TaxItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
}

type AppliedTaxRule struct {
	RuleID     uuid.UUID `json:"rule_id"`
	Name       string    `json:"name"`
	Rate       float64   `json:"rate"`
	IsCompound bool      `json:"is_compound"`
	Amount     float64   `json:"amount"`
}

type ItemTax struct {
	ProductID uuid.UUID        `json:"product_id"`
	Name      string           `json:"name"`
	Subtotal  float64          `json:"subtotal"`
	Tax       float64          `json:"tax"`
	Rules     []AppliedTaxRule `json:"rules"`
}

type TaxBreakdown struct {
	Products float64 `json:"products"`
	Shipping float64 `json:"shipping"`
}

type TaxSummary struct {
	Total         float64          `json:"total"`
	Breakdown     TaxBreakdown     `json:"breakdown"`
	Items         []ItemTax        `json:"items"`
	ShippingRules []AppliedTaxRule `json:"shipping_rules"`
}

type TaxCalculation struct {
	Subtotal float64             `json:"subtotal"`
	Shipping float64             `json:"shipping"`
	Tax      TaxSummary          `json:"tax"`
	Total    float64             `json:"total"`
	Currency domain.CurrencyCode `json:"currency"`
}

type TaxRate struct {
	Name       string              `json:"name"`
	TaxType    string              `json:"tax_type"`
	Rate       float64             `json:"rate"`
	IsCompound bool                `json:"is_compound"`
	AppliesTo  domain.TaxAppliesTo `json:"applies_to"`
}

// CalculateTaxes prices tax for a cart shipped to addr. Rules are walked in ascending
// priority per item: compound rules accumulate, the first simple rule replaces the
// running amount and ends the walk. Shipping tax always accumulates.
func (uc *TaxUC) CalculateTaxes(ctx context.Context, items []TaxItem, addr *domain.ShippingAddress, shippingCost float64, currency domain.CurrencyCode) (*TaxCalculation, error) {
	if len(items) == 0 {
		return nil, domain.Invalid("items are required")
	}
	if addr == nil {
		return nil, domain.Invalid("shipping address is required")
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, domain.Invalid("quantity must be positive for product %s", it.ProductID)
		}
		if it.Price < 0 {
			return nil, domain.Invalid("price must not be negative for product %s", it.ProductID)
		}
	}
	if shippingCost < 0 {
		return nil, domain.Invalid("shipping cost must not be negative")
	}
	if currency == "" {
		currency = domain.CurrencyETB
	}

	rules, err := uc.applicableRules(ctx, countryOf(addr), string(addr.Region))
	if err != nil {
		return nil, err
	}
	calc := ComputeTaxes(rules, items, shippingCost)
	calc.Currency = currency
	return calc, nil
}

// ComputeTaxes applies already-resolved rules, sorted by priority, to items.
func ComputeTaxes(rules []domain.TaxRule, items []TaxItem, shippingCost float64) *TaxCalculation {
	subtotal := decimal.Zero
	productTax := decimal.Zero
	out := &TaxCalculation{Tax: TaxSummary{Items: make([]ItemTax, 0, len(items)), ShippingRules: []AppliedTaxRule{}}}

	for _, it := range items {
		lineBase := dec(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(lineBase)

		itemTax := decimal.Zero
		applied := []AppliedTaxRule{}
		for _, r := range rules {
			if !ruleAppliesToItem(r, it) {
				continue
			}
			amount := lineBase.Mul(dec(r.Rate)).Div(hundred)
			applied = append(applied, AppliedTaxRule{
				RuleID:     r.ID,
				Name:       r.Name,
				Rate:       r.Rate,
				IsCompound: r.IsCompound,
				Amount:     amount.Round(2).InexactFloat64(),
			})
			if r.IsCompound {
				itemTax = itemTax.Add(amount)
				continue
			}
			itemTax = amount
			break
		}
		productTax = productTax.Add(itemTax)
		out.Tax.Items = append(out.Tax.Items, ItemTax{
			ProductID: it.ProductID,
			Name:      it.Name,
			Subtotal:  lineBase.Round(2).InexactFloat64(),
			Tax:       itemTax.Round(2).InexactFloat64(),
			Rules:     applied,
		})
	}

	ship := dec(shippingCost)
	shippingTax := decimal.Zero
	for _, r := range rules {
		if !r.AppliesTo.Shipping {
			continue
		}
		amount := ship.Mul(dec(r.Rate)).Div(hundred)
		shippingTax = shippingTax.Add(amount)
		out.Tax.ShippingRules = append(out.Tax.ShippingRules, AppliedTaxRule{
			RuleID:     r.ID,
			Name:       r.Name,
			Rate:       r.Rate,
			IsCompound: r.IsCompound,
			Amount:     amount.Round(2).InexactFloat64(),
		})
	}

	taxTotal := productTax.Add(shippingTax)
	out.Subtotal = subtotal.Round(2).InexactFloat64()
	out.Shipping = ship.Round(2).InexactFloat64()
	out.Tax.Total = taxTotal.Round(2).InexactFloat64()
	out.Tax.Breakdown = TaxBreakdown{
		Products: productTax.Round(2).InexactFloat64(),
		Shipping: shippingTax.Round(2).InexactFloat64(),
	}
	out.Total = subtotal.Add(ship).Add(taxTotal).Round(2).InexactFloat64()
	return out
}

func ruleAppliesToItem(r domain.TaxRule, it TaxItem) bool {
	if r.AppliesTo.Products && (len(r.Products) == 0 || containsID(r.Products, it.ProductID)) && !containsID(r.Exceptions, it.ProductID) {
		return true
	}
	for _, c := range r.Categories {
		if it.Category != "" && strings.EqualFold(c, it.Category) {
			return true
		}
	}
	return false
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func countryOf(addr *domain.ShippingAddress) string {
	if c := strings.TrimSpace(addr.Country); c != "" {
		return c
	}
	return domain.DefaultCountry
}

// applicableRules filters the country's active rules by region and validity window
// and sorts them by ascending priority.
func (uc *TaxUC) applicableRules(ctx context.Context, country, region string) ([]domain.TaxRule, error) {
	all, err := uc.Rules.ListActive(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("list tax rules: %w", err)
	}
	now := nowFrom(uc.Clock)
	rules := make([]domain.TaxRule, 0, len(all))
	for _, r := range all {
		if !r.IsActive || !strings.EqualFold(r.Country, country) || !r.EffectiveAt(now) {
			continue
		}
		if r.Region != domain.RegionAll && !strings.EqualFold(r.Region, region) {
			continue
		}
		rules = append(rules, r)
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	return rules, nil
}

// GetTaxRates lists the rules that would apply in a country/region, for display.
func (uc *TaxUC) GetTaxRates(ctx context.Context, country, region string) ([]TaxRate, error) {
	if strings.TrimSpace(country) == "" {
		country = domain.DefaultCountry
	}
	rules, err := uc.applicableRules(ctx, country, region)
	if err != nil {
		return nil, err
	}
	rates := make([]TaxRate, 0, len(rules))
	for _, r := range rules {
		rates = append(rates, TaxRate{Name: r.Name, TaxType: r.TaxType, Rate: r.Rate, IsCompound: r.IsCompound, AppliesTo: r.AppliesTo})
	}
	return rates, nil
}

func (uc *TaxUC) SaveRule(ctx context.Context, actor domain.Actor, r *domain.TaxRule) error {
	if err := uc.Authz.Require(actor, "tax", "write"); err != nil {
		return err
	}
	if err := validateTaxRule(r); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return uc.Rules.Save(ctx, r)
}

// ImportRules saves a batch of parsed rules; it stops at the first invalid row.
func (uc *TaxUC) ImportRules(ctx context.Context, actor domain.Actor, rules []domain.ImportedTaxRule) (int, error) {
	if err := uc.Authz.Require(actor, "tax", "write"); err != nil {
		return 0, err
	}
	for i := range rules {
		if err := validateTaxRule(&rules[i].Rule); err != nil {
			return 0, fmt.Errorf("row %d: %w", rules[i].Row, err)
		}
	}
	saved := 0
	for i := range rules {
		r := &rules[i].Rule
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if err := uc.Rules.Save(ctx, r); err != nil {
			return saved, fmt.Errorf("row %d: %w", rules[i].Row, err)
		}
		saved++
	}
	return saved, nil
}

func validateTaxRule(r *domain.TaxRule) error {
	if r == nil {
		return domain.Invalid("tax rule is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return domain.Invalid("tax rule name is required")
	}
	if strings.TrimSpace(r.Country) == "" {
		r.Country = domain.DefaultCountry
	}
	if strings.TrimSpace(r.Region) == "" {
		r.Region = domain.RegionAll
	}
	if r.Rate < 0 || r.Rate > 100 {
		return domain.Invalid("tax rate must be between 0 and 100")
	}
	if r.ValidUntil != nil && r.ValidUntil.Before(r.ValidFrom) {
		return domain.Invalid("valid_until before valid_from")
	}
	return nil
}
