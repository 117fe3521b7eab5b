package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/gebeya/internal/domain"
)

// CurrencyUC keeps the currency table consistent: one base currency at rate 1,
// every other rate expressed against it.
type CurrencyUC struct {
	Currencies domain.CurrencyRepo
	Authz      *Authorizer
}

type CurrencyInput struct {
	Code              domain.CurrencyCode   `json:"code"`
	Name              string                `json:"name"`
	Symbol            string                `json:"symbol"`
	ExchangeRate      float64               `json:"exchange_rate"`
	IsBaseCurrency    bool                  `json:"is_base_currency"`
	DecimalPlaces     *int                  `json:"decimal_places"`
	SymbolPosition    domain.SymbolPosition `json:"symbol_position"`
	ThousandSeparator *string               `json:"thousand_separator"`
	DecimalSeparator  *string               `json:"decimal_separator"`
}

type Conversion struct {
	Amount    float64             `json:"amount"`
	From      domain.CurrencyCode `json:"from"`
	To        domain.CurrencyCode `json:"to"`
	Converted float64             `json:"converted"`
	Rate      float64             `json:"rate"`
	Formatted string              `json:"formatted"`
}

func normalizeCode(c domain.CurrencyCode) domain.CurrencyCode {
	return domain.CurrencyCode(strings.ToUpper(strings.TrimSpace(string(c))))
}

func validCode(c domain.CurrencyCode) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (uc *CurrencyUC) List(ctx context.Context) ([]domain.Currency, error) {
	return uc.Currencies.List(ctx)
}

func (uc *CurrencyUC) Get(ctx context.Context, code domain.CurrencyCode) (*domain.Currency, error) {
	return uc.Currencies.FindByCode(ctx, normalizeCode(code))
}

// Convert routes through the base currency: amount / fromRate * toRate.
func (uc *CurrencyUC) Convert(ctx context.Context, amount float64, from, to domain.CurrencyCode) (*Conversion, error) {
	from, to = normalizeCode(from), normalizeCode(to)
	if from == to {
		out := &Conversion{Amount: amount, From: from, To: to, Converted: amount, Rate: 1}
		if c, err := uc.Currencies.FindByCode(ctx, to); err == nil {
			out.Formatted = FormatPrice(amount, *c)
		}
		return out, nil
	}
	src, err := uc.Currencies.FindByCode(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("currency %s: %w", from, err)
	}
	dst, err := uc.Currencies.FindByCode(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("currency %s: %w", to, err)
	}
	converted, err := ConvertAmount(amount, src.ExchangeRate, dst.ExchangeRate)
	if err != nil {
		return nil, err
	}
	rate := dec(dst.ExchangeRate).Div(dec(src.ExchangeRate)).InexactFloat64()
	return &Conversion{
		Amount:    amount,
		From:      from,
		To:        to,
		Converted: converted,
		Rate:      rate,
		Formatted: FormatPrice(converted, *dst),
	}, nil
}

// ConvertAmount is the unrounded conversion; display rounding belongs to FormatPrice.
func ConvertAmount(amount, fromRate, toRate float64) (float64, error) {
	if fromRate <= 0 || toRate <= 0 {
		return 0, domain.Invalid("exchange rates must be positive")
	}
	return dec(amount).Div(dec(fromRate)).Mul(dec(toRate)).InexactFloat64(), nil
}

func (uc *CurrencyUC) Create(ctx context.Context, actor domain.Actor, in CurrencyInput) (*domain.Currency, error) {
	if err := uc.Authz.Require(actor, "currency", "write"); err != nil {
		return nil, err
	}
	in.Code = normalizeCode(in.Code)
	if !validCode(in.Code) {
		return nil, domain.Invalid("currency code must be 3 letters")
	}
	if _, err := uc.Currencies.FindByCode(ctx, in.Code); err == nil {
		return nil, domain.Invalid("currency %s already exists", in.Code)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	makeBase := in.IsBaseCurrency
	if _, err := uc.Currencies.FindBase(ctx); errors.Is(err, domain.ErrNotFound) {
		makeBase = true
	} else if err != nil {
		return nil, err
	}

	c := &domain.Currency{
		ID:                uuid.New(),
		Code:              in.Code,
		DecimalPlaces:     2,
		SymbolPosition:    domain.SymbolBefore,
		ThousandSeparator: ",",
		DecimalSeparator:  ".",
		IsActive:          true,
	}
	if err := applyCurrencyInput(c, in); err != nil {
		return nil, err
	}
	if makeBase {
		c.ExchangeRate = 1
	} else if c.ExchangeRate <= 0 {
		return nil, domain.Invalid("exchange_rate must be positive")
	}
	if err := uc.Currencies.Save(ctx, c); err != nil {
		return nil, err
	}
	if makeBase {
		if err := uc.Currencies.SetBase(ctx, c.Code); err != nil {
			return nil, err
		}
	}
	log.Info().Str("code", string(c.Code)).Bool("base", makeBase).Msg("currency created")
	return uc.Currencies.FindByCode(ctx, c.Code)
}

// Update edits presentation and rate. The base flag only moves through SetBaseCurrency.
func (uc *CurrencyUC) Update(ctx context.Context, actor domain.Actor, code domain.CurrencyCode, in CurrencyInput) (*domain.Currency, error) {
	if err := uc.Authz.Require(actor, "currency", "write"); err != nil {
		return nil, err
	}
	c, err := uc.Currencies.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	if err := applyCurrencyInput(c, in); err != nil {
		return nil, err
	}
	if c.IsBaseCurrency {
		c.ExchangeRate = 1
	} else if c.ExchangeRate <= 0 {
		return nil, domain.Invalid("exchange_rate must be positive")
	}
	if err := uc.Currencies.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *CurrencyUC) UpdateRate(ctx context.Context, actor domain.Actor, code domain.CurrencyCode, rate float64) (*domain.Currency, error) {
	if err := uc.Authz.Require(actor, "currency", "write"); err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, domain.Invalid("exchange_rate must be positive")
	}
	c, err := uc.Currencies.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	if c.IsBaseCurrency {
		return nil, domain.Invalid("base currency rate is fixed at 1")
	}
	c.ExchangeRate = rate
	if err := uc.Currencies.Save(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Str("code", string(c.Code)).Float64("rate", rate).Msg("exchange rate updated")
	return c, nil
}

func (uc *CurrencyUC) SetBaseCurrency(ctx context.Context, actor domain.Actor, code domain.CurrencyCode) (*domain.Currency, error) {
	if err := uc.Authz.Require(actor, "currency", "write"); err != nil {
		return nil, err
	}
	code = normalizeCode(code)
	if _, err := uc.Currencies.FindByCode(ctx, code); err != nil {
		return nil, err
	}
	if err := uc.Currencies.SetBase(ctx, code); err != nil {
		return nil, err
	}
	log.Info().Str("code", string(code)).Msg("base currency changed")
	return uc.Currencies.FindByCode(ctx, code)
}

func (uc *CurrencyUC) DeleteCurrency(ctx context.Context, actor domain.Actor, code domain.CurrencyCode) error {
	if err := uc.Authz.Require(actor, "currency", "write"); err != nil {
		return err
	}
	c, err := uc.Currencies.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return err
	}
	if c.IsBaseCurrency {
		return fmt.Errorf("%w: %s", domain.ErrBaseCurrencyDeletion, c.Code)
	}
	return uc.Currencies.Delete(ctx, c.Code)
}

func applyCurrencyInput(c *domain.Currency, in CurrencyInput) error {
	if s := strings.TrimSpace(in.Name); s != "" {
		c.Name = s
	}
	if s := strings.TrimSpace(in.Symbol); s != "" {
		c.Symbol = s
	}
	if in.ExchangeRate != 0 {
		c.ExchangeRate = in.ExchangeRate
	}
	if in.DecimalPlaces != nil {
		if *in.DecimalPlaces < 0 || *in.DecimalPlaces > 8 {
			return domain.Invalid("decimal_places must be between 0 and 8")
		}
		c.DecimalPlaces = *in.DecimalPlaces
	}
	switch in.SymbolPosition {
	case "":
	case domain.SymbolBefore, domain.SymbolAfter:
		c.SymbolPosition = in.SymbolPosition
	default:
		return domain.Invalid("symbol_position must be before or after")
	}
	if in.ThousandSeparator != nil {
		c.ThousandSeparator = *in.ThousandSeparator
	}
	if in.DecimalSeparator != nil {
		if *in.DecimalSeparator == "" {
			return domain.Invalid("decimal_separator cannot be empty")
		}
		c.DecimalSeparator = *in.DecimalSeparator
	}
	if c.Name == "" {
		c.Name = string(c.Code)
	}
	if c.Symbol == "" {
		c.Symbol = string(c.Code)
	}
	return nil
}

// FormatPrice renders amount with the currency's rounding, separators and
// symbol placement, e.g. "Br 1,234.50" or "1.234,50 €".
func FormatPrice(amount float64, c domain.Currency) string {
	places := int32(c.DecimalPlaces)
	if places < 0 {
		places = 0
	}
	d := decimal.NewFromFloat(amount).Round(places)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(places)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + len(c.Symbol) + 2)
	if neg {
		b.WriteByte('-')
	}
	if c.SymbolPosition != domain.SymbolAfter && c.Symbol != "" {
		b.WriteString(c.Symbol)
		b.WriteByte(' ')
	}
	rem := len(intPart) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(intPart[:rem])
	for i := rem; i < len(intPart); i += 3 {
		b.WriteString(c.ThousandSeparator)
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		sep := c.DecimalSeparator
		if sep == "" {
			sep = "."
		}
		b.WriteString(sep)
		b.WriteString(frac)
	}
	if c.SymbolPosition == domain.SymbolAfter && c.Symbol != "" {
		b.WriteByte(' ')
		b.WriteString(c.Symbol)
	}
	return b.String()
}
