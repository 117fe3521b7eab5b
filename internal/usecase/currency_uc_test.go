package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/gebeya/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func (w *world) seedCurrencies(t *testing.T) domain.Actor {
	t.Helper()
	ctx := context.Background()
	admin := w.user(domain.RoleAdmin)
	_, err := w.currencies.Create(ctx, admin, CurrencyInput{Code: "etb", Name: "Ethiopian Birr", Symbol: "Br", SymbolPosition: domain.SymbolAfter})
	require.NoError(t, err)
	_, err = w.currencies.Create(ctx, admin, CurrencyInput{Code: "USD", Name: "US Dollar", Symbol: "$", ExchangeRate: 0.0175})
	require.NoError(t, err)
	return admin
}

func TestCreateFirstCurrencyBecomesBase(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()
	admin := w.user(domain.RoleAdmin)

	etb, err := w.currencies.Create(ctx, admin, CurrencyInput{Code: "etb", ExchangeRate: 55})
	require.NoError(t, err)
	assert.Equal(t, domain.CurrencyETB, etb.Code)
	assert.True(t, etb.IsBaseCurrency)
	assert.Equal(t, 1.0, etb.ExchangeRate)
	assert.Equal(t, "ETB", etb.Symbol)
	assert.Equal(t, 2, etb.DecimalPlaces)

	_, err = w.currencies.Create(ctx, admin, CurrencyInput{Code: "ETB"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = w.currencies.Create(ctx, admin, CurrencyInput{Code: "EUR"})
	assert.ErrorIs(t, err, domain.ErrValidation, "non-base currency needs a rate")

	_, err = w.currencies.Create(ctx, admin, CurrencyInput{Code: "E1R", ExchangeRate: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = w.currencies.Create(ctx, w.user(domain.RoleSeller), CurrencyInput{Code: "GBP", ExchangeRate: 0.01})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConvertRoundTrip(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()
	w.seedCurrencies(t)

	out, err := w.currencies.Convert(ctx, 1000, "ETB", "usd")
	require.NoError(t, err)
	assert.InDelta(t, 17.5, out.Converted, 1e-9)
	assert.InDelta(t, 0.0175, out.Rate, 1e-12)
	assert.Equal(t, "$ 17.50", out.Formatted)

	back, err := w.currencies.Convert(ctx, out.Converted, "USD", "ETB")
	require.NoError(t, err)
	assert.InDelta(t, 1000, back.Converted, 1e-6)
	assert.Equal(t, "1,000.00 Br", back.Formatted)
}

func TestConvertSameCurrency(t *testing.T) {
	w := testWorld(t)
	w.seedCurrencies(t)

	out, err := w.currencies.Convert(context.Background(), 12.345, "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, 12.345, out.Converted)
	assert.Equal(t, 1.0, out.Rate)

	_, err = w.currencies.Convert(context.Background(), 1, "USD", "XYZ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConvertAmountRejectsNonPositiveRates(t *testing.T) {
	_, err := ConvertAmount(10, 0, 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = ConvertAmount(10, 1, -2)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSetBaseCurrencyKeepsSingleBase(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()
	admin := w.seedCurrencies(t)

	usd, err := w.currencies.SetBaseCurrency(ctx, admin, "usd")
	require.NoError(t, err)
	assert.True(t, usd.IsBaseCurrency)
	assert.Equal(t, 1.0, usd.ExchangeRate)

	all, err := w.currencies.List(ctx)
	require.NoError(t, err)
	bases := 0
	for _, c := range all {
		if c.IsBaseCurrency {
			bases++
		}
	}
	assert.Equal(t, 1, bases)

	_, err = w.currencies.SetBaseCurrency(ctx, admin, "XYZ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteBaseCurrencyFails(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()
	admin := w.seedCurrencies(t)

	err := w.currencies.DeleteCurrency(ctx, admin, "ETB")
	assert.ErrorIs(t, err, domain.ErrBaseCurrencyDeletion)

	require.NoError(t, w.currencies.DeleteCurrency(ctx, admin, "usd"))
	_, err = w.currencies.Get(ctx, "USD")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateRate(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()
	admin := w.seedCurrencies(t)

	_, err := w.currencies.UpdateRate(ctx, admin, "ETB", 2)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = w.currencies.UpdateRate(ctx, admin, "USD", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	usd, err := w.currencies.UpdateRate(ctx, admin, "USD", 0.018)
	require.NoError(t, err)
	assert.Equal(t, 0.018, usd.ExchangeRate)
}

func TestUpdateCurrencyPresentation(t *testing.T) {
	w := testWorld(t)
	ctx := context.Background()
	admin := w.seedCurrencies(t)

	etb, err := w.currencies.Update(ctx, admin, "ETB", CurrencyInput{ExchangeRate: 3, DecimalPlaces: ptr(0), ThousandSeparator: ptr(" ")})
	require.NoError(t, err)
	assert.Equal(t, 1.0, etb.ExchangeRate)
	assert.Equal(t, "1 235 Br", FormatPrice(1234.5, *etb))

	_, err = w.currencies.Update(ctx, admin, "USD", CurrencyInput{DecimalPlaces: ptr(9)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = w.currencies.Update(ctx, admin, "USD", CurrencyInput{SymbolPosition: "middle"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFormatPrice(t *testing.T) {
	etb := domain.Currency{Code: "ETB", Symbol: "Br", DecimalPlaces: 2, SymbolPosition: domain.SymbolAfter, ThousandSeparator: ",", DecimalSeparator: "."}
	eur := domain.Currency{Code: "EUR", Symbol: "€", DecimalPlaces: 2, SymbolPosition: domain.SymbolBefore, ThousandSeparator: ".", DecimalSeparator: ","}
	jpy := domain.Currency{Code: "JPY", Symbol: "¥", DecimalPlaces: 0, SymbolPosition: domain.SymbolBefore, ThousandSeparator: ","}

	cases := []struct {
		name   string
		amount float64
		cur    domain.Currency
		want   string
	}{
		{"birr", 1234.5, etb, "1,234.50 Br"},
		{"small", 7, etb, "7.00 Br"},
		{"millions", 1234567.891, etb, "1,234,567.89 Br"},
		{"euro", 1234.5, eur, "€ 1.234,50"},
		{"no decimals", 1234.5, jpy, "¥ 1,235"},
		{"negative", -1234.5, etb, "-1,234.50 Br"},
		{"exact thousands", 100000, etb, "100,000.00 Br"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, FormatPrice(c.amount, c.cur))
		})
	}
}
