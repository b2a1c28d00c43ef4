package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
)

// ErrUnknownRate is returned when a currency has no configured rate
var ErrUnknownRate = errors.New("no exchange rate for currency")

// CurrencyConverter converts an amount from one currency into another
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// StaticRates holds the value of one unit of each currency in a common base.
// With {"EUR": 1, "USD": 0.92}, 100 USD converts to 92 EUR.
type StaticRates map[string]decimal.Decimal

// ParseRates reads rates written as "EUR:1,USD:0.92"
func ParseRates(s string) (StaticRates, error) {
	rates := StaticRates{}
	if strings.TrimSpace(s) == "" {
		return rates, nil
	}

	for _, pair := range strings.Split(s, ",") {
		code, value, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("invalid rate %q: expected CODE:VALUE", pair)
		}

		code = strings.ToUpper(strings.TrimSpace(code))
		if err := domain.ValidateCurrency(code); err != nil {
			return nil, fmt.Errorf("rate %q: %w", pair, err)
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("rate %q: %w", pair, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate %q: must be positive", pair)
		}

		rates[code] = rate
	}

	return rates, nil
}

// Convert implements CurrencyConverter
func (r StaticRates) Convert(_ context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	fromRate, ok := r[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownRate, from)
	}
	toRate, ok := r[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownRate, to)
	}

	return amount.Mul(fromRate).Div(toRate), nil
}

// Format renders amount in the currency's display form, e.g. "$1,234.50"
func Format(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
