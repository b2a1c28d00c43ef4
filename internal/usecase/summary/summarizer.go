// Package summary aggregates projected assets into portfolio totals in one
// reporting currency.
package summary

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
)

// Totals are summed amounts in the reporting currency
type Totals struct {
	MarketValue          decimal.Decimal
	CostBasis            decimal.Decimal
	UnrealizedPnL        decimal.Decimal
	RealizedPnL          decimal.Decimal
	UnrealizedPnLPercent decimal.Decimal
}

// ClassTotals are the totals of one asset class
type ClassTotals struct {
	AssetClass domain.AssetClass
	Assets     int
	Totals
}

// Summary is the portfolio-level view of a projection
type Summary struct {
	Currency string
	Totals
	// NetWorth is the market value of holdings minus the market value of liabilities
	NetWorth decimal.Decimal
	ByClass  []ClassTotals
}

// Summarizer sums asset figures through a CurrencyConverter
type Summarizer struct {
	Converter CurrencyConverter
}

// NewSummarizer creates a new Summarizer instance
func NewSummarizer(converter CurrencyConverter) *Summarizer {
	return &Summarizer{
		Converter: converter,
	}
}

// Summarize converts and sums the figures of every asset.
// Logic:
//   - Each asset's market value, cost basis, unrealized and realized P&L are
//     converted from its currency into reportingCurrency
//   - Totals are summed overall and per asset class (classes without assets are omitted)
//   - Percentages are UnrealizedPnL / CostBasis * 100, 0 when there is no basis
func (s *Summarizer) Summarize(ctx context.Context, assets []domain.Asset, reportingCurrency string) (*Summary, error) {
	if err := domain.ValidateCurrency(reportingCurrency); err != nil {
		return nil, fmt.Errorf("reporting currency %q: %w", reportingCurrency, err)
	}

	result := &Summary{
		Currency: reportingCurrency,
		Totals:   zeroTotals(),
		NetWorth: decimal.Zero,
	}

	byClass := make(map[domain.AssetClass]*ClassTotals)

	for i := range assets {
		asset := &assets[i]

		converted, err := s.convert(ctx, asset, reportingCurrency)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", asset.Symbol, err)
		}

		result.Totals = result.Totals.add(converted)
		if asset.AssetClass == domain.AssetClassLiability {
			result.NetWorth = result.NetWorth.Sub(converted.MarketValue)
		} else {
			result.NetWorth = result.NetWorth.Add(converted.MarketValue)
		}

		class, ok := byClass[asset.AssetClass]
		if !ok {
			class = &ClassTotals{AssetClass: asset.AssetClass, Totals: zeroTotals()}
			byClass[asset.AssetClass] = class
		}
		class.Assets++
		class.Totals = class.Totals.add(converted)
	}

	result.Totals.UnrealizedPnLPercent = percent(result.UnrealizedPnL, result.CostBasis)

	for _, c := range domain.AssetClasses {
		class, ok := byClass[c]
		if !ok {
			continue
		}
		class.UnrealizedPnLPercent = percent(class.UnrealizedPnL, class.CostBasis)
		result.ByClass = append(result.ByClass, *class)
	}

	return result, nil
}

// convert expresses one asset's figures in the reporting currency
func (s *Summarizer) convert(ctx context.Context, asset *domain.Asset, to string) (Totals, error) {
	amounts := []decimal.Decimal{asset.CurrentValue, asset.TotalCostBasis, asset.UnrealizedPnL, asset.RealizedPnL}
	for i, amount := range amounts {
		converted, err := s.Converter.Convert(ctx, amount, asset.Currency, to)
		if err != nil {
			return Totals{}, err
		}
		amounts[i] = converted
	}

	return Totals{
		MarketValue:   amounts[0],
		CostBasis:     amounts[1],
		UnrealizedPnL: amounts[2],
		RealizedPnL:   amounts[3],
	}, nil
}

func (t Totals) add(o Totals) Totals {
	return Totals{
		MarketValue:          t.MarketValue.Add(o.MarketValue),
		CostBasis:            t.CostBasis.Add(o.CostBasis),
		UnrealizedPnL:        t.UnrealizedPnL.Add(o.UnrealizedPnL),
		RealizedPnL:          t.RealizedPnL.Add(o.RealizedPnL),
		UnrealizedPnLPercent: t.UnrealizedPnLPercent,
	}
}

func zeroTotals() Totals {
	return Totals{
		MarketValue:          decimal.Zero,
		CostBasis:            decimal.Zero,
		UnrealizedPnL:        decimal.Zero,
		RealizedPnL:          decimal.Zero,
		UnrealizedPnLPercent: decimal.Zero,
	}
}

func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100))
}
