package domain

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetClass represents the kind of holding an asset is
type AssetClass string

const (
	AssetClassStock      AssetClass = "STOCK"
	AssetClassCrypto     AssetClass = "CRYPTO"
	AssetClassFund       AssetClass = "FUND"
	AssetClassCash       AssetClass = "CASH"
	AssetClassRealEstate AssetClass = "REAL_ESTATE"
	AssetClassLiability  AssetClass = "LIABILITY"
	AssetClassOther      AssetClass = "OTHER"
)

// AssetClasses lists every valid class in display order
var AssetClasses = []AssetClass{
	AssetClassStock,
	AssetClassCrypto,
	AssetClassFund,
	AssetClassCash,
	AssetClassRealEstate,
	AssetClassLiability,
	AssetClassOther,
}

// IsValid reports whether c is one of the known asset classes
func (c AssetClass) IsValid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

// AssetMetadata holds the identity and market facts of an asset.
// It never carries position facts; those are projected from the transaction log.
type AssetMetadata struct {
	ID              uuid.UUID
	Symbol          string
	Name            string
	AssetClass      AssetClass
	Currency        string          // ISO-4217 code
	CurrentPrice    decimal.Decimal // Market price per unit, in Currency
	LastPriceUpdate *time.Time
}

// Validate ensures the metadata adheres to domain rules
func (m *AssetMetadata) Validate() error {
	if strings.TrimSpace(m.Symbol) == "" {
		return ErrEmptySymbol
	}

	if !m.AssetClass.IsValid() {
		return ErrInvalidAssetClass
	}

	if err := ValidateCurrency(m.Currency); err != nil {
		return err
	}

	if m.CurrentPrice.IsNegative() {
		return ErrNegativePrice
	}

	return nil
}

// ValidateCurrency checks that code is a known ISO-4217 currency
func ValidateCurrency(code string) error {
	if code == "" || money.GetCurrency(code) == nil {
		return ErrInvalidCurrency
	}
	return nil
}

// PricePoint is one recorded market price of an asset
type PricePoint struct {
	Price      decimal.Decimal
	RecordedAt time.Time
}

// Asset is the projected position of one AssetMetadata entry.
// It is a materialized view: never the source of truth, recomputed after every log mutation.
type Asset struct {
	AssetMetadata

	Quantity       decimal.Decimal
	AvgCost        decimal.Decimal // Weighted average cost per held unit
	TotalCostBasis decimal.Decimal // Cost attributed to held units, reconciled step by step
	RealizedPnL    decimal.Decimal

	CurrentValue         decimal.Decimal
	UnrealizedPnL        decimal.Decimal
	UnrealizedPnLPercent decimal.Decimal
}

// NewAsset returns an empty position for the given metadata
func NewAsset(meta AssetMetadata) Asset {
	return Asset{
		AssetMetadata:  meta,
		Quantity:       decimal.Zero,
		AvgCost:        decimal.Zero,
		TotalCostBasis: decimal.Zero,
		RealizedPnL:    decimal.Zero,
	}
}

// Derive recomputes the market-dependent fields from CurrentPrice.
// Logic:
//   - CurrentValue = Quantity * CurrentPrice
//   - UnrealizedPnL = CurrentValue - TotalCostBasis
//   - UnrealizedPnLPercent = UnrealizedPnL / TotalCostBasis * 100, 0 when there is no basis
func (a *Asset) Derive() {
	a.CurrentValue = a.Quantity.Mul(a.CurrentPrice)
	a.UnrealizedPnL = a.CurrentValue.Sub(a.TotalCostBasis)
	if a.TotalCostBasis.IsZero() {
		a.UnrealizedPnLPercent = decimal.Zero
		return
	}
	a.UnrealizedPnLPercent = a.UnrealizedPnL.Div(a.TotalCostBasis).Mul(decimal.NewFromInt(100))
}

// SamePosition reports whether two assets carry equal position fields
func (a Asset) SamePosition(b Asset) bool {
	return a.ID == b.ID &&
		a.Quantity.Equal(b.Quantity) &&
		a.AvgCost.Equal(b.AvgCost) &&
		a.TotalCostBasis.Equal(b.TotalCostBasis) &&
		a.RealizedPnL.Equal(b.RealizedPnL)
}
