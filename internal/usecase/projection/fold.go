package projection

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
)

// Epsilon is the remaining quantity at or below which a position counts as closed
var Epsilon = decimal.New(1, -6)

// Position is the running state of one asset during the fold.
// AvgCost is not stored: it is always TotalCostBasis / Quantity, so restoring
// the two stored fields restores the average exactly.
type Position struct {
	Quantity       decimal.Decimal
	TotalCostBasis decimal.Decimal
	RealizedPnL    decimal.Decimal
}

// EmptyPosition is the starting state of every asset
func EmptyPosition() Position {
	return Position{
		Quantity:       decimal.Zero,
		TotalCostBasis: decimal.Zero,
		RealizedPnL:    decimal.Zero,
	}
}

// AvgCost returns the weighted average cost per held unit, 0 for an empty position
func (p Position) AvgCost() decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.TotalCostBasis.Div(p.Quantity)
}

// Effect is the exact change a single fold step applied to a position
type Effect struct {
	TransactionID  uuid.UUID
	Kind           domain.TransactionKind
	QuantityDelta  decimal.Decimal
	CostBasisDelta decimal.Decimal
	RealizedDelta  decimal.Decimal
}

// Apply returns p with the effect added
func (p Position) Apply(e Effect) Position {
	return Position{
		Quantity:       p.Quantity.Add(e.QuantityDelta),
		TotalCostBasis: p.TotalCostBasis.Add(e.CostBasisDelta),
		RealizedPnL:    p.RealizedPnL.Add(e.RealizedDelta),
	}
}

// Revert returns p with the effect removed. Decimal addition and subtraction are
// exact, so Revert(Apply(p, e), e) == p field for field.
func (p Position) Revert(e Effect) Position {
	return Position{
		Quantity:       p.Quantity.Sub(e.QuantityDelta),
		TotalCostBasis: p.TotalCostBasis.Sub(e.CostBasisDelta),
		RealizedPnL:    p.RealizedPnL.Sub(e.RealizedDelta),
	}
}

// Step computes the effect of folding tx into p.
// The returned issue is non-nil when the step had to clamp an overdraft.
//
// Rules per kind:
//   - BUY, DEPOSIT, BORROW and positive BALANCE_ADJUSTMENT: basis += total, quantity += change
//   - SELL, WITHDRAWAL, REPAY: basis -= basis * |change| / quantity, realized += total - removed basis
//   - negative BALANCE_ADJUSTMENT: basis -= basis * |change| / quantity, no realized P&L
//   - DIVIDEND: realized += total
//
// A decrease that leaves at most Epsilon closes the position: the whole basis
// and quantity are removed so no residue survives. An overdrawing outflow only
// realizes the share of its total that the held units account for.
func Step(p Position, tx *domain.Transaction) (Effect, *domain.Issue) {
	effect := Effect{
		TransactionID:  tx.ID,
		Kind:           tx.Kind,
		QuantityDelta:  decimal.Zero,
		CostBasisDelta: decimal.Zero,
		RealizedDelta:  decimal.Zero,
	}

	switch {
	case tx.Kind.IsInflow():
		effect.QuantityDelta = tx.QuantityChange
		effect.CostBasisDelta = tx.Total
		return effect, nil

	case tx.Kind == domain.TransactionKindBalanceAdjustment && tx.QuantityChange.IsPositive():
		effect.QuantityDelta = tx.QuantityChange
		effect.CostBasisDelta = tx.Total
		return effect, nil

	case tx.Kind == domain.TransactionKindDividend:
		effect.RealizedDelta = tx.Total
		return effect, nil
	}

	// Everything left removes units from the position
	removed := tx.QuantityChange.Abs()
	remaining := p.Quantity.Sub(removed)

	var issue *domain.Issue
	if remaining.LessThan(Epsilon.Neg()) {
		issue = &domain.Issue{
			Kind:            domain.ErrorKindOverdraftPosition,
			TransactionID:   tx.ID,
			TransactionKind: tx.Kind,
			AssetID:         tx.AssetID,
			Message:         "removes " + removed.String() + " units but only " + p.Quantity.String() + " are held",
		}
	}

	closes := remaining.LessThanOrEqual(Epsilon)

	if tx.Kind == domain.TransactionKindBalanceAdjustment {
		if closes {
			effect.QuantityDelta = p.Quantity.Neg()
			effect.CostBasisDelta = p.TotalCostBasis.Neg()
			return effect, issue
		}
		effect.QuantityDelta = removed.Neg()
		effect.CostBasisDelta = p.TotalCostBasis.Mul(removed).Div(p.Quantity).Neg()
		return effect, issue
	}

	if closes {
		proceeds := tx.Total
		if issue != nil {
			proceeds = tx.Total.Mul(p.Quantity).Div(removed)
		}
		effect.QuantityDelta = p.Quantity.Neg()
		effect.CostBasisDelta = p.TotalCostBasis.Neg()
		effect.RealizedDelta = proceeds.Sub(p.TotalCostBasis)
		return effect, issue
	}

	costRemoved := p.TotalCostBasis.Mul(removed).Div(p.Quantity)
	effect.QuantityDelta = removed.Neg()
	effect.CostBasisDelta = costRemoved.Neg()
	effect.RealizedDelta = tx.Total.Sub(costRemoved)
	return effect, issue
}
