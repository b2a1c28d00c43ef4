package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the type of financial event
type TransactionKind string

const (
	TransactionKindBuy               TransactionKind = "BUY"
	TransactionKindSell              TransactionKind = "SELL"
	TransactionKindDeposit           TransactionKind = "DEPOSIT"
	TransactionKindWithdrawal        TransactionKind = "WITHDRAWAL"
	TransactionKindBorrow            TransactionKind = "BORROW"
	TransactionKindRepay             TransactionKind = "REPAY"
	TransactionKindBalanceAdjustment TransactionKind = "BALANCE_ADJUSTMENT"
	TransactionKindDividend          TransactionKind = "DIVIDEND"
)

// TransactionKinds lists every valid kind
var TransactionKinds = []TransactionKind{
	TransactionKindBuy,
	TransactionKindSell,
	TransactionKindDeposit,
	TransactionKindWithdrawal,
	TransactionKindBorrow,
	TransactionKindRepay,
	TransactionKindBalanceAdjustment,
	TransactionKindDividend,
}

// IsValid reports whether k is a known kind
func (k TransactionKind) IsValid() bool {
	for _, known := range TransactionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsInflow reports kinds that increase a position (cost added to basis)
func (k TransactionKind) IsInflow() bool {
	return k == TransactionKindBuy || k == TransactionKindDeposit || k == TransactionKindBorrow
}

// IsOutflow reports kinds that close part of a position (basis removed at average cost)
func (k TransactionKind) IsOutflow() bool {
	return k == TransactionKindSell || k == TransactionKindWithdrawal || k == TransactionKindRepay
}

// TotalTolerance is the largest accepted gap between a caller-supplied total
// and the amount implied by quantity, price and fee.
var TotalTolerance = decimal.New(1, -2)

// Transaction is an immutable financial event against one asset.
// Edits replace the record; they never patch it in place.
type Transaction struct {
	ID             uuid.UUID
	AssetID        uuid.UUID
	Kind           TransactionKind
	Date           time.Time
	Sequence       int64           // Insertion order, breaks ties between equal dates
	QuantityChange decimal.Decimal // Signed: positive increases the position, negative decreases it
	PricePerUnit   decimal.Decimal // Trade price for BUY/SELL, valuation price for adjustments, ignored for DIVIDEND
	Fee            decimal.Decimal
	Total          decimal.Decimal // Cost for inflows, net proceeds for outflows, cash for dividends
	Note           string
}

// Validate ensures the transaction adheres to domain rules.
// It returns a *LedgerError of kind InvalidTransaction or InconsistentTotal.
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return NewLedgerError(ErrorKindInvalidTransaction, t, "transaction id is required")
	}

	if t.AssetID == uuid.Nil {
		return NewLedgerError(ErrorKindInvalidTransaction, t, "asset id is required")
	}

	if !t.Kind.IsValid() {
		return NewLedgerError(ErrorKindInvalidTransaction, t, "unknown transaction kind %q", t.Kind)
	}

	if t.Date.IsZero() {
		return NewLedgerError(ErrorKindInvalidTransaction, t, "date is required")
	}

	if t.PricePerUnit.IsNegative() {
		return NewLedgerError(ErrorKindInvalidTransaction, t, "price per unit cannot be negative")
	}

	if t.Fee.IsNegative() {
		return NewLedgerError(ErrorKindInvalidTransaction, t, "fee cannot be negative")
	}

	if err := t.validateDirection(); err != nil {
		return err
	}

	return t.validateTotal()
}

// validateDirection checks that the sign of QuantityChange matches the kind
func (t *Transaction) validateDirection() error {
	q := t.QuantityChange

	switch {
	case t.Kind.IsInflow():
		if !q.IsPositive() {
			return NewLedgerError(ErrorKindInvalidTransaction, t, "quantity change must be positive, got %s", q)
		}
	case t.Kind.IsOutflow():
		if !q.IsNegative() {
			return NewLedgerError(ErrorKindInvalidTransaction, t, "quantity change must be negative, got %s", q)
		}
	case t.Kind == TransactionKindBalanceAdjustment:
		if q.IsZero() {
			return NewLedgerError(ErrorKindInvalidTransaction, t, "balance adjustment must change the quantity")
		}
	case t.Kind == TransactionKindDividend:
		if !q.IsZero() {
			return NewLedgerError(ErrorKindInvalidTransaction, t, "dividend cannot change the quantity, got %s", q)
		}
	}

	return nil
}

// validateTotal checks the caller-supplied total against the kind's arithmetic.
// Logic:
//   - Inflows and adjustments: |quantity| * price + fee
//   - Outflows: |quantity| * price - fee (net proceeds)
//   - Dividends: any non-negative cash amount
func (t *Transaction) validateTotal() error {
	if t.Kind == TransactionKindDividend {
		if t.Total.IsNegative() {
			return NewLedgerError(ErrorKindInconsistentTotal, t, "dividend total cannot be negative")
		}
		return nil
	}

	expected := t.ExpectedTotal()
	if t.Total.Sub(expected).Abs().GreaterThan(TotalTolerance) {
		return NewLedgerError(ErrorKindInconsistentTotal, t, "total %s, expected %s", t.Total, expected)
	}

	return nil
}

// ExpectedTotal returns the total implied by quantity, price and fee
func (t *Transaction) ExpectedTotal() decimal.Decimal {
	gross := t.QuantityChange.Abs().Mul(t.PricePerUnit)
	if t.Kind.IsOutflow() {
		return gross.Sub(t.Fee)
	}
	return gross.Add(t.Fee)
}

// dateLayouts are the accepted ISO-8601 forms, most specific first
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 date or date-time. Values without a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
}

// Before reports whether t folds before other in canonical order:
// by Date, then Sequence, then ID.
func (t *Transaction) Before(other *Transaction) bool {
	if !t.Date.Equal(other.Date) {
		return t.Date.Before(other.Date)
	}
	if t.Sequence != other.Sequence {
		return t.Sequence < other.Sequence
	}
	return t.ID.String() < other.ID.String()
}
