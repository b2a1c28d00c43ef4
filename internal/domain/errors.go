package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind classifies a ledger failure so callers can react without parsing messages
type ErrorKind string

const (
	ErrorKindOrphanTransaction     ErrorKind = "ORPHAN_TRANSACTION"
	ErrorKindInconsistentTotal     ErrorKind = "INCONSISTENT_TOTAL"
	ErrorKindOverdraftPosition     ErrorKind = "OVERDRAFT_POSITION"
	ErrorKindNonInvertibleReversal ErrorKind = "NON_INVERTIBLE_REVERSAL"
	ErrorKindInvalidTransaction    ErrorKind = "INVALID_TRANSACTION"
	ErrorKindUnknownTransaction    ErrorKind = "UNKNOWN_TRANSACTION"
)

// Sentinel errors, one per ErrorKind. A LedgerError matches its sentinel with errors.Is.
var (
	ErrOrphanTransaction     = errors.New("transaction references an unknown asset")
	ErrInconsistentTotal     = errors.New("transaction total does not match quantity, price and fee")
	ErrOverdraftPosition     = errors.New("transaction removes more than the held quantity")
	ErrNonInvertibleReversal = errors.New("transaction is not the latest step of its asset")
	ErrInvalidTransaction    = errors.New("invalid transaction")
	ErrUnknownTransaction    = errors.New("transaction not found")
)

// Asset metadata errors
var (
	ErrAssetNotFound     = errors.New("asset not found")
	ErrDuplicateAsset    = errors.New("asset already exists")
	ErrInvalidAssetClass = errors.New("invalid asset class")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrEmptySymbol       = errors.New("asset symbol cannot be empty")
	ErrNegativePrice     = errors.New("current price cannot be negative")
)

// Log errors
var (
	ErrDuplicateTransaction = errors.New("transaction already exists")
)

var sentinels = map[ErrorKind]error{
	ErrorKindOrphanTransaction:     ErrOrphanTransaction,
	ErrorKindInconsistentTotal:     ErrInconsistentTotal,
	ErrorKindOverdraftPosition:     ErrOverdraftPosition,
	ErrorKindNonInvertibleReversal: ErrNonInvertibleReversal,
	ErrorKindInvalidTransaction:    ErrInvalidTransaction,
	ErrorKindUnknownTransaction:    ErrUnknownTransaction,
}

// LedgerError is a failure attributable to one transaction
type LedgerError struct {
	Kind            ErrorKind
	TransactionID   uuid.UUID
	TransactionKind TransactionKind
	Message         string
}

// NewLedgerError builds a LedgerError for the given transaction
func NewLedgerError(kind ErrorKind, tx *Transaction, format string, args ...interface{}) *LedgerError {
	e := &LedgerError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
	if tx != nil {
		e.TransactionID = tx.ID
		e.TransactionKind = tx.Kind
	}
	return e
}

func (e *LedgerError) Error() string {
	if e.TransactionKind == "" {
		return fmt.Sprintf("%s: transaction %s: %s", e.Kind, e.TransactionID, e.Message)
	}
	return fmt.Sprintf("%s: %s transaction %s: %s", e.Kind, e.TransactionKind, e.TransactionID, e.Message)
}

// Is lets errors.Is(err, ErrInconsistentTotal) and friends match a LedgerError
func (e *LedgerError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// Issue is a non-fatal problem found while projecting the log
type Issue struct {
	Kind            ErrorKind
	TransactionID   uuid.UUID
	TransactionKind TransactionKind
	AssetID         uuid.UUID
	Message         string
}

// Err converts the issue into a LedgerError
func (i Issue) Err() *LedgerError {
	return &LedgerError{
		Kind:            i.Kind,
		TransactionID:   i.TransactionID,
		TransactionKind: i.TransactionKind,
		Message:         i.Message,
	}
}

// KindOf returns the ErrorKind carried by err, or "" when err is not a LedgerError
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
