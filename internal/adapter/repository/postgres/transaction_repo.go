package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create appends a transaction to the log
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO ledger_transactions
			(id, asset_id, kind, date, sequence, quantity_change, price_per_unit, fee, total, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.AssetID,
		string(tx.Kind),
		tx.Date,
		tx.Sequence,
		tx.QuantityChange.String(),
		tx.PricePerUnit.String(),
		tx.Fee.String(),
		tx.Total.String(),
		tx.Note,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, tx.ID)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// Update replaces a transaction, keeping its ID and sequence
func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE ledger_transactions
		SET asset_id = $2, kind = $3, date = $4, quantity_change = $5,
			price_per_unit = $6, fee = $7, total = $8, note = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.AssetID,
		string(tx.Kind),
		tx.Date,
		tx.QuantityChange.String(),
		tx.PricePerUnit.String(),
		tx.Fee.String(),
		tx.Total.String(),
		tx.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return expectOneRow(result.RowsAffected, tx.ID)
}

// Delete removes a transaction from the log
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ledger_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	return expectOneRow(result.RowsAffected, id)
}

// List retrieves the log in canonical order (date, sequence)
// If assetID is nil, returns transactions for all assets
func (r *transactionRepository) List(ctx context.Context, assetID *uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT id, asset_id, kind, date, sequence, quantity_change, price_per_unit, fee, total, note
		FROM ledger_transactions
	`

	args := []interface{}{}
	if assetID != nil {
		query += " WHERE asset_id = $1"
		args = append(args, *assetID)
	}

	query += " ORDER BY date ASC, sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var qtyStr, priceStr, feeStr, totalStr string

		err := rows.Scan(
			&tx.ID,
			&tx.AssetID,
			&tx.Kind,
			&tx.Date,
			&tx.Sequence,
			&qtyStr,
			&priceStr,
			&feeStr,
			&totalStr,
			&tx.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		amounts, err := parseDecimals(qtyStr, priceStr, feeStr, totalStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction %s: %w", tx.ID, err)
		}
		tx.QuantityChange, tx.PricePerUnit, tx.Fee, tx.Total = amounts[0], amounts[1], amounts[2], amounts[3]
		tx.Date = tx.Date.UTC()

		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// expectOneRow turns a statement that touched no row into ErrUnknownTransaction
func expectOneRow(rowsAffected func() (int64, error), id uuid.UUID) error {
	affected, err := rowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTransaction, id)
	}
	return nil
}

func parseDecimals(values ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
