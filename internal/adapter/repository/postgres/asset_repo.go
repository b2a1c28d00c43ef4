package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
)

// assetRepository implements domain.AssetMetadataRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset metadata repository
func NewAssetRepository(db *DB) domain.AssetMetadataRepository {
	return &assetRepository{db: db}
}

const selectAssetColumns = `
	SELECT id, symbol, name, asset_class, currency, current_price, last_price_update
	FROM assets
`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// GetByID retrieves asset metadata by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssetMetadata, error) {
	meta, err := scanAsset(r.db.QueryRowContext(ctx, selectAssetColumns+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, id)
		}
		return nil, fmt.Errorf("failed to get asset by ID: %w", err)
	}
	return meta, nil
}

// Create creates a new asset metadata entry
func (r *assetRepository) Create(ctx context.Context, meta *domain.AssetMetadata) error {
	query := `
		INSERT INTO assets (id, symbol, name, asset_class, currency, current_price, last_price_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var lastUpdate interface{}
	if meta.LastPriceUpdate != nil {
		lastUpdate = *meta.LastPriceUpdate
	}

	_, err := r.db.ExecContext(ctx, query,
		meta.ID,
		meta.Symbol,
		meta.Name,
		string(meta.AssetClass),
		meta.Currency,
		meta.CurrentPrice.String(),
		lastUpdate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, meta.Symbol)
		}
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// List retrieves all asset metadata, ordered by symbol
func (r *assetRepository) List(ctx context.Context) ([]*domain.AssetMetadata, error) {
	rows, err := r.db.QueryContext(ctx, selectAssetColumns+" ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*domain.AssetMetadata
	for rows.Next() {
		meta, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// UpdatePrice records a new market price for an asset
// Logic: update the asset's current price and append the point to price_history in one database transaction
func (r *assetRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	result, err := dbTx.ExecContext(ctx,
		`UPDATE assets SET current_price = $2, last_price_update = $3 WHERE id = $1`,
		id, price.String(), at,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAssetNotFound, id)
	}

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO price_history (asset_id, price, recorded_at) VALUES ($1, $2, $3)`,
		id, price.String(), at,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price history entry: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// PriceHistory returns the recorded prices of an asset, newest first
func (r *assetRepository) PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]domain.PricePoint, error) {
	query := `
		SELECT price, recorded_at
		FROM price_history
		WHERE asset_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list price history: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var priceStr string
		var point domain.PricePoint
		if err := rows.Scan(&priceStr, &point.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history entry: %w", err)
		}

		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		point.Price = price
		point.RecordedAt = point.RecordedAt.UTC()
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}

	return points, nil
}

func scanAsset(row rowScanner) (*domain.AssetMetadata, error) {
	var meta domain.AssetMetadata
	var priceStr string
	var lastUpdate sql.NullTime

	err := row.Scan(
		&meta.ID,
		&meta.Symbol,
		&meta.Name,
		&meta.AssetClass,
		&meta.Currency,
		&priceStr,
		&lastUpdate,
	)
	if err != nil {
		return nil, err
	}

	// Parse current_price (NUMERIC)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current_price: %w", err)
	}
	meta.CurrentPrice = price

	if lastUpdate.Valid {
		at := lastUpdate.Time.UTC()
		meta.LastPriceUpdate = &at
	}

	return &meta, nil
}
