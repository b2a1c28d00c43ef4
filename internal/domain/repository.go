package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetMetadataRepository defines the interface for asset metadata persistence operations
type AssetMetadataRepository interface {
	// GetByID retrieves asset metadata by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*AssetMetadata, error)

	// Create creates a new asset metadata entry
	Create(ctx context.Context, meta *AssetMetadata) error

	// List retrieves all asset metadata, ordered by symbol
	List(ctx context.Context) ([]*AssetMetadata, error)

	// UpdatePrice records a new market price for an asset
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error

	// PriceHistory returns up to limit recorded prices, newest first
	PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]PricePoint, error)
}

// TransactionRepository defines the interface for transaction log persistence operations
type TransactionRepository interface {
	// Create appends a transaction to the log
	Create(ctx context.Context, tx *Transaction) error

	// Update replaces a transaction, keeping its ID and sequence
	Update(ctx context.Context, tx *Transaction) error

	// Delete removes a transaction from the log
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves the whole log in canonical order (date, sequence)
	// If assetID is nil, returns transactions for all assets
	List(ctx context.Context, assetID *uuid.UUID) ([]*Transaction, error)
}

// ProjectionCache stores the latest projected assets for cold readers
type ProjectionCache interface {
	// Get returns the cached snapshot; ok is false on a miss
	Get(ctx context.Context) (assets []Asset, ok bool, err error)

	// Set replaces the cached snapshot
	Set(ctx context.Context, assets []Asset) error

	// Invalidate drops the cached snapshot
	Invalidate(ctx context.Context) error
}
