package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/sirupsen/logrus"
)

// cashNamespace derives the fixed IDs of seeded cash assets
var cashNamespace = uuid.MustParse("5b1c3c8e-2f0e-4d8a-9a51-7d1f0c6e2a10")

// CashAssetID returns the fixed ID of the cash asset of a currency.
// The same currency always maps to the same ID, so deposits logged against
// it survive a reseed.
func CashAssetID(currency string) uuid.UUID {
	return uuid.NewSHA1(cashNamespace, []byte(strings.ToUpper(currency)))
}

// CashSeeder handles seeding of one CASH asset per currency
type CashSeeder struct {
	repo   domain.AssetMetadataRepository
	logger logrus.FieldLogger
}

// NewCashSeeder creates a new CashSeeder instance
func NewCashSeeder(repo domain.AssetMetadataRepository, logger logrus.FieldLogger) *CashSeeder {
	return &CashSeeder{
		repo:   repo,
		logger: logger.WithField("component", "seeder"),
	}
}

// Seed ensures a cash asset exists for every currency.
// A cash asset is priced at 1 so its market value equals its quantity.
// If the currency code is already used as the symbol of another asset, that
// currency is skipped.
func (s *CashSeeder) Seed(ctx context.Context, currencies []string) error {
	for _, code := range currencies {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}

		id := CashAssetID(code)

		// Try to get the asset by ID
		_, err := s.repo.GetByID(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrAssetNotFound) {
			return fmt.Errorf("failed to look up cash asset %s: %w", code, err)
		}

		// Asset doesn't exist, create it
		meta := &domain.AssetMetadata{
			ID:           id,
			Symbol:       code,
			Name:         code + " Cash",
			AssetClass:   domain.AssetClassCash,
			Currency:     code,
			CurrentPrice: decimal.NewFromInt(1),
		}

		// Validate before creating
		if err := meta.Validate(); err != nil {
			return fmt.Errorf("cash asset %s: %w", code, err)
		}

		err = s.repo.Create(ctx, meta)
		if errors.Is(err, domain.ErrDuplicateAsset) {
			s.logger.WithField("symbol", code).Warn("symbol already taken, cash asset not seeded")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create cash asset %s: %w", code, err)
		}

		s.logger.WithFields(logrus.Fields{
			"asset_id": id,
			"symbol":   code,
		}).Info("cash asset seeded")
	}

	return nil
}
