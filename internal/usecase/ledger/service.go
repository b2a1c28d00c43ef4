package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/mutation"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/projection"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/summary"
	"github.com/sirupsen/logrus"
)

// CreateAssetInput represents the input for registering an asset
type CreateAssetInput struct {
	Symbol       string
	Name         string
	AssetClass   domain.AssetClass
	Currency     string
	CurrentPrice decimal.Decimal
}

// TransactionInput represents the fields of a transaction supplied by a caller
type TransactionInput struct {
	AssetID        uuid.UUID
	Kind           domain.TransactionKind
	Date           time.Time
	QuantityChange decimal.Decimal
	PricePerUnit   decimal.Decimal
	Fee            decimal.Decimal
	Total          *decimal.Decimal // Computed from quantity, price and fee when nil
	Note           string
}

// LedgerService is the single writer over the asset metadata and the transaction log.
// Mutations are serialized; reads share a lock and see a consistent projection.
type LedgerService struct {
	AssetRepo         domain.AssetMetadataRepository
	TransactionRepo   domain.TransactionRepository
	Cache             domain.ProjectionCache // Optional
	Summarizer        *summary.Summarizer
	ReportingCurrency string

	logger logrus.FieldLogger
	now    func() time.Time

	mu          sync.RWMutex
	coordinator *mutation.Coordinator
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	assetRepo domain.AssetMetadataRepository,
	transactionRepo domain.TransactionRepository,
	cache domain.ProjectionCache,
	summarizer *summary.Summarizer,
	reportingCurrency string,
	logger logrus.FieldLogger,
) *LedgerService {
	return &LedgerService{
		AssetRepo:         assetRepo,
		TransactionRepo:   transactionRepo,
		Cache:             cache,
		Summarizer:        summarizer,
		ReportingCurrency: reportingCurrency,
		logger:            logger.WithField("component", "ledger"),
		now:               time.Now,
	}
}

// Load reads metadata and the log from storage and projects them.
// It replaces any projection already held.
func (s *LedgerService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// ListAssets returns every projected asset in metadata order.
// Before the first load it serves the cached snapshot when there is one. The
// snapshot is not checked for freshness: this service is the only writer of the
// store and the cache, so the last snapshot it wrote matches storage. A snapshot
// written by another process may be stale until Load or the first mutation.
func (s *LedgerService) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	if assets, ok := s.cachedSnapshot(ctx); ok {
		return assets, nil
	}

	var assets []domain.Asset
	err := s.read(ctx, func(c *mutation.Coordinator) error {
		assets = c.Assets()
		return nil
	})
	return assets, err
}

// GetAsset returns one projected asset
func (s *LedgerService) GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	var found *domain.Asset
	err := s.read(ctx, func(c *mutation.Coordinator) error {
		for _, asset := range c.Assets() {
			if asset.ID == id {
				asset := asset
				found = &asset
				return nil
			}
		}
		return fmt.Errorf("%w: %s", domain.ErrAssetNotFound, id)
	})
	return found, err
}

// Issues returns the problems reported by the current projection
func (s *LedgerService) Issues(ctx context.Context) ([]domain.Issue, error) {
	var issues []domain.Issue
	err := s.read(ctx, func(c *mutation.Coordinator) error {
		issues = c.Issues()
		return nil
	})
	return issues, err
}

// ListTransactions returns the log in canonical fold order.
// If assetID is nil, returns transactions for all assets.
func (s *LedgerService) ListTransactions(ctx context.Context, assetID *uuid.UUID) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := s.read(ctx, func(c *mutation.Coordinator) error {
		out = make([]domain.Transaction, 0, len(c.Transactions()))
		for _, tx := range projection.Sort(c.Transactions()) {
			if assetID == nil || tx.AssetID == *assetID {
				out = append(out, tx)
			}
		}
		return nil
	})
	return out, err
}

// CreateAsset registers new asset metadata.
// Transactions already logged against the new ID stop being orphans.
func (s *LedgerService) CreateAsset(ctx context.Context, input CreateAssetInput) (*domain.Asset, error) {
	meta := domain.AssetMetadata{
		ID:           uuid.New(),
		Symbol:       strings.ToUpper(strings.TrimSpace(input.Symbol)),
		Name:         strings.TrimSpace(input.Name),
		AssetClass:   input.AssetClass,
		Currency:     strings.ToUpper(strings.TrimSpace(input.Currency)),
		CurrentPrice: input.CurrentPrice,
	}
	if meta.Name == "" {
		meta.Name = meta.Symbol
	}
	if !meta.CurrentPrice.IsZero() {
		at := s.now().UTC()
		meta.LastPriceUpdate = &at
	}

	if err := meta.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Asset
	err := s.write(ctx, func(c *mutation.Coordinator) (*mutation.Coordinator, error) {
		metadata := c.Metadata()
		for _, existing := range metadata {
			if existing.Symbol == meta.Symbol {
				return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, meta.Symbol)
			}
		}

		if err := s.AssetRepo.Create(ctx, &meta); err != nil {
			return nil, fmt.Errorf("failed to create asset: %w", err)
		}

		metadata = append(metadata, meta)
		sort.SliceStable(metadata, func(i, j int) bool {
			return metadata[i].Symbol < metadata[j].Symbol
		})

		next := c.Clone()
		for _, asset := range next.SetMetadata(metadata) {
			if asset.ID == meta.ID {
				asset := asset
				created = &asset
			}
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"asset_id": meta.ID,
		"symbol":   meta.Symbol,
	}).Info("asset created")

	return created, nil
}

// UpdatePrice records a new market price for an asset.
// Only the market-dependent fields change; the log is not replayed.
func (s *LedgerService) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*domain.Asset, error) {
	if price.IsNegative() {
		return nil, domain.ErrNegativePrice
	}

	var updated domain.Asset
	err := s.write(ctx, func(c *mutation.Coordinator) (*mutation.Coordinator, error) {
		var meta *domain.AssetMetadata
		for _, m := range c.Metadata() {
			if m.ID == id {
				m := m
				meta = &m
				break
			}
		}
		if meta == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, id)
		}

		at := s.now().UTC()
		if err := s.AssetRepo.UpdatePrice(ctx, id, price, at); err != nil {
			return nil, fmt.Errorf("failed to update price: %w", err)
		}
		meta.CurrentPrice = price
		meta.LastPriceUpdate = &at

		next := c.Clone()
		asset, err := next.Reprice(*meta)
		if err != nil {
			return nil, err
		}
		updated = asset
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// DefaultHistoryLimit is the number of price points returned when no limit is given
const DefaultHistoryLimit = 30

// PriceHistory returns the recorded prices of an asset, newest first
func (s *LedgerService) PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]domain.PricePoint, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if _, err := s.GetAsset(ctx, id); err != nil {
		return nil, err
	}

	points, err := s.AssetRepo.PriceHistory(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	return points, nil
}

// InsertTransaction validates and appends a transaction, then persists it.
// Returns the stored transaction (with its sequence) and the updated assets.
func (s *LedgerService) InsertTransaction(ctx context.Context, input TransactionInput) (*domain.Transaction, []domain.Asset, error) {
	tx := input.build(uuid.New())

	var assets []domain.Asset
	err := s.write(ctx, func(c *mutation.Coordinator) (*mutation.Coordinator, error) {
		next := c.Clone()
		updated, err := next.Insert(&tx)
		if err != nil {
			return nil, err
		}

		if err := s.TransactionRepo.Create(ctx, &tx); err != nil {
			return nil, fmt.Errorf("failed to store transaction: %w", err)
		}

		assets = updated
		return next, nil
	})
	if err != nil {
		s.logRejection("insert", &tx, err)
		return nil, nil, err
	}

	return &tx, assets, nil
}

// EditTransaction replaces the fields of a logged transaction, keeping its ID and sequence
func (s *LedgerService) EditTransaction(ctx context.Context, id uuid.UUID, input TransactionInput) (*domain.Transaction, []domain.Asset, error) {
	tx := input.build(id)

	var assets []domain.Asset
	err := s.write(ctx, func(c *mutation.Coordinator) (*mutation.Coordinator, error) {
		next := c.Clone()
		updated, err := next.Edit(id, &tx)
		if err != nil {
			return nil, err
		}

		if err := s.TransactionRepo.Update(ctx, &tx); err != nil {
			return nil, fmt.Errorf("failed to update transaction: %w", err)
		}

		assets = updated
		return next, nil
	})
	if err != nil {
		s.logRejection("edit", &tx, err)
		return nil, nil, err
	}

	return &tx, assets, nil
}

// DeleteTransaction removes a transaction from the log
func (s *LedgerService) DeleteTransaction(ctx context.Context, id uuid.UUID) ([]domain.Asset, error) {
	var assets []domain.Asset
	err := s.write(ctx, func(c *mutation.Coordinator) (*mutation.Coordinator, error) {
		next := c.Clone()
		updated, err := next.Delete(id)
		if err != nil {
			return nil, err
		}

		if err := s.TransactionRepo.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to delete transaction: %w", err)
		}

		assets = updated
		return next, nil
	})
	if err != nil {
		s.logRejection("delete", &domain.Transaction{ID: id}, err)
		return nil, err
	}

	return assets, nil
}

// Summary aggregates the current projection in the reporting currency
func (s *LedgerService) Summary(ctx context.Context) (*summary.Summary, error) {
	assets, err := s.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	return s.Summarizer.Summarize(ctx, assets, s.ReportingCurrency)
}

// read runs fn against the loaded projection under the shared lock
func (s *LedgerService) read(ctx context.Context, fn func(c *mutation.Coordinator) error) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.coordinator)
}

// write runs fn under the exclusive lock. fn works on a clone and returns it;
// the clone replaces the held projection only when fn succeeds.
func (s *LedgerService) write(ctx context.Context, fn func(c *mutation.Coordinator) (*mutation.Coordinator, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coordinator == nil {
		if err := s.loadLocked(ctx); err != nil {
			return err
		}
	}

	next, err := fn(s.coordinator)
	if err != nil {
		return err
	}

	s.coordinator = next
	s.storeSnapshot(ctx, next.Assets())
	return nil
}

func (s *LedgerService) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.coordinator != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coordinator != nil {
		return nil
	}
	return s.loadLocked(ctx)
}

func (s *LedgerService) loadLocked(ctx context.Context) error {
	metadata, transactions, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.coordinator = mutation.NewCoordinator(metadata, transactions, s.logger)
	s.storeSnapshot(ctx, s.coordinator.Assets())

	s.logger.WithFields(logrus.Fields{
		"assets":       len(metadata),
		"transactions": len(transactions),
		"issues":       len(s.coordinator.Issues()),
	}).Info("ledger loaded")

	return nil
}

// fetch reads the full metadata set and log from storage
func (s *LedgerService) fetch(ctx context.Context) ([]domain.AssetMetadata, []domain.Transaction, error) {
	metas, err := s.AssetRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list assets: %w", err)
	}

	txs, err := s.TransactionRepo.List(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	metadata := make([]domain.AssetMetadata, 0, len(metas))
	for _, m := range metas {
		metadata = append(metadata, *m)
	}

	transactions := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		transactions = append(transactions, *tx)
	}

	return metadata, transactions, nil
}

// cachedSnapshot serves cold readers before the first load, without a freshness check
func (s *LedgerService) cachedSnapshot(ctx context.Context) ([]domain.Asset, bool) {
	if s.Cache == nil {
		return nil, false
	}

	s.mu.RLock()
	loaded := s.coordinator != nil
	s.mu.RUnlock()
	if loaded {
		return nil, false
	}

	assets, ok, err := s.Cache.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read projection snapshot")
		return nil, false
	}
	return assets, ok
}

func (s *LedgerService) storeSnapshot(ctx context.Context, assets []domain.Asset) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, assets); err != nil {
		s.logger.WithError(err).Warn("failed to store projection snapshot")
	}
}

func (s *LedgerService) logRejection(op string, tx *domain.Transaction, err error) {
	entry := s.logger.WithFields(logrus.Fields{
		"op":             op,
		"transaction_id": tx.ID,
	})

	var le *domain.LedgerError
	if errors.As(err, &le) {
		entry.WithField("kind", le.Kind).Info("mutation rejected")
		return
	}
	entry.WithError(err).Warn("mutation failed")
}

// build turns the input into a transaction with the given ID
func (in TransactionInput) build(id uuid.UUID) domain.Transaction {
	tx := domain.Transaction{
		ID:             id,
		AssetID:        in.AssetID,
		Kind:           in.Kind,
		Date:           in.Date.UTC(),
		QuantityChange: in.QuantityChange,
		PricePerUnit:   in.PricePerUnit,
		Fee:            in.Fee,
		Note:           strings.TrimSpace(in.Note),
	}

	if in.Total != nil {
		tx.Total = *in.Total
	} else {
		tx.Total = tx.ExpectedTotal()
	}

	return tx
}
