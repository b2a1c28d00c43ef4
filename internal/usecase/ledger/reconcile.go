package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/mutation"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/projection"
	"github.com/sirupsen/logrus"
)

// Drift is one asset whose held projection differs from a replay of storage
type Drift struct {
	AssetID  uuid.UUID
	Symbol   string
	Held     *domain.Asset // nil when the asset was not held
	Replayed *domain.Asset // nil when the asset is gone from storage
}

// ReconcileReport is the outcome of a Reconcile run
type ReconcileReport struct {
	Assets       int
	Transactions int
	Drifts       []Drift
	Issues       []domain.Issue
}

// Reconcile reloads metadata and the log from storage, replays them and
// compares the result with the held projection field by field.
// Logic:
//  1. Fetch every asset and transaction from the repositories
//  2. Project them from scratch
//  3. Report every asset whose position differs (or exists on one side only)
//  4. Adopt the replayed projection: storage is the source of truth
func (s *LedgerService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadata, transactions, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	replayed := projection.Project(metadata, transactions)
	report := &ReconcileReport{
		Assets:       len(replayed.Assets),
		Transactions: len(transactions),
		Issues:       replayed.Issues,
	}

	if s.coordinator != nil {
		report.Drifts = compare(s.coordinator.Assets(), replayed.Assets)
	}

	for _, drift := range report.Drifts {
		s.logger.WithFields(logrus.Fields{
			"asset_id": drift.AssetID,
			"symbol":   drift.Symbol,
		}).Warn("projection drifted from storage")
	}

	s.coordinator = mutation.NewCoordinator(metadata, transactions, s.logger)
	s.storeSnapshot(ctx, s.coordinator.Assets())

	s.logger.WithFields(logrus.Fields{
		"assets":       report.Assets,
		"transactions": report.Transactions,
		"drifts":       len(report.Drifts),
		"issues":       len(report.Issues),
	}).Info("ledger reconciled")

	return report, nil
}

// compare lists the assets whose positions differ between held and replayed
func compare(held, replayed []domain.Asset) []Drift {
	remaining := make(map[uuid.UUID]domain.Asset, len(held))
	for _, asset := range held {
		remaining[asset.ID] = asset
	}

	var drifts []Drift
	for i := range replayed {
		fresh := replayed[i]
		current, ok := remaining[fresh.ID]
		delete(remaining, fresh.ID)

		if ok && current.SamePosition(fresh) {
			continue
		}

		drift := Drift{AssetID: fresh.ID, Symbol: fresh.Symbol, Replayed: &fresh}
		if ok {
			drift.Held = &current
		}
		drifts = append(drifts, drift)
	}

	for _, asset := range held {
		if _, gone := remaining[asset.ID]; gone {
			asset := asset
			drifts = append(drifts, Drift{AssetID: asset.ID, Symbol: asset.Symbol, Held: &asset})
		}
	}

	return drifts
}
