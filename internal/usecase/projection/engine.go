// Package projection folds a transaction log into per-asset positions.
// Project is the single source of truth for position semantics; every other
// path that produces assets must agree with it.
package projection

import (
	"sort"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
)

// Result is the output of a projection
type Result struct {
	// Assets has one entry per metadata entry, in metadata order
	Assets []domain.Asset

	// Issues lists the non-fatal problems, in fold order
	Issues []domain.Issue

	// Positions is the folded state per asset ID
	Positions map[uuid.UUID]Position

	// Journal is the ordered list of effects applied to each asset
	Journal map[uuid.UUID][]Effect
}

// Project replays transactions in canonical order over the given metadata.
// Logic:
//  1. Sort a copy of the transactions by date, then sequence, then ID
//  2. Start every asset at an empty position
//  3. Fold each transaction into its asset (orphans are skipped and reported)
//  4. Build assets and compute market-dependent fields from metadata prices
//
// Inputs are never mutated; equal inputs always produce equal results.
func Project(metadata []domain.AssetMetadata, transactions []domain.Transaction) Result {
	result := Result{
		Assets:    make([]domain.Asset, 0, len(metadata)),
		Issues:    make([]domain.Issue, 0),
		Positions: make(map[uuid.UUID]Position, len(metadata)),
		Journal:   make(map[uuid.UUID][]Effect, len(metadata)),
	}

	for _, meta := range metadata {
		if _, seen := result.Positions[meta.ID]; seen {
			continue
		}
		result.Positions[meta.ID] = EmptyPosition()
	}

	for _, tx := range Sort(transactions) {
		result.fold(&tx)
	}

	seen := make(map[uuid.UUID]bool, len(metadata))
	for _, meta := range metadata {
		if seen[meta.ID] {
			continue
		}
		seen[meta.ID] = true
		result.Assets = append(result.Assets, BuildAsset(meta, result.Positions[meta.ID]))
	}

	return result
}

// fold applies one transaction to the running result
func (r *Result) fold(tx *domain.Transaction) {
	position, ok := r.Positions[tx.AssetID]
	if !ok {
		r.Issues = append(r.Issues, domain.Issue{
			Kind:            domain.ErrorKindOrphanTransaction,
			TransactionID:   tx.ID,
			TransactionKind: tx.Kind,
			AssetID:         tx.AssetID,
			Message:         "asset " + tx.AssetID.String() + " is not known",
		})
		return
	}

	effect, issue := Step(position, tx)
	if issue != nil {
		r.Issues = append(r.Issues, *issue)
	}

	r.Positions[tx.AssetID] = position.Apply(effect)
	r.Journal[tx.AssetID] = append(r.Journal[tx.AssetID], effect)
}

// Sort returns a copy of transactions in canonical fold order:
// ascending Date, then ascending Sequence, then ID as a last resort.
func Sort(transactions []domain.Transaction) []domain.Transaction {
	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Before(&sorted[j])
	})

	return sorted
}

// BuildAsset materializes an Asset from metadata and a folded position
func BuildAsset(meta domain.AssetMetadata, p Position) domain.Asset {
	asset := domain.NewAsset(meta)
	asset.Quantity = p.Quantity
	asset.TotalCostBasis = p.TotalCostBasis
	asset.RealizedPnL = p.RealizedPnL
	asset.AvgCost = p.AvgCost()
	asset.Derive()
	return asset
}
