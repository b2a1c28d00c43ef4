// Package mutation applies inserts, edits and deletes to the transaction log
// while keeping the projected assets consistent with a full replay.
package mutation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/projection"
	"github.com/sirupsen/logrus"
)

// Strategy is how the coordinator recomputed the projection after a delete
type Strategy string

const (
	StrategyNone        Strategy = ""
	StrategyIncremental Strategy = "INCREMENTAL"
	StrategyFullReplay  Strategy = "FULL_REPLAY"
)

// Coordinator owns the log and its current projection.
// It is not safe for concurrent use; callers serialize access.
type Coordinator struct {
	metadata     []domain.AssetMetadata
	log          *Log
	result       projection.Result
	lastStrategy Strategy
	logger       logrus.FieldLogger
}

// NewCoordinator projects the stored log over the given metadata
func NewCoordinator(metadata []domain.AssetMetadata, transactions []domain.Transaction, logger logrus.FieldLogger) *Coordinator {
	c := &Coordinator{
		metadata: copyMetadata(metadata),
		log:      NewLog(transactions),
		logger:   logger.WithField("component", "mutation"),
	}
	c.result = projection.Project(c.metadata, c.log.Transactions())
	c.logIssues(c.result.Issues)
	return c
}

// Clone returns an independent coordinator with the same log and projection.
// Mutating the clone leaves c untouched.
func (c *Coordinator) Clone() *Coordinator {
	clone := *c
	clone.metadata = copyMetadata(c.metadata)
	clone.log = c.log.Clone()
	return &clone
}

// Assets returns a copy of the current projection
func (c *Coordinator) Assets() []domain.Asset {
	out := make([]domain.Asset, len(c.result.Assets))
	copy(out, c.result.Assets)
	return out
}

// Issues returns the problems reported by the current projection
func (c *Coordinator) Issues() []domain.Issue {
	out := make([]domain.Issue, len(c.result.Issues))
	copy(out, c.result.Issues)
	return out
}

// Metadata returns a copy of the metadata the projection runs over
func (c *Coordinator) Metadata() []domain.AssetMetadata {
	return copyMetadata(c.metadata)
}

// Transactions returns the log in sequence order
func (c *Coordinator) Transactions() []domain.Transaction {
	return c.log.Transactions()
}

// Transaction returns one logged transaction
func (c *Coordinator) Transaction(id uuid.UUID) (domain.Transaction, bool) {
	return c.log.Get(id)
}

// LastStrategy reports how the most recent delete was recomputed
func (c *Coordinator) LastStrategy() Strategy {
	return c.lastStrategy
}

// Insert validates tx, assigns its sequence and replays the log.
// On success tx carries the assigned sequence.
// Errors:
//   - InvalidTransaction / InconsistentTotal from validation
//   - OrphanTransaction when the asset is unknown
//   - OverdraftPosition when the insert would overdraw a position
//   - ErrDuplicateTransaction when the ID is already logged
func (c *Coordinator) Insert(tx *domain.Transaction) ([]domain.Asset, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if _, exists := c.log.Get(tx.ID); exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, tx.ID)
	}

	if !c.knowsAsset(tx.AssetID) {
		return nil, domain.NewLedgerError(domain.ErrorKindOrphanTransaction, tx, "asset %s is not known", tx.AssetID)
	}

	candidate := c.log.Clone()
	stored := candidate.Append(*tx)

	result := projection.Project(c.metadata, candidate.Transactions())
	if err := c.rejectNewOverdraft(result); err != nil {
		return nil, err
	}

	c.commit(candidate, result)
	*tx = stored

	c.logger.WithFields(logrus.Fields{
		"transaction_id": stored.ID,
		"kind":           stored.Kind,
		"sequence":       stored.Sequence,
	}).Debug("transaction inserted")

	return c.Assets(), nil
}

// Edit replaces the transaction with the given ID by tx.
// It behaves as a delete followed by an insert that keeps the original ID and sequence.
// The replacement is validated before the log changes; on success tx carries the
// preserved ID and sequence.
func (c *Coordinator) Edit(id uuid.UUID, tx *domain.Transaction) ([]domain.Asset, error) {
	existing, ok := c.log.Get(id)
	if !ok {
		return nil, unknownTransaction(id)
	}

	edited := *tx
	edited.ID = id
	edited.Sequence = existing.Sequence

	if err := edited.Validate(); err != nil {
		return nil, err
	}

	if !c.knowsAsset(edited.AssetID) {
		return nil, domain.NewLedgerError(domain.ErrorKindOrphanTransaction, &edited, "asset %s is not known", edited.AssetID)
	}

	candidate := c.log.Clone()
	stored, _ := candidate.Replace(edited)

	result := projection.Project(c.metadata, candidate.Transactions())
	if err := c.rejectNewOverdraft(result); err != nil {
		return nil, err
	}

	c.commit(candidate, result)
	*tx = stored

	c.logger.WithFields(logrus.Fields{
		"transaction_id": stored.ID,
		"kind":           stored.Kind,
		"sequence":       stored.Sequence,
	}).Debug("transaction edited")

	return c.Assets(), nil
}

// Delete removes a transaction from the log.
// Logic:
//  1. If the transaction is the latest folded step of its asset, revert its
//     recorded effect on that asset only (incremental)
//  2. Otherwise the reversal is not invertible in isolation: replay the whole log
//  3. A full replay that overdraws a later outflow is rejected and the log is kept
func (c *Coordinator) Delete(id uuid.UUID) ([]domain.Asset, error) {
	tx, ok := c.log.Get(id)
	if !ok {
		return nil, unknownTransaction(id)
	}

	candidate := c.log.Clone()
	candidate.Remove(id)

	if result, ok := c.revert(&tx); ok {
		c.commit(candidate, result)
		c.lastStrategy = StrategyIncremental
		c.logger.WithFields(logrus.Fields{
			"transaction_id": id,
			"strategy":       StrategyIncremental,
		}).Debug("transaction deleted")
		return c.Assets(), nil
	}

	c.logger.WithFields(logrus.Fields{
		"transaction_id": id,
		"asset_id":       tx.AssetID,
		"strategy":       StrategyFullReplay,
		"reason":         domain.ErrorKindNonInvertibleReversal,
	}).Info("later transactions depend on the deleted one, replaying the log")

	result := projection.Project(c.metadata, candidate.Transactions())
	if err := c.rejectNewOverdraft(result); err != nil {
		return nil, err
	}

	c.commit(candidate, result)
	c.lastStrategy = StrategyFullReplay
	return c.Assets(), nil
}

// SetMetadata replaces the metadata and replays the log.
// Transactions that were orphans attach to newly added assets.
func (c *Coordinator) SetMetadata(metadata []domain.AssetMetadata) []domain.Asset {
	c.metadata = copyMetadata(metadata)
	c.result = projection.Project(c.metadata, c.log.Transactions())
	c.logIssues(c.result.Issues)
	return c.Assets()
}

// Reprice swaps the metadata of one asset and rebuilds its derived fields.
// Position facts do not depend on prices, so no replay is needed.
func (c *Coordinator) Reprice(meta domain.AssetMetadata) (domain.Asset, error) {
	for i := range c.metadata {
		if c.metadata[i].ID != meta.ID {
			continue
		}
		c.metadata[i] = meta

		asset := projection.BuildAsset(meta, c.result.Positions[meta.ID])
		assets := c.Assets()
		for j := range assets {
			if assets[j].ID == meta.ID {
				assets[j] = asset
			}
		}
		c.result.Assets = assets
		return asset, nil
	}
	return domain.Asset{}, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, meta.ID)
}

// revert removes tx's effect from the current result without a replay.
// It reports false when tx is not on top of its asset's journal.
func (c *Coordinator) revert(tx *domain.Transaction) (projection.Result, bool) {
	journal := c.result.Journal[tx.AssetID]
	if len(journal) == 0 || journal[len(journal)-1].TransactionID != tx.ID {
		return projection.Result{}, false
	}
	top := journal[len(journal)-1]

	next := projection.Result{
		Assets:    make([]domain.Asset, len(c.result.Assets)),
		Issues:    make([]domain.Issue, 0, len(c.result.Issues)),
		Positions: make(map[uuid.UUID]projection.Position, len(c.result.Positions)),
		Journal:   make(map[uuid.UUID][]projection.Effect, len(c.result.Journal)),
	}

	for id, p := range c.result.Positions {
		next.Positions[id] = p
	}
	for id, effects := range c.result.Journal {
		next.Journal[id] = effects
	}
	for _, issue := range c.result.Issues {
		if issue.TransactionID != tx.ID {
			next.Issues = append(next.Issues, issue)
		}
	}

	position := c.result.Positions[tx.AssetID].Revert(top)
	next.Positions[tx.AssetID] = position
	trimmed := make([]projection.Effect, len(journal)-1)
	copy(trimmed, journal)
	next.Journal[tx.AssetID] = trimmed

	copy(next.Assets, c.result.Assets)
	for i := range next.Assets {
		if next.Assets[i].ID == tx.AssetID {
			next.Assets[i] = projection.BuildAsset(next.Assets[i].AssetMetadata, position)
		}
	}

	return next, true
}

// rejectNewOverdraft refuses a projection that overdraws a transaction which
// did not overdraw before
func (c *Coordinator) rejectNewOverdraft(result projection.Result) error {
	before := make(map[uuid.UUID]bool)
	for _, issue := range c.result.Issues {
		if issue.Kind == domain.ErrorKindOverdraftPosition {
			before[issue.TransactionID] = true
		}
	}

	for _, issue := range result.Issues {
		if issue.Kind == domain.ErrorKindOverdraftPosition && !before[issue.TransactionID] {
			c.logger.WithFields(logrus.Fields{
				"transaction_id": issue.TransactionID,
				"asset_id":       issue.AssetID,
			}).Warn("mutation rejected: overdraft")
			return issue.Err()
		}
	}
	return nil
}

func (c *Coordinator) commit(log *Log, result projection.Result) {
	c.log = log
	c.result = result
}

func (c *Coordinator) knowsAsset(id uuid.UUID) bool {
	for i := range c.metadata {
		if c.metadata[i].ID == id {
			return true
		}
	}
	return false
}

func (c *Coordinator) logIssues(issues []domain.Issue) {
	for _, issue := range issues {
		c.logger.WithFields(logrus.Fields{
			"kind":           issue.Kind,
			"transaction_id": issue.TransactionID,
			"asset_id":       issue.AssetID,
		}).Warn(issue.Message)
	}
}

func unknownTransaction(id uuid.UUID) *domain.LedgerError {
	return &domain.LedgerError{
		Kind:          domain.ErrorKindUnknownTransaction,
		TransactionID: id,
		Message:       "not in the log",
	}
}

func copyMetadata(metadata []domain.AssetMetadata) []domain.AssetMetadata {
	out := make([]domain.AssetMetadata, len(metadata))
	copy(out, metadata)
	return out
}
