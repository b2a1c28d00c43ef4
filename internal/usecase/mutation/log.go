package mutation

import (
	"sort"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
)

// Log is the in-memory transaction log, kept in insertion (sequence) order.
// It assigns sequences on append and preserves them on replace.
type Log struct {
	entries []domain.Transaction
	index   map[uuid.UUID]int
	nextSeq int64
}

// NewLog seeds a log with stored transactions.
// Entries without a sequence are numbered after the highest one seen.
func NewLog(transactions []domain.Transaction) *Log {
	l := &Log{
		entries: make([]domain.Transaction, 0, len(transactions)),
		index:   make(map[uuid.UUID]int, len(transactions)),
		nextSeq: 1,
	}

	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})

	for _, tx := range sorted {
		if tx.Sequence >= l.nextSeq {
			l.nextSeq = tx.Sequence + 1
		}
	}

	for _, tx := range sorted {
		if _, dup := l.index[tx.ID]; dup {
			continue
		}
		if tx.Sequence <= 0 {
			tx.Sequence = l.nextSeq
			l.nextSeq++
		}
		l.index[tx.ID] = len(l.entries)
		l.entries = append(l.entries, tx)
	}

	return l
}

// Len returns the number of transactions in the log
func (l *Log) Len() int {
	return len(l.entries)
}

// Get returns the transaction with the given ID
func (l *Log) Get(id uuid.UUID) (domain.Transaction, bool) {
	i, ok := l.index[id]
	if !ok {
		return domain.Transaction{}, false
	}
	return l.entries[i], true
}

// Transactions returns a copy of the log in sequence order
func (l *Log) Transactions() []domain.Transaction {
	out := make([]domain.Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// NextSequence is the sequence the next appended transaction will receive
func (l *Log) NextSequence() int64 {
	return l.nextSeq
}

// Append adds tx at the end of the log and returns it with its assigned sequence
func (l *Log) Append(tx domain.Transaction) domain.Transaction {
	tx.Sequence = l.nextSeq
	l.nextSeq++
	l.index[tx.ID] = len(l.entries)
	l.entries = append(l.entries, tx)
	return tx
}

// Replace swaps the stored transaction with the same ID, keeping its sequence
func (l *Log) Replace(tx domain.Transaction) (domain.Transaction, bool) {
	i, ok := l.index[tx.ID]
	if !ok {
		return domain.Transaction{}, false
	}
	tx.Sequence = l.entries[i].Sequence
	l.entries[i] = tx
	return tx, true
}

// Remove deletes the transaction with the given ID
func (l *Log) Remove(id uuid.UUID) (domain.Transaction, bool) {
	i, ok := l.index[id]
	if !ok {
		return domain.Transaction{}, false
	}
	removed := l.entries[i]

	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	delete(l.index, id)
	for j := i; j < len(l.entries); j++ {
		l.index[l.entries[j].ID] = j
	}

	return removed, true
}

// Clone returns an independent copy of the log
func (l *Log) Clone() *Log {
	c := &Log{
		entries: make([]domain.Transaction, len(l.entries)),
		index:   make(map[uuid.UUID]int, len(l.index)),
		nextSeq: l.nextSeq,
	}
	copy(c.entries, l.entries)
	for id, i := range l.index {
		c.index[id] = i
	}
	return c
}
