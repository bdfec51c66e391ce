// Package ledger keeps the ordered history of transactions submitted from
// the wallet, newest first.
package ledger

import (
	"sync"

	"evmwallet/pkg/models"
)

// Ledger is an in-memory, hash-keyed, newest-first transaction log.
type Ledger struct {
	mu      sync.RWMutex
	records []models.Transaction
}

func New() *Ledger {
	return &Ledger{}
}

// Append inserts tx at the front. A record with the same hash is replaced in
// place instead of duplicated; Append then returns false.
func (l *Ledger) Append(tx models.Transaction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(tx.Hash); i >= 0 {
		l.records[i] = tx
		return false
	}
	l.records = append([]models.Transaction{tx}, l.records...)
	return true
}

// UpdateStatus sets the status of the record with the given hash. Unknown
// hashes are ignored, since updates may race with Clear.
func (l *Ledger) UpdateStatus(hash string, status models.TxStatus) bool {
	return l.Update(hash, func(tx *models.Transaction) { tx.Status = status })
}

// Update applies fn to the record with the given hash.
func (l *Ledger) Update(hash string, fn func(tx *models.Transaction)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(hash)
	if i < 0 {
		return false
	}
	fn(&l.records[i])
	return true
}

// Get returns the record with the given hash.
func (l *Ledger) Get(hash string) (models.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(hash); i >= 0 {
		return l.records[i], true
	}
	return models.Transaction{}, false
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// List returns a copy of all records, newest first.
func (l *Ledger) List() []models.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Transaction, len(l.records))
	copy(out, l.records)
	return out
}

// Pending returns the records still waiting for a receipt, newest first.
func (l *Ledger) Pending() []models.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.Transaction
	for _, tx := range l.records {
		if tx.Status == models.StatusPending {
			out = append(out, tx)
		}
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Restore replaces the ledger with records given newest first, dropping
// repeated hashes after their first occurrence.
func (l *Ledger) Restore(records []models.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = make([]models.Transaction, 0, len(records))
	for _, tx := range records {
		if l.indexOf(tx.Hash) >= 0 {
			continue
		}
		l.records = append(l.records, tx)
	}
}

func (l *Ledger) indexOf(hash string) int {
	for i := range l.records {
		if l.records[i].Hash == hash {
			return i
		}
	}
	return -1
}
