// Package mempool holds transactions that have passed admission checks but
// are not yet in a block.
package mempool

import (
	"fmt"
	"sync"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/utxo"
)

// Entry is a pending transaction plus its arrival time.
type Entry struct {
	Tx      *types.Transaction
	AddedAt int64
}

// Mempool tracks pending transactions, rejecting any that would spend an
// outpoint another pending transaction already spends. There is no fee-rate
// ranking or eviction policy: a transaction leaves the pool only when a
// block containing it commits, or when explicitly pruned by age.
type Mempool struct {
	mu sync.RWMutex

	entries      map[string]*Entry        // txid -> entry
	spentOutputs map[utxo.OutPoint]string // outpoint -> spending txid
}

// New creates an empty mempool.
func New() *Mempool {
	return &Mempool{
		entries:      make(map[string]*Entry),
		spentOutputs: make(map[utxo.OutPoint]string),
	}
}

// Add inserts tx, rejecting it if its txid is already pending or if any of
// its inputs is already claimed by another pending transaction. Callers are
// expected to have already run UTXO and signature validation; Add only
// enforces mempool-local exclusivity.
func (mp *Mempool) Add(tx *types.Transaction, now int64) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.entries[tx.Txid]; exists {
		return fmt.Errorf("transaction %s already pending", tx.Txid)
	}

	for _, in := range tx.Inputs {
		op := utxo.OutPoint{Txid: in.PrevTxid, Vout: in.PrevVout}
		if spender, claimed := mp.spentOutputs[op]; claimed {
			return fmt.Errorf("double spend: %s already claimed by pending tx %s", op, spender)
		}
	}

	for _, in := range tx.Inputs {
		op := utxo.OutPoint{Txid: in.PrevTxid, Vout: in.PrevVout}
		mp.spentOutputs[op] = tx.Txid
	}
	mp.entries[tx.Txid] = &Entry{Tx: tx, AddedAt: now}
	return nil
}

// Remove drops tx (and its spent-outpoint claims) from the pool. Safe to
// call whether or not tx is present.
func (mp *Mempool) Remove(txid string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.removeLocked(txid)
}

func (mp *Mempool) removeLocked(txid string) {
	entry, ok := mp.entries[txid]
	if !ok {
		return
	}
	for _, in := range entry.Tx.Inputs {
		op := utxo.OutPoint{Txid: in.PrevTxid, Vout: in.PrevVout}
		if mp.spentOutputs[op] == txid {
			delete(mp.spentOutputs, op)
		}
	}
	delete(mp.entries, txid)
}

// RemoveMined drops every transaction in txids, called after a block
// containing them commits.
func (mp *Mempool) RemoveMined(txids []string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	for _, txid := range txids {
		mp.removeLocked(txid)
	}
}

// Get returns the pending transaction with the given txid, if any.
func (mp *Mempool) Get(txid string) (*types.Transaction, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	entry, ok := mp.entries[txid]
	if !ok {
		return nil, false
	}
	return entry.Tx, true
}

// Exists reports whether txid is pending.
func (mp *Mempool) Exists(txid string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	_, ok := mp.entries[txid]
	return ok
}

// Snapshot returns every pending transaction. Order is unspecified; callers
// needing a deterministic block template should sort the result themselves.
func (mp *Mempool) Snapshot() []*types.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	out := make([]*types.Transaction, 0, len(mp.entries))
	for _, entry := range mp.entries {
		out = append(out, entry.Tx)
	}
	return out
}

// Size returns the number of pending transactions.
func (mp *Mempool) Size() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return len(mp.entries)
}

// Prune removes every pending transaction added before cutoff, returning the
// count removed.
func (mp *Mempool) Prune(cutoff int64) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	var removed int
	for txid, entry := range mp.entries {
		if entry.AddedAt < cutoff {
			mp.removeLocked(txid)
			removed++
		}
	}
	return removed
}
