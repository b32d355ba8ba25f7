package utxo

import (
	"fmt"
	"sync"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

// Persister receives write-through notifications as the index is mutated.
// The ledger's bulk block commits bypass this and batch the same deltas
// together with the block and transaction rows for atomicity; Persister
// exists for direct index mutation outside a block commit.
type Persister interface {
	AddUTXO(u UTXO) error
	RemoveUTXO(op OutPoint) error
}

// Index is the live map of unspent outputs, plus a reverse index by address
// for balance and listing queries.
type Index struct {
	mu        sync.RWMutex
	utxos     map[OutPoint]UTXO
	byAddress map[string]map[OutPoint]struct{}
	persist   Persister
}

// NewIndex creates an empty index. persist may be nil.
func NewIndex(persist Persister) *Index {
	return &Index{
		utxos:     make(map[OutPoint]UTXO),
		byAddress: make(map[string]map[OutPoint]struct{}),
		persist:   persist,
	}
}

// Add inserts a UTXO. Insertion is idempotent: adding the same outpoint
// twice leaves the index unchanged after the first call.
func (idx *Index) Add(u UTXO) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.addLocked(u)
	if idx.persist != nil {
		return idx.persist.AddUTXO(u)
	}
	return nil
}

func (idx *Index) addLocked(u UTXO) {
	op := u.OutPoint()
	if _, exists := idx.utxos[op]; exists {
		return
	}
	idx.utxos[op] = u
	set, ok := idx.byAddress[u.ScriptPubKey]
	if !ok {
		set = make(map[OutPoint]struct{})
		idx.byAddress[u.ScriptPubKey] = set
	}
	set[op] = struct{}{}
}

// Remove deletes the UTXO at op, returning the prior value and whether it
// was present.
func (idx *Index) Remove(op OutPoint) (UTXO, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	u, ok := idx.removeLocked(op)
	if ok && idx.persist != nil {
		idx.persist.RemoveUTXO(op)
	}
	return u, ok
}

func (idx *Index) removeLocked(op OutPoint) (UTXO, bool) {
	u, ok := idx.utxos[op]
	if !ok {
		return UTXO{}, false
	}
	delete(idx.utxos, op)
	if set, ok := idx.byAddress[u.ScriptPubKey]; ok {
		delete(set, op)
		if len(set) == 0 {
			delete(idx.byAddress, u.ScriptPubKey)
		}
	}
	return u, true
}

// Get retrieves the UTXO at op, if present.
func (idx *Index) Get(op OutPoint) (UTXO, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	u, ok := idx.utxos[op]
	return u, ok
}

// GetForAddress returns every UTXO paying addr. Order is unspecified.
func (idx *Index) GetForAddress(addr string) []UTXO {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	set := idx.byAddress[addr]
	out := make([]UTXO, 0, len(set))
	for op := range set {
		out = append(out, idx.utxos[op])
	}
	return out
}

// Balance sums the amount of every UTXO paying addr.
func (idx *Index) Balance(addr string) int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var total int64
	for op := range idx.byAddress[addr] {
		total += idx.utxos[op].Amount
	}
	return total
}

// Validate checks tx against the current index without mutating it: a
// coinbase is trivially valid here (its reward cap is a ledger concern);
// otherwise every input must reference an existing UTXO and the input sum
// must cover the output sum.
func (idx *Index) Validate(tx *types.Transaction) error {
	if tx.IsCoinbase() {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var inSum int64
	for _, in := range tx.Inputs {
		u, ok := idx.utxos[OutPoint{Txid: in.PrevTxid, Vout: in.PrevVout}]
		if !ok {
			return fmt.Errorf("unknown utxo %s:%d", in.PrevTxid, in.PrevVout)
		}
		inSum += u.Amount
	}
	if inSum < tx.OutputSum() {
		return fmt.Errorf("insufficient input value: have %d, need %d", inSum, tx.OutputSum())
	}
	return nil
}

// Apply removes every UTXO spent by tx's inputs, then adds one UTXO per
// output. Callers must Validate under the same lock first: Apply does not
// re-check availability and will leave partial state if a spent input is
// already missing.
func (idx *Index) Apply(tx *types.Transaction) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !tx.IsCoinbase() {
		for _, in := range tx.Inputs {
			op := OutPoint{Txid: in.PrevTxid, Vout: in.PrevVout}
			if _, ok := idx.removeLocked(op); !ok {
				return fmt.Errorf("apply: missing utxo %s", op)
			}
			if idx.persist != nil {
				idx.persist.RemoveUTXO(op)
			}
		}
	}

	for vout, out := range tx.Outputs {
		u := UTXO{Txid: tx.Txid, Vout: uint32(vout), Amount: out.Amount, ScriptPubKey: out.ScriptPubKey}
		idx.addLocked(u)
		if idx.persist != nil {
			if err := idx.persist.AddUTXO(u); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the index with no persister attached, used
// as a transaction-local shadow during block admission so that
// intra-block dependencies apply atomically and a failure can be discarded
// without touching the live index.
func (idx *Index) Clone() *Index {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	clone := NewIndex(nil)
	for op, u := range idx.utxos {
		clone.utxos[op] = u
		set, ok := clone.byAddress[u.ScriptPubKey]
		if !ok {
			set = make(map[OutPoint]struct{})
			clone.byAddress[u.ScriptPubKey] = set
		}
		set[op] = struct{}{}
	}
	return clone
}

// Snapshot returns every UTXO currently indexed. Order is unspecified.
func (idx *Index) Snapshot() []UTXO {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]UTXO, 0, len(idx.utxos))
	for _, u := range idx.utxos {
		out = append(out, u)
	}
	return out
}

// Size returns the number of UTXOs currently indexed.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.utxos)
}
