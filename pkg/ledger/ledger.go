// Package ledger is the consensus core: it owns the UTXO index, the
// mempool, and the chain's durable store, and is the only component
// allowed to mutate any of them. Every exported mutation takes the
// writer lock for its full validate+apply+persist sequence; readers take
// a snapshot or operate under a brief shared critical section.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/mempool"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/metrics"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/monitoring"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/storage"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/utxo"
)

// recentWindow is how many trailing blocks the ledger keeps warm in memory
// as a cache; the durable store remains the source of truth for height,
// tip, and any block outside the window.
const recentWindow = 64

// Clock abstracts wall-clock time so tests can pin timestamps. Production
// callers use SystemClock.
type Clock func() int64

// Ledger is the single-writer state machine described by the consensus
// core: UTXO index, mempool, and chain tip, backed by a durable store.
type Ledger struct {
	mu sync.Mutex

	store          *storage.ChainStore
	idx            *utxo.Index
	mempool        *mempool.Mempool
	difficulty     int
	founderAddress string
	founderPaid    bool

	height uint64
	tip    string
	recent []*types.Block

	now     Clock
	metrics *metrics.Registry
	log     *monitoring.Logger
}

// Open recovers ledger state from store if it already holds blocks, or
// builds and persists genesis if it is empty.
func Open(store *storage.ChainStore, difficulty int, founderAddress string, now Clock, reg *metrics.Registry, log *monitoring.Logger) (*Ledger, error) {
	if now == nil {
		now = SystemClock
	}

	l := &Ledger{
		store:          store,
		idx:            utxo.NewIndex(nil),
		mempool:        mempool.New(),
		difficulty:     difficulty,
		founderAddress: founderAddress,
		now:            now,
		metrics:        reg,
		log:            log,
	}

	height, ok, err := store.Height()
	if err != nil {
		return nil, fmt.Errorf("read chain height: %w", err)
	}

	if !ok {
		if err := l.initGenesis(); err != nil {
			return nil, err
		}
		return l, nil
	}

	if err := l.recover(height); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initGenesis() error {
	genesis, err := BuildGenesis(l.now(), l.difficulty, l.founderAddress)
	if err != nil {
		return fmt.Errorf("build genesis: %w", err)
	}
	if err := l.store.SaveBlock(genesis, 0); err != nil {
		return fmt.Errorf("persist genesis: %w", err)
	}
	if l.founderAddress != "" {
		if err := l.store.SetMeta("founder_address", l.founderAddress); err != nil {
			return fmt.Errorf("persist founder address: %w", err)
		}
		l.founderPaid = true
	}
	for vout, out := range genesis.Transactions[0].Outputs {
		l.idx.Add(utxo.UTXO{Txid: genesis.Transactions[0].Txid, Vout: uint32(vout), Amount: out.Amount, ScriptPubKey: out.ScriptPubKey})
	}

	l.height = 1
	l.tip = genesis.Hash
	l.recent = []*types.Block{genesis}
	l.observeCommit(genesis)
	return nil
}

func (l *Ledger) recover(height uint64) error {
	founder, ok, err := l.store.GetMeta("founder_address")
	if err != nil {
		return fmt.Errorf("read founder address: %w", err)
	}
	if ok {
		l.founderAddress = founder
		l.founderPaid = true
	}

	set, err := l.store.LoadUTXOSet()
	if err != nil {
		return fmt.Errorf("load utxo set: %w", err)
	}
	for _, u := range set {
		l.idx.Add(u)
	}

	tip, _, err := l.store.Tip()
	if err != nil {
		return fmt.Errorf("read chain tip: %w", err)
	}

	recent, err := l.store.LoadRecentBlocks(recentWindow)
	if err != nil {
		return fmt.Errorf("load recent blocks: %w", err)
	}

	l.height = height + 1
	l.tip = tip
	l.recent = recent
	return nil
}

// SystemClock returns the current Unix timestamp.
func SystemClock() int64 {
	return time.Now().Unix()
}

// Height returns the number of committed blocks (the index the next block
// must use).
func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

// Tip returns the hash of the current chain tip.
func (l *Ledger) Tip() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tip
}

// Reward returns the coinbase subsidy for the next block to be mined.
func (l *Ledger) Reward() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Reward(l.height)
}

// CirculatingSupply returns the total coins issued so far.
func (l *Ledger) CirculatingSupply() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CirculatingSupply(l.height, l.founderPaid)
}

// Difficulty returns the proof-of-work target in leading hex zeros.
func (l *Ledger) Difficulty() int {
	return l.difficulty
}

// Balance returns the sum of every UTXO paying addr.
func (l *Ledger) Balance(addr string) int64 {
	return l.idx.Balance(addr)
}

// UTXOs returns every UTXO paying addr.
func (l *Ledger) UTXOs(addr string) []utxo.UTXO {
	return l.idx.GetForAddress(addr)
}

// PendingCount returns the number of transactions currently in the
// mempool.
func (l *Ledger) PendingCount() int {
	return l.mempool.Size()
}

// Pending returns a snapshot of every pending transaction.
func (l *Ledger) Pending() []*types.Transaction {
	return l.mempool.Snapshot()
}

// GetBlockByIndex loads a committed block by height, checking the warm
// cache before falling back to the durable store.
func (l *Ledger) GetBlockByIndex(index uint64) (*types.Block, error) {
	l.mu.Lock()
	for _, b := range l.recent {
		if b.Index == index {
			defer l.mu.Unlock()
			return b, nil
		}
	}
	l.mu.Unlock()
	return l.store.GetBlockByHeight(index)
}

// GetTransaction locates a committed transaction and the height it was
// included at.
func (l *Ledger) GetTransaction(txid string) (*types.Transaction, uint64, error) {
	return l.store.GetTransaction(txid)
}

func (l *Ledger) observeCommit(block *types.Block) {
	if l.metrics == nil {
		return
	}
	l.metrics.ChainHeight.Set(float64(block.Index))
	l.metrics.ChainDifficulty.Set(float64(l.difficulty))
	l.metrics.BlocksCommitted.Inc()
	l.metrics.TransactionsTotal.Add(float64(len(block.Transactions)))
	l.metrics.MempoolSize.Set(float64(l.mempool.Size()))
	l.metrics.CirculatingSupply.Set(float64(CirculatingSupply(l.height, l.founderPaid)))
}
