package storage

import (
	"encoding/json"
	"fmt"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/utxo"
)

// ChainStore is the durable record of the chain: every block in order, an
// index from hash and txid back to height, the live UTXO set, and a small
// metadata table for values fixed at genesis.
type ChainStore struct {
	db *Database
}

// Open opens (or creates) the LevelDB instance at path and wraps it as a
// ChainStore.
func Open(path string) (*ChainStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return &ChainStore{db: db}, nil
}

// Close releases the underlying database handle.
func (cs *ChainStore) Close() error {
	return cs.db.Close()
}

// Height returns the height of the current tip, and false if the store is
// empty.
func (cs *ChainStore) Height() (uint64, bool, error) {
	raw, err := cs.db.Get(ChainStateKey(KeyBestHeight))
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, false, nil
	}
	h, err := decodeHeight(raw)
	return h, true, err
}

// Tip returns the hash of the current best block, and false if the store is
// empty.
func (cs *ChainStore) Tip() (string, bool, error) {
	raw, err := cs.db.Get(ChainStateKey(KeyBestHash))
	if err != nil {
		return "", false, err
	}
	if raw == nil {
		return "", false, nil
	}
	return string(raw), true, nil
}

// SaveBlock appends block at height atomically: the block body, the
// hash/height/txid indexes, the UTXO deltas implied by its transactions, and
// the new chain tip all land in one LevelDB batch. SaveBlock rejects a
// height that is already occupied; it does not validate the block itself,
// that is the ledger's job.
func (cs *ChainStore) SaveBlock(block *types.Block, height uint64) error {
	existing, err := cs.db.Get(BlockKey(height))
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("block at height %d already stored", height)
	}

	body, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("encode block: %w", err)
	}

	batch := cs.db.NewBatch()
	batch.Put(BlockKey(height), body)
	batch.Put(BlockIndexKey(block.Hash), encodeHeight(height))

	for _, tx := range block.Transactions {
		batch.Put(TxKey(tx.Txid), encodeHeight(height))

		if !tx.IsCoinbase() {
			for _, in := range tx.Inputs {
				batch.Delete(UTXOKey(in.PrevTxid, in.PrevVout))
			}
		}
		for vout, out := range tx.Outputs {
			u := utxo.UTXO{Txid: tx.Txid, Vout: uint32(vout), Amount: out.Amount, ScriptPubKey: out.ScriptPubKey}
			encoded, err := json.Marshal(u)
			if err != nil {
				return fmt.Errorf("encode utxo: %w", err)
			}
			batch.Put(UTXOKey(tx.Txid, uint32(vout)), encoded)
		}
	}

	batch.Put(ChainStateKey(KeyBestHeight), encodeHeight(height))
	batch.Put(ChainStateKey(KeyBestHash), []byte(block.Hash))

	return batch.Write()
}

// GetBlockByHeight loads the block stored at height.
func (cs *ChainStore) GetBlockByHeight(height uint64) (*types.Block, error) {
	raw, err := cs.db.Get(BlockKey(height))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("no block at height %d", height)
	}
	var block types.Block
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	return &block, nil
}

// GetBlockByHash loads the block with the given hash.
func (cs *ChainStore) GetBlockByHash(hash string) (*types.Block, error) {
	raw, err := cs.db.Get(BlockIndexKey(hash))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("unknown block hash: %s", hash)
	}
	height, err := decodeHeight(raw)
	if err != nil {
		return nil, err
	}
	return cs.GetBlockByHeight(height)
}

// LoadRecentBlocks returns the n blocks ending at the current tip, oldest
// first. It returns fewer than n if the chain is shorter.
func (cs *ChainStore) LoadRecentBlocks(n int) ([]*types.Block, error) {
	height, ok, err := cs.Height()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	start := int64(height) - int64(n) + 1
	if start < 0 {
		start = 0
	}

	blocks := make([]*types.Block, 0, n)
	for h := uint64(start); h <= height; h++ {
		b, err := cs.GetBlockByHeight(h)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// GetTransaction locates the transaction with the given txid and the block
// that contains it.
func (cs *ChainStore) GetTransaction(txid string) (*types.Transaction, uint64, error) {
	raw, err := cs.db.Get(TxKey(txid))
	if err != nil {
		return nil, 0, err
	}
	if raw == nil {
		return nil, 0, fmt.Errorf("unknown transaction: %s", txid)
	}
	height, err := decodeHeight(raw)
	if err != nil {
		return nil, 0, err
	}
	block, err := cs.GetBlockByHeight(height)
	if err != nil {
		return nil, 0, err
	}
	for _, tx := range block.Transactions {
		if tx.Txid == txid {
			return &tx, height, nil
		}
	}
	return nil, 0, fmt.Errorf("transaction %s indexed at height %d but not found in block", txid, height)
}

// FindPayment scans committed blocks after afterTimestamp for the first
// output paying addr at least minAmount, returning its txid. It is a
// linear scan intended for wallet polling, not an indexed query.
func (cs *ChainStore) FindPayment(addr string, minAmount int64, afterTimestamp int64) (string, bool, error) {
	height, ok, err := cs.Height()
	if err != nil || !ok {
		return "", false, err
	}
	for h := uint64(0); h <= height; h++ {
		block, err := cs.GetBlockByHeight(h)
		if err != nil {
			return "", false, err
		}
		if block.Timestamp <= afterTimestamp {
			continue
		}
		for _, tx := range block.Transactions {
			for _, out := range tx.Outputs {
				if out.ScriptPubKey == addr && out.Amount >= minAmount {
					return tx.Txid, true, nil
				}
			}
		}
	}
	return "", false, nil
}

// LoadUTXOSet reads every UTXO currently stored, used to rebuild the
// in-memory index on startup.
func (cs *ChainStore) LoadUTXOSet() ([]utxo.UTXO, error) {
	it := cs.db.NewIterator(UTXOPrefix())
	defer it.Release()

	var out []utxo.UTXO
	for it.Next() {
		var u utxo.UTXO
		if err := json.Unmarshal(it.Value(), &u); err != nil {
			return nil, fmt.Errorf("decode utxo: %w", err)
		}
		out = append(out, u)
	}
	return out, it.Error()
}

// AddUTXO implements utxo.Persister for direct index writes made outside a
// block commit.
func (cs *ChainStore) AddUTXO(u utxo.UTXO) error {
	encoded, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return cs.db.Put(UTXOKey(u.Txid, u.Vout), encoded)
}

// RemoveUTXO implements utxo.Persister for direct index writes made outside
// a block commit.
func (cs *ChainStore) RemoveUTXO(op utxo.OutPoint) error {
	return cs.db.Delete(UTXOKey(op.Txid, op.Vout))
}

// GetMeta reads a metadata value, such as the founder address recorded at
// genesis. It returns false if the key was never set.
func (cs *ChainStore) GetMeta(key string) (string, bool, error) {
	raw, err := cs.db.Get(MetaKey(key))
	if err != nil {
		return "", false, err
	}
	if raw == nil {
		return "", false, nil
	}
	return string(raw), true, nil
}

// SetMeta writes a metadata value.
func (cs *ChainStore) SetMeta(key, value string) error {
	return cs.db.Put(MetaKey(key), []byte(value))
}
