package ledger

import (
	"fmt"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/canonical"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/crypto"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/mining"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/utxo"
)

// GetWork returns a mining template for the next block: the pending
// mempool transactions plus the scheduled reward and miner address the
// caller builds the coinbase from (the template itself holds no coinbase).
// The snapshot is a value, safe to hand to an external miner; it holds no
// lock.
func (l *Ledger) GetWork(miner string) *mining.Template {
	l.mu.Lock()
	defer l.mu.Unlock()

	return &mining.Template{
		Version:      1,
		PreviousHash: l.tip,
		Height:       l.height,
		Difficulty:   l.difficulty,
		Transactions: l.mempool.Snapshot(),
		Reward:       Reward(l.height),
		MinerAddress: miner,
	}
}

// SubmitBlock runs the seven-step admission protocol under the writer
// lock: height check, proof-of-work, linkage, Merkle recomputation,
// coinbase check, per-transaction signature/UTXO validation against a
// transaction-local shadow index, and finally commit.
func (l *Ledger) SubmitBlock(block *types.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkHeight(block); err != nil {
		return err
	}
	if err := l.checkProofOfWork(block); err != nil {
		return err
	}
	if block.PreviousHash != l.tip {
		return newErr(KindConsensus, "previous_hash %s does not match tip %s", block.PreviousHash, l.tip)
	}
	if err := checkMerkleRoot(block); err != nil {
		return err
	}
	if err := checkCoinbase(block, l.height); err != nil {
		return err
	}

	shadow := l.idx.Clone()
	spentInBlock := make(map[utxo.OutPoint]bool)
	for _, tx := range block.Transactions {
		if tx.IsCoinbase() {
			if err := shadow.Apply(&tx); err != nil {
				return newErr(KindInvariant, "apply coinbase: %v", err)
			}
			continue
		}
		for _, in := range tx.Inputs {
			op := utxo.OutPoint{Txid: in.PrevTxid, Vout: in.PrevVout}
			if spentInBlock[op] {
				return newErr(KindDoubleSpend, "outpoint %s spent twice in block", op)
			}
			spentInBlock[op] = true
		}
		if err := verifyInputSignatures(shadow, &tx); err != nil {
			return err
		}
		if err := shadow.Validate(&tx); err != nil {
			return newErr(KindUTXO, "%v", err)
		}
		if err := shadow.Apply(&tx); err != nil {
			return newErr(KindInvariant, "apply after successful validate: %v", err)
		}
	}

	if err := l.store.SaveBlock(block, block.Index); err != nil {
		return newErr(KindStorage, "persist block: %v", err)
	}

	l.idx = shadow
	l.height = block.Index + 1
	l.tip = block.Hash
	l.recent = append(l.recent, block)
	if len(l.recent) > recentWindow {
		l.recent = l.recent[len(l.recent)-recentWindow:]
	}
	l.mempool.RemoveMined(block.Txids())
	l.observeCommit(block)
	return nil
}

func (l *Ledger) checkHeight(block *types.Block) error {
	if block.Index < l.height {
		return newErr(KindStale, "block index %d already committed (chain height %d)", block.Index, l.height)
	}
	if block.Index != l.height {
		return newErr(KindConsensus, "expected block index %d, got %d", l.height, block.Index)
	}
	return nil
}

func (l *Ledger) checkProofOfWork(block *types.Block) error {
	recomputed, err := canonical.BlockHash(block.Header())
	if err != nil {
		return newErr(KindMalformed, "recompute block hash: %v", err)
	}
	if recomputed != block.Hash {
		return newErr(KindConsensus, "block hash %s does not match recomputed hash %s", block.Hash, recomputed)
	}
	if !crypto.MeetsDifficulty(block.Hash, l.difficulty) {
		return newErr(KindConsensus, "insufficient proof of work: hash %s does not meet difficulty %d", block.Hash, l.difficulty)
	}
	return nil
}

func checkMerkleRoot(block *types.Block) error {
	root, err := crypto.MerkleRoot(block.Txids())
	if err != nil {
		return newErr(KindMalformed, "compute merkle root: %v", err)
	}
	if root != block.MerkleRoot {
		return newErr(KindConsensus, "merkle root %s does not match computed root %s", block.MerkleRoot, root)
	}
	return nil
}

func checkCoinbase(block *types.Block, height uint64) error {
	if len(block.Transactions) == 0 {
		return newErr(KindMalformed, "block has no transactions")
	}
	if !block.Transactions[0].IsCoinbase() {
		return newErr(KindConsensus, "first transaction is not a coinbase")
	}
	for _, tx := range block.Transactions[1:] {
		if tx.IsCoinbase() {
			return newErr(KindConsensus, "block has more than one coinbase transaction")
		}
	}
	cap := Reward(height)
	if sum := block.Transactions[0].OutputSum(); sum > cap {
		return newErr(KindConsensus, "coinbase amount %d exceeds scheduled reward %d", sum, cap)
	}
	return nil
}

// IsChainValid replays the chain from an empty UTXO set, re-checking
// proof-of-work, hash consistency, linkage, Merkle roots, signatures and
// UTXO validity at every height. The genesis coinbase is capped at
// FounderAllocation instead of the scheduled reward. It is purely
// diagnostic and never mutates live state.
func (l *Ledger) IsChainValid() (bool, error) {
	l.mu.Lock()
	height := l.height
	l.mu.Unlock()

	idx := utxo.NewIndex(nil)
	prevHash := types.ZeroHash

	for i := uint64(0); i < height; i++ {
		block, err := l.GetBlockByIndex(i)
		if err != nil {
			return false, fmt.Errorf("load block %d: %w", i, err)
		}

		recomputed, err := canonical.BlockHash(block.Header())
		if err != nil {
			return false, fmt.Errorf("hash block %d: %w", i, err)
		}
		if recomputed != block.Hash {
			return false, fmt.Errorf("block %d: stored hash %s does not match recomputed %s", i, block.Hash, recomputed)
		}
		if !crypto.MeetsDifficulty(block.Hash, block.Difficulty) {
			return false, fmt.Errorf("block %d: hash %s does not meet difficulty %d", i, block.Hash, block.Difficulty)
		}
		if block.PreviousHash != prevHash {
			return false, fmt.Errorf("block %d: previous_hash %s does not match predecessor %s", i, block.PreviousHash, prevHash)
		}
		root, err := crypto.MerkleRoot(block.Txids())
		if err != nil {
			return false, fmt.Errorf("block %d: compute merkle root: %w", i, err)
		}
		if root != block.MerkleRoot {
			return false, fmt.Errorf("block %d: merkle root mismatch", i)
		}
		if i == 0 {
			if cb := block.Coinbase(); cb == nil || !cb.IsCoinbase() || cb.OutputSum() > FounderAllocation {
				return false, fmt.Errorf("block 0: genesis coinbase missing or above the founder allocation")
			}
		} else if err := checkCoinbase(block, i); err != nil {
			return false, fmt.Errorf("block %d: %w", i, err)
		}

		for _, tx := range block.Transactions {
			if tx.IsCoinbase() {
				if err := idx.Apply(&tx); err != nil {
					return false, fmt.Errorf("block %d: apply coinbase: %w", i, err)
				}
				continue
			}
			if err := verifyInputSignatures(idx, &tx); err != nil {
				return false, fmt.Errorf("block %d tx %s: %w", i, tx.Txid, err)
			}
			if err := idx.Validate(&tx); err != nil {
				return false, fmt.Errorf("block %d tx %s: %w", i, tx.Txid, err)
			}
			if err := idx.Apply(&tx); err != nil {
				return false, fmt.Errorf("block %d tx %s: %w", i, tx.Txid, err)
			}
		}

		prevHash = block.Hash
	}

	return true, nil
}
